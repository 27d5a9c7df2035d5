package calendar

import "errors"

// ErrInvalidDate is returned for date strings that are malformed or name a
// day that does not exist.
var ErrInvalidDate = errors.New("invalid date")
