package retirement

import (
	"errors"
	"fmt"

	"github.com/warp/retirement-engine/calendar"
)

// Accepted policy ranges and the minimum age at first appointment. Compute
// does not enforce any of these.
const (
	MinRetirementAge     = 40
	MaxRetirementAge     = 80
	MinServiceCap        = 5
	MaxServiceCap        = 50
	MinResearchFellowAge = 40
	MaxResearchFellowAge = 80

	MinimumAppointmentAge = 16
)

// ValidateInputs applies the form checks for one employee: DOB strictly in
// the past, DOA strictly after DOB, and at least MinimumAppointmentAge years
// of age at appointment.
func ValidateInputs(in Inputs, today calendar.Date) error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, &ValidationError{Field: field, Message: msg, kind: ErrInvalidInput})
	}

	if in.DOB.IsZero() {
		add("dob", "Date of Birth is required")
	}
	if in.DOA.IsZero() {
		add("doa", "Date of First Appointment is required")
	}
	if len(errs) > 0 {
		return errs
	}

	if !in.DOB.Before(today) {
		add("dob", "Date of Birth must be in the past")
	}
	if !in.DOA.After(in.DOB) {
		add("doa", "Date of First Appointment must be after Date of Birth")
	}
	if in.DOA.Before(in.DOB.AddYears(MinimumAppointmentAge)) {
		add("doa", fmt.Sprintf("Employee must be at least %d years old at appointment", MinimumAppointmentAge))
	}
	return errs.orNil()
}

// ValidateConfig checks a policy against the accepted ranges.
func ValidateConfig(cfg Config) error {
	var errs ValidationErrors
	check := func(field string, v, lo, hi int, label string) {
		if v < lo || v > hi {
			errs = append(errs, &ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s must be between %d and %d", label, lo, hi),
				kind:    ErrInvalidConfig,
			})
		}
	}

	check("retirement_age", cfg.RetirementAge, MinRetirementAge, MaxRetirementAge, "Retirement age")
	check("service_cap", cfg.ServiceCap, MinServiceCap, MaxServiceCap, "Service cap")
	check("research_fellow_age", cfg.ResearchFellowAge, MinResearchFellowAge, MaxResearchFellowAge, "Research Fellow age")
	if cfg.CutoffDate.IsZero() {
		errs = append(errs, &ValidationError{Field: "cutoff_date", Message: "Cutoff date is required", kind: ErrInvalidConfig})
	}
	return errs.orNil()
}

// Validate runs ValidateInputs and ValidateConfig and reports every failure
// from both.
func Validate(in Inputs, cfg Config, today calendar.Date) error {
	var errs ValidationErrors
	for _, err := range []error{ValidateInputs(in, today), ValidateConfig(cfg)} {
		var v ValidationErrors
		if errors.As(err, &v) {
			errs = append(errs, v...)
		}
	}
	return errs.orNil()
}
