/*
Package retirement resolves which statutory rule retires an employee, and when.

PURPOSE:
  Given a date of birth, a date of first appointment, the Research Fellow
  flag and a policy (Config), the engine picks exactly one binding rule and
  reports the retirement date together with the figures an administrator
  needs to audit it: both candidate limit dates, total service and service
  to the policy cutoff date.

KEY CONCEPTS IN THIS FILE (types.go):
  - Config: the policy snapshot (immutable per computation)
  - Trigger: AGE_LIMIT | SERVICE_LIMIT | RESEARCH_FELLOW
  - Outcome: closed sum type; only the standard variants carry limit dates
  - Result: the complete, create-once output record

RULES (engine.go):
  Research Fellow:  DOB + ResearchFellowAge, overrides everything
  Standard:         earlier of DOB + RetirementAge and DOA + ServiceCap,
                    equality resolves to AGE_LIMIT

PERMISSIVENESS:
  The engine never rejects input. DOA <= DOB or odd ages produce a
  mechanically correct (possibly negative) result. Callers validate first
  with ValidateInputs / ValidateConfig (validate.go).

SEE ALSO:
  - calendar/duration.go: ExactDifference
  - profile/presets.go: jurisdiction presets (caller-side data)
*/
package retirement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/retirement-engine/calendar"
)

// =============================================================================
// CONFIG - Policy snapshot
// =============================================================================

// Config is the retirement policy. It is passed by value, so a computation
// always works on its own copy.
type Config struct {
	RetirementAge     int           `json:"retirement_age"`
	ServiceCap        int           `json:"service_cap"`
	ResearchFellowAge int           `json:"research_fellow_age"`
	CutoffDate        calendar.Date `json:"cutoff_date"`
}

// DefaultConfig is the Nigerian federal civil service policy.
var DefaultConfig = Config{
	RetirementAge:     60,
	ServiceCap:        35,
	ResearchFellowAge: 65,
	CutoffDate:        calendar.NewDate(2004, time.June, 30),
}

// Inputs are the per-employee values of one computation.
type Inputs struct {
	DOB              calendar.Date `json:"dob"`
	DOA              calendar.Date `json:"doa"`
	IsResearchFellow bool          `json:"is_research_fellow"`
}

// =============================================================================
// TRIGGER
// =============================================================================

// Trigger names the rule that fixed the retirement date.
type Trigger string

const (
	TriggerAgeLimit       Trigger = "AGE_LIMIT"
	TriggerServiceLimit   Trigger = "SERVICE_LIMIT"
	TriggerResearchFellow Trigger = "RESEARCH_FELLOW"
)

// Valid reports whether t is one of the three known triggers.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerAgeLimit, TriggerServiceLimit, TriggerResearchFellow:
		return true
	}
	return false
}

// =============================================================================
// OUTCOME - Closed sum type over triggers
// =============================================================================

// Outcome is implemented only by AgeLimitOutcome, ServiceLimitOutcome and
// ResearchFellowOutcome.
type Outcome interface {
	Trigger() Trigger
	RetirementDate() calendar.Date
	sealed()
}

// Limits are the two standard-rule comparator dates.
type Limits struct {
	AgeLimitDate     calendar.Date `json:"age_limit_date"`
	ServiceLimitDate calendar.Date `json:"service_limit_date"`
}

// AgeLimitOutcome: the age limit came first (or tied with the service cap).
type AgeLimitOutcome struct{ Limits }

func (AgeLimitOutcome) Trigger() Trigger                { return TriggerAgeLimit }
func (o AgeLimitOutcome) RetirementDate() calendar.Date { return o.AgeLimitDate }
func (AgeLimitOutcome) sealed()                         {}

// ServiceLimitOutcome: the service cap came strictly first.
type ServiceLimitOutcome struct{ Limits }

func (ServiceLimitOutcome) Trigger() Trigger                { return TriggerServiceLimit }
func (o ServiceLimitOutcome) RetirementDate() calendar.Date { return o.ServiceLimitDate }
func (ServiceLimitOutcome) sealed()                         {}

// ResearchFellowOutcome carries no limit dates; the override supersedes them.
type ResearchFellowOutcome struct {
	Age  int
	Date calendar.Date
}

func (ResearchFellowOutcome) Trigger() Trigger                { return TriggerResearchFellow }
func (o ResearchFellowOutcome) RetirementDate() calendar.Date { return o.Date }
func (ResearchFellowOutcome) sealed()                         {}

// =============================================================================
// RESULT
// =============================================================================

// Result is one computation. It is never mutated after Compute returns.
type Result struct {
	RetirementDate  calendar.Date
	Trigger         Trigger
	Label           string
	Description     string
	Outcome         Outcome
	TotalService    calendar.Duration
	ServiceToCutoff *calendar.Duration // nil when DOA is on or after the cutoff
	Inputs          Inputs
	Config          Config
	ComputedAt      time.Time
}

// FormattedRetirementDate renders the retirement date as "01 January 2030".
func (r Result) FormattedRetirementDate() string {
	return r.RetirementDate.Institutional()
}

// AgeLimitDate is reported only by the standard rule.
func (r Result) AgeLimitDate() (calendar.Date, bool) {
	if l, ok := r.limits(); ok {
		return l.AgeLimitDate, true
	}
	return calendar.Date{}, false
}

// ServiceLimitDate is reported only by the standard rule.
func (r Result) ServiceLimitDate() (calendar.Date, bool) {
	if l, ok := r.limits(); ok {
		return l.ServiceLimitDate, true
	}
	return calendar.Date{}, false
}

// ServiceCapUsage is the share of the service cap served by retirement:
// total service days over the days from appointment to the service limit,
// rounded to 4 places. Unavailable for Research Fellows and for a
// non-positive cap span.
func (r Result) ServiceCapUsage() (decimal.Decimal, bool) {
	serviceLimit, ok := r.ServiceLimitDate()
	if !ok {
		return decimal.Zero, false
	}
	span := calendar.DaysBetween(r.Inputs.DOA, serviceLimit)
	if span <= 0 {
		return decimal.Zero, false
	}
	served := decimal.NewFromInt(int64(r.TotalService.TotalDays))
	return served.DivRound(decimal.NewFromInt(int64(span)), 4), true
}

func (r Result) limits() (Limits, bool) {
	switch o := r.Outcome.(type) {
	case AgeLimitOutcome:
		return o.Limits, true
	case ServiceLimitOutcome:
		return o.Limits, true
	default:
		return Limits{}, false
	}
}
