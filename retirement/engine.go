package retirement

import (
	"time"

	"github.com/warp/retirement-engine/calendar"
)

// =============================================================================
// CLOCK - The only non-deterministic input (Result.ComputedAt)
// =============================================================================

// Clock supplies the computation timestamp.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes retirement results. It holds no state besides its clock
// and is safe for concurrent use.
type Engine struct {
	clock Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects the clock used for Result.ComputedAt.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// NewEngine returns an engine on the system clock unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{clock: SystemClock}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now reads the engine clock.
func (e *Engine) Now() time.Time { return e.clock.Now() }

var defaultEngine = NewEngine()

// Compute runs the default engine.
func Compute(dob, doa calendar.Date, isResearchFellow bool, cfg Config) Result {
	return defaultEngine.Compute(dob, doa, isResearchFellow, cfg)
}

// Compute resolves the binding rule and builds the full result. It never
// fails; inconsistent inputs yield mechanically computed figures.
func (e *Engine) Compute(dob, doa calendar.Date, isResearchFellow bool, cfg Config) Result {
	outcome := resolve(dob, doa, isResearchFellow, cfg)
	retirementDate := outcome.RetirementDate()

	return Result{
		RetirementDate:  retirementDate,
		Trigger:         outcome.Trigger(),
		Label:           Label(outcome, cfg),
		Description:     Describe(outcome, cfg),
		Outcome:         outcome,
		TotalService:    calendar.ExactDifference(doa, retirementDate),
		ServiceToCutoff: ServiceToCutoff(doa, cfg.CutoffDate),
		Inputs:          Inputs{DOB: dob, DOA: doa, IsResearchFellow: isResearchFellow},
		Config:          cfg,
		ComputedAt:      e.clock.Now(),
	}
}

// ComputeInputs is Compute over an Inputs value.
func (e *Engine) ComputeInputs(in Inputs, cfg Config) Result {
	return e.Compute(in.DOB, in.DOA, in.IsResearchFellow, cfg)
}

func resolve(dob, doa calendar.Date, isResearchFellow bool, cfg Config) Outcome {
	if isResearchFellow {
		return ResearchFellowOutcome{
			Age:  cfg.ResearchFellowAge,
			Date: dob.AddYears(cfg.ResearchFellowAge),
		}
	}

	limits := Limits{
		AgeLimitDate:     dob.AddYears(cfg.RetirementAge),
		ServiceLimitDate: doa.AddYears(cfg.ServiceCap),
	}
	// A tie goes to the age limit.
	if limits.AgeLimitDate.BeforeOrEqual(limits.ServiceLimitDate) {
		return AgeLimitOutcome{Limits: limits}
	}
	return ServiceLimitOutcome{Limits: limits}
}

// ServiceToCutoff is the service accrued before the cutoff date, or nil when
// the appointment is on or after it.
func ServiceToCutoff(doa, cutoff calendar.Date) *calendar.Duration {
	if doa.AfterOrEqual(cutoff) {
		return nil
	}
	d := calendar.ExactDifference(doa, cutoff)
	return &d
}
