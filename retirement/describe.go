package retirement

import "fmt"

// Label is the short heading shown for the binding rule.
func Label(o Outcome, cfg Config) string {
	switch o.(type) {
	case AgeLimitOutcome:
		return fmt.Sprintf("Mandatory Retirement Age (%d)", cfg.RetirementAge)
	case ServiceLimitOutcome:
		return fmt.Sprintf("Service Cap (%d Years)", cfg.ServiceCap)
	case ResearchFellowOutcome:
		return "Research Fellow Age Limit"
	default:
		return ""
	}
}

// Describe explains the binding rule. Standard outcomes name the date of the
// rule that did not win as well, so the result can be audited without
// recomputing it.
func Describe(o Outcome, cfg Config) string {
	switch o := o.(type) {
	case AgeLimitOutcome:
		return fmt.Sprintf(
			"Retirement is triggered by reaching the mandatory retirement age of %d on %s. "+
				"This occurs no later than the service cap of %d years, which would be reached on %s.",
			cfg.RetirementAge, o.AgeLimitDate.Institutional(),
			cfg.ServiceCap, o.ServiceLimitDate.Institutional())
	case ServiceLimitOutcome:
		return fmt.Sprintf(
			"Retirement is triggered by reaching the maximum service period of %d years on %s. "+
				"This occurs before the age limit of %d, which would be reached on %s.",
			cfg.ServiceCap, o.ServiceLimitDate.Institutional(),
			cfg.RetirementAge, o.AgeLimitDate.Institutional())
	case ResearchFellowOutcome:
		return fmt.Sprintf(
			"Retirement is governed by the Research Fellow provision. "+
				"Mandatory retirement occurs at age %d on %s, overriding all service limits.",
			o.Age, o.Date.Institutional())
	default:
		return ""
	}
}
