package profile

import (
	"time"

	"github.com/warp/retirement-engine/calendar"
	"github.com/warp/retirement-engine/retirement"
)

// Built-in profile IDs.
const (
	IDNigeria       = "NG"
	IDUnitedKingdom = "GB"
	IDUnitedStates  = "US"
	IDCustom        = "CUSTOM"

	DefaultProfileID = IDNigeria
)

// Presets returns fresh copies of the built-in jurisdiction profiles.
func Presets() []Profile {
	return []Profile{
		{
			ID:          IDNigeria,
			Name:        "Nigeria",
			Description: "Federal Civil Service Commission regulations",
			Config: retirement.Config{
				RetirementAge:     60,
				ServiceCap:        35,
				ResearchFellowAge: 65,
				CutoffDate:        calendar.NewDate(2004, time.June, 30),
			},
			Notes: []string{
				"Governed by the Pension Reform Act 2014",
				"Research Fellows retire at 65 per NUC guidelines",
				"Cutoff date of 30 June 2004 per Harmonized Terms & Conditions of Service",
			},
		},
		{
			ID:          IDUnitedKingdom,
			Name:        "United Kingdom",
			Description: "Public sector pension and retirement framework",
			Config: retirement.Config{
				RetirementAge:     66,
				ServiceCap:        40,
				ResearchFellowAge: 68,
				CutoffDate:        calendar.NewDate(2006, time.April, 1),
			},
			Notes: []string{
				"State Pension Age currently 66, rising to 67 by 2028",
				"Civil Service Pension Scheme alpha applies to most staff",
				"Mandatory retirement age largely abolished under Equality Act 2010",
			},
		},
		{
			ID:          IDUnitedStates,
			Name:        "United States",
			Description: "Federal Employee Retirement System (FERS)",
			Config: retirement.Config{
				RetirementAge:     62,
				ServiceCap:        30,
				ResearchFellowAge: 70,
				CutoffDate:        calendar.NewDate(2003, time.January, 1),
			},
			Notes: []string{
				"FERS Minimum Retirement Age is 55-57 depending on birth year",
				"Immediate retirement at 62 with 5+ years of service",
				"Research/Senior roles may defer under FERS supplemental provisions",
			},
		},
		{
			ID:          IDCustom,
			Name:        "Custom Configuration",
			Description: "Define your own jurisdiction-specific rules",
			Config:      retirement.DefaultConfig,
			Notes: []string{
				"Fully configurable; adjust all parameters as required",
				"Suitable for institutional, regional, or custom regulatory environments",
			},
		},
	}
}
