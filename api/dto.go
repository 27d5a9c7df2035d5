/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's Go types from the external API contract: dates travel as
  ISO strings, the sealed Outcome becomes flat nullable fields, and the
  decimal usage ratio becomes a string.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Retirement:
    RetirementRequest, RetirementDTO

  Profiles:
    ProfileDTO (factory.ProfileJSON)

  Settings:
    SettingsDTO, UpdateSettingsRequest, ApplyProfileRequest

  Scenarios:
    ScenarioDTO, ScenarioRunDTO

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/profile.go: ProfileJSON and ConfigJSON
*/
package api

import (
	"time"

	"github.com/warp/retirement-engine/calendar"
	"github.com/warp/retirement-engine/factory"
	"github.com/warp/retirement-engine/retirement"
	"github.com/warp/retirement-engine/settings"
)

// =============================================================================
// RETIREMENT
// =============================================================================

// RetirementRequest is the body of POST /api/retirement.
//
// Config precedence: Config, then ProfileID, then the current settings.
// Strict runs the form checks (DOB in the past, DOA after DOB, minimum
// appointment age, config ranges) before computing.
type RetirementRequest struct {
	DOB              string              `json:"dob"`
	DOA              string              `json:"doa"`
	IsResearchFellow bool                `json:"is_research_fellow"`
	ProfileID        string              `json:"profile_id,omitempty"`
	Config           *factory.ConfigJSON `json:"config,omitempty"`
	Strict           bool                `json:"strict,omitempty"`
}

// RetirementDTO is one computed retirement.
type RetirementDTO struct {
	RetirementDate          string             `json:"retirement_date"`
	FormattedRetirementDate string             `json:"formatted_retirement_date"`
	Trigger                 retirement.Trigger `json:"trigger"`
	Label                   string             `json:"label"`
	Description             string             `json:"description"`
	AgeLimitDate            *string            `json:"age_limit_date"`
	ServiceLimitDate        *string            `json:"service_limit_date"`
	TotalService            calendar.Duration  `json:"total_service"`
	ServiceToCutoff         *calendar.Duration `json:"service_to_cutoff"`
	ServiceCapUsage         *string            `json:"service_cap_usage"`
	Inputs                  retirement.Inputs  `json:"inputs"`
	Config                  factory.ConfigJSON `json:"config"`
	ProfileID               string             `json:"profile_id,omitempty"`
	ComputedAt              time.Time          `json:"computed_at"`
}

// NewRetirementDTO flattens a result. profileID names where the config came
// from and is empty for an explicit config.
func NewRetirementDTO(res retirement.Result, profileID string) RetirementDTO {
	dto := RetirementDTO{
		RetirementDate:          res.RetirementDate.String(),
		FormattedRetirementDate: res.FormattedRetirementDate(),
		Trigger:                 res.Trigger,
		Label:                   res.Label,
		Description:             res.Description,
		TotalService:            res.TotalService,
		ServiceToCutoff:         res.ServiceToCutoff,
		Inputs:                  res.Inputs,
		Config:                  factory.FromConfig(res.Config),
		ProfileID:               profileID,
		ComputedAt:              res.ComputedAt,
	}
	if d, ok := res.AgeLimitDate(); ok {
		dto.AgeLimitDate = strPtr(d.String())
	}
	if d, ok := res.ServiceLimitDate(); ok {
		dto.ServiceLimitDate = strPtr(d.String())
	}
	if usage, ok := res.ServiceCapUsage(); ok {
		dto.ServiceCapUsage = strPtr(usage.StringFixed(4))
	}
	return dto
}

// =============================================================================
// PROFILES
// =============================================================================

// ProfileDTO is a jurisdiction profile in API requests and responses.
type ProfileDTO = factory.ProfileJSON

// =============================================================================
// SETTINGS
// =============================================================================

// SettingsDTO is the current policy selection.
type SettingsDTO struct {
	ProfileID string             `json:"profile_id"`
	Config    factory.ConfigJSON `json:"config"`
	UpdatedAt *time.Time         `json:"updated_at"`
}

func toSettingsDTO(st settings.Settings) SettingsDTO {
	dto := SettingsDTO{
		ProfileID: st.ProfileID,
		Config:    factory.FromConfig(st.Config),
	}
	if !st.UpdatedAt.IsZero() {
		t := st.UpdatedAt
		dto.UpdatedAt = &t
	}
	return dto
}

// UpdateSettingsRequest is the body of PUT /api/settings. Omitted fields
// keep their current value.
type UpdateSettingsRequest struct {
	RetirementAge     *int    `json:"retirement_age,omitempty"`
	ServiceCap        *int    `json:"service_cap,omitempty"`
	ResearchFellowAge *int    `json:"research_fellow_age,omitempty"`
	CutoffDate        *string `json:"cutoff_date,omitempty"`
}

// ApplyProfileRequest is the body of POST /api/settings/profile.
type ApplyProfileRequest struct {
	ProfileID string `json:"profile_id"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a canned demonstration input.
type ScenarioDTO struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	ProfileID        string             `json:"profile_id"`
	DOB              string             `json:"dob"`
	DOA              string             `json:"doa"`
	IsResearchFellow bool               `json:"is_research_fellow"`
	ExpectedTrigger  retirement.Trigger `json:"expected_trigger"`
}

// ScenarioRunDTO is a scenario with its computed result.
type ScenarioRunDTO struct {
	Scenario ScenarioDTO   `json:"scenario"`
	Result   RetirementDTO `json:"result"`
}

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// HealthDTO is the body of GET /healthz.
type HealthDTO struct {
	Status   string `json:"status"`
	Profiles int    `json:"profiles"`
}
