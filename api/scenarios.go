/*
scenarios.go - Demo scenarios for testing and demonstrations

PURPOSE:

	Provides canned employee records that each exercise one rule of the
	engine. Running a scenario computes it against its own profile, never
	against the current settings, so the expected trigger always holds.

AVAILABLE SCENARIOS:

	age-limit:       Mandatory age reached before the service cap
	service-limit:   Early appointment, service cap reached first
	tie-break:       Both limits on the same day; the age limit wins
	research-fellow: Research Fellow override
	post-cutoff:     Appointed after the cutoff date, no pre-cutoff service
	leap-day:        29 February birthday clamped to 28 February

USAGE VIA API:

	GET  /api/scenarios
	POST /api/scenarios/tie-break/run

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, profile, inputs and expected trigger
 2. The scenario test checks the expected trigger automatically

SEE ALSO:
  - handlers.go: ComputeRetirement uses the same DTO
  - profile/presets.go: Profiles the scenarios run against
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/retirement-engine/profile"
	"github.com/warp/retirement-engine/retirement"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:              "age-limit",
		Name:            "Age Limit",
		Description:     "Appointed at 30; turns 60 five years before reaching 35 years of service",
		ProfileID:       profile.IDNigeria,
		DOB:             "1970-01-01",
		DOA:             "2000-01-01",
		ExpectedTrigger: retirement.TriggerAgeLimit,
	},
	{
		ID:              "service-limit",
		Name:            "Service Limit",
		Description:     "Appointed at 19; completes 35 years of service before turning 60",
		ProfileID:       profile.IDNigeria,
		DOB:             "1970-06-15",
		DOA:             "1990-03-01",
		ExpectedTrigger: retirement.TriggerServiceLimit,
	},
	{
		ID:              "tie-break",
		Name:            "Tie Break",
		Description:     "Both limits fall on 01 January 2030; the age limit is reported",
		ProfileID:       profile.IDNigeria,
		DOB:             "1970-01-01",
		DOA:             "1995-01-01",
		ExpectedTrigger: retirement.TriggerAgeLimit,
	},
	{
		ID:               "research-fellow",
		Name:             "Research Fellow",
		Description:      "Research Fellow retiring at 65 regardless of service",
		ProfileID:        profile.IDNigeria,
		DOB:              "1965-05-20",
		DOA:              "1990-08-01",
		IsResearchFellow: true,
		ExpectedTrigger:  retirement.TriggerResearchFellow,
	},
	{
		ID:              "post-cutoff",
		Name:            "Post-Cutoff Appointment",
		Description:     "Appointed after 30 June 2004; no service before the cutoff",
		ProfileID:       profile.IDNigeria,
		DOB:             "1985-03-10",
		DOA:             "2010-09-01",
		ExpectedTrigger: retirement.TriggerAgeLimit,
	},
	{
		ID:              "leap-day",
		Name:            "Leap-Day Birthday",
		Description:     "Born 29 February 1972; turns 62 on 28 February 2034 under FERS",
		ProfileID:       profile.IDUnitedStates,
		DOB:             "1972-02-29",
		DOA:             "2005-01-01",
		ExpectedTrigger: retirement.TriggerAgeLimit,
	},
}

func findScenario(id string) (ScenarioDTO, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return ScenarioDTO{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// RunScenario computes a scenario against its profile.
// POST /api/scenarios/{id}/run
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	s, ok := findScenario(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Unknown scenario", Code: "scenario_not_found"})
		return
	}

	p, err := h.Profiles.Get(s.ProfileID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	in, err := parseInputs(s.DOB, s.DOA, s.IsResearchFellow)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	res := h.Engine.ComputeInputs(in, p.Config)
	if res.Trigger != s.ExpectedTrigger {
		h.logger.Warn("scenario trigger mismatch",
			zap.String("scenario", s.ID),
			zap.String("expected", string(s.ExpectedTrigger)),
			zap.String("actual", string(res.Trigger)),
		)
	}

	writeJSON(w, http.StatusOK, ScenarioRunDTO{Scenario: s, Result: NewRetirementDTO(res, p.ID)})
}
