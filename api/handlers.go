/*
handlers.go - HTTP API handlers for the retirement engine

PURPOSE:
  Exposes the retirement engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine, the profile registry and
  the settings service.

ENDPOINTS:
  Retirement:
    POST   /api/retirement             Compute one retirement date

  Profiles:
    GET    /api/profiles               List jurisdiction profiles
    POST   /api/profiles               Register a custom profile
    GET    /api/profiles/{id}          Get one profile
    DELETE /api/profiles/{id}          Remove a custom profile

  Settings:
    GET    /api/settings               Current policy selection
    PUT    /api/settings               Override individual fields
    POST   /api/settings/profile       Switch to a profile
    POST   /api/settings/reset         Back to the defaults

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/{id}/run     Run a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Engine: the pure computation (with its clock)
  - Profiles: jurisdiction registry
  - Settings: policy source; each computation reads one snapshot
  - ProfileStore: optional persistence for custom profiles

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve the config (explicit > profile > settings snapshot)
  3. Validate when asked (strict)
  4. Call the engine
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed dates or configs
  - 404: Unknown profile
  - 409: Duplicate profile, built-in profile removal
  - 500: Storage failures

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenarios
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/warp/retirement-engine/calendar"
	"github.com/warp/retirement-engine/factory"
	"github.com/warp/retirement-engine/profile"
	"github.com/warp/retirement-engine/retirement"
	"github.com/warp/retirement-engine/settings"
)

// ProfileStore persists custom profiles. store/sqlite.Store implements it.
type ProfileStore interface {
	SaveProfile(ctx context.Context, p profile.Profile) error
	ListProfiles(ctx context.Context) ([]profile.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine       *retirement.Engine
	Profiles     *profile.Registry
	Settings     *settings.Service
	ProfileStore ProfileStore

	logger *zap.Logger
	loc    *time.Location
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithProfileStore persists custom profiles registered through the API.
func WithProfileStore(s ProfileStore) HandlerOption {
	return func(h *Handler) { h.ProfileStore = s }
}

// WithLogger sets the handler logger. The default discards everything.
func WithLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// WithLocation sets the time zone that decides "today" for strict input
// checks. Defaults to UTC.
func WithLocation(loc *time.Location) HandlerOption {
	return func(h *Handler) { h.loc = loc }
}

// NewHandler creates a handler.
func NewHandler(engine *retirement.Engine, profiles *profile.Registry, svc *settings.Service, opts ...HandlerOption) *Handler {
	h := &Handler{
		Engine:   engine,
		Profiles: profiles,
		Settings: svc,
		logger:   zap.NewNop(),
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// LoadProfiles registers every persisted custom profile. Profiles that no
// longer pass validation are skipped and logged.
func (h *Handler) LoadProfiles(ctx context.Context) error {
	if h.ProfileStore == nil {
		return nil
	}
	stored, err := h.ProfileStore.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	for _, p := range stored {
		if err := h.Profiles.Register(p); err != nil {
			h.logger.Warn("skipping stored profile", zap.String("profile_id", p.ID), zap.Error(err))
		}
	}
	return nil
}

// =============================================================================
// RETIREMENT
// =============================================================================

// ComputeRetirement computes one retirement date.
// POST /api/retirement
func (h *Handler) ComputeRetirement(w http.ResponseWriter, r *http.Request) {
	var req RetirementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	in, err := parseInputs(req.DOB, req.DOA, req.IsResearchFellow)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	cfg, profileID, err := h.resolveConfig(ctx, req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	if req.Strict {
		today := calendar.DateOf(h.Engine.Now().In(h.loc))
		if err := retirement.Validate(in, cfg, today); err != nil {
			h.writeDomainError(w, r, err)
			return
		}
	}

	res := h.Engine.ComputeInputs(in, cfg)
	h.logger.Debug("retirement computed",
		zap.String("request_id", middleware.GetReqID(ctx)),
		zap.String("trigger", string(res.Trigger)),
		zap.String("retirement_date", res.RetirementDate.String()),
		zap.String("profile_id", profileID),
	)

	writeJSON(w, http.StatusOK, NewRetirementDTO(res, profileID))
}

// resolveConfig picks the policy for one computation: an explicit config,
// then a named profile, then the current settings snapshot.
func (h *Handler) resolveConfig(ctx context.Context, req RetirementRequest) (retirement.Config, string, error) {
	if req.Config != nil {
		cfg, err := req.Config.ToConfig()
		return cfg, "", err
	}
	if req.ProfileID != "" {
		p, err := h.Profiles.Get(req.ProfileID)
		if err != nil {
			return retirement.Config{}, "", err
		}
		return p.Config, p.ID, nil
	}
	st, err := h.Settings.Current(ctx)
	if err != nil {
		return retirement.Config{}, "", err
	}
	return st.Config, st.ProfileID, nil
}

// parseInputs parses both dates, reporting every bad field at once.
func parseInputs(dob, doa string, isResearchFellow bool) (retirement.Inputs, error) {
	var errs retirement.ValidationErrors
	parse := func(field, label, value string) calendar.Date {
		if value == "" {
			errs = append(errs, retirement.NewInputError(field, label+" is required"))
			return calendar.Date{}
		}
		d, err := calendar.ParseDate(value)
		if err != nil {
			errs = append(errs, retirement.NewInputError(field, label+" must be a valid YYYY-MM-DD date"))
		}
		return d
	}

	in := retirement.Inputs{
		DOB:              parse("dob", "Date of Birth", dob),
		DOA:              parse("doa", "Date of First Appointment", doa),
		IsResearchFellow: isResearchFellow,
	}
	if len(errs) > 0 {
		return retirement.Inputs{}, errs
	}
	return in, nil
}

// =============================================================================
// PROFILES
// =============================================================================

// ListProfiles returns all profiles, built-ins first.
// GET /api/profiles
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	list := h.Profiles.List()
	dtos := make([]ProfileDTO, 0, len(list))
	for _, p := range list {
		dtos = append(dtos, factory.FromProfile(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProfile returns one profile.
// GET /api/profiles/{id}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, factory.FromProfile(p))
}

// CreateProfile registers a custom profile and persists it when a store is
// configured.
// POST /api/profiles
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := req.ToProfile()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.Profiles.Register(p); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	stored, err := h.Profiles.Get(p.ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if h.ProfileStore != nil {
		if err := h.ProfileStore.SaveProfile(r.Context(), stored); err != nil {
			_ = h.Profiles.Remove(stored.ID)
			h.logger.Error("failed to persist profile", zap.String("profile_id", stored.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to save profile", err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, factory.FromProfile(stored))
}

// DeleteProfile removes a custom profile. If the store delete fails the
// registry entry is put back.
// DELETE /api/profiles/{id}
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.Profiles.Remove(p.ID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if h.ProfileStore != nil {
		if err := h.ProfileStore.DeleteProfile(r.Context(), p.ID); err != nil {
			if rerr := h.Profiles.Register(p); rerr != nil {
				h.logger.Error("failed to restore profile", zap.String("profile_id", p.ID), zap.Error(rerr))
			}
			h.logger.Error("failed to delete stored profile", zap.String("profile_id", p.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to delete profile", err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetSettings returns the current policy selection.
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.Settings.Current(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(st))
}

// UpdateSettings overrides individual fields.
// PUT /api/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := settings.Patch{
		RetirementAge:     req.RetirementAge,
		ServiceCap:        req.ServiceCap,
		ResearchFellowAge: req.ResearchFellowAge,
	}
	if req.CutoffDate != nil {
		d, err := calendar.ParseDate(*req.CutoffDate)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		patch.CutoffDate = &d
	}
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, "No settings to update", nil)
		return
	}

	st, err := h.Settings.Update(r.Context(), patch)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.logger.Info("settings updated", zap.String("profile_id", st.ProfileID))
	writeJSON(w, http.StatusOK, toSettingsDTO(st))
}

// ApplySettingsProfile switches the settings to a profile.
// POST /api/settings/profile
func (h *Handler) ApplySettingsProfile(w http.ResponseWriter, r *http.Request) {
	var req ApplyProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ProfileID == "" {
		writeError(w, http.StatusBadRequest, "profile_id is required", nil)
		return
	}

	st, err := h.Settings.ApplyProfile(r.Context(), req.ProfileID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.logger.Info("settings profile applied", zap.String("profile_id", st.ProfileID))
	writeJSON(w, http.StatusOK, toSettingsDTO(st))
}

// ResetSettings restores the defaults.
// POST /api/settings/reset
func (h *Handler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.Settings.Reset(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(st))
}

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok", Profiles: len(h.Profiles.List())})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine, profile, factory and storage errors to a
// status code and error code.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs retirement.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Code:    "validation_failed",
			Details: verrs.Fields(),
		})
	case retirement.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Code: "validation_failed", Details: err.Error()})
	case errors.Is(err, calendar.ErrInvalidDate):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid date", Code: "invalid_date", Details: err.Error()})
	case errors.Is(err, factory.ErrMalformedConfig):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Malformed config", Code: "malformed_config", Details: err.Error()})
	case errors.Is(err, profile.ErrInvalidProfile):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid profile", Code: "invalid_profile", Details: err.Error()})
	case errors.Is(err, profile.ErrProfileNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Profile not found", Code: "profile_not_found", Details: err.Error()})
	case errors.Is(err, profile.ErrDuplicateProfile):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "Profile already exists", Code: "duplicate_profile", Details: err.Error()})
	case errors.Is(err, profile.ErrBuiltInProfile):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "Built-in profiles cannot be removed", Code: "built_in_profile", Details: err.Error()})
	default:
		h.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func strPtr(s string) *string {
	return &s
}
