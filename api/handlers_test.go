/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Retirement computation and config precedence
- Profile registration, persistence and removal
- Settings updates, profile switching and reset
- Error mapping
*/
package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/warp/retirement-engine/factory"
	"github.com/warp/retirement-engine/profile"
	"github.com/warp/retirement-engine/retirement"
	"github.com/warp/retirement-engine/settings"
	"github.com/warp/retirement-engine/store/sqlite"
)

var testNow = time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)

type testServer struct {
	handler *Handler
	store   *sqlite.Store
	router  http.Handler
}

func setupTestServer(t *testing.T, opts ...HandlerOption) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := retirement.FixedClock(testNow)
	registry := profile.NewRegistry()
	svc := settings.NewService(store, registry, settings.WithClock(clock))

	opts = append([]HandlerOption{WithProfileStore(store)}, opts...)
	h := NewHandler(retirement.NewEngine(retirement.WithClock(clock)), registry, svc, opts...)
	return &testServer{handler: h, store: store, router: NewRouter(h)}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func intPtr(n int) *int { return &n }

// =============================================================================
// RETIREMENT
// =============================================================================

func TestComputeRetirement_UsesSettingsByDefault(t *testing.T) {
	// GIVEN: Default settings (Nigeria)
	s := setupTestServer(t)

	// WHEN: Computing for someone appointed at 30
	rec := s.do(t, http.MethodPost, "/api/retirement", RetirementRequest{DOB: "1970-01-01", DOA: "2000-01-01"})

	// THEN: The age limit binds
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[RetirementDTO](t, rec)

	assert.Equal(t, "2030-01-01", dto.RetirementDate)
	assert.Equal(t, "01 January 2030", dto.FormattedRetirementDate)
	assert.Equal(t, retirement.TriggerAgeLimit, dto.Trigger)
	assert.Equal(t, "Mandatory Retirement Age (60)", dto.Label)
	require.NotNil(t, dto.AgeLimitDate)
	assert.Equal(t, "2030-01-01", *dto.AgeLimitDate)
	require.NotNil(t, dto.ServiceLimitDate)
	assert.Equal(t, "2035-01-01", *dto.ServiceLimitDate)

	assert.Equal(t, 30, dto.TotalService.Years)
	assert.Equal(t, 10958, dto.TotalService.TotalDays)
	assert.Equal(t, "30 years", dto.TotalService.Formatted)

	require.NotNil(t, dto.ServiceToCutoff)
	assert.Equal(t, "4 years, 5 months, 29 days", dto.ServiceToCutoff.Formatted)
	assert.Equal(t, 1642, dto.ServiceToCutoff.TotalDays)

	require.NotNil(t, dto.ServiceCapUsage)
	assert.Equal(t, "0.8572", *dto.ServiceCapUsage)

	assert.Equal(t, profile.IDNigeria, dto.ProfileID)
	assert.Equal(t, "2004-06-30", dto.Config.CutoffDate)
	assert.True(t, testNow.Equal(dto.ComputedAt))
}

func TestComputeRetirement_ResearchFellowHasNoLimitDates(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/retirement", RetirementRequest{DOB: "1965-05-20", DOA: "1990-08-01", IsResearchFellow: true})

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[RetirementDTO](t, rec)
	assert.Equal(t, retirement.TriggerResearchFellow, dto.Trigger)
	assert.Equal(t, "2030-05-20", dto.RetirementDate)
	assert.Nil(t, dto.AgeLimitDate)
	assert.Nil(t, dto.ServiceLimitDate)
	assert.Nil(t, dto.ServiceCapUsage)
	assert.True(t, dto.Inputs.IsResearchFellow)
}

func TestComputeRetirement_ConfigPrecedence(t *testing.T) {
	s := setupTestServer(t)
	base := RetirementRequest{DOB: "1970-01-01", DOA: "2000-01-01"}

	// Named profile beats settings.
	req := base
	req.ProfileID = "gb"
	rec := s.do(t, http.MethodPost, "/api/retirement", req)
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[RetirementDTO](t, rec)
	assert.Equal(t, "2036-01-01", dto.RetirementDate)
	assert.Equal(t, profile.IDUnitedKingdom, dto.ProfileID)

	// Explicit config beats the named profile.
	req.Config = &factory.ConfigJSON{RetirementAge: 55, ServiceCap: 20, ResearchFellowAge: 65, CutoffDate: "2004-06-30"}
	rec = s.do(t, http.MethodPost, "/api/retirement", req)
	require.Equal(t, http.StatusOK, rec.Code)
	dto = decode[RetirementDTO](t, rec)
	assert.Equal(t, retirement.TriggerServiceLimit, dto.Trigger)
	assert.Equal(t, "2020-01-01", dto.RetirementDate)
	assert.Empty(t, dto.ProfileID)
}

func TestComputeRetirement_InvalidDates(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/retirement", RetirementRequest{DOB: "1970-02-30", DOA: ""})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation_failed", resp.Code)
	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Date of Birth must be a valid YYYY-MM-DD date", details["dob"])
	assert.Equal(t, "Date of First Appointment is required", details["doa"])
}

func TestComputeRetirement_PermissiveByDefault(t *testing.T) {
	// GIVEN: An appointment before birth
	s := setupTestServer(t)
	req := RetirementRequest{DOB: "1990-01-01", DOA: "1985-01-01"}

	// WHEN: Computed without strict
	rec := s.do(t, http.MethodPost, "/api/retirement", req)

	// THEN: Figures are computed mechanically
	require.Equal(t, http.StatusOK, rec.Code)

	// AND: strict rejects the same input
	req.Strict = true
	rec = s.do(t, http.MethodPost, "/api/retirement", req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation_failed", resp.Code)
	assert.Contains(t, resp.Details, "doa")
}

func TestComputeRetirement_StrictChecksConfigRanges(t *testing.T) {
	s := setupTestServer(t)
	req := RetirementRequest{DOB: "1970-01-01", DOA: "2000-01-01", Strict: true}
	req.Config = &factory.ConfigJSON{RetirementAge: 90, ServiceCap: 35, ResearchFellowAge: 65, CutoffDate: "2004-06-30"}

	rec := s.do(t, http.MethodPost, "/api/retirement", req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Contains(t, resp.Details, "retirement_age")
}

func TestComputeRetirement_Errors(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/retirement", RetirementRequest{DOB: "1970-01-01", DOA: "2000-01-01", ProfileID: "FR"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "profile_not_found", decode[ErrorResponse](t, rec).Code)

	req := RetirementRequest{DOB: "1970-01-01", DOA: "2000-01-01"}
	req.Config = &factory.ConfigJSON{}
	rec = s.do(t, http.MethodPost, "/api/retirement", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "malformed_config", decode[ErrorResponse](t, rec).Code)

	httpReq := httptest.NewRequest(http.MethodPost, "/api/retirement", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, httpReq)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// =============================================================================
// PROFILES
// =============================================================================

const universitiesProfile = `{
	"id": "ng-univ",
	"name": "Nigerian Universities",
	"config": {"retirement_age": 65, "service_cap": 35, "research_fellow_age": 70, "cutoff_date": "2012-07-01"},
	"notes": ["Academic staff"]
}`

func postRaw(t *testing.T, s *testServer, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestProfiles_ListAndGet(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/profiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ProfileDTO](t, rec)
	require.Len(t, list, 4)
	assert.Equal(t, "NG", list[0].ID)
	assert.True(t, list[0].BuiltIn)

	rec = s.do(t, http.MethodGet, "/api/profiles/us", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 62, decode[ProfileDTO](t, rec).Config.RetirementAge)

	rec = s.do(t, http.MethodGet, "/api/profiles/FR", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfiles_CreatePersistsAndDeletes(t *testing.T) {
	// GIVEN: A server backed by SQLite
	s := setupTestServer(t)
	ctx := context.Background()

	// WHEN: A custom profile is registered
	rec := postRaw(t, s, "/api/profiles", universitiesProfile)

	// THEN: It is created, usable and persisted
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[ProfileDTO](t, rec)
	assert.Equal(t, "NG-UNIV", created.ID)
	assert.False(t, created.BuiltIn)

	stored, err := s.store.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "NG-UNIV", stored[0].ID)

	rec = s.do(t, http.MethodPost, "/api/retirement", RetirementRequest{DOB: "1970-01-01", DOA: "2000-01-01", ProfileID: "ng-univ"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2035-01-01", decode[RetirementDTO](t, rec).RetirementDate)

	// AND: Registering it again conflicts
	rec = postRaw(t, s, "/api/profiles", universitiesProfile)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_profile", decode[ErrorResponse](t, rec).Code)

	// AND: Deleting removes it from the registry and the store
	rec = s.do(t, http.MethodDelete, "/api/profiles/ng-univ", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	stored, err = s.store.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/profiles/ng-univ", nil).Code)
}

func TestProfiles_CreateReturnsNormalizedProfile(t *testing.T) {
	s := setupTestServer(t)

	rec := postRaw(t, s, "/api/profiles", `{"id":"ke","name":"Kenya","config":{"retirement_age":60,"service_cap":35,"research_fellow_age":65,"cutoff_date":"2009-07-01"}}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[ProfileDTO](t, rec)
	assert.Equal(t, "KE", created.ID)
	assert.Equal(t, "Kenya", created.Name)
	assert.Equal(t, "2009-07-01", created.Config.CutoffDate)

	stored, err := s.store.ListProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "KE", stored[0].ID)
	assert.Equal(t, 60, stored[0].Config.RetirementAge)
}

func TestProfiles_CreateRejectsInvalid(t *testing.T) {
	s := setupTestServer(t)

	rec := postRaw(t, s, "/api/profiles", `{"id":"x","name":"X","config":{"retirement_age":60,"service_cap":35,"research_fellow_age":65}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "malformed_config", decode[ErrorResponse](t, rec).Code)

	rec = postRaw(t, s, "/api/profiles", `{"id":"x","name":"X","config":{"retirement_age":60,"service_cap":70,"research_fellow_age":65,"cutoff_date":"2004-06-30"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decode[ErrorResponse](t, rec).Code)

	rec = postRaw(t, s, "/api/profiles", `{"name":"X","config":{"retirement_age":60,"service_cap":35,"research_fellow_age":65,"cutoff_date":"2004-06-30"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_profile", decode[ErrorResponse](t, rec).Code)
}

func TestProfiles_DeleteBuiltIn(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodDelete, "/api/profiles/NG", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "built_in_profile", decode[ErrorResponse](t, rec).Code)
}

// failingDeleteStore persists profiles but cannot delete them.
type failingDeleteStore struct {
	*sqlite.Store
}

func (failingDeleteStore) DeleteProfile(context.Context, string) error {
	return errors.New("disk I/O error")
}

func TestProfiles_DeleteStoreFailureKeepsProfile(t *testing.T) {
	// GIVEN: A persisted custom profile and a store that fails deletes
	s := setupTestServer(t)
	require.Equal(t, http.StatusCreated, postRaw(t, s, "/api/profiles", universitiesProfile).Code)
	s.handler.ProfileStore = failingDeleteStore{Store: s.store}

	// WHEN: The profile is deleted
	rec := s.do(t, http.MethodDelete, "/api/profiles/NG-UNIV", nil)

	// THEN: The request fails and registry and store still agree
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/profiles/ng-univ", nil).Code)

	stored, err := s.store.ListProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "NG-UNIV", stored[0].ID)

	// AND: The profile still computes
	rec = s.do(t, http.MethodPost, "/api/retirement", RetirementRequest{DOB: "1970-01-01", DOA: "2000-01-01", ProfileID: "NG-UNIV"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoadProfiles_RestoresPersisted(t *testing.T) {
	// GIVEN: A profile saved by an earlier process
	s := setupTestServer(t)
	require.Equal(t, http.StatusCreated, postRaw(t, s, "/api/profiles", universitiesProfile).Code)

	// WHEN: A fresh handler loads profiles from the same store
	registry := profile.NewRegistry()
	h := NewHandler(retirement.NewEngine(), registry, settings.NewService(s.store, registry), WithProfileStore(s.store))
	require.NoError(t, h.LoadProfiles(context.Background()))

	// THEN: The profile is registered again
	_, err := registry.Get("NG-UNIV")
	assert.NoError(t, err)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettings_Flow(t *testing.T) {
	s := setupTestServer(t)

	// Defaults
	rec := s.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[SettingsDTO](t, rec)
	assert.Equal(t, profile.IDNigeria, st.ProfileID)
	assert.Nil(t, st.UpdatedAt)

	// Override one field
	rec = s.do(t, http.MethodPut, "/api/settings", UpdateSettingsRequest{ServiceCap: intPtr(25)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st = decode[SettingsDTO](t, rec)
	assert.Equal(t, profile.IDCustom, st.ProfileID)
	assert.Equal(t, 25, st.Config.ServiceCap)
	require.NotNil(t, st.UpdatedAt)
	assert.True(t, testNow.Equal(*st.UpdatedAt))

	// Computations pick up the new snapshot
	rec = s.do(t, http.MethodPost, "/api/retirement", RetirementRequest{DOB: "1970-01-01", DOA: "2000-01-01"})
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[RetirementDTO](t, rec)
	assert.Equal(t, retirement.TriggerServiceLimit, dto.Trigger)
	assert.Equal(t, "2025-01-01", dto.RetirementDate)

	// Switch profile
	rec = s.do(t, http.MethodPost, "/api/settings/profile", ApplyProfileRequest{ProfileID: "gb"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 66, decode[SettingsDTO](t, rec).Config.RetirementAge)

	// Reset
	rec = s.do(t, http.MethodPost, "/api/settings/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[SettingsDTO](t, rec)
	assert.Equal(t, profile.IDNigeria, st.ProfileID)
	assert.Equal(t, 60, st.Config.RetirementAge)
}

func TestSettings_UpdateErrors(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/settings", UpdateSettingsRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/settings", UpdateSettingsRequest{RetirementAge: intPtr(99)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "retirement_age")

	bad := "30/06/2004"
	rec = s.do(t, http.MethodPut, "/api/settings", UpdateSettingsRequest{CutoffDate: &bad})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_date", decode[ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/settings/profile", ApplyProfileRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/settings/profile", ApplyProfileRequest{ProfileID: "FR"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestHealth(t *testing.T) {
	s := setupTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HealthDTO{Status: "ok", Profiles: 4}, decode[HealthDTO](t, rec))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := setupTestServer(t, WithLogger(zap.New(core)))

	s.do(t, http.MethodGet, "/api/profiles/NG", nil)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/profiles/NG", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}
