/*
Package settings is the policy source: the retirement configuration an
installation currently uses, persisted across restarts.

PURPOSE:
  The settings hold the selected jurisdiction profile and any per-field
  overrides. Each computation reads a Snapshot (a retirement.Config value)
  and passes it into the engine explicitly; the engine never reads the
  settings itself.

OPERATIONS:
  Current:      stored settings, or the defaults (profile NG) when none exist
  Snapshot:     Current().Config, the read-only input to a computation
  Update:       override individual fields; diverging from the selected
                profile switches the profile ID to CUSTOM
  ApplyProfile: copy a profile's config and record its ID
  Reset:        drop stored settings so the defaults apply again

STORAGE:
  Store is implemented by settings/store.Memory, store/sqlite.Store and
  store/redis.SettingsStore.

SEE ALSO:
  - profile/profile.go: Registry that ApplyProfile resolves against
  - api/handlers.go: /api/settings endpoints
*/
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warp/retirement-engine/calendar"
	"github.com/warp/retirement-engine/profile"
	"github.com/warp/retirement-engine/retirement"
)

// DefaultKey is the settings record used by a single-installation deployment.
const DefaultKey = "default"

// ErrNotFound is returned by a Store that holds no settings for a key.
var ErrNotFound = errors.New("settings not found")

// Settings is one stored policy selection.
type Settings struct {
	ProfileID string            `json:"profile_id"`
	Config    retirement.Config `json:"config"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Patch overrides individual fields; nil fields are left unchanged.
type Patch struct {
	RetirementAge     *int
	ServiceCap        *int
	ResearchFellowAge *int
	CutoffDate        *calendar.Date
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.RetirementAge == nil && p.ServiceCap == nil && p.ResearchFellowAge == nil && p.CutoffDate == nil
}

func (p Patch) apply(cfg retirement.Config) retirement.Config {
	if p.RetirementAge != nil {
		cfg.RetirementAge = *p.RetirementAge
	}
	if p.ServiceCap != nil {
		cfg.ServiceCap = *p.ServiceCap
	}
	if p.ResearchFellowAge != nil {
		cfg.ResearchFellowAge = *p.ResearchFellowAge
	}
	if p.CutoffDate != nil {
		cfg.CutoffDate = *p.CutoffDate
	}
	return cfg
}

// Store persists settings by key.
type Store interface {
	// LoadSettings returns ErrNotFound when nothing is stored under key.
	LoadSettings(ctx context.Context, key string) (Settings, error)
	SaveSettings(ctx context.Context, key string, s Settings) error
	// DeleteSettings is a no-op when nothing is stored under key.
	DeleteSettings(ctx context.Context, key string) error
}

// =============================================================================
// SERVICE
// =============================================================================

// Service applies the settings rules on top of a Store.
type Service struct {
	store    Store
	profiles *profile.Registry
	clock    retirement.Clock
	key      string
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for UpdatedAt.
func WithClock(c retirement.Clock) Option { return func(s *Service) { s.clock = c } }

// WithKey stores settings under a key other than DefaultKey.
func WithKey(key string) Option { return func(s *Service) { s.key = key } }

// NewService builds a settings service.
func NewService(store Store, profiles *profile.Registry, opts ...Option) *Service {
	s := &Service{
		store:    store,
		profiles: profiles,
		clock:    retirement.SystemClock,
		key:      DefaultKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the settings used when nothing is stored.
func (s *Service) Defaults() Settings {
	cfg := retirement.DefaultConfig
	if p, err := s.profiles.Get(profile.DefaultProfileID); err == nil {
		cfg = p.Config
	}
	return Settings{ProfileID: profile.DefaultProfileID, Config: cfg}
}

// Current returns the stored settings or the defaults.
func (s *Service) Current(ctx context.Context) (Settings, error) {
	st, err := s.store.LoadSettings(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return s.Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

// Snapshot returns the config to hand to the engine for one computation.
func (s *Service) Snapshot(ctx context.Context) (retirement.Config, error) {
	st, err := s.Current(ctx)
	if err != nil {
		return retirement.Config{}, err
	}
	return st.Config, nil
}

// Update applies a patch. The resulting config must pass
// retirement.ValidateConfig; nothing is stored otherwise.
func (s *Service) Update(ctx context.Context, patch Patch) (Settings, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return Settings{}, err
	}

	next := Settings{ProfileID: current.ProfileID, Config: patch.apply(current.Config)}
	if err := retirement.ValidateConfig(next.Config); err != nil {
		return Settings{}, err
	}
	if p, err := s.profiles.Get(next.ProfileID); err != nil || !p.Matches(next.Config) {
		next.ProfileID = profile.IDCustom
	}
	return s.save(ctx, next)
}

// ApplyProfile replaces the config with the profile's and records its ID.
func (s *Service) ApplyProfile(ctx context.Context, id string) (Settings, error) {
	p, err := s.profiles.Get(id)
	if err != nil {
		return Settings{}, err
	}
	return s.save(ctx, Settings{ProfileID: p.ID, Config: p.Config})
}

// Reset removes stored settings and returns the defaults.
func (s *Service) Reset(ctx context.Context) (Settings, error) {
	if err := s.store.DeleteSettings(ctx, s.key); err != nil {
		return Settings{}, fmt.Errorf("reset settings: %w", err)
	}
	return s.Defaults(), nil
}

func (s *Service) save(ctx context.Context, st Settings) (Settings, error) {
	st.UpdatedAt = s.clock.Now().UTC()
	if err := s.store.SaveSettings(ctx, s.key, st); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return st, nil
}
