/*
Package profile holds named jurisdiction presets for the retirement policy.

PURPOSE:
  A profile is convenience data on the caller side: a named Config plus
  the notes an administrator sees when picking it. The engine never looks
  profiles up; callers resolve one to a retirement.Config and pass it in.

REGISTRY:
  Registry is seeded with the built-in presets (presets.go) and accepts
  custom profiles at runtime (loaded from YAML, persisted in SQLite, or
  posted through the API). Built-ins cannot be replaced or removed.

CONCURRENCY:
  Registry is safe for concurrent use (sync.RWMutex).

SEE ALSO:
  - presets.go: NG, GB, US, CUSTOM
  - factory/profile.go: JSON/YAML decoding
  - settings/settings.go: applying a profile to the stored settings
*/
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/warp/retirement-engine/retirement"
)

var (
	// ErrProfileNotFound is returned when no profile has the requested ID.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrDuplicateProfile is returned when registering an ID that already exists.
	ErrDuplicateProfile = errors.New("profile already exists")

	// ErrBuiltInProfile is returned when removing a built-in preset.
	ErrBuiltInProfile = errors.New("built-in profile cannot be modified")

	// ErrInvalidProfile is returned for profiles without an ID or name.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Profile is a named retirement policy.
type Profile struct {
	ID          string
	Name        string
	Description string
	Config      retirement.Config
	Notes       []string
	BuiltIn     bool
}

// Registry stores profiles by upper-cased ID.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	order    []string // built-in order; custom profiles sort after by ID
}

// NewRegistry returns a registry seeded with the built-in presets.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]Profile)}
	for _, p := range Presets() {
		p.BuiltIn = true
		key := normalizeID(p.ID)
		r.profiles[key] = p
		r.order = append(r.order, key)
	}
	return r
}

// Get looks a profile up by ID, ignoring case.
func (r *Registry) Get(id string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[normalizeID(id)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	return clone(p), nil
}

// List returns built-ins in preset order, then custom profiles by ID.
func (r *Registry) List() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Profile, 0, len(r.profiles))
	for _, key := range r.order {
		out = append(out, clone(r.profiles[key]))
	}

	var custom []Profile
	for _, p := range r.profiles {
		if !p.BuiltIn {
			custom = append(custom, clone(p))
		}
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i].ID < custom[j].ID })
	return append(out, custom...)
}

// Register adds a custom profile. The config must pass retirement.ValidateConfig.
func (r *Registry) Register(p Profile) error {
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: id and name are required", ErrInvalidProfile)
	}
	if err := retirement.ValidateConfig(p.Config); err != nil {
		return fmt.Errorf("profile %s: %w", p.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeID(p.ID)
	if _, exists := r.profiles[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProfile, p.ID)
	}
	p.ID = key
	p.BuiltIn = false
	r.profiles[key] = clone(p)
	return nil
}

// Remove deletes a custom profile.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeID(id)
	p, ok := r.profiles[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	if p.BuiltIn {
		return fmt.Errorf("%w: %s", ErrBuiltInProfile, id)
	}
	delete(r.profiles, key)
	return nil
}

// Matches reports whether cfg equals the profile's config.
func (p Profile) Matches(cfg retirement.Config) bool {
	return p.Config.RetirementAge == cfg.RetirementAge &&
		p.Config.ServiceCap == cfg.ServiceCap &&
		p.Config.ResearchFellowAge == cfg.ResearchFellowAge &&
		p.Config.CutoffDate.Equal(cfg.CutoffDate)
}

func normalizeID(id string) string { return strings.ToUpper(strings.TrimSpace(id)) }

func clone(p Profile) Profile {
	p.Notes = append([]string(nil), p.Notes...)
	return p
}
