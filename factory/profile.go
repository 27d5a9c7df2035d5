/*
Package factory converts JSON and YAML profile definitions into Go values.

PURPOSE:
  Jurisdiction profiles and ad-hoc policies arrive as documents: a YAML
  file of extra profiles at server start, JSON bodies on the API, JSON
  columns in SQLite. The factory is the one place that decodes them into
  profile.Profile and retirement.Config, so every entry point applies the
  same field names, date format and required-field checks.

WHY A DOCUMENT FORMAT?
  - Administrators can add a jurisdiction without a code change
  - The same shape is stored in the database and served by the API
  - Profiles can be kept under version control next to deployments

JSON / YAML SCHEMA:
  {
    "id": "KE",
    "name": "Kenya",
    "description": "Public Service Commission",
    "config": {
      "retirement_age": 60,
      "service_cap": 35,
      "research_fellow_age": 65,
      "cutoff_date": "2009-01-01"
    },
    "notes": ["..."]
  }

  A YAML file holds a list under a top-level "profiles:" key.

VALIDATION:
  ToConfig rejects missing fields and malformed dates (ErrMalformedConfig).
  Range checks are separate (retirement.ValidateConfig) because ad-hoc
  computations may deliberately run outside the accepted ranges.

SEE ALSO:
  - profile/profile.go: Registry the decoded profiles go into
  - store/sqlite/sqlite.go: Stores ProfileJSON in config_json columns
*/
package factory

import (
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/warp/retirement-engine/calendar"
	"github.com/warp/retirement-engine/profile"
	"github.com/warp/retirement-engine/retirement"
)

// ErrMalformedConfig is returned for documents missing required fields or
// carrying unparseable values.
var ErrMalformedConfig = errors.New("malformed retirement config")

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// ConfigJSON is the document form of retirement.Config.
type ConfigJSON struct {
	RetirementAge     int    `json:"retirement_age" yaml:"retirement_age"`
	ServiceCap        int    `json:"service_cap" yaml:"service_cap"`
	ResearchFellowAge int    `json:"research_fellow_age" yaml:"research_fellow_age"`
	CutoffDate        string `json:"cutoff_date" yaml:"cutoff_date"`
}

// ProfileJSON is the document form of profile.Profile.
type ProfileJSON struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Config      ConfigJSON `json:"config" yaml:"config"`
	Notes       []string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	BuiltIn     bool       `json:"built_in,omitempty" yaml:"-"`
}

// ProfileFile is the top level of a YAML profiles file.
type ProfileFile struct {
	Profiles []ProfileJSON `yaml:"profiles"`
}

// =============================================================================
// CONVERSION
// =============================================================================

// ToConfig converts and checks that every field is present. Ages must be
// positive; ranges are not checked here.
func (c ConfigJSON) ToConfig() (retirement.Config, error) {
	var missing []string
	if c.RetirementAge <= 0 {
		missing = append(missing, "retirement_age")
	}
	if c.ServiceCap <= 0 {
		missing = append(missing, "service_cap")
	}
	if c.ResearchFellowAge <= 0 {
		missing = append(missing, "research_fellow_age")
	}
	if c.CutoffDate == "" {
		missing = append(missing, "cutoff_date")
	}
	if len(missing) > 0 {
		return retirement.Config{}, fmt.Errorf("%w: missing or non-positive %v", ErrMalformedConfig, missing)
	}

	cutoff, err := calendar.ParseDate(c.CutoffDate)
	if err != nil {
		return retirement.Config{}, fmt.Errorf("%w: cutoff_date: %w", ErrMalformedConfig, err)
	}

	return retirement.Config{
		RetirementAge:     c.RetirementAge,
		ServiceCap:        c.ServiceCap,
		ResearchFellowAge: c.ResearchFellowAge,
		CutoffDate:        cutoff,
	}, nil
}

// FromConfig converts a config to its document form.
func FromConfig(cfg retirement.Config) ConfigJSON {
	return ConfigJSON{
		RetirementAge:     cfg.RetirementAge,
		ServiceCap:        cfg.ServiceCap,
		ResearchFellowAge: cfg.ResearchFellowAge,
		CutoffDate:        cfg.CutoffDate.String(),
	}
}

// ToProfile converts a profile document. The config must be complete.
func (p ProfileJSON) ToProfile() (profile.Profile, error) {
	if p.ID == "" {
		return profile.Profile{}, fmt.Errorf("%w: id is required", profile.ErrInvalidProfile)
	}
	cfg, err := p.Config.ToConfig()
	if err != nil {
		return profile.Profile{}, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	return profile.Profile{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Config:      cfg,
		Notes:       append([]string(nil), p.Notes...),
	}, nil
}

// FromProfile converts a profile to its document form.
func FromProfile(p profile.Profile) ProfileJSON {
	return ProfileJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Config:      FromConfig(p.Config),
		Notes:       append([]string(nil), p.Notes...),
		BuiltIn:     p.BuiltIn,
	}
}

// =============================================================================
// PARSING
// =============================================================================

// ParseConfig decodes a JSON config document.
func ParseConfig(jsonStr string) (retirement.Config, error) {
	var cj ConfigJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return retirement.Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return cj.ToConfig()
}

// ParseProfile decodes a JSON profile document.
func ParseProfile(jsonStr string) (profile.Profile, error) {
	var pj ProfileJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return profile.Profile{}, fmt.Errorf("failed to parse profile JSON: %w", err)
	}
	return pj.ToProfile()
}

// MarshalProfile encodes a profile as a JSON document.
func MarshalProfile(p profile.Profile) (string, error) {
	b, err := json.Marshal(FromProfile(p))
	if err != nil {
		return "", fmt.Errorf("failed to encode profile %s: %w", p.ID, err)
	}
	return string(b), nil
}

// LoadProfilesYAML decodes a YAML profiles file. Decoding stops at the first
// invalid entry.
func LoadProfilesYAML(r io.Reader) ([]profile.Profile, error) {
	var file ProfileFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse profiles YAML: %w", err)
	}

	profiles := make([]profile.Profile, 0, len(file.Profiles))
	for i, pj := range file.Profiles {
		p, err := pj.ToProfile()
		if err != nil {
			return nil, fmt.Errorf("profiles[%d]: %w", i, err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// LoadProfilesFile reads LoadProfilesYAML from a path.
func LoadProfilesFile(path string) ([]profile.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiles file: %w", err)
	}
	defer f.Close()
	return LoadProfilesYAML(f)
}
