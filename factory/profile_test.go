package factory_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/retirement-engine/calendar"
	"github.com/warp/retirement-engine/factory"
	"github.com/warp/retirement-engine/profile"
	"github.com/warp/retirement-engine/retirement"
)

const kenyaYAML = `
profiles:
  - id: KE
    name: Kenya
    description: Public Service Commission
    config:
      retirement_age: 60
      service_cap: 35
      research_fellow_age: 65
      cutoff_date: "2009-01-01"
    notes:
      - Public Service Superannuation Scheme
  - id: ng-univ
    name: Nigerian Universities
    config:
      retirement_age: 65
      service_cap: 35
      research_fellow_age: 70
      cutoff_date: "2012-07-01"
`

func TestParseConfig(t *testing.T) {
	cfg, err := factory.ParseConfig(`{"retirement_age":66,"service_cap":40,"research_fellow_age":68,"cutoff_date":"2006-04-01"}`)
	require.NoError(t, err)
	assert.Equal(t, retirement.Config{
		RetirementAge:     66,
		ServiceCap:        40,
		ResearchFellowAge: 68,
		CutoffDate:        calendar.MustParseDate("2006-04-01"),
	}, cfg)
}

func TestParseConfig_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing cap", `{"retirement_age":60,"research_fellow_age":65,"cutoff_date":"2004-06-30"}`},
		{"bad date", `{"retirement_age":60,"service_cap":35,"research_fellow_age":65,"cutoff_date":"30/06/2004"}`},
		{"impossible date", `{"retirement_age":60,"service_cap":35,"research_fellow_age":65,"cutoff_date":"2004-02-30"}`},
		{"negative age", `{"retirement_age":-60,"service_cap":35,"research_fellow_age":65,"cutoff_date":"2004-06-30"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.ParseConfig(tt.doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, factory.ErrMalformedConfig))
		})
	}

	_, err := factory.ParseConfig(`{not json`)
	assert.Error(t, err)
}

func TestParseConfig_OutOfRangeIsStillAccepted(t *testing.T) {
	// Range checks belong to retirement.ValidateConfig, not the decoder.
	cfg, err := factory.ParseConfig(`{"retirement_age":90,"service_cap":60,"research_fellow_age":30,"cutoff_date":"2004-06-30"}`)
	require.NoError(t, err)
	assert.Error(t, retirement.ValidateConfig(cfg))
}

func TestProfileJSON_RoundTrip(t *testing.T) {
	ng, err := profile.NewRegistry().Get(profile.IDNigeria)
	require.NoError(t, err)

	doc, err := factory.MarshalProfile(ng)
	require.NoError(t, err)
	assert.Contains(t, doc, `"cutoff_date":"2004-06-30"`)

	back, err := factory.ParseProfile(doc)
	require.NoError(t, err)
	assert.Equal(t, ng.ID, back.ID)
	assert.Equal(t, ng.Config, back.Config)
	assert.Equal(t, ng.Notes, back.Notes)
	assert.False(t, back.BuiltIn, "documents never mark a profile built-in")
}

func TestParseProfile_RequiresID(t *testing.T) {
	_, err := factory.ParseProfile(`{"name":"Nameless","config":{"retirement_age":60,"service_cap":35,"research_fellow_age":65,"cutoff_date":"2004-06-30"}}`)
	assert.True(t, errors.Is(err, profile.ErrInvalidProfile))
}

func TestLoadProfilesYAML(t *testing.T) {
	profiles, err := factory.LoadProfilesYAML(strings.NewReader(kenyaYAML))
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, "KE", profiles[0].ID)
	assert.Equal(t, "Kenya", profiles[0].Name)
	assert.Equal(t, calendar.MustParseDate("2009-01-01"), profiles[0].Config.CutoffDate)
	assert.Equal(t, []string{"Public Service Superannuation Scheme"}, profiles[0].Notes)
	assert.Equal(t, 70, profiles[1].Config.ResearchFellowAge)

	// Registering them is what the server does at start-up.
	r := profile.NewRegistry()
	for _, p := range profiles {
		require.NoError(t, r.Register(p))
	}
	assert.Len(t, r.List(), 6)
}

func TestLoadProfilesYAML_Errors(t *testing.T) {
	_, err := factory.LoadProfilesYAML(strings.NewReader("profiles:\n  - id: X\n    name: X\n    config:\n      retirement_age: 60\n"))
	assert.True(t, errors.Is(err, factory.ErrMalformedConfig))

	_, err = factory.LoadProfilesYAML(strings.NewReader("profiles:\n  - id: X\n    unknown_field: 1\n"))
	assert.Error(t, err, "unknown fields are rejected")

	profiles, err := factory.LoadProfilesYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestLoadProfilesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(kenyaYAML), 0o600))

	profiles, err := factory.LoadProfilesFile(path)
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	_, err = factory.LoadProfilesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
