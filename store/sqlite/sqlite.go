/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists the two pieces of state the retirement service keeps across
  restarts: the policy settings and the custom jurisdiction profiles
  registered through the API. Computations themselves are never stored.

INTERFACES IMPLEMENTED:
  settings.Store:  Policy settings by key
  api.ProfileStore: Custom profile persistence (SaveProfile, ListProfiles, DeleteProfile)

KEY TABLES:
  settings:  One row per settings key (profile id + config JSON)
  profiles:  Custom profiles as factory.ProfileJSON documents (versioned)

CONFIG ENCODING:
  Configs are stored as JSON produced by the factory package, the same
  document shape the API accepts. Reading a row goes back through
  factory.ConfigJSON.ToConfig, so a hand-edited row with a missing field
  fails loudly instead of producing a zero config.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. An in-memory database is pinned to
  a single connection because every new connection would see an empty
  database.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  the single writer.

USAGE:
  store, err := sqlite.New("./data/retirement.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := settings.NewService(store, profile.NewRegistry())

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - settings/settings.go: Store interface and the rules on top of it
  - settings/store/memory.go: In-memory implementation for testing
  - store/redis/redis.go: Redis settings store for shared deployments
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/retirement-engine/factory"
	"github.com/warp/retirement-engine/profile"
	"github.com/warp/retirement-engine/settings"
)

// Store implements the storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Policy settings (one row per key)
	CREATE TABLE IF NOT EXISTS settings (
		settings_key TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL,
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Custom jurisdiction profiles
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		profile_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SETTINGS STORE
// =============================================================================

// LoadSettings returns settings.ErrNotFound when no row exists for key.
func (s *Store) LoadSettings(ctx context.Context, key string) (settings.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st settings.Settings
	var configJSON, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT profile_id, config_json, updated_at FROM settings WHERE settings_key = ?",
		key,
	).Scan(&st.ProfileID, &configJSON, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return settings.Settings{}, settings.ErrNotFound
	}
	if err != nil {
		return settings.Settings{}, err
	}

	var cj factory.ConfigJSON
	if err := json.Unmarshal([]byte(configJSON), &cj); err != nil {
		return settings.Settings{}, fmt.Errorf("settings %s: failed to decode config: %w", key, err)
	}
	cfg, err := cj.ToConfig()
	if err != nil {
		return settings.Settings{}, fmt.Errorf("settings %s: %w", key, err)
	}

	st.Config = cfg
	st.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("settings %s: failed to parse updated_at: %w", key, err)
	}
	return st, nil
}

// SaveSettings inserts or replaces the row for key.
func (s *Store) SaveSettings(ctx context.Context, key string, st settings.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := json.Marshal(factory.FromConfig(st.Config))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	updatedAt := st.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	query := `
		INSERT INTO settings (settings_key, profile_id, config_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(settings_key) DO UPDATE SET
			profile_id = excluded.profile_id,
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		key, st.ProfileID, string(configJSON), updatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// DeleteSettings removes the row for key.
func (s *Store) DeleteSettings(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE settings_key = ?", key)
	return err
}

// =============================================================================
// PROFILE STORE
// =============================================================================

// SaveProfile inserts a custom profile or replaces one with the same ID,
// bumping its version.
func (s *Store) SaveProfile(ctx context.Context, p profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := factory.MarshalProfile(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO profiles (id, name, profile_json, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			profile_json = excluded.profile_json,
			version = profiles.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query, p.ID, p.Name, doc, now, now)
	return err
}

// ListProfiles returns stored profiles in the order they were first saved.
func (s *Store) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, profile_json FROM profiles ORDER BY rowid",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []profile.Profile
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		p, err := factory.ParseProfile(doc)
		if err != nil {
			return nil, fmt.Errorf("stored profile %s: %w", id, err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// DeleteProfile removes a stored profile. Unknown IDs are ignored.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	return err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"settings", "profiles"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
