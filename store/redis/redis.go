/*
Package redis provides a Redis-backed settings.Store.

PURPOSE:
  Several server instances behind a load balancer must agree on one
  policy. Keeping the settings in Redis lets every instance read the same
  snapshot without sharing a SQLite file.

KEYS:
  retirement:settings:<key>  JSON document {profile_id, config, updated_at}

  The config is a factory.ConfigJSON, the same shape the SQLite store and
  the API use. Loading goes back through ConfigJSON.ToConfig, so a
  document with a missing field is an error rather than a zero config.

  Values never expire. Reset deletes the key.

SEE ALSO:
  - settings/settings.go: Store interface
  - store/sqlite/sqlite.go: Single-instance alternative
*/
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/warp/retirement-engine/factory"
	"github.com/warp/retirement-engine/settings"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "retirement:settings:"

// SettingsStore implements settings.Store on a Redis client.
type SettingsStore struct {
	client goredis.UniversalClient
	prefix string
}

// New wraps an existing client. The caller owns the client and closes it.
func New(client goredis.UniversalClient) *SettingsStore {
	return &SettingsStore{client: client, prefix: DefaultPrefix}
}

// Dial connects to addr and checks the connection with PING.
func Dial(ctx context.Context, addr string) (*SettingsStore, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return New(client), nil
}

// Close closes the underlying client.
func (s *SettingsStore) Close() error {
	return s.client.Close()
}

func (s *SettingsStore) key(k string) string { return s.prefix + k }

type document struct {
	ProfileID string             `json:"profile_id"`
	Config    factory.ConfigJSON `json:"config"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// LoadSettings returns settings.ErrNotFound for a missing key.
func (s *SettingsStore) LoadSettings(ctx context.Context, key string) (settings.Settings, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return settings.Settings{}, settings.ErrNotFound
	}
	if err != nil {
		return settings.Settings{}, fmt.Errorf("redis get %s: %w", key, err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return settings.Settings{}, fmt.Errorf("settings %s: failed to decode: %w", key, err)
	}
	cfg, err := doc.Config.ToConfig()
	if err != nil {
		return settings.Settings{}, fmt.Errorf("settings %s: %w", key, err)
	}
	return settings.Settings{ProfileID: doc.ProfileID, Config: cfg, UpdatedAt: doc.UpdatedAt}, nil
}

func (s *SettingsStore) SaveSettings(ctx context.Context, key string, st settings.Settings) error {
	raw, err := json.Marshal(document{
		ProfileID: st.ProfileID,
		Config:    factory.FromConfig(st.Config),
		UpdatedAt: st.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *SettingsStore) DeleteSettings(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
