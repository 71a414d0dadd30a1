// Package file provides TOML file-backed configuration for the
// application: OAuth application credentials, rate limit quotas, cache
// TTLs and scheduler settings.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

// Config is the on-disk configuration shape. Durations are stored as
// integer seconds; TOML has no native duration type.
type Config struct {
	// DataDir overrides the default data directory (~/.calsync/data).
	DataDir string `toml:"data_dir,omitempty"`

	// Providers maps provider type to its OAuth application credentials.
	Providers map[string]domain.OAuthAppConfig `toml:"providers,omitempty"`

	// RateLimits maps provider type and endpoint class to a quota.
	RateLimits map[string]map[string]RateLimitRule `toml:"rate_limits,omitempty"`

	// CacheTTLSeconds maps cache class to TTL in seconds.
	CacheTTLSeconds map[string]int64 `toml:"cache_ttl_seconds,omitempty"`

	// Sync holds sync engine settings.
	Sync SyncConfig `toml:"sync,omitempty"`

	// Scheduler holds background task settings.
	Scheduler SchedulerConfig `toml:"scheduler,omitempty"`
}

// RateLimitRule is one quota entry: max requests per window.
type RateLimitRule struct {
	MaxRequests   int   `toml:"max_requests"`
	WindowSeconds int64 `toml:"window_seconds"`
}

// SyncConfig holds sync engine settings.
type SyncConfig struct {
	// HorizonDays is the forward window synced per integration.
	HorizonDays int `toml:"horizon_days,omitempty"`
	// RetentionDays bounds the event cleanup task.
	RetentionDays int `toml:"retention_days,omitempty"`
	// CallbackPort is the local OAuth callback server port.
	CallbackPort int `toml:"callback_port,omitempty"`
}

// SchedulerConfig holds background task settings.
type SchedulerConfig struct {
	Enabled             bool `toml:"enabled"`
	SyncIntervalMinutes int  `toml:"sync_interval_minutes,omitempty"`
	CleanupIntervalHrs  int  `toml:"cleanup_interval_hours,omitempty"`
}

// Store loads and persists the configuration file.
type Store struct {
	mu       sync.RWMutex
	filePath string
	config   Config
}

// NewStore creates a config store backed by a TOML file.
// If configDir is empty, defaults to ~/.calsync/config.toml.
func NewStore(configDir string) (*Store, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".calsync")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &Store{
		filePath: filepath.Join(configDir, "config.toml"),
		config:   defaultConfig(),
	}

	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	return Config{
		Sync: SyncConfig{
			HorizonDays:   30,
			RetentionDays: 90,
			CallbackPort:  8976,
		},
		Scheduler: SchedulerConfig{
			Enabled:             true,
			SyncIntervalMinutes: 60,
			CleanupIntervalHrs:  24,
		},
	}
}

// Load reads configuration from the TOML file.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	config := defaultConfig()
	if err := toml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	s.config = config
	return nil
}

// Save persists the current configuration to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(s.config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	// Config holds client secrets; restrict permissions.
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.filePath
}

// Config returns a copy of the current configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SetProvider stores OAuth application credentials for a provider.
func (s *Store) SetProvider(provider domain.ProviderType, cfg domain.OAuthAppConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config.Providers == nil {
		s.config.Providers = make(map[string]domain.OAuthAppConfig)
	}
	s.config.Providers[string(provider)] = cfg
}

// OAuthApps returns the configured OAuth applications keyed by provider,
// skipping entries with unknown provider names.
func (s *Store) OAuthApps() map[domain.ProviderType]domain.OAuthAppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apps := make(map[domain.ProviderType]domain.OAuthAppConfig, len(s.config.Providers))
	for name, cfg := range s.config.Providers {
		provider, err := domain.ParseProviderType(name)
		if err != nil {
			continue
		}
		apps[provider] = cfg
	}
	return apps
}

// RateLimitTable builds the domain quota table: configured entries
// override the defaults per provider and endpoint class.
func (s *Store) RateLimitTable() domain.RateLimitTable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table := domain.DefaultRateLimitTable()
	for name, rules := range s.config.RateLimits {
		provider, err := domain.ParseProviderType(name)
		if err != nil {
			continue
		}
		if table[provider] == nil {
			table[provider] = make(map[string]domain.RateLimitRule)
		}
		for endpoint, rule := range rules {
			table[provider][endpoint] = domain.RateLimitRule{
				MaxRequests: rule.MaxRequests,
				Window:      time.Duration(rule.WindowSeconds) * time.Second,
			}
		}
	}
	return table
}

// CacheTTLTable builds the domain TTL table: configured entries override
// the defaults per cache class.
func (s *Store) CacheTTLTable() domain.CacheTTLTable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table := domain.DefaultCacheTTLTable()
	for class, seconds := range s.config.CacheTTLSeconds {
		if seconds > 0 {
			table[class] = time.Duration(seconds) * time.Second
		}
	}
	return table
}

// SchedulerConfig builds the domain scheduler configuration.
func (s *Store) SchedulerConfig() domain.SchedulerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := domain.DefaultSchedulerConfig()
	cfg.Enabled = s.config.Scheduler.Enabled
	if s.config.Scheduler.SyncIntervalMinutes > 0 {
		task := cfg.TaskConfigs[domain.TaskIDCalendarSync]
		task.Interval = time.Duration(s.config.Scheduler.SyncIntervalMinutes) * time.Minute
		cfg.TaskConfigs[domain.TaskIDCalendarSync] = task
	}
	if s.config.Scheduler.CleanupIntervalHrs > 0 {
		task := cfg.TaskConfigs[domain.TaskIDEventCleanup]
		task.Interval = time.Duration(s.config.Scheduler.CleanupIntervalHrs) * time.Hour
		cfg.TaskConfigs[domain.TaskIDEventCleanup] = task
	}
	return cfg
}

// SyncHorizon returns the forward sync window as a duration.
func (s *Store) SyncHorizon() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	days := s.config.Sync.HorizonDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// RetentionDays returns the cleanup retention window in days.
func (s *Store) RetentionDays() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config.Sync.RetentionDays <= 0 {
		return 90
	}
	return s.config.Sync.RetentionDays
}

// CallbackPort returns the local OAuth callback server port.
func (s *Store) CallbackPort() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config.Sync.CallbackPort <= 0 {
		return 8976
	}
	return s.config.Sync.CallbackPort
}

// DataDir returns the configured data directory, empty for the default.
func (s *Store) DataDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.DataDir
}
