package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mmcdole/komsync/internal/domain"
)

// SourceType identifies the catalog backend used for search and details
type SourceType string

const (
	SourceTypeKomga  SourceType = "komga"
	SourceTypeScrape SourceType = "scrape"
)

// apiPrefix is appended to the server URL to reach the REST API
const apiPrefix = "/api/v1"

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Scrape      ScrapeConfig      `mapstructure:"scrape"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Transport   TransportConfig   `mapstructure:"transport"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds media server configuration
type ServerConfig struct {
	Type     SourceType `mapstructure:"type"`     // "komga" or "scrape"
	URL      string     `mapstructure:"url"`      // Server URL, without /api/v1
	Username string     `mapstructure:"username"` // Basic auth user
	Password string     `mapstructure:"password"` // Basic auth password
}

// ScrapeConfig holds the secondary website configuration
type ScrapeConfig struct {
	URL string `mapstructure:"url"`
}

// PreferencesConfig holds homepage preferences
type PreferencesConfig struct {
	ShowOnDeck          bool `mapstructure:"show_on_deck"`
	ShowContinueReading bool `mapstructure:"show_continue_reading"`
}

// TransportConfig holds HTTP client limits
type TransportConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// CacheConfig holds mirror store configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // Empty disables persistence
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Type: SourceTypeKomga,
		},
		Scrape: ScrapeConfig{
			URL: "https://raijinscans.fr",
		},
		Preferences: PreferencesConfig{
			ShowOnDeck:          true,
			ShowContinueReading: true,
		},
		Transport: TransportConfig{
			RequestsPerSecond: 4,
			Timeout:           20 * time.Second,
			MaxRetries:        3,
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "komsync", "komsync.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "komsync", "komsync.log")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "komsync")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "komsync")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "komsync", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "komsync", "cache")
	}
}

// Store is the settings store. It owns its own viper instance so nothing
// reads configuration through package globals.
type Store struct {
	v   *viper.Viper
	dir string
}

// Load reads config.yaml from dir (and the working directory) plus
// KOMSYNC_* environment overrides. A missing file is not an error.
func Load(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultConfigPath()
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AddConfigPath(".")

	// Environment variable overrides (KOMSYNC_SERVER_URL, ...)
	v.SetEnvPrefix("KOMSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	return &Store{v: v, dir: dir}, nil
}

// setDefaults registers every key so env overrides and Unmarshal see them
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.type", string(cfg.Server.Type))
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.username", cfg.Server.Username)
	v.SetDefault("server.password", cfg.Server.Password)
	v.SetDefault("scrape.url", cfg.Scrape.URL)
	v.SetDefault("preferences.show_on_deck", cfg.Preferences.ShowOnDeck)
	v.SetDefault("preferences.show_continue_reading", cfg.Preferences.ShowContinueReading)
	v.SetDefault("transport.requests_per_second", cfg.Transport.RequestsPerSecond)
	v.SetDefault("transport.timeout", cfg.Transport.Timeout)
	v.SetDefault("transport.max_retries", cfg.Transport.MaxRetries)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// Config decodes the current settings
func (s *Store) Config() (*Config, error) {
	cfg := DefaultConfig()
	if err := s.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

// APIBaseURL returns the REST API root, or ok=false when no server is set
func (s *Store) APIBaseURL() (string, bool) {
	return APIBase(s.v.GetString("server.url"))
}

// APIBase derives the REST API root from a server URL
func APIBase(serverURL string) (string, bool) {
	serverURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if serverURL == "" {
		return "", false
	}
	return serverURL + apiPrefix, true
}

// HomeOptions returns the optional section toggles
func (s *Store) HomeOptions() domain.HomeOptions {
	return domain.HomeOptions{
		ShowOnDeck:          s.v.GetBool("preferences.show_on_deck"),
		ShowContinueReading: s.v.GetBool("preferences.show_continue_reading"),
	}
}

// Get returns the raw value of a key
func (s *Store) Get(key string) any {
	return s.v.Get(key)
}

// Set overrides a key in memory. Call Save to persist it.
func (s *Store) Set(key string, value any) {
	s.v.Set(key, value)
}

// Save writes the current settings to config.yaml in the config directory
func (s *Store) Save() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(s.dir, "config.yaml")
	if err := s.v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ClearServerConfig removes all server-related settings while preserving
// the rest, and persists the result
func (s *Store) ClearServerConfig() error {
	s.v.Set("server.url", "")
	s.v.Set("server.username", "")
	s.v.Set("server.password", "")
	return s.Save()
}

// IsConfigured returns true if the server URL is set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}
