package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FeedConfig describes a single holiday feed subscription.
type FeedConfig struct {
	// URL is the ICS endpoint of the holiday feed.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for caching and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level service configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as the default calculation zone
	// (e.g. "Europe/Berlin"). Zone-less date inputs are interpreted here.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday opens the week in API responses.
	// Supported values: "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron expression (e.g. "0 3 * * *") driving holiday
	// feed refresh and almanac rebuilds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonMonths is how many months ahead the almanac precomputes.
	HorizonMonths int `yaml:"horizon_months" json:"horizon_months"`

	// WorkDays / OffDays are the default schedule cycle when the API caller
	// does not pass one.
	WorkDays int `yaml:"work_days" json:"work_days"`
	OffDays  int `yaml:"off_days" json:"off_days"`

	// CacheDir is where fetched holiday feeds are cached on disk.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// Holidays is the list of subscribed holiday feeds.
	Holidays []FeedConfig `yaml:"holidays" json:"holidays"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8080",
		Timezone:      "UTC",
		WeekStart:     "monday",
		RefreshCron:   "0 3 * * *",
		HorizonMonths: 12,
		WorkDays:      5,
		OffDays:       2,
		CacheDir:      "/var/lib/caldash/feed-cache",
		Holidays:      []FeedConfig{},
		BasicAuth:     nil,
	}
}

// Normalize fills missing/zero values with defaults so partially-filled
// configs from older versions keep working.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	switch c.WeekStart {
	case "monday", "sunday":
		// ok
	default:
		c.WeekStart = "monday"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 3 * * *"
	}
	if c.HorizonMonths <= 0 {
		c.HorizonMonths = 12
	}
	if c.WorkDays <= 0 {
		c.WorkDays = 5
	}
	if c.OffDays < 0 {
		c.OffDays = 2
	}
	if c.CacheDir == "" {
		c.CacheDir = "/var/lib/caldash/feed-cache"
	}
	if c.Holidays == nil {
		c.Holidays = []FeedConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (creating
// the parent directory) and returned. If it exists, it is unmarshaled and
// normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory as needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".caldash-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save so call sites can write
// cfg.Save(path) after mutating a loaded config.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
