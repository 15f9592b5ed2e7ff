package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Environment variables that override CLI flag defaults.
const (
	EnvConfigPath = "SECTIONCAL_CONFIG"
	EnvListen     = "SECTIONCAL_LISTEN"
)

// DateLayout is the layout of SemesterEnd.
const DateLayout = "2006-01-02"

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CaptureConfig controls PNG snapshots of the rendered weekly grid.
type CaptureConfig struct {
	Width          int `yaml:"width" json:"width" validate:"gte=0"`
	Height         int `yaml:"height" json:"height" validate:"gte=0"`
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds" validate:"gte=0"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen" validate:"required,hostname_port"`

	// Timezone is the IANA zone exported events are anchored in and tagged
	// with. Empty means the system local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`

	// ClassTimetable / DiningTimetable are file paths or http(s) URLs of
	// the two datasets (YAML or JSON).
	ClassTimetable  string `yaml:"class_timetable" json:"class_timetable" validate:"required"`
	DiningTimetable string `yaml:"dining_timetable" json:"dining_timetable" validate:"required"`

	// SectionPrefix is prepended to bare numeric section input ("1" -> "S01").
	SectionPrefix string `yaml:"section_prefix" json:"section_prefix"`

	// SemesterEnd bounds every exported weekly recurrence (YYYY-MM-DD).
	SemesterEnd string `yaml:"semester_end" json:"semester_end" validate:"required,datetime=2006-01-02"`

	// DiningHall is the location of exported meal events.
	DiningHall string `yaml:"dining_hall" json:"dining_hall" validate:"required"`

	ProductID string `yaml:"product_id" json:"product_id" validate:"required"`
	UIDDomain string `yaml:"uid_domain" json:"uid_domain" validate:"required"`

	// RefreshCron is a cron spec for reloading the datasets. Empty disables
	// periodic refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheDir holds conditional-request caches of remote datasets.
	CacheDir string `yaml:"cache_dir" json:"cache_dir" validate:"required"`

	// StateFile persists the last viewed section.
	StateFile string `yaml:"state_file" json:"state_file" validate:"required"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "127.0.0.1:8080",
		Timezone:        "",
		LogLevel:        "info",
		ClassTimetable:  "data/class_timetable.yaml",
		DiningTimetable: "data/dining_timetable.yaml",
		SectionPrefix:   "S",
		SemesterEnd:     "2026-12-19",
		DiningHall:      "Central Dining Hall",
		ProductID:       "-//sectioncal//Weekly Section Schedule//EN",
		UIDDomain:       "sectioncal.local",
		RefreshCron:     "",
		CacheDir:        "./cache/datasets",
		StateFile:       "./cache/state.yaml",
		Capture: CaptureConfig{
			Width:          1280,
			Height:         900,
			TimeoutSeconds: 30,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.ClassTimetable == "" {
		c.ClassTimetable = d.ClassTimetable
	}
	if c.DiningTimetable == "" {
		c.DiningTimetable = d.DiningTimetable
	}
	if c.SectionPrefix == "" {
		c.SectionPrefix = d.SectionPrefix
	}
	if c.SemesterEnd == "" {
		c.SemesterEnd = d.SemesterEnd
	}
	if c.DiningHall == "" {
		c.DiningHall = d.DiningHall
	}
	if c.ProductID == "" {
		c.ProductID = d.ProductID
	}
	if c.UIDDomain == "" {
		c.UIDDomain = d.UIDDomain
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.StateFile == "" {
		c.StateFile = d.StateFile
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = d.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = d.Capture.Height
	}
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = d.Capture.TimeoutSeconds
	}
}

// Validate checks struct constraints plus the fields validator tags cannot
// express: a loadable timezone and a parseable refresh cron spec.
func (c *Config) Validate() error {
	var errs []error
	if err := validator.New().Struct(c); err != nil {
		errs = append(errs, err)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
		}
	}
	if c.RefreshCron != "" {
		if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
			errs = append(errs, fmt.Errorf("refresh %q: %w", c.RefreshCron, err))
		}
	}
	return errors.Join(errs...)
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SemesterEndDate parses SemesterEnd in the given location.
func (c *Config) SemesterEndDate(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, c.SemesterEnd, loc)
}

// LoadEnv reads a .env file from the working directory if present. A
// missing file is not an error; the process environment is used as is.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: write a default config with 0600 perms
//     (creating the parent directory) and return it.
//   - If the file exists: unmarshal, normalize defaults, validate.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0o600)
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".sectioncal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
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
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
