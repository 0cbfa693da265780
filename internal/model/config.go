package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/nhle/planbatch/internal/apperr"
)

// Source kinds.
const (
	SourceKindSheets  = "sheets"
	SourceKindFixture = "fixture"
)

// Ingest modes. Optimistic treats any completed request as dispatched;
// confirmed reads the endpoint's response.
const (
	IngestModeOptimistic = "optimistic"
	IngestModeConfirmed  = "confirmed"
)

// Config components, used by Validate and in ConfigError.
const (
	ComponentSource = "source"
	ComponentIngest = "ingest"
)

// RangeConfig names the spreadsheet range read for each collection.
type RangeConfig struct {
	Users      string `mapstructure:"users" yaml:"users"`
	Properties string `mapstructure:"properties" yaml:"properties"`
	Subjects   string `mapstructure:"subjects" yaml:"subjects"`
	Portfolios string `mapstructure:"portfolios" yaml:"portfolios"`
	Mappings   string `mapstructure:"mappings" yaml:"mappings"`
}

// SourceConfig describes where reference data is read from.
type SourceConfig struct {
	// Kind is "sheets" for the Google Sheets API or "fixture" for a local
	// YAML file with the same ranges.
	Kind string `mapstructure:"kind" yaml:"kind" validate:"required,oneof=sheets fixture"`

	SpreadsheetID string `mapstructure:"spreadsheet_id" yaml:"spreadsheet_id" validate:"required_if=Kind sheets"`
	APIKey        string `mapstructure:"api_key" yaml:"api_key,omitempty" validate:"required_if=Kind sheets"`

	// Endpoint overrides the Sheets API base URL.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty" validate:"omitempty,url"`

	FixturePath string `mapstructure:"fixture_path" yaml:"fixture_path,omitempty" validate:"required_if=Kind fixture"`

	Ranges     RangeConfig `mapstructure:"ranges" yaml:"ranges"`
	TimeoutSec int         `mapstructure:"timeout_sec" yaml:"timeout_sec" validate:"gte=0"`
}

// IngestConfig describes the batch upload endpoint.
type IngestConfig struct {
	URL        string `mapstructure:"url" yaml:"url,omitempty" validate:"required,url"`
	Mode       string `mapstructure:"mode" yaml:"mode" validate:"oneof=optimistic confirmed"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" validate:"gte=0"`
}

// JournalConfig controls the local record of dispatched batches.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme      string `mapstructure:"theme" yaml:"theme"`
	MonthCount int    `mapstructure:"month_count" yaml:"month_count"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Source  SourceConfig  `mapstructure:"source" yaml:"source"`
	Ingest  IngestConfig  `mapstructure:"ingest" yaml:"ingest"`
	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Debug   bool          `mapstructure:"debug" yaml:"debug"`
}

// EnvPrefix prefixes environment overrides, e.g. PLANBATCH_INGEST_URL.
const EnvPrefix = "PLANBATCH"

// ConfigDir returns ~/.config/planbatch.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "planbatch")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/planbatch/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

var defaults = map[string]any{
	"source.kind":              SourceKindSheets,
	"source.spreadsheet_id":    "",
	"source.api_key":           "",
	"source.endpoint":          "",
	"source.fixture_path":      "",
	"source.ranges.users":      "Users!A2:B",
	"source.ranges.properties": "Properties!A2:B",
	"source.ranges.subjects":   "Subjects!A2:A",
	"source.ranges.portfolios": "Portfolios!A2:A",
	"source.ranges.mappings":   "PropertyMapping!A2:C",
	"source.timeout_sec":       30,
	"ingest.url":               "",
	"ingest.mode":              IngestModeOptimistic,
	"ingest.timeout_sec":       30,
	"journal.enabled":          true,
	"journal.path":             "",
	"display.theme":            "default",
	"display.month_count":      12,
	"debug":                    false,
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper,
// with PLANBATCH_* environment variables taking precedence. A missing file
// yields the defaults (plus any environment overrides).
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Journal.Path == "" {
		cfg.Journal.Path = filepath.Join(filepath.Dir(path), "journal.db")
	}
	if cfg.Display.MonthCount <= 0 {
		cfg.Display.MonthCount = 12
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. Secrets are not written; keep
// them in the keyring.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	source := cfg.Source
	source.APIKey = ""
	v.Set("source", source)
	v.Set("ingest", IngestConfig{Mode: cfg.Ingest.Mode, TimeoutSec: cfg.Ingest.TimeoutSec})
	v.Set("journal", cfg.Journal)
	v.Set("display", cfg.Display)
	v.Set("debug", cfg.Debug)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// Secret keys looked up when the config leaves them blank.
const (
	SecretSheetsAPIKey = "sheets-api-key"
	SecretIngestURL    = "ingest-url"
)

// ApplySecrets fills blank secret fields from lookup, which is usually
// backed by the OS keyring.
func (c *AppConfig) ApplySecrets(lookup func(key string) (string, bool)) {
	if c.Source.APIKey == "" {
		if v, ok := lookup(SecretSheetsAPIKey); ok {
			c.Source.APIKey = v
		}
	}
	if c.Ingest.URL == "" {
		if v, ok := lookup(SecretIngestURL); ok {
			c.Ingest.URL = v
		}
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks the settings one component needs before it can start.
// Failures are returned as *apperr.ConfigError listing the offending keys.
func (c *AppConfig) Validate(component string) error {
	var target any
	switch component {
	case ComponentSource:
		target = c.Source
	case ComponentIngest:
		target = c.Ingest
	default:
		return fmt.Errorf("unknown config component %q", component)
	}

	err := validate.Struct(target)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating %s config: %w", component, err)
	}

	cerr := &apperr.ConfigError{Component: component}
	for _, fe := range verrs {
		cerr.Fields = append(cerr.Fields, component+"."+fe.Field())
		if fe.Tag() != "required" && fe.Tag() != "required_if" {
			cerr.Message = "missing or invalid configuration"
		}
	}
	return cerr
}
