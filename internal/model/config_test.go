package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planbatch/internal/apperr"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, SourceKindSheets, cfg.Source.Kind)
	assert.Equal(t, "Users!A2:B", cfg.Source.Ranges.Users)
	assert.Equal(t, "PropertyMapping!A2:C", cfg.Source.Ranges.Mappings)
	assert.Equal(t, IngestModeOptimistic, cfg.Ingest.Mode)
	assert.Equal(t, 12, cfg.Display.MonthCount)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "journal.db"), cfg.Journal.Path)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `source:
  kind: fixture
  fixture_path: /tmp/sample.yaml
  ranges:
    users: Staff!A2:B
ingest:
  url: https://example.com/hook
  mode: confirmed
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("PLANBATCH_INGEST_URL", "https://override.example.com/exec")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, SourceKindFixture, cfg.Source.Kind)
	assert.Equal(t, "/tmp/sample.yaml", cfg.Source.FixturePath)
	assert.Equal(t, "Staff!A2:B", cfg.Source.Ranges.Users)
	assert.Equal(t, "Subjects!A2:A", cfg.Source.Ranges.Subjects)
	assert.Equal(t, "https://override.example.com/exec", cfg.Ingest.URL)
	assert.Equal(t, IngestModeConfirmed, cfg.Ingest.Mode)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigOmitsSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.Source.SpreadsheetID = "sheet-123"
	cfg.Source.APIKey = "secret-key"
	cfg.Ingest.URL = "https://example.com/hook"

	require.NoError(t, SaveConfig(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sheet-123")
	assert.NotContains(t, string(data), "secret-key")
	assert.NotContains(t, string(data), "example.com/hook")

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sheet-123", reloaded.Source.SpreadsheetID)
	assert.Empty(t, reloaded.Source.APIKey)
}

func TestApplySecrets(t *testing.T) {
	secrets := map[string]string{
		SecretSheetsAPIKey: "from-keyring",
		SecretIngestURL:    "https://keyring.example.com",
	}
	lookup := func(k string) (string, bool) {
		v, ok := secrets[k]
		return v, ok
	}

	cfg := &AppConfig{Ingest: IngestConfig{URL: "https://configured.example.com"}}
	cfg.ApplySecrets(lookup)

	assert.Equal(t, "from-keyring", cfg.Source.APIKey)
	assert.Equal(t, "https://configured.example.com", cfg.Ingest.URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       AppConfig
		component string
		fields    []string
		message   string
	}{
		{
			name:      "sheets source complete",
			cfg:       AppConfig{Source: SourceConfig{Kind: SourceKindSheets, SpreadsheetID: "s", APIKey: "k"}},
			component: ComponentSource,
		},
		{
			name:      "sheets source without credentials",
			cfg:       AppConfig{Source: SourceConfig{Kind: SourceKindSheets}},
			component: ComponentSource,
			fields:    []string{"source.spreadsheet_id", "source.api_key"},
		},
		{
			name:      "fixture source needs only a path",
			cfg:       AppConfig{Source: SourceConfig{Kind: SourceKindFixture}},
			component: ComponentSource,
			fields:    []string{"source.fixture_path"},
		},
		{
			name:      "ingest without url",
			cfg:       AppConfig{Ingest: IngestConfig{Mode: IngestModeOptimistic}},
			component: ComponentIngest,
			fields:    []string{"ingest.url"},
		},
		{
			name:      "ingest with unknown mode",
			cfg:       AppConfig{Ingest: IngestConfig{URL: "https://example.com", Mode: "eventually"}},
			component: ComponentIngest,
			fields:    []string{"ingest.mode"},
			message:   "missing or invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.component)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			require.True(t, apperr.IsConfigError(err), "want ConfigError, got %v", err)
			cerr := err.(*apperr.ConfigError)
			assert.Equal(t, tt.component, cerr.Component)
			assert.Equal(t, tt.fields, cerr.Fields)
			assert.Equal(t, tt.message, cerr.Message)
		})
	}
}
