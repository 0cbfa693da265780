package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nhle/planbatch/internal/credential"
	"github.com/nhle/planbatch/internal/ingest"
	"github.com/nhle/planbatch/internal/logger"
	"github.com/nhle/planbatch/internal/model"
	"github.com/nhle/planbatch/internal/refdata"
	"github.com/nhle/planbatch/internal/store"
)

// secretLookup resolves secrets left blank in the config file. Tests
// replace it so they never touch the OS keyring.
var secretLookup = credential.Lookup

// now is the clock used by commands that print dates.
var now = time.Now

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return model.DefaultConfigPath()
}

// loadConfig reads the config file, fills secrets from the keyring and
// starts the file logger next to the config. stderr mirrors log lines to
// the terminal and must stay off while the TUI is running.
func loadConfig(stderr bool) (*model.AppConfig, error) {
	path := resolvedConfigPath()
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplySecrets(secretLookup)
	if debugMode {
		cfg.Debug = true
	}

	if err := logger.Init(logger.Config{
		Debug:  cfg.Debug,
		Stderr: stderr && cfg.Debug,
		Dir:    filepath.Dir(path),
	}); err != nil {
		return nil, err
	}
	logger.Debug("config loaded", "path", path, "source", cfg.Source.Kind, "mode", cfg.Ingest.Mode)
	return cfg, nil
}

// referenceLoader returns a loader that validates the source settings and
// reads every range. The reader is rebuilt on each call so a retry picks
// up a fixed fixture file.
func referenceLoader(cfg *model.AppConfig) func(context.Context) (*model.ReferenceData, error) {
	return func(ctx context.Context) (*model.ReferenceData, error) {
		if err := cfg.Validate(model.ComponentSource); err != nil {
			return nil, err
		}
		reader, err := refdata.NewReader(ctx, cfg.Source)
		if err != nil {
			return nil, err
		}
		timeout := time.Duration(cfg.Source.TimeoutSec) * time.Second
		return refdata.NewGateway(reader, cfg.Source.Ranges, timeout).Load(ctx)
	}
}

func newSubmitter(cfg *model.AppConfig) (*ingest.Client, error) {
	if err := cfg.Validate(model.ComponentIngest); err != nil {
		return nil, err
	}
	return ingest.FromConfig(cfg.Ingest)
}

// openJournal opens the dispatch journal, or returns nil when it is
// disabled.
func openJournal(cfg *model.AppConfig) (store.Journal, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	s, err := store.NewSQLiteStore(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", cfg.Journal.Path, err)
	}
	return s, nil
}
