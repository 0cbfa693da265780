package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/planbatch/internal/app"
	"github.com/nhle/planbatch/internal/ingest"
	"github.com/nhle/planbatch/internal/logger"
	"github.com/nhle/planbatch/internal/planner"
	"github.com/nhle/planbatch/internal/session"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var (
	configPath string
	debugMode  bool
)

// runTUI starts the terminal UI. Tests replace it.
var runTUI = app.Run

var rootCmd = &cobra.Command{
	Use:   "planbatch",
	Short: "Build batches of sales plan tasks and upload them",
	Long: `planbatch loads users, properties, subjects and portfolios from a
reference spreadsheet, lets you assemble a batch of plan tasks in a
terminal UI, and uploads the batch to an ingestion endpoint in one request.

Run without a subcommand to open the UI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		defer logger.Close()

		journal, err := openJournal(cfg)
		if err != nil {
			// The journal is history only; the UI still works without it.
			logger.Error("opening dispatch journal", "err", err)
		}
		if journal != nil {
			defer journal.Close()
		}

		var opts []session.Option
		if journal != nil {
			opts = append(opts, session.WithJournal(journal))
		}

		var submitter ingest.Submitter
		client, ingestErr := newSubmitter(cfg)
		if ingestErr != nil {
			logger.Warn("ingest endpoint not configured", "err", ingestErr)
		} else {
			submitter = client
		}

		return runTUI(app.Options{
			Session:    session.New(planner.New(), opts...),
			Loader:     referenceLoader(cfg),
			Submitter:  submitter,
			IngestErr:  ingestErr,
			Journal:    journal,
			MonthCount: cfg.Display.MonthCount,
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "planbatch %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/planbatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
