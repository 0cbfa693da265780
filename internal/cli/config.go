package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nhle/planbatch/internal/logger"
	"github.com/nhle/planbatch/internal/model"
)

const maskedSecret = "********"

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolvedConfigPath()
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", path, err)
		}

		// An existing file is re-read so --force keeps its values and fills
		// in any missing defaults.
		cfg, err := model.LoadConfig(path)
		if err != nil {
			return err
		}
		if err := model.SaveConfig(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "Store secrets with: planbatch credential set sheets-api-key | ingest-url")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		defer logger.Close()

		shown := *cfg
		if shown.Source.APIKey != "" {
			shown.Source.APIKey = maskedSecret
		}
		if shown.Ingest.URL != "" {
			shown.Ingest.URL = maskedSecret
		}

		out, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", resolvedConfigPath(), out)

		for _, component := range []string{model.ComponentSource, model.ComponentIngest} {
			if err := cfg.Validate(component); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "# %v\n", err)
			}
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
