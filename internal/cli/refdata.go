package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/planbatch/internal/logger"
)

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Load reference data and print a summary",
	Long: `Load users, properties, subjects, portfolios and property mappings from
the configured source and print how many rows of each were kept.

Use it to check spreadsheet access and tab layout without opening the UI.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		defer logger.Close()

		ref, err := referenceLoader(cfg)(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("loading reference data: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Reference data (%s source)\n", cfg.Source.Kind)
		fmt.Fprintf(out, "  users:       %d\n", len(ref.Users()))
		fmt.Fprintf(out, "  properties:  %d\n", len(ref.Properties()))
		fmt.Fprintf(out, "  subjects:    %d\n", len(ref.Subjects()))
		fmt.Fprintf(out, "  portfolios:  %d\n", len(ref.Portfolios()))
		fmt.Fprintf(out, "  mappings:    %d\n", len(ref.Mappings()))
		fmt.Fprintf(out, "Portfolio options: %s\n", strings.Join(ref.PortfolioOptions(), ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refdataCmd)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
