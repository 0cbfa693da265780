package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/planbatch/internal/logger"
	"github.com/nhle/planbatch/internal/planner"
)

var monthsCount int

var monthsCmd = &cobra.Command{
	Use:   "months",
	Short: "List the month labels offered by the task form",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n := monthsCount
		if n <= 0 {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			defer logger.Close()
			n = cfg.Display.MonthCount
		}
		for _, label := range planner.MonthOptions(now(), n) {
			fmt.Fprintln(cmd.OutOrStdout(), label)
		}
		return nil
	},
}

func init() {
	monthsCmd.Flags().IntVarP(&monthsCount, "count", "n", 0, "Number of months (default from display.month_count)")
	rootCmd.AddCommand(monthsCmd)
}
