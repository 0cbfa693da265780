package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/planbatch/internal/logger"
	"github.com/nhle/planbatch/internal/model"
	"github.com/nhle/planbatch/internal/store"
)

const historyTimeLayout = "2006-01-02 15:04"

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [dispatch-id]",
	Short: "Show batches sent from this machine",
	Long: `Without arguments, list recent dispatches from the local journal, newest
first. With a dispatch id, print every task that dispatch sent.

In optimistic mode a dispatch only means the request reached the
endpoint; the "confirmed" column tells the two apart.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		defer logger.Close()

		journal, err := openJournal(cfg)
		if err != nil {
			return err
		}
		if journal == nil {
			return errors.New("the dispatch journal is disabled (journal.enabled: false)")
		}
		defer journal.Close()

		ctx := commandContext(cmd)
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			dispatches, err := journal.ListDispatches(ctx, historyLimit)
			if err != nil {
				return fmt.Errorf("listing dispatches: %w", err)
			}
			if len(dispatches) == 0 {
				fmt.Fprintln(out, "No dispatches recorded yet.")
				return nil
			}
			fmt.Fprintln(out, dispatchTable(dispatches))
			return nil
		}

		d, err := journal.GetDispatch(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no dispatch with id %q", args[0])
		}
		if err != nil {
			return fmt.Errorf("reading dispatch: %w", err)
		}
		tasks, err := journal.GetDispatchTasks(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("reading dispatched tasks: %w", err)
		}

		fmt.Fprintf(out, "Dispatch %s\n", d.ID)
		fmt.Fprintf(out, "  sent:      %s\n", d.DispatchedAt.Local().Format(historyTimeLayout))
		fmt.Fprintf(out, "  endpoint:  %s (%s)\n", d.Endpoint, d.Mode)
		fmt.Fprintf(out, "  confirmed: %s\n", yesNo(d.Confirmed))
		if d.Message != "" {
			fmt.Fprintf(out, "  message:   %s\n", d.Message)
		}
		fmt.Fprintln(out, taskTable(tasks))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of dispatches to list (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func dispatchTable(dispatches []model.Dispatch) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "SENT", "TASKS", "CONFIRMED", "ROWS", "MESSAGE")
	for _, d := range dispatches {
		t.Row(
			d.ID,
			d.DispatchedAt.Local().Format(historyTimeLayout),
			strconv.Itoa(d.TaskCount),
			yesNo(d.Confirmed),
			strconv.Itoa(d.RowsAdded),
			d.Message,
		)
	}
	return t.String()
}

func taskTable(tasks []model.PlanTask) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TYPE", "OWNER", "PROPERTY", "SUBJECT", "MONTH", "DUE")
	for _, task := range tasks {
		t.Row(string(task.TaskType), task.OwnerName, task.TargetName, task.Subject, task.Month, task.DueDate)
	}
	return t.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
