package cli

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bennylavaa/RealmPortal/internal/cli/appctx"
	"github.com/Bennylavaa/RealmPortal/internal/journal"
	"github.com/Bennylavaa/RealmPortal/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past migration runs or show one run",
	Long: `Without arguments lists journaled runs, newest first. With a run ID (or
any unique prefix of one) prints that run's full report.`,
	Args: maximumArgs(1),
	RunE: appctx.WithApp(appctx.Options{NeedsJournal: true}, runHistory),
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 for all)")
}

func runHistory(app *appctx.App, cmd *cobra.Command, args []string) error {
	if app.Journal == nil {
		return usageError("the run journal is disabled")
	}

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		rep, err := app.Journal.GetRun(args[0])
		if errors.Is(err, journal.ErrRunNotFound) {
			return exitError(ExitValidation, err)
		}
		if err != nil {
			return err
		}
		return report.Render(r, rep)
	}

	runs, err := app.Journal.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if ok, err := r.Structured(runs); ok {
		return err
	}

	headers := []string{"RUN", "STARTED", "MODE", "APPLIED", "MERGED", "SKIPPED", "FAILED", "ROOT"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		mode := string(run.Mode)
		if run.DryRun {
			mode += " (dry run)"
		}
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			mode,
			strconv.Itoa(run.Counters.Applied),
			strconv.Itoa(run.Counters.Merged),
			strconv.Itoa(run.Counters.Skipped),
			strconv.Itoa(run.Counters.Failed),
			run.Root,
		})
	}
	return r.RenderRows(headers, rows)
}
