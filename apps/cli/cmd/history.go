package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqfile/reqfile/packages/core/config"
	"github.com/reqfile/reqfile/packages/history"
)

var (
	historyLimit    int
	historyRunID    int64
	historyDBFlag   string
	historyConfFlag string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the history database",
	Long: `List recent runs recorded by 'reqfile run', newest first.

Examples:
  reqfile history
  reqfile history --limit 50
  reqfile history --run 12`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", getEnvInt("REQFILE_HISTORY_LIMIT", 20), "Number of runs to list (env: REQFILE_HISTORY_LIMIT)")
	historyCmd.Flags().Int64Var(&historyRunID, "run", 0, "Show the per-request outcomes of one run")
	historyCmd.Flags().StringVar(&historyDBFlag, "db", "", "Path to the history database")
	historyCmd.Flags().StringVar(&historyConfFlag, "config", getEnvString("REQFILE_CONFIG", ""), "Path to config file (env: REQFILE_CONFIG)")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	path := historyDBFlag
	if path == "" {
		fileConfig, _ := config.LoadConfig(historyConfFlag)
		path = fileConfig.HistoryPath
	}
	if path == "" {
		path = history.DefaultPath
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	if historyRunID > 0 {
		outcomes, err := store.RunRequests(ctx, historyRunID)
		if err != nil {
			return err
		}
		if len(outcomes) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No requests recorded for run %d.\n", historyRunID)
			return nil
		}
		for _, o := range outcomes {
			mark := "FAIL"
			if o.Passed {
				mark = "ok"
			}
			detail := fmt.Sprintf("%d", o.StatusCode)
			if o.Error != "" {
				detail = o.Error
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-4s %-24s %-6s %s  %s (%.0fms)\n",
				mark, o.Name, o.Method, o.URL, detail, o.DurationMs)
		}
		return nil
	}

	runs, err := store.RecentRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded yet.\n")
		return nil
	}

	for _, run := range runs {
		env := run.Environment
		if env == "" {
			env = "-"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  #%-5d %s  %-30s env=%-10s %d passed, %d failed, %d skipped (%.0fms)\n",
			run.ID, run.StartedAt.Format(time.DateTime), run.File, env,
			run.Passed, run.Failed, run.Skipped, run.DurationMs)
	}
	return nil
}
