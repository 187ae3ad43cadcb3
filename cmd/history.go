package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"debuggenie/internal/render"
	"debuggenie/internal/storage"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved debug reports",
	Example: `  debuggenie history --limit 5
  debuggenie history show 3f2a9c1e`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openArchive()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := storage.RecentReports(db, historyLimit)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		if historyJSON {
			if items == nil {
				items = []storage.Summary{}
			}
			return writeJSON(cmd, items)
		}
		fmt.Fprint(cmd.OutOrStdout(), render.History(items, terminalWidth()))
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a saved report by id or id prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openArchive()
		if err != nil {
			return err
		}
		defer db.Close()

		report, err := storage.GetReport(db, args[0])
		if err != nil {
			return err
		}
		if report == nil {
			return fmt.Errorf("report not found: %s", args[0])
		}
		if historyJSON {
			return writeJSON(cmd, report)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, render.Dim.Render(report.CreatedAt.Format("2006-01-02 15:04:05")+"  "+report.ContextType))
		fmt.Fprintln(out, render.TruncateWithEllipsis(render.FirstLine(report.ErrorText), terminalWidth()))
		fmt.Fprintln(out)
		fmt.Fprint(out, render.Report(report.Result, terminalWidth()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "Print as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of reports to list")
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
