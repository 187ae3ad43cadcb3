package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"debuggenie/internal/llm"
	"debuggenie/internal/ranker"
	"debuggenie/internal/render"
)

var (
	rankJSON bool
	rankYear int
)

var rankCmd = &cobra.Command{
	Use:   "rank [FILE]",
	Short: "Deduplicate and rank candidate solutions",
	Long: `Rank a JSON array of candidate solutions read from FILE or stdin.
Near-duplicate titles are merged, then each solution is scored on
confidence, simplicity, historical success, recency and consensus.`,
	Example: `  debuggenie rank candidates.json
  echo '[{"title":"Restart","confidence":0.4},{"title":"Upgrade","confidence":0.9}]' | debuggenie rank --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "Print the ranking as JSON")
	rankCmd.Flags().IntVar(&rankYear, "year", 0, "Score recency against this year instead of the current one")
}

func runRank(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("read candidates: %w", err)
	}

	var candidates []map[string]any
	if err := llm.ExtractInto(string(data), &candidates); err != nil {
		return fmt.Errorf("candidates must be a JSON array of objects: %w", err)
	}

	ranked := ranker.Ranker{Year: rankYear}.RankAndFilter(candidates)

	out := cmd.OutOrStdout()
	if rankJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	}
	if len(ranked) == 0 {
		fmt.Fprintln(out, render.Dim.Render("No solutions to rank."))
		return nil
	}
	for _, s := range ranked {
		fmt.Fprint(out, render.Solution(s, terminalWidth()))
	}
	return nil
}
