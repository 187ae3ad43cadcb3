package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"debuggenie/internal/config"
	"debuggenie/internal/llm"
	"debuggenie/internal/render"
	"debuggenie/internal/storage"
)

type checkStatus string

const (
	statusOK   checkStatus = "ok"
	statusWarn checkStatus = "warn"
	statusFail checkStatus = "fail"
)

type CheckResult struct {
	Name    string
	Status  checkStatus
	Message string
	FixCmd  string
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the models and data directory are ready",
	Long: `Run health checks on everything a debug run needs.

Checks:
  - Ollama availability
  - Code, vision and synthesis models installed
  - Perplexity key for web research
  - Report archive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		results := runChecks(ctx, appCfg)
		if failed := printChecks(cmd.OutOrStdout(), results); failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runChecks(ctx context.Context, cfg *config.Config) []CheckResult {
	results := []CheckResult{checkOllama(ctx, cfg)}
	if results[0].Status == statusOK {
		seen := map[string]bool{}
		for _, model := range []string{cfg.CodeModel, cfg.VisionModel, cfg.SynthesisModel} {
			if seen[model] {
				continue
			}
			seen[model] = true
			results = append(results, checkModel(ctx, cfg, model))
		}
	}
	return append(results, checkPerplexity(cfg), checkArchive(cfg))
}

func checkOllama(ctx context.Context, cfg *config.Config) CheckResult {
	r := CheckResult{Name: "Ollama"}
	if _, err := llm.NewOllamaClient(cfg.OllamaURL, "", 5*time.Second).ListModels(ctx); err != nil {
		r.Status = statusFail
		r.Message = fmt.Sprintf("Not reachable at %s: %v", cfg.OllamaURL, err)
		r.FixCmd = "ollama serve"
		return r
	}
	r.Status = statusOK
	r.Message = "Running at " + cfg.OllamaURL
	return r
}

func checkModel(ctx context.Context, cfg *config.Config, model string) CheckResult {
	r := CheckResult{Name: "Model " + model}
	ok, err := llm.NewOllamaClient(cfg.OllamaURL, model, 5*time.Second).HasModel(ctx)
	switch {
	case err != nil:
		r.Status = statusFail
		r.Message = err.Error()
	case !ok:
		r.Status = statusFail
		r.Message = "Not installed"
		r.FixCmd = "ollama pull " + model
	default:
		r.Status = statusOK
		r.Message = "Installed"
	}
	return r
}

func checkPerplexity(cfg *config.Config) CheckResult {
	r := CheckResult{Name: "Web research"}
	switch {
	case cfg.ForceLocalLLM:
		r.Status = statusWarn
		r.Message = "Forced local; web research uses " + cfg.CodeModel
	case cfg.PerplexityKey == "":
		r.Status = statusWarn
		r.Message = "No Perplexity key; web research uses " + cfg.CodeModel
		r.FixCmd = "export PERPLEXITY_API_KEY=..."
	default:
		r.Status = statusOK
		r.Message = "Perplexity " + cfg.PerplexityModel
	}
	return r
}

func checkArchive(cfg *config.Config) CheckResult {
	r := CheckResult{Name: "Report archive"}
	db, err := storage.InitDB(cfg.DataDir)
	if err != nil {
		r.Status = statusFail
		r.Message = err.Error()
		r.FixCmd = "mkdir -p " + cfg.DataDir
		return r
	}
	defer db.Close()
	items, err := storage.RecentReports(db, 0)
	if err != nil {
		r.Status = statusFail
		r.Message = err.Error()
		return r
	}
	r.Status = statusOK
	r.Message = fmt.Sprintf("%s (%d reports)", cfg.DBPath(), len(items))
	return r
}

// printChecks writes one block per check and returns the number of
// failures.
func printChecks(w io.Writer, results []CheckResult) int {
	var passed, warned, failed int
	for _, r := range results {
		fmt.Fprintf(w, "%s %s\n", statusIcon(r.Status), r.Name)
		fmt.Fprintf(w, "   %s\n", r.Message)
		if r.FixCmd != "" && r.Status != statusOK {
			fmt.Fprintf(w, "   %s\n", render.Dim.Render("Fix: "+r.FixCmd))
		}
		switch r.Status {
		case statusOK:
			passed++
		case statusWarn:
			warned++
		default:
			failed++
		}
	}
	fmt.Fprintf(w, "\n%d passed  %d warnings  %d failed\n", passed, warned, failed)
	return failed
}

func statusIcon(s checkStatus) string {
	switch s {
	case statusOK:
		return "✓"
	case statusWarn:
		return "!"
	default:
		return "✗"
	}
}

