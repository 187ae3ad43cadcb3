package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"debuggenie/internal/agents"
	"debuggenie/internal/models"
	"debuggenie/internal/orchestrator"
	"debuggenie/internal/pipeline"
	"debuggenie/internal/render"
	"debuggenie/internal/storage"
)

var (
	debugError     string
	debugErrorFile string
	debugImage     string
	debugCodeFile  string
	debugType      string
	debugWorkspace string
	debugJSON      bool
	debugSave      bool
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Analyze an error and rank possible fixes",
	Long: `Run a full analysis of an error. The error text comes from --error,
--error-file or stdin; a screenshot can be added with --image.`,
	Example: `  # Analyze an error message
  debuggenie debug --error "ModuleNotFoundError: No module named 'requests'"

  # Pipe a failing command's output
  python app.py 2>&1 | debuggenie debug --type terminal

  # Include a screenshot and the offending code, keep the report
  debuggenie debug --error-file trace.txt --image shot.png --code-file app.py --save`,
	RunE: runDebug,
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.Flags().StringVarP(&debugError, "error", "e", "", "Error message or stack trace")
	debugCmd.Flags().StringVar(&debugErrorFile, "error-file", "", "Read the error text from a file")
	debugCmd.Flags().StringVar(&debugImage, "image", "", "Screenshot of the error")
	debugCmd.Flags().StringVar(&debugCodeFile, "code-file", "", "Source file with the code related to the error")
	debugCmd.Flags().StringVarP(&debugType, "type", "t", "", "Where the error was captured: ide, terminal, console, general")
	debugCmd.Flags().StringVarP(&debugWorkspace, "workspace", "w", ".", "Project root the code agent may inspect")
	debugCmd.Flags().BoolVar(&debugJSON, "json", false, "Print the result as JSON")
	debugCmd.Flags().BoolVar(&debugSave, "save", false, "Archive the report for the history command")
}

func runDebug(cmd *cobra.Command, args []string) error {
	ec, err := buildErrorContext(cmd.InOrStdin())
	if err != nil {
		return err
	}

	root, err := filepath.Abs(debugWorkspace)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	bus := pipeline.NewEventBus()
	out := cmd.OutOrStdout()
	if !debugJSON && isTerminal(os.Stderr) {
		p := newProgress(os.Stderr)
		p.Attach(bus)
		defer p.Stop()
	}

	result := newOrchestrator(root, bus).Debug(ctx, ec)

	seen := archive(ec, result)

	if debugJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprint(out, render.Report(result, terminalWidth()))
	if seen > 0 {
		fmt.Fprintln(out, render.Dim.Render(fmt.Sprintf("This error was analyzed %d time(s) before. See: debuggenie history", seen)))
	}
	return ctx.Err()
}

func newOrchestrator(root string, bus *pipeline.EventBus) *orchestrator.Orchestrator {
	set := agents.NewSet(appCfg, root, logger)
	return orchestrator.New(orchestrator.Agents{
		Web:       set.Web,
		Code:      set.Code,
		Visual:    set.Visual,
		Synthesis: set.Synthesis,
	}, orchestrator.WithEventBus(bus), orchestrator.WithLogger(logger))
}

// archive counts earlier reports with the same signature and, with --save,
// stores this one. Archive problems never fail the command.
func archive(ec models.ErrorContext, result models.DebugResult) int {
	db, err := openArchive()
	if err != nil {
		logger.Warn("report archive unavailable", zap.Error(err))
		return 0
	}
	defer db.Close()

	report := storage.NewReport(ec, result)
	seen, err := storage.CountBySignature(db, report.Signature)
	if err != nil {
		logger.Warn("count reports failed", zap.Error(err))
	}
	if debugSave {
		if err := storage.SaveReport(db, report); err != nil {
			logger.Warn("save report failed", zap.Error(err))
		} else {
			logger.Info("report saved", zap.String("id", report.ID))
		}
	}
	return seen
}

func buildErrorContext(stdin io.Reader) (models.ErrorContext, error) {
	ec := models.ErrorContext{
		ErrorText: debugError,
		ImagePath: debugImage,
		Type:      models.ParseContextType(debugType),
	}

	switch {
	case ec.ErrorText != "":
	case debugErrorFile != "":
		data, err := os.ReadFile(debugErrorFile)
		if err != nil {
			return ec, fmt.Errorf("read error file: %w", err)
		}
		ec.ErrorText = string(data)
	case !isTerminalReader(stdin):
		data, err := io.ReadAll(stdin)
		if err != nil {
			return ec, fmt.Errorf("read stdin: %w", err)
		}
		ec.ErrorText = string(data)
	}
	ec.ErrorText = strings.TrimSpace(ec.ErrorText)

	if debugCodeFile != "" {
		data, err := os.ReadFile(debugCodeFile)
		if err != nil {
			return ec, fmt.Errorf("read code file: %w", err)
		}
		ec.CodeContext = string(data)
	}

	if ec.ErrorText == "" && !ec.HasImage() {
		return ec, errors.New("nothing to analyze: pass --error, --error-file, --image or pipe the error on stdin")
	}
	return ec, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// isTerminalReader reports whether r is an interactive terminal. Readers
// that are not files, such as test buffers, count as piped input.
func isTerminalReader(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && isTerminal(f)
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return render.DefaultWidth
}

