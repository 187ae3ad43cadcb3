package agents

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"debuggenie/internal/llm"
	"debuggenie/internal/models"
)

const maxImageSize = 20 << 20

var visualPrompts = map[models.ContextType]string{
	models.ContextConsole: `Analyze this browser console screenshot.
1. Identify any error messages (red text), warnings, or failed network requests.
2. Extract specific error codes (e.g., 404, 500) and stack traces if visible.
3. Note the file names and line numbers in the stack trace.`,
	models.ContextIDE: `Analyze this IDE screenshot.
1. Identify the active file and line number (cursor position or highlighted line).
2. Read any visible error squiggles or hover tooltips.
3. Extract the code context around the error.`,
	models.ContextTerminal: `Analyze this terminal output.
1. Identify the command that was run.
2. Parse the error output, stack trace, and specific error message.
3. Ignore standard progress bars or unrelated logs.`,
	models.ContextGeneral: `Analyze this screenshot for any technical errors or bugs.
Identify error messages, UI anomalies, or code issues.`,
}

// VisualAgent reads a screenshot of the failure with a vision model.
type VisualAgent struct {
	base
}

func NewVisualAgent(c Caller, logger *zap.Logger) *VisualAgent {
	return &VisualAgent{base: newBase(c, logger, RoleVisual)}
}

func (a *VisualAgent) Analyze(ctx context.Context, ec models.ErrorContext) (map[string]any, error) {
	img, err := loadImage(ec)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("analyzing screenshot",
		zap.String("type", string(ec.ContextKind())),
		zap.Int("bytes", len(img)))

	return a.completeJSON(ctx, llm.Request{
		Prompt: visualPrompt(ec),
		Images: [][]byte{img},
	}, map[string]any{
		"detected_error":        "",
		"error_location":        "unknown",
		"ui_context":            "",
		"suggested_focus_areas": []any{},
		"confidence_score":      0.0,
	})
}

func loadImage(ec models.ErrorContext) ([]byte, error) {
	if len(ec.Image) > 0 {
		if len(ec.Image) > maxImageSize {
			return nil, fmt.Errorf("image is %d bytes, limit is %d", len(ec.Image), maxImageSize)
		}
		return ec.Image, nil
	}
	if ec.ImagePath == "" {
		return nil, ErrNoImage
	}
	info, err := os.Stat(ec.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	if info.Size() > maxImageSize {
		return nil, fmt.Errorf("image %s is %d bytes, limit is %d", ec.ImagePath, info.Size(), maxImageSize)
	}
	data, err := os.ReadFile(ec.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	return data, nil
}

func visualPrompt(ec models.ErrorContext) string {
	base, ok := visualPrompts[ec.ContextKind()]
	if !ok {
		base = visualPrompts[models.ContextGeneral]
	}
	return fmt.Sprintf(`%s

Additional Context: %s

Return a JSON object matching this exact structure:
{
  "detected_error": "string",
  "error_location": "string",
  "ui_context": "string",
  "suggested_focus_areas": ["string (list of files/components)"],
  "confidence_score": 0.0
}`, base, errorBlock(ec))
}
