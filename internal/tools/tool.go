// Package tools provides read-only workspace inspection for the code
// analysis agent: reading source around a reported line, listing a project
// directory and searching for identifiers.
package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// Tool defines the interface for all agent tools.
type Tool interface {
	Name() string
	Description() string
	Parameters() []ToolParam
	Execute(ctx context.Context, params map[string]any) ToolResult
}

// ToolParam defines a parameter for a tool.
type ToolParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // string, int, bool, []string
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
}

// ToolResult represents the outcome of a tool execution.
type ToolResult struct {
	Success  bool          `json:"success"`
	Data     any           `json:"data,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// ToolInfo provides metadata about a registered tool.
type ToolInfo struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []ToolParam `json:"parameters"`
}

func NewResult(data any, duration time.Duration) ToolResult {
	return ToolResult{Success: true, Data: data, Duration: duration}
}

func NewErrorResult(err string, duration time.Duration) ToolResult {
	return ToolResult{Success: false, Error: err, Duration: duration}
}

// ErrOutsideWorkspace is returned for paths that leave the workspace root,
// directly or through a symlink.
var ErrOutsideWorkspace = errors.New("path is outside the workspace")

// Workspace resolves tool paths. Relative paths are joined to Root; an
// empty Root means the process working directory. Resolved paths never
// leave Root.
type Workspace struct {
	Root string
}

func (w Workspace) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	root, err := w.root()
	if err != nil {
		return "", err
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)

	// A missing path cannot be followed; its lexical form is checked and
	// the caller's open fails on it.
	real, err := filepath.EvalSymlinks(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		real = path
	default:
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	if !within(root, real) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}
	return real, nil
}

func (w Workspace) root() (string, error) {
	root := w.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}
	return real, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// GetString extracts a string parameter with a default value.
func GetString(params map[string]any, key string, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultVal
}

// GetInt extracts an int parameter with a default value.
func GetInt(params map[string]any, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return defaultVal
}

// GetBool extracts a bool parameter with a default value.
func GetBool(params map[string]any, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// GetStringSlice extracts a string slice parameter.
func GetStringSlice(params map[string]any, key string) []string {
	if v, ok := params[key]; ok {
		switch s := v.(type) {
		case []string:
			return s
		case []any:
			result := make([]string, 0, len(s))
			for _, item := range s {
				if str, ok := item.(string); ok {
					result = append(result, str)
				}
			}
			return result
		}
	}
	return nil
}
