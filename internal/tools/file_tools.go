package tools

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const defaultMaxFileSize = 1024 * 1024

// ReadFileTool reads a source file, optionally a window around one line.
type ReadFileTool struct {
	Workspace Workspace
}

func (t *ReadFileTool) Name() string { return "read_file" }
func (t *ReadFileTool) Description() string {
	return "Read file contents, optionally a window of lines around a reported line"
}

func (t *ReadFileTool) Parameters() []ToolParam {
	return []ToolParam{
		{Name: "path", Type: "string", Description: "Path to file", Required: true},
		{Name: "start_line", Type: "int", Description: "Start line (1-indexed)", Default: 0},
		{Name: "end_line", Type: "int", Description: "End line (1-indexed, 0 = all)", Default: 0},
		{Name: "around_line", Type: "int", Description: "Center line; overrides start_line and end_line", Default: 0},
		{Name: "radius", Type: "int", Description: "Lines either side of around_line", Default: 10},
		{Name: "max_size", Type: "int", Description: "Max bytes to read (0 = 1MB)", Default: 0},
	}
}

// ReadFileResult contains the file reading output.
type ReadFileResult struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Lines     int    `json:"lines"`
	Size      int64  `json:"size"`
	Truncated bool   `json:"truncated"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
}

func (t *ReadFileTool) Execute(ctx context.Context, params map[string]any) ToolResult {
	start := time.Now()

	absPath, err := t.Workspace.Resolve(GetString(params, "path", ""))
	if err != nil {
		return NewErrorResult(fmt.Sprintf("invalid path: %v", err), time.Since(start))
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return NewErrorResult(fmt.Sprintf("file not found: %s", absPath), time.Since(start))
		}
		return NewErrorResult(fmt.Sprintf("cannot access file: %v", err), time.Since(start))
	}
	if info.IsDir() {
		return NewErrorResult("path is a directory, not a file", time.Since(start))
	}

	maxSize := GetInt(params, "max_size", 0)
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	file, err := os.Open(absPath)
	if err != nil {
		return NewErrorResult(fmt.Sprintf("cannot open file: %v", err), time.Since(start))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(maxSize)))
	if err != nil {
		return NewErrorResult(fmt.Sprintf("read error: %v", err), time.Since(start))
	}

	lines := strings.Split(string(data), "\n")
	startLine := GetInt(params, "start_line", 0)
	endLine := GetInt(params, "end_line", 0)
	if around := GetInt(params, "around_line", 0); around > 0 {
		radius := GetInt(params, "radius", 10)
		startLine = around - radius
		endLine = around + radius
	}

	result := ReadFileResult{
		Path:      absPath,
		Size:      info.Size(),
		Truncated: info.Size() > int64(maxSize),
	}

	if startLine > 0 || endLine > 0 {
		startLine, endLine = clampRange(startLine, endLine, len(lines))
		lines = lines[startLine-1 : endLine]
		result.StartLine = startLine
		result.EndLine = endLine
	}

	result.Content = strings.Join(lines, "\n")
	result.Lines = len(lines)
	return NewResult(result, time.Since(start))
}

func clampRange(startLine, endLine, total int) (int, int) {
	if startLine < 1 {
		startLine = 1
	}
	if endLine < 1 || endLine > total {
		endLine = total
	}
	if startLine > total {
		startLine = total
	}
	if startLine > endLine {
		startLine = endLine
	}
	return startLine, endLine
}

// ListDirTool lists the top level of a directory so the model can see the
// project layout.
type ListDirTool struct {
	Workspace Workspace
}

func (t *ListDirTool) Name() string        { return "list_dir" }
func (t *ListDirTool) Description() string { return "List the entries of a directory" }

func (t *ListDirTool) Parameters() []ToolParam {
	return []ToolParam{
		{Name: "path", Type: "string", Description: "Path to directory", Default: "."},
		{Name: "include_hidden", Type: "bool", Description: "Include entries starting with .", Default: false},
		{Name: "max_entries", Type: "int", Description: "Max entries to return (0 = 200)", Default: 0},
	}
}

// DirEntry represents a single directory entry.
type DirEntry struct {
	Name string `json:"name"`
	Type string `json:"type"` // "file" or "dir"
	Size int64  `json:"size,omitempty"`
}

// ListDirResult contains the directory listing output.
type ListDirResult struct {
	Path      string     `json:"path"`
	Entries   []DirEntry `json:"entries"`
	Truncated bool       `json:"truncated"`
}

func (t *ListDirTool) Execute(ctx context.Context, params map[string]any) ToolResult {
	start := time.Now()

	absPath, err := t.Workspace.Resolve(GetString(params, "path", "."))
	if err != nil {
		return NewErrorResult(fmt.Sprintf("invalid path: %v", err), time.Since(start))
	}

	files, err := os.ReadDir(absPath)
	if err != nil {
		return NewErrorResult(fmt.Sprintf("cannot read directory: %v", err), time.Since(start))
	}

	includeHidden := GetBool(params, "include_hidden", false)
	maxEntries := GetInt(params, "max_entries", 0)
	if maxEntries <= 0 {
		maxEntries = 200
	}

	result := ListDirResult{Path: absPath, Entries: make([]DirEntry, 0, len(files))}
	for _, f := range files {
		if !includeHidden && strings.HasPrefix(f.Name(), ".") {
			continue
		}
		if len(result.Entries) >= maxEntries {
			result.Truncated = true
			break
		}
		entry := DirEntry{Name: f.Name(), Type: "file"}
		if f.IsDir() {
			entry.Type = "dir"
		} else if info, err := f.Info(); err == nil {
			entry.Size = info.Size()
		}
		result.Entries = append(result.Entries, entry)
	}

	// dirs first, then by name
	sort.SliceStable(result.Entries, func(i, j int) bool {
		a, b := result.Entries[i], result.Entries[j]
		if a.Type != b.Type {
			return a.Type == "dir"
		}
		return a.Name < b.Name
	})

	return NewResult(result, time.Since(start))
}

// Tree renders a listing as one entry per line, with dirs suffixed by /.
func (r ListDirResult) Tree() string {
	var sb strings.Builder
	sb.WriteString(filepath.Base(r.Path))
	sb.WriteString("/\n")
	for _, e := range r.Entries {
		sb.WriteString("  ")
		sb.WriteString(e.Name)
		if e.Type == "dir" {
			sb.WriteString("/")
		}
		sb.WriteString("\n")
	}
	if r.Truncated {
		sb.WriteString("  ...\n")
	}
	return sb.String()
}
