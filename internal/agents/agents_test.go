package agents

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"debuggenie/internal/config"
	"debuggenie/internal/llm"
	"debuggenie/internal/models"
	"debuggenie/internal/tools"
)

type fakeCaller struct {
	reply    string
	err      error
	requests []llm.Request
	metrics  llm.Metrics
}

func (f *fakeCaller) Call(ctx context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeCaller) Metrics() *llm.Metrics { return &f.metrics }

func TestWebAgent_Analyze(t *testing.T) {
	c := &fakeCaller{reply: "```json\n{\"summary\":\"known issue\",\"solutions\":[{\"title\":\"Upgrade lib\",\"votes\":120}]}\n```"}
	agent := NewWebAgent(c, nil)

	out, err := agent.Analyze(context.Background(), models.ErrorContext{
		ErrorText: "ModuleNotFoundError: No module named 'requests'",
		Type:      models.ContextTerminal,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if out["summary"] != "known issue" {
		t.Errorf("summary = %v", out["summary"])
	}
	if diff := cmp.Diff([]any{}, out["references"]); diff != "" {
		t.Errorf("references default mismatch (-want +got):\n%s", diff)
	}

	req := c.requests[0]
	if !req.JSON || req.System == "" {
		t.Errorf("unexpected request flags: %+v", req)
	}
	if !strings.Contains(req.Prompt, "captured in: terminal") || !strings.Contains(req.Prompt, "No module named 'requests'") {
		t.Errorf("prompt missing context:\n%s", req.Prompt)
	}
}

func TestAnalyze_SanitizesErrorText(t *testing.T) {
	c := &fakeCaller{reply: `{}`}
	agent := NewWebAgent(c, nil)

	_, err := agent.Analyze(context.Background(), models.ErrorContext{
		ErrorText: "auth failed: Authorization: Bearer FAKEtoken123",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if strings.Contains(c.requests[0].Prompt, "FAKEtoken123") {
		t.Error("token leaked into prompt")
	}
}

func TestAnalyze_Errors(t *testing.T) {
	t.Run("caller error", func(t *testing.T) {
		boom := errors.New("ollama down")
		agent := NewWebAgent(&fakeCaller{err: boom}, nil)
		if _, err := agent.Analyze(context.Background(), models.ErrorContext{ErrorText: "x"}); !errors.Is(err, boom) {
			t.Errorf("expected caller error, got %v", err)
		}
	})

	t.Run("prose reply", func(t *testing.T) {
		agent := NewWebAgent(&fakeCaller{reply: "I could not find anything."}, nil)
		_, err := agent.Analyze(context.Background(), models.ErrorContext{ErrorText: "x"})
		var decodeErr *llm.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("expected DecodeError, got %v", err)
		}
	})
}

func TestWithDefaults_ClampsConfidence(t *testing.T) {
	got := withDefaults(map[string]any{"confidence_score": 3.0}, map[string]any{"a": "x"})
	want := map[string]any{"confidence_score": 1.0, "a": "x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestVisualAgent_Analyze(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	if err := os.WriteFile(path, []byte("fake-png"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		ec     models.ErrorContext
		prompt string
		image  string
	}{
		{"bytes console", models.ErrorContext{Image: []byte("raw"), Type: models.ContextConsole}, "browser console", "raw"},
		{"path ide", models.ErrorContext{ImagePath: path, Type: models.ContextIDE}, "IDE screenshot", "fake-png"},
		{"default general", models.ErrorContext{Image: []byte("raw")}, "technical errors or bugs", "raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCaller{reply: `{"detected_error":"500 on /api"}`}
			out, err := NewVisualAgent(c, nil).Analyze(context.Background(), tt.ec)
			if err != nil {
				t.Fatalf("Analyze failed: %v", err)
			}
			if out["detected_error"] != "500 on /api" || out["error_location"] != "unknown" {
				t.Errorf("unexpected output: %v", out)
			}
			req := c.requests[0]
			if !strings.Contains(req.Prompt, tt.prompt) {
				t.Errorf("prompt should contain %q:\n%s", tt.prompt, req.Prompt)
			}
			if len(req.Images) != 1 || string(req.Images[0]) != tt.image {
				t.Errorf("images = %q", req.Images)
			}
		})
	}
}

func TestVisualAgent_NoImage(t *testing.T) {
	c := &fakeCaller{}
	_, err := NewVisualAgent(c, nil).Analyze(context.Background(), models.ErrorContext{ErrorText: "x"})
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("expected ErrNoImage, got %v", err)
	}
	if len(c.requests) != 0 {
		t.Error("model should not be called without an image")
	}

	_, err = NewVisualAgent(c, nil).Analyze(context.Background(), models.ErrorContext{ImagePath: "/nonexistent/shot.png"})
	if err == nil || errors.Is(err, ErrNoImage) {
		t.Errorf("expected load error, got %v", err)
	}
}

func TestFileRefs(t *testing.T) {
	text := `Traceback (most recent call last):
  File "app/main.py", line 12, in <module>
    run()
  File "app/main.py", line 12, in <module>
TypeError at src/handler.ts:40:7 (see http://localhost.dev:8080/docs)
    at helper (lib/util.js:3)
    at other (lib/extra.js:9)`

	got := FileRefs(text)
	want := []FileRef{
		{Path: "app/main.py", Line: 12},
		{Path: "src/handler.ts", Line: 40},
		{Path: "lib/util.js", Line: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FileRefs mismatch (-want +got):\n%s", diff)
	}
}

func TestIdentifiers(t *testing.T) {
	got := Identifiers(`NameError: name 'load_user' is not defined; also "config.yaml" and 'load_user' and ` + "`UserService`" + ` and 'third'`)
	want := []string{"load_user", "UserService"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Identifiers mismatch (-want +got):\n%s", diff)
	}
}

func TestCodeAgent_GathersWorkspaceEvidence(t *testing.T) {
	root := t.TempDir()
	src := "package app\n\nfunc loadUser(id int) {\n\tvar m map[int]string\n\tm[id] = \"x\"\n}\n"
	if err := os.MkdirAll(filepath.Join(root, "app"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "app", "user.go"), []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	c := &fakeCaller{reply: `{"root_cause_hypothesis":"nil map write","affected_files":["app/user.go"]}`}
	agent := NewCodeAgent(c, tools.DefaultRegistry(tools.Workspace{Root: root}), nil)

	out, err := agent.Analyze(context.Background(), models.ErrorContext{
		ErrorText:   "panic: assignment to entry in nil map\n\tapp/user.go:5 +0x1d",
		CodeContext: "m[id] = \"x\"",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if out["root_cause_hypothesis"] != "nil map write" {
		t.Errorf("unexpected output: %v", out)
	}

	prompt := c.requests[0].Prompt
	for _, want := range []string{"Project layout:", "app/", "app/user.go (lines 1-7)", "5  \tm[id] = \"x\"", "Code provided by the user:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

type oddTool struct{ name string }

func (o oddTool) Name() string { return o.name }
func (o oddTool) Description() string { return "returns an unexpected payload" }
func (o oddTool) Parameters() []tools.ToolParam { return nil }
func (o oddTool) Execute(ctx context.Context, params map[string]any) tools.ToolResult {
	return tools.NewResult("plain text", 0)
}

func TestCodeAgent_UnexpectedToolPayload(t *testing.T) {
	reg := tools.NewRegistry()
	for _, name := range []string{"list_dir", "read_file", "search_codebase"} {
		reg.MustRegister(oddTool{name: name})
	}
	c := &fakeCaller{reply: `{}`}

	_, err := NewCodeAgent(c, reg, nil).Analyze(context.Background(), models.ErrorContext{
		ErrorText: "NameError: name 'load_user' is not defined at app/user.py:5",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if strings.Contains(c.requests[0].Prompt, "app/user.py (lines") {
		t.Error("unexpected payload should not be rendered as a file snippet")
	}
}

func TestCodeAgent_NoRegistry(t *testing.T) {
	c := &fakeCaller{reply: `{}`}
	out, err := NewCodeAgent(c, nil, nil).Analyze(context.Background(), models.ErrorContext{ErrorText: "boom at x.go:1"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if strings.Contains(c.requests[0].Prompt, "Workspace evidence") {
		t.Error("no evidence expected without tools")
	}
	if out["confidence_score"] != 0.0 {
		t.Errorf("confidence default = %v", out["confidence_score"])
	}
}

func TestSynthesizer(t *testing.T) {
	c := &fakeCaller{reply: "report"}
	s := NewSynthesizer(c, nil)
	out, err := s.Synthesize(context.Background(), "merge these")
	if err != nil || out != "report" {
		t.Fatalf("Synthesize = %q, %v", out, err)
	}
	if c.requests[0].Prompt != "merge these" || !c.requests[0].JSON {
		t.Errorf("unexpected request: %+v", c.requests[0])
	}
	if _, ok := s.Metrics()["api_calls"]; !ok {
		t.Error("metrics should expose api_calls")
	}
}

func TestNewSet(t *testing.T) {
	cfg := config.Default()
	cfg.RequestTimeout = time.Second

	set := NewSet(cfg, t.TempDir(), nil)
	if set.Web == nil || set.Code == nil || set.Visual == nil || set.Synthesis == nil {
		t.Fatalf("incomplete set: %+v", set)
	}
	if set.Code.tools.Count() != 3 {
		t.Errorf("code agent should have 3 tools, got %d", set.Code.tools.Count())
	}
}
