package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"json", Config{Level: "info", Format: "json"}, false},
		{"text", Config{Level: "debug", Format: "text"}, false},
		{"console", Config{Level: "warn", Format: "console"}, false},
		{"defaults", Config{}, false},
		{"invalid level", Config{Level: "loud", Format: "json"}, true},
		{"invalid format", Config{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_JSONFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.With("component", "expander").Info("expansion complete", "macro_invocations", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "expansion complete" {
		t.Errorf("msg = %v, want %q", entry["msg"], "expansion complete")
	}
	if entry["component"] != "expander" {
		t.Errorf("component = %v, want expander", entry["component"])
	}
	if entry["macro_invocations"] != float64(3) {
		t.Errorf("macro_invocations = %v, want 3", entry["macro_invocations"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Level: "warn", Format: "text", Writer: buf})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("filtered messages were written:\n%s", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Errorf("warn message missing:\n%s", out)
	}

	logger.SetLevel(slog.LevelDebug)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("SetLevel(debug) did not enable debug output")
	}
}

func TestLogger_SlogSharesLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Level: "error", Format: "text", Writer: buf})
	s := logger.Slog()

	s.Info("hidden")
	logger.SetLevel(slog.LevelInfo)
	s.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestLogger_ConsoleOmitsTime(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Level: "info", Format: "console", Writer: buf})
	logger.Info("hello")

	if strings.Contains(buf.String(), "time=") {
		t.Errorf("console output contains time: %q", buf.String())
	}
}

func TestLogger_ContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Level: "debug", Format: "text", Writer: buf})

	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithFile(ctx, "robot.xacro")
	ctx = WithMacro(ctx, "wheel")
	logger.InfoContext(ctx, "expanded")

	out := buf.String()
	for _, want := range []string{"run_id=run-1", "file=robot.xacro", "macro=wheel"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	logger.WithContext(ctx).Warn("plain")
	if !strings.Contains(buf.String(), "run_id=run-1") {
		t.Errorf("WithContext() lost fields:\n%s", buf.String())
	}
}

func TestContextGetters(t *testing.T) {
	ctx := context.Background()
	if GetRunID(ctx) != "" || GetFile(ctx) != "" || GetMacro(ctx) != "" || GetTraceID(ctx) != "" {
		t.Error("empty context returned values")
	}

	ctx = WithTraceID(ctx, "abc")
	if got := GetTraceID(ctx); got != "abc" {
		t.Errorf("GetTraceID() = %q, want %q", got, "abc")
	}
	if got := len(extractContextFields(ctx)); got != 2 {
		t.Errorf("len(extractContextFields) = %d, want 2", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(verbose) expected error")
	}
}

func TestFromSlog(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	l := FromSlog(base)
	if l.Slog() != base {
		t.Error("Slog() does not return the wrapped logger")
	}
	l.InfoContext(WithRunID(context.Background(), "run-9"), "hello")
	if !strings.Contains(buf.String(), `"run_id":"run-9"`) {
		t.Errorf("output = %q, want run_id field", buf.String())
	}

	if FromSlog(nil).Slog() != slog.Default() {
		t.Error("FromSlog(nil) does not use slog.Default()")
	}
}
