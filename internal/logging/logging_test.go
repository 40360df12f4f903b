package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func logToFile(t *testing.T, opts Options, emit func(logger interface {
	Info(string, ...any)
	Debug(string, ...any)
})) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	opts.OutputPaths = []string{path}
	opts.ErrorOutputPaths = []string{path}
	logger, err := New(opts)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	emit(logger)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func TestConsoleFormat(t *testing.T) {
	out := logToFile(t, Options{Level: "info", Format: "console"}, func(l interface {
		Info(string, ...any)
		Debug(string, ...any)
	}) {
		l.Info("daemon started", String("socket", "/tmp/daemon.sock"), Int("pid", 42))
	})
	if !strings.Contains(out, "INFO") {
		t.Errorf("missing level label: %q", out)
	}
	if !strings.Contains(out, "daemon started") {
		t.Errorf("missing message: %q", out)
	}
	if !strings.Contains(out, "socket=/tmp/daemon.sock") || !strings.Contains(out, "pid=42") {
		t.Errorf("missing attrs: %q", out)
	}
}

func TestConsoleComponentBracket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	logger, err := New(Options{Level: "info", Format: "console", OutputPaths: []string{path}, ErrorOutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	NewComponentLogger(logger, "worker").Info("queued")
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "[worker]") {
		t.Errorf("component not bracketed: %q", data)
	}
}

func TestLevelFiltering(t *testing.T) {
	out := logToFile(t, Options{Level: "warn", Format: "console"}, func(l interface {
		Info(string, ...any)
		Debug(string, ...any)
	}) {
		l.Info("too quiet")
		l.Debug("quieter still")
	})
	if strings.Contains(out, "too quiet") || strings.Contains(out, "quieter") {
		t.Errorf("suppressed levels were written: %q", out)
	}
}

func TestJSONFormatKeys(t *testing.T) {
	out := logToFile(t, Options{Level: "info", Format: "json"}, func(l interface {
		Info(string, ...any)
		Debug(string, ...any)
	}) {
		l.Info("hello", String("k", "v"))
	})
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &record); err != nil {
		t.Fatalf("log line is not json: %v\n%q", err, out)
	}
	if record["msg"] != "hello" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Errorf("level = %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Error("ts key missing")
	}
	if record["k"] != "v" {
		t.Errorf("attr lost: %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("unknown format accepted")
	}
}

func TestNewCreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "daemon.log")
	logger, err := New(Options{Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("created")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestErrorAttr(t *testing.T) {
	if got := Error(nil); got.Value.String() != "<nil>" {
		t.Errorf("nil error attr = %v", got)
	}
}
