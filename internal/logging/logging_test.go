package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPreInitLoggerUsesConfiguredHandler(t *testing.T) {
	logger := L("ignore")

	var buf bytes.Buffer
	Init("text", "info", &buf)

	logger.Info("ledger loaded", KeyPath, "/tmp/ledger.json")

	out := buf.String()
	if !strings.Contains(out, `msg="ledger loaded"`) {
		t.Fatalf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=ignore") {
		t.Fatalf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "path=/tmp/ledger.json") {
		t.Fatalf("expected path field, got: %s", out)
	}
}

func TestPreInitLoggerRespectsConfiguredLevel(t *testing.T) {
	logger := L("updates")

	var buf bytes.Buffer
	Init("text", "warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info log should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn log should be emitted: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "debug", &buf)

	L("options").Debug("saved", KeyPackage, "Mozilla.Firefox")

	out := buf.String()
	if !strings.Contains(out, `"component":"options"`) || !strings.Contains(out, `"package":"Mozilla.Firefox"`) {
		t.Fatalf("unexpected json output: %s", out)
	}
}

func TestRotatingWriterShiftsBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "engine.log")
	w, err := NewRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	for i := 0; i < 4; i++ {
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Fatalf("expected first backup: %v", err)
	}
	if _, err := os.Stat(path + ".2"); err != nil {
		t.Fatalf("expected second backup: %v", err)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Fatalf("expected no third backup, got err=%v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", "WARNING": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO"}
	for in, want := range cases {
		if got := ParseLevel(in).String(); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
