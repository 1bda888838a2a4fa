package debug

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogDisabledWritesNothing(t *testing.T) {
	Disable()
	Log("test", "hello %d", 1)
	if Enabled() {
		t.Error("Enabled() should be false after Disable")
	}
}

func TestEnableWriter(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	Log("host", "decoded %d notes", 3)
	Error("encoder", errors.New("boom"))
	Error("encoder", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "host") || !strings.HasSuffix(lines[0], "decoded 3 notes") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "dice error: boom") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestEnableFile(t *testing.T) {
	Disable()
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	if err := Enable(path); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	Log("store", "flushed")
	Disable()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Debug logging started") || !strings.Contains(string(data), "flushed") {
		t.Errorf("log file = %q", string(data))
	}
}
