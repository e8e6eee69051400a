package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitDisabledIsNoop(t *testing.T) {
	resetForTest()
	t.Cleanup(resetForTest)

	if err := Init(false, ""); err != nil {
		t.Fatalf("Init(false) failed: %v", err)
	}
	if Enabled() {
		t.Fatal("Enabled() should be false")
	}
	Log("dropped")
	Logf("dropped %d", 1)
}

func TestInitWritesToExplicitPath(t *testing.T) {
	resetForTest()
	path := filepath.Join(t.TempDir(), "nested", "widget.log")
	t.Cleanup(func() {
		Close()
		resetForTest()
	})

	if err := Init(true, path); err != nil {
		t.Fatalf("Init(true) failed: %v", err)
	}
	Logf("fetch issues seq=%d", 7)

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), "debug log started") {
		t.Fatalf("missing startup banner:\n%s", content)
	}
	if !strings.Contains(string(content), "fetch issues seq=7") {
		t.Fatalf("missing log line:\n%s", content)
	}
}

func TestInitDefaultPathTruncates(t *testing.T) {
	resetForTest()
	tmpDir := t.TempDir()
	origGetLogPath := getLogPath
	getLogPath = func() (string, error) {
		return filepath.Join(tmpDir, LogDirName, LogFileName), nil
	}
	t.Cleanup(func() {
		getLogPath = origGetLogPath
		Close()
		resetForTest()
	})

	logPath := filepath.Join(tmpDir, LogDirName, LogFileName)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(logPath, []byte("stale line\n"), 0o600); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	if err := Init(true, ""); err != nil {
		t.Fatalf("Init(true) failed: %v", err)
	}
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(content), "stale line") {
		t.Fatal("expected previous log to be truncated")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	resetForTest()
	t.Cleanup(resetForTest)
	if err := Init(true, filepath.Join(t.TempDir(), LogFileName)); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	Close()
	Close()
}

func resetForTest() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	enabled = false
	logger = nil
}
