package orchestrator

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDebugLogger_WritesToFile(t *testing.T) {
	dataDir := t.TempDir()
	l := NewDebugLoggerForDataDir(dataDir)

	l.Log("[dispatch] %s", "ember")
	std := log.New(l, "", 0)
	std.Printf("[registry] redirected")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dataDir, "logs", DebugLogFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"work debug log started", "[dispatch] ember", "[registry] redirected"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log missing %q:\n%s", want, data)
		}
	}
}

func TestDebugLogger_Nop(t *testing.T) {
	var nilLogger *DebugLogger
	nilLogger.Log("ignored")
	if err := nilLogger.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}

	l := NopLogger()
	if n, err := l.Write([]byte("x")); n != 1 || err != nil {
		t.Errorf("Write = %d, %v", n, err)
	}
}
