package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitLoggerWritesJSONFile(t *testing.T) {
	t.Cleanup(func() { Log = zap.NewNop().Sugar() })
	path := filepath.Join(t.TempDir(), "test.log")
	if err := InitLogger(path, "info"); err != nil {
		t.Fatalf("init: %v", err)
	}
	Log.Debugw("hidden", "k", 1)
	Log.Infow("room created", "room", "r1")
	SyncLogger()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"msg":"room created"`) || !strings.Contains(out, `"room":"r1"`) {
		t.Fatalf("expected structured entry, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug entry to be filtered, got %q", out)
	}
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	t.Cleanup(func() { Log = zap.NewNop().Sugar() })
	if err := InitLogger("", "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
