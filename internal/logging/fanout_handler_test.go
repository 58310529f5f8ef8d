package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected the single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRoutesByLevel(t *testing.T) {
	var console, file bytes.Buffer
	info := slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo})
	debug := slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := newFanoutHandler(info, debug)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug to be enabled through the debug handler")
	}

	logger := slog.New(h).With(slog.String(FieldRunID, "r1"))
	logger.Debug("stage selected")
	logger.Info("pipeline evaluated")

	if strings.Contains(console.String(), "stage selected") {
		t.Fatalf("info handler received debug record: %q", console.String())
	}
	if !strings.Contains(console.String(), "pipeline evaluated") || !strings.Contains(console.String(), "run_id=r1") {
		t.Fatalf("info handler missing record: %q", console.String())
	}
	if strings.Count(file.String(), `"run_id":"r1"`) != 2 {
		t.Fatalf("debug handler should see both records: %q", file.String())
	}
}

func TestFanoutHandlerWithGroup(t *testing.T) {
	var a, b bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil)).WithGroup("stage")
	slog.New(h).Info("grouped", slog.String("role", "encoder"))
	for _, out := range []string{a.String(), b.String()} {
		if !strings.Contains(out, `"stage":{"role":"encoder"}`) {
			t.Fatalf("expected grouped attr, got %q", out)
		}
	}
}
