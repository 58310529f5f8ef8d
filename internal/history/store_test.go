package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"nvrgraph/internal/failures"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	store.now = func() time.Time { return fixed }

	rec, err := store.Add(ctx, Record{
		Template:          "smartnvr",
		Device:            "GPU.1",
		RegularChannels:   2,
		InferenceChannels: 1,
		Stages:            map[string]string{"encoder": "varenderD129h264lpenc"},
		Command:           "gst-launch-1.0 -q fakesrc ! fakesink",
		OutputPath:        "/tmp/out.mp4",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if rec.RunID == "" || rec.ID == 0 {
		t.Fatalf("expected generated identifiers, got %+v", rec)
	}
	if !rec.CreatedAt.Equal(fixed.Truncate(time.Millisecond)) {
		t.Fatalf("created_at = %v", rec.CreatedAt)
	}

	got, err := store.Get(ctx, rec.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Command != rec.Command || got.Stages["encoder"] != "varenderD129h264lpenc" || got.Channels() != 3 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.OutputPath != "/tmp/out.mp4" || !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("unexpected record: %+v", got)
	}

	byPrefix, err := store.Get(ctx, rec.RunID[:8])
	if err != nil || byPrefix.RunID != rec.RunID {
		t.Fatalf("prefix lookup = %+v, %v", byPrefix, err)
	}
}

func TestGetErrors(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, failures.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.Get(ctx, " "); !errors.Is(err, failures.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	for _, id := range []string{"abc-1", "abc-2"} {
		if _, err := store.Add(ctx, Record{RunID: id, Template: "smartnvr", Device: "CPU", Command: "x"}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := store.Get(ctx, "abc"); !errors.Is(err, failures.ErrValidation) {
		t.Fatalf("expected ambiguous prefix error, got %v", err)
	}
	if rec, err := store.Get(ctx, "abc-2"); err != nil || rec.RunID != "abc-2" {
		t.Fatalf("exact lookup = %+v, %v", rec, err)
	}
}

func TestListOrderAndPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		_, err := store.Add(ctx, Record{
			RunID:     id,
			Template:  "smartnvr",
			Device:    "CPU",
			Command:   "cmd",
			CreatedAt: base.Add(time.Duration(i) * 500 * time.Millisecond),
		})
		if err != nil {
			t.Fatalf("Add %s: %v", id, err)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].RunID != "third" || all[2].RunID != "first" {
		t.Fatalf("unexpected order: %+v", all)
	}
	limited, err := store.List(ctx, 1)
	if err != nil || len(limited) != 1 || limited[0].RunID != "third" {
		t.Fatalf("limited list = %+v, %v", limited, err)
	}

	removed, err := store.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed %d, want 1", removed)
	}
	if _, err := store.Get(ctx, "first"); !errors.Is(err, failures.ErrNotFound) {
		t.Fatalf("oldest record should be pruned, got %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()
	first, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if _, err := first.Add(ctx, Record{RunID: "keep", Template: "smartnvr", Device: "CPU", Command: "x"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()
	if _, err := second.Get(ctx, "keep"); err != nil {
		t.Fatalf("record lost across reopen: %v", err)
	}
	if second.Path() != path {
		t.Fatalf("Path() = %q", second.Path())
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); !errors.Is(err, failures.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewRunIDIsUnique(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b || len(a) != 36 {
		t.Fatalf("unexpected run ids %q %q", a, b)
	}
}
