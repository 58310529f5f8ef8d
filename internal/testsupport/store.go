package testsupport

import (
	"context"
	"testing"

	"nvrgraph/internal/config"
	"nvrgraph/internal/history"
)

// MustOpenHistory opens the history store configured in cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(context.Background(), cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddRender stores a minimal render record for tests.
func AddRender(t testing.TB, store *history.Store, runID, command string) history.Record {
	t.Helper()

	rec, err := store.Add(context.Background(), history.Record{
		RunID:             runID,
		Template:          "smartnvr",
		Device:            "CPU",
		InferenceChannels: 1,
		Command:           command,
	})
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return rec
}
