package testsupport

import (
	"context"
	"testing"

	"audiosurv/internal/alerts"
	"audiosurv/internal/alertstore"
	"audiosurv/internal/persistence"
)

// MustOpenStore opens an alert store over an in-memory backend and registers
// cleanup. Seed alerts are inserted oldest first so they end up newest first.
func MustOpenStore(t testing.TB, seed ...alerts.Alert) (*alertstore.Store, *persistence.Memory) {
	t.Helper()

	backend := persistence.NewMemory()
	store := alertstore.New(alertstore.Options{Backend: backend})
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	for i := len(seed) - 1; i >= 0; i-- {
		if err := store.Insert(seed[i]); err != nil {
			t.Fatalf("store.Insert: %v", err)
		}
	}
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return store, backend
}

// MustOpenKeywordStore opens an empty keyword store over an in-memory backend.
func MustOpenKeywordStore(t testing.TB) *alertstore.KeywordStore {
	t.Helper()

	store := alertstore.NewKeywordStore(alertstore.Options{Backend: persistence.NewMemory()})
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("keywords.Load: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return store
}
