package alertstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"audiosurv/internal/alerts"
	"audiosurv/internal/alertstore"
	"audiosurv/internal/persistence"
)

func newStore(t *testing.T, backend persistence.Backend) *alertstore.Store {
	t.Helper()
	store := alertstore.New(alertstore.Options{Backend: backend})
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func sampleAlert(id string, state alerts.AnalysisState) alerts.Alert {
	return alerts.Alert{
		ID:              id,
		Timestamp:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		KeywordDetected: "shipment",
		ThreatRating:    alerts.ThreatMedium,
		SemanticSummary: alerts.PlaceholderSummary,
		FullTranscript:  "the shipment arrives tonight",
		AudioSrc:        "data:audio/wav;base64,AAAA",
		AnalysisState:   state,
	}
}

func ids(list []alerts.Alert) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

func TestInsertPrependsNewestFirst(t *testing.T) {
	store := newStore(t, nil)
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Insert(sampleAlert(id, alerts.StateComplete)); err != nil {
			t.Fatalf("Insert(%s): %v", id, err)
		}
	}
	if got := strings.Join(ids(store.Alerts()), ","); got != "c,b,a" {
		t.Fatalf("unexpected order %q", got)
	}
	if store.Len() != 3 {
		t.Fatalf("unexpected length %d", store.Len())
	}
}

func TestInsertRejectsDuplicateAndEmptyIDs(t *testing.T) {
	store := newStore(t, nil)
	if err := store.Insert(sampleAlert("a", alerts.StateComplete)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.Insert(sampleAlert("a", alerts.StateComplete)); !errors.Is(err, alertstore.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if err := store.Insert(sampleAlert("", alerts.StateComplete)); !errors.Is(err, alerts.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("collection changed: %v", ids(store.Alerts()))
	}
}

func TestPatchReassignsIdentityAtomically(t *testing.T) {
	store := newStore(t, nil)
	original := sampleAlert("alert-temp-1", alerts.StatePreliminary)
	if err := store.Insert(original); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	finalID := "alert-1"
	rating := alerts.ThreatHigh
	summary := "Coordinating a handoff."
	state := alerts.StateComplete
	slang := []alerts.SlangTerm{{Term: "package", Meaning: "contraband"}}
	ok := store.Patch("alert-temp-1", alerts.AlertPatch{
		ID:              &finalID,
		ThreatRating:    &rating,
		SemanticSummary: &summary,
		SlangDetected:   &slang,
		AnalysisState:   &state,
	})
	if !ok {
		t.Fatal("expected patch to match")
	}
	if _, found := store.Get("alert-temp-1"); found {
		t.Fatal("temp id should be gone after patch")
	}
	got, found := store.Get(finalID)
	if !found {
		t.Fatal("expected alert under final id")
	}
	if got.ThreatRating != alerts.ThreatHigh || got.SemanticSummary != summary || got.AnalysisState != alerts.StateComplete {
		t.Fatalf("patch not applied: %+v", got)
	}
	if !got.Timestamp.Equal(original.Timestamp) || got.FullTranscript != original.FullTranscript {
		t.Fatalf("timestamp/transcript changed: %+v", got)
	}
	if got.KeywordDetected != original.KeywordDetected || got.AudioSrc != original.AudioSrc {
		t.Fatalf("unpatched fields changed: %+v", got)
	}
	if len(got.SlangDetected) != 1 {
		t.Fatalf("expected slang, got %+v", got.SlangDetected)
	}
}

func TestPatchMissingIDIsNoOp(t *testing.T) {
	store := newStore(t, nil)
	if err := store.Insert(sampleAlert("a", alerts.StateComplete)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	before := store.Version()
	summary := "x"
	if store.Patch("missing", alerts.AlertPatch{SemanticSummary: &summary}) {
		t.Fatal("expected no match")
	}
	if store.Version() != before {
		t.Fatal("version should not change on a no-op patch")
	}
}

func TestPatchNeverRevertsComplete(t *testing.T) {
	store := newStore(t, nil)
	if err := store.Insert(sampleAlert("a", alerts.StateComplete)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	state := alerts.StatePreliminary
	store.Patch("a", alerts.AlertPatch{AnalysisState: &state})
	got, _ := store.Get("a")
	if got.AnalysisState != alerts.StateComplete {
		t.Fatalf("complete alert reverted to %q", got.AnalysisState)
	}
}

func TestRemoveRejectsPreliminary(t *testing.T) {
	store := newStore(t, nil)
	if err := store.Insert(sampleAlert("done", alerts.StateComplete)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.Insert(sampleAlert("pending", alerts.StatePreliminary)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	before := ids(store.Alerts())

	removed, err := store.Remove("pending")
	if removed || !errors.Is(err, alerts.ErrDeletionRejected) {
		t.Fatalf("expected rejection, got removed=%v err=%v", removed, err)
	}
	if got := ids(store.Alerts()); strings.Join(got, ",") != strings.Join(before, ",") {
		t.Fatalf("collection changed after rejected delete: %v", got)
	}

	removed, err = store.Remove("done")
	if !removed || err != nil {
		t.Fatalf("expected removal, got removed=%v err=%v", removed, err)
	}
	removed, err = store.Remove("unknown")
	if removed || err != nil {
		t.Fatalf("expected no-op, got removed=%v err=%v", removed, err)
	}
	if got := ids(store.Alerts()); len(got) != 1 || got[0] != "pending" {
		t.Fatalf("unexpected collection %v", got)
	}
}

func TestDiscardRemovesPreliminary(t *testing.T) {
	store := newStore(t, nil)
	if err := store.Insert(sampleAlert("pending", alerts.StatePreliminary)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !store.Discard("pending") {
		t.Fatal("expected discard to remove preliminary alert")
	}
	if store.Discard("pending") {
		t.Fatal("second discard should be a no-op")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %v", ids(store.Alerts()))
	}
}

func TestAlertsReturnsIndependentCopies(t *testing.T) {
	store := newStore(t, nil)
	alert := sampleAlert("a", alerts.StateComplete)
	alert.SlangDetected = []alerts.SlangTerm{{Term: "bird", Meaning: "kilo"}}
	if err := store.Insert(alert); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	snapshot := store.Alerts()
	snapshot[0].SlangDetected[0].Term = "mutated"
	snapshot[0].SemanticSummary = "mutated"

	got, _ := store.Get("a")
	if got.SlangDetected[0].Term != "bird" || got.SemanticSummary == "mutated" {
		t.Fatalf("store shares memory with snapshot: %+v", got)
	}
}

func TestSnapshotPairsAlertsWithVersion(t *testing.T) {
	store := newStore(t, nil)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = store.Insert(sampleAlert(fmt.Sprintf("a-%d", i), alerts.StateComplete))
		}
	}()
	for i := 0; i < 200; i++ {
		list, version := store.Snapshot()
		// Each insert bumps the version once on an empty store.
		if uint64(len(list)) != version {
			t.Fatalf("snapshot has %d alerts at version %d", len(list), version)
		}
	}
	wg.Wait()
}

func TestSubscribeReceivesIncreasingVersions(t *testing.T) {
	store := newStore(t, nil)
	updates, cancel := store.Subscribe()
	defer cancel()

	if err := store.Insert(sampleAlert("a", alerts.StateComplete)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	first := <-updates
	if _, err := store.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	second := <-updates
	if second <= first {
		t.Fatalf("expected increasing versions, got %d then %d", first, second)
	}

	cancel()
	if err := store.Insert(sampleAlert("b", alerts.StateComplete)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	select {
	case v := <-updates:
		t.Fatalf("cancelled subscriber received %d", v)
	default:
	}
}

func TestPersistStripsAudio(t *testing.T) {
	backend := persistence.NewMemory()
	store := newStore(t, backend)
	if err := store.Insert(sampleAlert("a", alerts.StateComplete)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := backend.Get(context.Background(), persistence.KeyAlerts)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if strings.Contains(string(data), "audioSrc") || strings.Contains(string(data), "base64") {
		t.Fatalf("persisted data contains audio: %s", data)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) != 1 || raw[0]["id"] != "a" || raw[0]["keywordDetected"] != "shipment" {
		t.Fatalf("unexpected persisted record: %v", raw)
	}

	inMemory, _ := store.Get("a")
	if inMemory.AudioSrc == "" {
		t.Fatal("in-memory alert lost its audio")
	}
}

func TestLoadNormalizesToComplete(t *testing.T) {
	backend := persistence.NewMemory()
	payload := `[{"id":"x","timestamp":"2024-01-02T03:04:05Z","keywordDetected":"k","threatRating":"Low",` +
		`"semanticSummary":"s","fullTranscript":"t","analysisState":"preliminary"},{"id":"","threatRating":"Low"}]`
	if err := backend.Put(context.Background(), persistence.KeyAlerts, []byte(payload)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	store := newStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	list := store.Alerts()
	if len(list) != 1 {
		t.Fatalf("expected one alert, got %v", ids(list))
	}
	if list[0].AnalysisState != alerts.StateComplete {
		t.Fatalf("expected complete, got %q", list[0].AnalysisState)
	}
	if removed, err := store.Remove("x"); !removed || err != nil {
		t.Fatalf("loaded alert should be deletable: removed=%v err=%v", removed, err)
	}
}

func TestLoadMissingSeedsDemoAlerts(t *testing.T) {
	store := alertstore.New(alertstore.Options{Backend: persistence.NewMemory(), SeedDemoAlerts: true})
	defer store.Close(context.Background())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if store.Len() != 4 {
		t.Fatalf("expected four demo alerts, got %d", store.Len())
	}

	unseeded := newStore(t, persistence.NewMemory())
	if err := unseeded.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if unseeded.Len() != 0 {
		t.Fatalf("expected empty collection, got %d", unseeded.Len())
	}
}

func TestLoadCorruptFallsBack(t *testing.T) {
	backend := persistence.NewMemory()
	if err := backend.Put(context.Background(), persistence.KeyAlerts, []byte("{not json")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	store := alertstore.New(alertstore.Options{Backend: backend, SeedDemoAlerts: true})
	defer store.Close(context.Background())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("corrupt data must not fail Load: %v", err)
	}
	if store.Len() != 4 {
		t.Fatalf("expected seed fallback, got %d alerts", store.Len())
	}
}

type unreadableBackend struct {
	persistence.Backend
}

func (unreadableBackend) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("permission denied")
}

func TestLoadUnreadableFallsBack(t *testing.T) {
	var reported []string
	store := alertstore.New(alertstore.Options{
		Backend:        unreadableBackend{Backend: persistence.NewMemory()},
		SeedDemoAlerts: true,
		OnPersistError: func(key string, err error) {
			if !errors.Is(err, alerts.ErrPersistence) {
				t.Errorf("expected persistence error, got %v", err)
			}
			reported = append(reported, key)
		},
	})
	defer store.Close(context.Background())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("unreadable storage must not fail Load: %v", err)
	}
	if store.Len() != 4 {
		t.Fatalf("expected seed fallback, got %d alerts", store.Len())
	}
	if len(reported) != 1 || reported[0] != persistence.KeyAlerts {
		t.Fatalf("expected one read failure report, got %v", reported)
	}
}

func TestLoadEmptySavedCollectionDoesNotSeed(t *testing.T) {
	backend := persistence.NewMemory()
	if err := backend.Put(context.Background(), persistence.KeyAlerts, []byte("[]")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	store := alertstore.New(alertstore.Options{Backend: backend, SeedDemoAlerts: true})
	defer store.Close(context.Background())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("operator-cleared collection was reseeded: %d", store.Len())
	}
}

type failingBackend struct {
	persistence.Backend
}

func (failingBackend) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestPersistFailureIsReportedNotReturned(t *testing.T) {
	var (
		mu     sync.Mutex
		failed []error
	)
	store := alertstore.New(alertstore.Options{
		Backend: failingBackend{Backend: persistence.NewMemory()},
		OnPersistError: func(key string, err error) {
			mu.Lock()
			defer mu.Unlock()
			if key != persistence.KeyAlerts {
				t.Errorf("unexpected key %q", key)
			}
			failed = append(failed, err)
		},
	})
	defer store.Close(context.Background())

	if err := store.Insert(sampleAlert("a", alerts.StateComplete)); err != nil {
		t.Fatalf("Insert must succeed despite persistence failure: %v", err)
	}
	if err := store.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(failed) == 0 || !errors.Is(failed[0], alerts.ErrPersistence) {
		t.Fatalf("expected persistence error report, got %v", failed)
	}
	if store.Len() != 1 {
		t.Fatal("alert should remain in memory")
	}
}

func TestPersistWritesLatestSnapshot(t *testing.T) {
	backend := persistence.NewMemory()
	store := newStore(t, backend)
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := store.Insert(sampleAlert(id, alerts.StateComplete)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if err := store.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	data, err := backend.Get(context.Background(), persistence.KeyAlerts)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	restored, err := alertstore.DecodeAlerts(data)
	if err != nil {
		t.Fatalf("DecodeAlerts: %v", err)
	}
	if got := strings.Join(ids(restored), ","); got != "d,c,b,a" {
		t.Fatalf("unexpected persisted order %q", got)
	}
	if backend.Puts() > 4 {
		t.Fatalf("expected coalesced writes, got %d", backend.Puts())
	}
}

func TestConcurrentMutations(t *testing.T) {
	store := newStore(t, persistence.NewMemory())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "alert-" + string(rune('a'+i))
			if err := store.Insert(sampleAlert(id, alerts.StatePreliminary)); err != nil {
				t.Errorf("Insert: %v", err)
				return
			}
			_ = store.Alerts()
			store.Discard(id)
		}(i)
	}
	wg.Wait()
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %v", ids(store.Alerts()))
	}
}
