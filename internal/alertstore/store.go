package alertstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"audiosurv/internal/alerts"
	"audiosurv/internal/logging"
	"audiosurv/internal/persistence"
)

// ErrDuplicateID reports an insert whose identity is already present.
var ErrDuplicateID = errors.New("alert id already exists")

// Options configures a Store.
type Options struct {
	// Backend receives persisted snapshots. Nil disables persistence.
	Backend persistence.Backend
	Logger  *slog.Logger
	// SeedDemoAlerts loads the demonstration alerts when no collection has been saved yet.
	SeedDemoAlerts bool
	// OnPersistError observes background write failures.
	OnPersistError func(key string, err error)
	Now            func() time.Time
}

// Store is the ordered alert collection.
type Store struct {
	mu      sync.RWMutex
	alerts  []alerts.Alert
	version uint64

	subMu        sync.Mutex
	subs         map[chan uint64]struct{}
	lastNotified uint64

	backend persistence.Backend
	logger  *slog.Logger
	seed    bool
	now     func() time.Time
	writer  *writer
}

// New constructs an empty store. Call Load to restore persisted alerts.
func New(opts Options) *Store {
	logger := logging.NewComponentLogger(opts.Logger, "alertstore")
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		subs:    make(map[chan uint64]struct{}),
		backend: opts.Backend,
		logger:  logger,
		seed:    opts.SeedDemoAlerts,
		now:     now,
		writer:  newWriter(persistence.KeyAlerts, opts.Backend, logger, opts.OnPersistError),
	}
}

// alertRecord is the persisted shape of an alert. It has no audio field.
type alertRecord struct {
	ID                 string               `json:"id"`
	Timestamp          time.Time            `json:"timestamp"`
	KeywordDetected    string               `json:"keywordDetected"`
	ThreatRating       alerts.ThreatRating  `json:"threatRating"`
	SemanticSummary    string               `json:"semanticSummary"`
	FullTranscript     string               `json:"fullTranscript"`
	EnglishTranslation string               `json:"englishTranslation,omitempty"`
	SlangDetected      []alerts.SlangTerm   `json:"slangDetected,omitempty"`
	AnalysisState      alerts.AnalysisState `json:"analysisState"`
}

func toRecord(a alerts.Alert) alertRecord {
	a = a.Stripped()
	return alertRecord{
		ID:                 a.ID,
		Timestamp:          a.Timestamp,
		KeywordDetected:    a.KeywordDetected,
		ThreatRating:       a.ThreatRating,
		SemanticSummary:    a.SemanticSummary,
		FullTranscript:     a.FullTranscript,
		EnglishTranslation: a.EnglishTranslation,
		SlangDetected:      a.SlangDetected,
		AnalysisState:      a.AnalysisState,
	}
}

// fromRecord restores a persisted alert. Anything loaded from storage is
// complete: a preliminary alert saved mid-analysis has no pipeline left to
// finish it.
func fromRecord(r alertRecord) alerts.Alert {
	return alerts.Alert{
		ID:                 r.ID,
		Timestamp:          r.Timestamp,
		KeywordDetected:    r.KeywordDetected,
		ThreatRating:       r.ThreatRating,
		SemanticSummary:    r.SemanticSummary,
		FullTranscript:     r.FullTranscript,
		EnglishTranslation: r.EnglishTranslation,
		SlangDetected:      r.SlangDetected,
		AnalysisState:      alerts.StateComplete,
	}
}

// EncodeAlerts renders the persisted form of a collection.
func EncodeAlerts(list []alerts.Alert) ([]byte, error) {
	records := make([]alertRecord, 0, len(list))
	for _, a := range list {
		records = append(records, toRecord(a))
	}
	return json.Marshal(records)
}

// DecodeAlerts parses a persisted collection, normalizing every alert to complete.
func DecodeAlerts(data []byte) ([]alerts.Alert, error) {
	var records []alertRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	out := make([]alerts.Alert, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			continue
		}
		out = append(out, fromRecord(r))
	}
	return out, nil
}

// Load replaces the collection with the persisted one. A missing collection
// yields the demo seed (when enabled). Corrupt or unreadable state is logged
// and replaced the same way.
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.readPersisted(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.alerts = loaded
	s.version++
	version := s.version
	s.mu.Unlock()
	s.notify(version)
	s.logger.Debug("alerts loaded", logging.Int("count", len(loaded)))
	return nil
}

func (s *Store) readPersisted(ctx context.Context) ([]alerts.Alert, error) {
	if s.backend == nil {
		return s.fallback(), nil
	}
	data, err := s.backend.Get(ctx, persistence.KeyAlerts)
	if errors.Is(err, persistence.ErrNotFound) {
		return s.fallback(), nil
	}
	if err != nil {
		err = fmt.Errorf("%w: read alerts: %v", alerts.ErrPersistence, err)
		logging.WarnWithContext(s.logger, "saved alerts could not be read", "alerts_unreadable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the storage backend; the next change overwrites the saved collection"),
			logging.String(logging.FieldImpact, "previously saved alerts were not restored"),
		)
		s.writer.report(err)
		return s.fallback(), nil
	}
	loaded, err := DecodeAlerts(data)
	if err != nil {
		logging.WarnWithContext(s.logger, "saved alerts are unreadable", "alerts_corrupt",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the next change overwrites the saved collection"),
			logging.String(logging.FieldImpact, "previously saved alerts were not restored"),
		)
		return s.fallback(), nil
	}
	return loaded, nil
}

func (s *Store) fallback() []alerts.Alert {
	if !s.seed {
		return nil
	}
	return alerts.DemoAlerts(s.now())
}

// Insert prepends alert to the collection.
func (s *Store) Insert(alert alerts.Alert) error {
	if strings.TrimSpace(alert.ID) == "" {
		return fmt.Errorf("%w: alert id is empty", alerts.ErrValidation)
	}
	s.mu.Lock()
	if s.indexLocked(alert.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateID, alert.ID)
	}
	next := make([]alerts.Alert, 0, len(s.alerts)+1)
	next = append(next, alert.Clone())
	next = append(next, s.alerts...)
	s.alerts = next
	version := s.commitLocked()
	s.mu.Unlock()

	s.notify(version)
	return nil
}

// Patch replaces the non-nil fields of patch on the alert identified by id in
// a single critical section. It reports false when no alert matches. A
// complete alert never reverts to preliminary.
func (s *Store) Patch(id string, patch alerts.AlertPatch) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	current := s.alerts[idx]
	updated := patch.Apply(current)
	if current.AnalysisState == alerts.StateComplete {
		updated.AnalysisState = alerts.StateComplete
	}
	updated.Timestamp = current.Timestamp
	updated.FullTranscript = current.FullTranscript
	s.alerts[idx] = updated
	version := s.commitLocked()
	s.mu.Unlock()

	s.notify(version)
	return true
}

// Remove deletes a complete alert. Preliminary alerts are rejected with
// alerts.ErrDeletionRejected and left in place; unknown ids are a no-op.
func (s *Store) Remove(id string) (bool, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	if s.alerts[idx].IsPreliminary() {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: alert %s is still being analyzed", alerts.ErrDeletionRejected, id)
	}
	s.removeLocked(idx)
	version := s.commitLocked()
	s.mu.Unlock()

	s.notify(version)
	return true, nil
}

// Discard removes the alert regardless of its state. The pipeline uses it to
// withdraw a preliminary alert whose deep analysis failed.
func (s *Store) Discard(id string) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.removeLocked(idx)
	version := s.commitLocked()
	s.mu.Unlock()

	s.notify(version)
	return true
}

// Alerts returns a deep copy of the collection in storage order (newest first).
func (s *Store) Alerts() []alerts.Alert {
	list, _ := s.Snapshot()
	return list
}

// Snapshot returns copies of the alerts together with the version they belong to.
func (s *Store) Snapshot() ([]alerts.Alert, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]alerts.Alert, len(s.alerts))
	for i, a := range s.alerts {
		out[i] = a.Clone()
	}
	return out, s.version
}

// Get returns the alert with the given id.
func (s *Store) Get(id string) (alerts.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return alerts.Alert{}, false
	}
	return s.alerts[idx].Clone(), true
}

// Len returns the number of alerts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

// Version returns the mutation counter.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe returns a channel that receives the latest version after each
// mutation. Slow readers only ever see the newest value. Call cancel to stop.
func (s *Store) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, ch)
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

// Flush waits until every mutation made before the call has been handed to the backend.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// Close flushes pending writes and stops the background writer. The backend
// is owned by the caller.
func (s *Store) Close(ctx context.Context) error {
	return s.writer.close(ctx)
}

func (s *Store) indexLocked(id string) int {
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(idx int) {
	next := make([]alerts.Alert, 0, len(s.alerts)-1)
	next = append(next, s.alerts[:idx]...)
	next = append(next, s.alerts[idx+1:]...)
	s.alerts = next
}

// commitLocked bumps the version and queues a snapshot for persistence while
// the write lock is held, so snapshots reach the writer in mutation order.
func (s *Store) commitLocked() uint64 {
	s.version++
	data, err := EncodeAlerts(s.alerts)
	if err != nil {
		logging.WarnWithContext(s.logger, "encode alerts failed", "alerts_encode_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this change was not saved"),
		)
		return s.version
	}
	s.writer.enqueue(data)
	return s.version
}

func (s *Store) notify(version uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if version <= s.lastNotified {
		return
	}
	s.lastNotified = version
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- version
	}
}
