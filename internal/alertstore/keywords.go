package alertstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"audiosurv/internal/alerts"
	"audiosurv/internal/logging"
	"audiosurv/internal/persistence"
)

// KeywordStore holds the operator's keyword library.
type KeywordStore struct {
	mu       sync.RWMutex
	keywords []alerts.Keyword

	backend persistence.Backend
	logger  *slog.Logger
	writer  *writer
}

// NewKeywordStore constructs an empty keyword library.
func NewKeywordStore(opts Options) *KeywordStore {
	logger := logging.NewComponentLogger(opts.Logger, "keywords")
	return &KeywordStore{
		backend: opts.Backend,
		logger:  logger,
		writer:  newWriter(persistence.KeyKeywords, opts.Backend, logger, opts.OnPersistError),
	}
}

// Load restores the persisted library. Missing, corrupt or unreadable data
// yields an empty library.
func (k *KeywordStore) Load(ctx context.Context) error {
	var loaded []alerts.Keyword
	if k.backend != nil {
		data, err := k.backend.Get(ctx, persistence.KeyKeywords)
		switch {
		case errors.Is(err, persistence.ErrNotFound):
		case err != nil:
			err = fmt.Errorf("%w: read keywords: %v", alerts.ErrPersistence, err)
			logging.WarnWithContext(k.logger, "saved keywords could not be read", "keywords_unreadable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the storage backend"),
				logging.String(logging.FieldImpact, "the keyword library starts empty"),
			)
			k.writer.report(err)
		default:
			if err := json.Unmarshal(data, &loaded); err != nil {
				logging.WarnWithContext(k.logger, "saved keywords are unreadable", "keywords_corrupt",
					logging.Error(err),
					logging.String(logging.FieldImpact, "the keyword library starts empty"),
				)
				loaded = nil
			}
		}
	}
	k.mu.Lock()
	k.keywords = loaded
	k.mu.Unlock()
	return nil
}

// Add prepends keyword, assigning an id when it has none. Terms must be
// non-empty; sample count rules belong to the caller.
func (k *KeywordStore) Add(keyword alerts.Keyword) (alerts.Keyword, error) {
	keyword.Term = strings.TrimSpace(keyword.Term)
	if keyword.Term == "" {
		return alerts.Keyword{}, fmt.Errorf("%w: keyword term cannot be empty", alerts.ErrValidation)
	}
	if keyword.ID == "" {
		keyword.ID = "kw-" + uuid.NewString()
	}
	for i := range keyword.Samples {
		if keyword.Samples[i].ID == "" {
			keyword.Samples[i].ID = "sample-" + uuid.NewString()
		}
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for _, existing := range k.keywords {
		if existing.ID == keyword.ID {
			return alerts.Keyword{}, fmt.Errorf("%w: keyword %s", ErrDuplicateID, keyword.ID)
		}
	}
	k.keywords = append([]alerts.Keyword{keyword.Clone()}, k.keywords...)
	k.persistLocked()
	return keyword.Clone(), nil
}

// Remove deletes the keyword with the given id.
func (k *KeywordStore) Remove(id string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i, existing := range k.keywords {
		if existing.ID != id {
			continue
		}
		next := make([]alerts.Keyword, 0, len(k.keywords)-1)
		next = append(next, k.keywords[:i]...)
		k.keywords = append(next, k.keywords[i+1:]...)
		k.persistLocked()
		return true
	}
	return false
}

// List returns a copy of the library, newest first.
func (k *KeywordStore) List() []alerts.Keyword {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]alerts.Keyword, len(k.keywords))
	for i, kw := range k.keywords {
		out[i] = kw.Clone()
	}
	return out
}

// Get returns the keyword with the given id.
func (k *KeywordStore) Get(id string) (alerts.Keyword, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	for _, kw := range k.keywords {
		if kw.ID == id {
			return kw.Clone(), true
		}
	}
	return alerts.Keyword{}, false
}

// Flush waits for pending writes.
func (k *KeywordStore) Flush(ctx context.Context) error {
	return k.writer.flush(ctx)
}

// Close flushes and stops the background writer.
func (k *KeywordStore) Close(ctx context.Context) error {
	return k.writer.close(ctx)
}

func (k *KeywordStore) persistLocked() {
	stripped := make([]alerts.Keyword, len(k.keywords))
	for i, kw := range k.keywords {
		stripped[i] = kw.Stripped()
	}
	data, err := json.Marshal(stripped)
	if err != nil {
		logging.WarnWithContext(k.logger, "encode keywords failed", "keywords_encode_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this change was not saved"),
		)
		return
	}
	k.writer.enqueue(data)
}
