package alertstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"audiosurv/internal/alerts"
	"audiosurv/internal/logging"
	"audiosurv/internal/persistence"
)

// writer persists the most recent snapshot handed to it. Older snapshots that
// were never written are dropped.
type writer struct {
	key     string
	backend persistence.Backend
	logger  *slog.Logger
	onError func(key string, err error)

	mu      sync.Mutex
	pending []byte
	queued  uint64
	written uint64
	changed chan struct{}
	wake    chan struct{}
	closed  bool
	done    chan struct{}
}

func newWriter(key string, backend persistence.Backend, logger *slog.Logger, onError func(string, error)) *writer {
	w := &writer{
		key:     key,
		backend: backend,
		logger:  logger,
		onError: onError,
		changed: make(chan struct{}),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if backend == nil {
		close(w.done)
		return w
	}
	go w.run()
	return w
}

// enqueue replaces any pending snapshot with data.
func (w *writer) enqueue(data []byte) {
	if w.backend == nil {
		return
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.pending = data
	w.queued++
	select {
	case w.wake <- struct{}{}:
	default:
	}
	w.mu.Unlock()
}

func (w *writer) run() {
	defer close(w.done)
	for range w.wake {
		for {
			w.mu.Lock()
			data := w.pending
			target := w.queued
			w.pending = nil
			w.mu.Unlock()
			if data == nil {
				break
			}

			if err := w.backend.Put(context.Background(), w.key, data); err != nil {
				err = fmt.Errorf("%w: write %s: %v", alerts.ErrPersistence, w.key, err)
				logging.WarnWithContext(w.logger, "persist failed", "persist_failed",
					logging.String("key", w.key),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the storage backend configuration and free disk space"),
					logging.String(logging.FieldImpact, "changes are kept in memory but may be lost on restart"),
				)
				w.report(err)
			}

			w.mu.Lock()
			w.written = target
			close(w.changed)
			w.changed = make(chan struct{})
			w.mu.Unlock()
		}
	}
}

// report hands a persistence failure to the configured observer.
func (w *writer) report(err error) {
	if w.onError != nil {
		w.onError(w.key, err)
	}
}

// flush blocks until every snapshot queued before the call has been handled.
func (w *writer) flush(ctx context.Context) error {
	if w.backend == nil {
		return nil
	}
	w.mu.Lock()
	target := w.queued
	w.mu.Unlock()
	for {
		w.mu.Lock()
		if w.written >= target {
			w.mu.Unlock()
			return nil
		}
		changed := w.changed
		w.mu.Unlock()

		select {
		case <-changed:
		case <-w.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// close drains pending work and stops the goroutine.
func (w *writer) close(ctx context.Context) error {
	if w.backend == nil {
		return nil
	}
	flushErr := w.flush(ctx)
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.wake)
	}
	w.mu.Unlock()
	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return flushErr
}
