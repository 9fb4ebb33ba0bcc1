package server

import (
	"sync"

	"audiosurv/internal/alerts"
	"audiosurv/internal/api"
	"audiosurv/internal/pipeline"
)

const maxTrackedScans = 256

// scanTracker records the latest state of each submission seen by the
// pipeline. Terminal entries beyond maxTrackedScans are evicted oldest first.
type scanTracker struct {
	mu    sync.Mutex
	scans map[string]api.ScanResult
	order []string
}

func newScanTracker() *scanTracker {
	return &scanTracker{scans: make(map[string]api.ScanResult)}
}

func (t *scanTracker) Observe(e pipeline.Event) {
	entry := api.ScanResult{State: string(e.To), TempID: e.SubmissionID}
	switch e.To {
	case pipeline.StateTierOneComplete:
		a := api.FromAlert(e.Alert, false)
		entry.Alert = &a
	case pipeline.StateTierTwoComplete:
		a := api.FromAlert(e.Alert, false)
		entry.Alert = &a
		entry.FinalID = e.Alert.ID
	case pipeline.StateFailed:
		entry.Error = alerts.Message(e.Err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.scans[e.SubmissionID]; !ok {
		t.order = append(t.order, e.SubmissionID)
	}
	t.scans[e.SubmissionID] = entry
	t.evictLocked()
}

func (t *scanTracker) get(id string) (api.ScanResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.scans[id]
	return entry, ok
}

func (t *scanTracker) evictLocked() {
	for len(t.order) > maxTrackedScans {
		evicted := false
		for i, id := range t.order {
			if pipeline.State(t.scans[id].State).Terminal() {
				delete(t.scans, id)
				t.order = append(t.order[:i], t.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}
