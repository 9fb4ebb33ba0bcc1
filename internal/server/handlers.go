package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"audiosurv/internal/alerts"
	"audiosurv/internal/alertview"
	"audiosurv/internal/api"
	"audiosurv/internal/logging"
	"audiosurv/internal/pipeline"
)

const maxLongPoll = 60 * time.Second

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	list := s.store.Alerts()
	summary := alertview.Summarize(list)
	writeJSON(s.logger, w, http.StatusOK, api.Status{
		Alerts:       summary.Total,
		Preliminary:  summary.Preliminary,
		Keywords:     len(s.keywords.List()),
		StoreVersion: s.store.Version(),
		Storage:      s.cfg.Storage.Backend,
		DeepBackend:  s.cfg.Analysis.DeepBackend,
		PID:          os.Getpid(),
	})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	order, err := alertview.ParseSortOrder(query.Get("sort"))
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	filter := query.Get("filter")

	if raw := strings.TrimSpace(query.Get("since")); raw != "" {
		since, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(s.logger, w, fmt.Errorf("%w: invalid since %q", alerts.ErrValidation, raw))
			return
		}
		wait, err := parseWait(query.Get("wait"))
		if err != nil {
			writeError(s.logger, w, err)
			return
		}
		s.waitForChange(r, since, wait)
	}

	list, version := s.store.Snapshot()
	view := alertview.DeriveView(list, order, filter)
	writeJSON(s.logger, w, http.StatusOK, api.FromView(view, order, filter, version))
}

// waitForChange blocks until the store version exceeds since, wait elapses,
// or the client goes away.
func (s *Server) waitForChange(r *http.Request, since uint64, wait time.Duration) {
	if wait <= 0 || s.store.Version() > since {
		return
	}
	updates, cancel := s.store.Subscribe()
	defer cancel()
	if s.store.Version() > since {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case v := <-updates:
			if v > since {
				return
			}
		case <-timer.C:
			return
		case <-r.Context().Done():
			return
		case <-s.scanCtx.Done():
			return
		}
	}
}

func parseWait(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	wait, err := time.ParseDuration(raw)
	if err != nil {
		seconds, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return 0, fmt.Errorf("%w: invalid wait %q", alerts.ErrValidation, raw)
		}
		wait = time.Duration(seconds) * time.Second
	}
	if wait < 0 {
		return 0, fmt.Errorf("%w: wait cannot be negative", alerts.ErrValidation)
	}
	if wait > maxLongPoll {
		wait = maxLongPoll
	}
	return wait, nil
}

func (s *Server) handleRecentAlert(w http.ResponseWriter, r *http.Request) {
	recent, ok := alertview.MostRecent(s.store.Alerts())
	if !ok {
		writeError(s.logger, w, fmt.Errorf("%w: no alerts yet", alerts.ErrNotFound))
		return
	}
	writeJSON(s.logger, w, http.StatusOK, api.FromAlert(recent, false))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	list := s.store.Alerts()
	var recent *alerts.Alert
	if a, ok := alertview.MostRecent(list); ok {
		recent = &a
	}
	writeJSON(s.logger, w, http.StatusOK, api.FromSummary(alertview.Summarize(list), recent))
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := s.store.Get(id)
	if !ok {
		writeError(s.logger, w, fmt.Errorf("%w: alert %s", alerts.ErrNotFound, id))
		return
	}
	includeAudio := queryBool(r, "audio")
	writeJSON(s.logger, w, http.StatusOK, api.FromAlert(a, includeAudio))
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.store.Remove(id)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	if !removed {
		writeError(s.logger, w, fmt.Errorf("%w: alert %s", alerts.ErrNotFound, id))
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("alert deleted", logging.String(logging.FieldAlertID, id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitScan(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.cfg.Server.MaxUploadMiB) << 20
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	sub, err := readSubmission(r)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}

	handle := s.pipeline.SubmitAsync(s.scanCtx, sub)
	logging.WithContext(r.Context(), s.logger).Info("scan accepted",
		logging.String(logging.FieldAlertID, handle.TempID()),
		logging.String("filename", sub.Filename),
	)
	w.Header().Set("Location", "/api/scans/"+handle.TempID())
	writeJSON(s.logger, w, http.StatusAccepted, api.ScanAccepted{
		TempID: handle.TempID(),
		State:  string(pipeline.StateSubmitted),
	})
}

// readSubmission accepts a multipart form with an "audio" file field, or the
// raw audio as the request body with its Content-Type.
func readSubmission(r *http.Request) (pipeline.Submission, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("audio")
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return pipeline.Submission{}, err
			}
			return pipeline.Submission{}, fmt.Errorf("%w: multipart field \"audio\" is required", alerts.ErrValidation)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return pipeline.Submission{}, fmt.Errorf("read upload: %w", err)
		}
		sub := pipeline.Submission{Audio: data, Filename: header.Filename}
		if mt := header.Header.Get("Content-Type"); mt != "" && mt != "application/octet-stream" {
			sub.MimeType = mt
		}
		return sub, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return pipeline.Submission{}, fmt.Errorf("read body: %w", err)
	}
	sub := pipeline.Submission{Audio: data, Filename: r.URL.Query().Get("filename")}
	if mediaType != "" && mediaType != "application/octet-stream" {
		sub.MimeType = mediaType
	}
	return sub, nil
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, ok := s.scans.get(id)
	if !ok {
		writeError(s.logger, w, fmt.Errorf("%w: scan %s", alerts.ErrNotFound, id))
		return
	}
	writeJSON(s.logger, w, http.StatusOK, entry)
}

func (s *Server) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, api.FromKeywords(s.keywords.List()))
}

func (s *Server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.cfg.Server.MaxUploadMiB) << 20
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	var req api.KeywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeError(s.logger, w, err)
			return
		}
		writeError(s.logger, w, fmt.Errorf("%w: invalid keyword payload: %v", alerts.ErrValidation, err))
		return
	}
	keyword, err := api.ToKeyword(req)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	added, err := s.keywords.Add(keyword)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(s.logger, w, http.StatusCreated, api.FromKeyword(added))
}

func (s *Server) handleDeleteKeyword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.keywords.Remove(id) {
		writeError(s.logger, w, fmt.Errorf("%w: keyword %s", alerts.ErrNotFound, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type analyzeRequest struct {
	Transcript string `json:"transcript"`
}

func (s *Server) handleAnalyzeKeyword(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(s.logger, w, fmt.Errorf("keyword analysis: %w", errUnavailable))
		return
	}
	id := chi.URLParam(r, "id")
	keyword, ok := s.keywords.Get(id)
	if !ok {
		writeError(s.logger, w, fmt.Errorf("%w: keyword %s", alerts.ErrNotFound, id))
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(s.logger, w, fmt.Errorf("%w: invalid analyze payload: %v", alerts.ErrValidation, err))
		return
	}
	result, err := s.analyzer.KeywordAnalysis(r.Context(), keyword, req.Transcript)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, api.FromKeywordAnalysis(keyword.Term, result))
}

func queryBool(r *http.Request, key string) bool {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	return value == "1" || strings.EqualFold(value, "true")
}
