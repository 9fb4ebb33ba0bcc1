package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"audiosurv/internal/alerts"
	"audiosurv/internal/gateway"
	"audiosurv/internal/logging"
)

const (
	tempIDPrefix  = "alert-temp-"
	finalIDPrefix = "alert-"
)

// Options configures a Pipeline.
type Options struct {
	Gateway   gateway.Gateway
	Store     Store
	Logger    *slog.Logger
	Observers []Observer
	Now       func() time.Time
	NewID     func() string
}

// Pipeline runs submissions against a gateway and store.
type Pipeline struct {
	gateway   gateway.Gateway
	store     Store
	logger    *slog.Logger
	observers []Observer
	now       func() time.Time
	newID     func() string

	wg sync.WaitGroup
}

// New validates opts and returns a pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Gateway == nil {
		return nil, errors.New("pipeline: gateway is required")
	}
	if opts.Store == nil {
		return nil, errors.New("pipeline: store is required")
	}
	p := &Pipeline{
		gateway:   opts.Gateway,
		store:     opts.Store,
		logger:    logging.NewComponentLogger(opts.Logger, "pipeline"),
		observers: append([]Observer(nil), opts.Observers...),
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	return p, nil
}

// AddObserver registers an observer for later submissions.
func (p *Pipeline) AddObserver(o Observer) {
	if o != nil {
		p.observers = append(p.observers, o)
	}
}

// Submit runs both tiers for sub and blocks until the submission is terminal.
// The returned error equals Result.Err.
func (p *Pipeline) Submit(ctx context.Context, sub Submission) (Result, error) {
	return p.run(ctx, p.newTempID(), sub)
}

// SubmitAsync starts sub on its own goroutine. The temporary identity is
// assigned before it returns.
func (p *Pipeline) SubmitAsync(ctx context.Context, sub Submission) *Handle {
	h := &Handle{tempID: p.newTempID(), done: make(chan struct{})}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(h.done)
		h.result, _ = p.run(ctx, h.tempID, sub)
	}()
	return h
}

// Wait blocks until every asynchronous submission has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) newTempID() string {
	return tempIDPrefix + p.newID()
}

func (p *Pipeline) run(ctx context.Context, tempID string, sub Submission) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.WithSubmissionID(ctx, tempID)
	logger := logging.WithContext(ctx, p.logger).With(logging.String(logging.FieldAlertID, tempID))
	result := Result{State: StateSubmitted, TempID: tempID}
	sub.MimeType = ResolveMimeType(sub)

	p.emit(Event{SubmissionID: tempID, Filename: sub.Filename, MimeType: sub.MimeType, To: StateSubmitted})
	logger.Info("scan submitted",
		logging.String("filename", sub.Filename),
		logging.String("mime_type", sub.MimeType),
		logging.Int("bytes", len(sub.Audio)),
	)

	started := p.now()
	scan, err := p.gateway.InitialScan(ctx, sub.Audio, sub.MimeType)
	tierOneDuration := p.now().Sub(started)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return p.fail(logger, result, gateway.TierInitial, tierOneDuration, err, sub)
	}

	preliminary := alerts.Alert{
		ID:              tempID,
		Timestamp:       p.now(),
		KeywordDetected: scan.KeywordDetected,
		ThreatRating:    scan.ThreatRating,
		SemanticSummary: alerts.PlaceholderSummary,
		FullTranscript:  scan.FullTranscript,
		AudioSrc:        DataURL(sub.MimeType, sub.Audio),
		AnalysisState:   alerts.StatePreliminary,
	}
	if err := p.store.Insert(preliminary); err != nil {
		return p.fail(logger, result, gateway.TierInitial, tierOneDuration, fmt.Errorf("publish preliminary alert: %w", err), sub)
	}
	result.State = StateTierOneComplete
	result.Alert = preliminary
	p.emit(Event{
		SubmissionID: tempID,
		Filename:     sub.Filename,
		MimeType:     sub.MimeType,
		From:         StateSubmitted,
		To:           StateTierOneComplete,
		Tier:         gateway.TierInitial,
		Alert:        preliminary.Clone(),
		Duration:     tierOneDuration,
	})
	logger.Info("preliminary alert published",
		logging.String("keyword", scan.KeywordDetected),
		logging.String("threat_rating", string(scan.ThreatRating)),
		logging.Duration("duration", tierOneDuration),
	)

	started = p.now()
	deep, err := p.gateway.DeepAnalysis(ctx, scan.FullTranscript)
	tierTwoDuration := p.now().Sub(started)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		p.store.Discard(tempID)
		return p.fail(logger, result, gateway.TierDeep, tierTwoDuration, err, sub)
	}

	finalID := finalIDPrefix + p.newID()
	state := alerts.StateComplete
	translation := deep.EnglishTranslation
	slang := deep.SlangDetected
	patch := alerts.AlertPatch{
		ID:                 &finalID,
		ThreatRating:       &deep.ThreatRating,
		SemanticSummary:    &deep.SemanticSummary,
		EnglishTranslation: &translation,
		SlangDetected:      &slang,
		AnalysisState:      &state,
	}
	if !p.store.Patch(tempID, patch) {
		return p.fail(logger, result, gateway.TierDeep, tierTwoDuration, ErrAlertVanished, sub)
	}

	final := patch.Apply(preliminary)
	result.State = StateTierTwoComplete
	result.FinalID = finalID
	result.Alert = final
	p.emit(Event{
		SubmissionID: tempID,
		Filename:     sub.Filename,
		MimeType:     sub.MimeType,
		From:         StateTierOneComplete,
		To:           StateTierTwoComplete,
		Tier:         gateway.TierDeep,
		Alert:        final.Clone(),
		Duration:     tierTwoDuration,
	})
	logger.Info("alert complete",
		logging.String("final_id", finalID),
		logging.String("threat_rating", string(deep.ThreatRating)),
		logging.Int("slang_terms", len(deep.SlangDetected)),
		logging.Duration("duration", tierTwoDuration),
	)
	return result, nil
}

func (p *Pipeline) fail(logger *slog.Logger, result Result, tier gateway.Tier, duration time.Duration, err error, sub Submission) (Result, error) {
	from := result.State
	result.State = StateFailed
	result.Err = err

	attrs := []logging.Attr{
		logging.String(logging.FieldTier, string(tier)),
		logging.String("from_state", string(from)),
		logging.Error(err),
	}
	if gwErr, ok := gateway.AsGatewayError(err); ok {
		attrs = append(attrs, logging.String("cause", gwErr.Detail()))
	}
	impact := "no alert was created"
	if from == StateTierOneComplete {
		impact = "the preliminary alert was withdrawn"
	}
	hint := "check the analysis API key and model configuration, then resubmit the audio"
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		hint = "the scan was cancelled; resubmit the audio"
	}
	attrs = append(attrs,
		logging.String(logging.FieldImpact, impact),
		logging.String(logging.FieldErrorHint, hint),
	)
	logging.WarnWithContext(logger, "scan failed", "scan_failed", attrs...)

	p.emit(Event{
		SubmissionID: result.TempID,
		Filename:     sub.Filename,
		MimeType:     sub.MimeType,
		From:         from,
		To:           StateFailed,
		Tier:         tier,
		Alert:        result.Alert.Clone(),
		Err:          err,
		Duration:     duration,
	})
	return result, err
}

func (p *Pipeline) emit(e Event) {
	if e.At.IsZero() {
		e.At = p.now()
	}
	for _, o := range p.observers {
		o.Observe(e)
	}
}

// DataURL renders audio as a playable data URL.
func DataURL(mimeType string, audio []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(audio)
}

var audioExtensions = map[string]string{
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".wav":  "audio/wav",
	".weba": "audio/webm",
	".webm": "audio/webm",
}

// ResolveMimeType returns sub.MimeType, or a type inferred from the filename
// extension and finally from the content itself.
func ResolveMimeType(sub Submission) string {
	if mt := strings.TrimSpace(sub.MimeType); mt != "" {
		return mt
	}
	if ext := strings.ToLower(filepath.Ext(sub.Filename)); ext != "" {
		if mt, ok := audioExtensions[ext]; ok {
			return mt
		}
		if mt := mime.TypeByExtension(ext); mt != "" {
			if base, _, err := mime.ParseMediaType(mt); err == nil {
				return base
			}
			return mt
		}
	}
	if len(sub.Audio) > 0 {
		detected, _, err := mime.ParseMediaType(http.DetectContentType(sub.Audio))
		if err == nil && (strings.HasPrefix(detected, "audio/") || detected == "application/ogg") {
			return detected
		}
	}
	return "application/octet-stream"
}

// Handle tracks an asynchronous submission.
type Handle struct {
	tempID string
	done   chan struct{}
	result Result
}

// TempID returns the temporary identity assigned to the submission.
func (h *Handle) TempID() string { return h.tempID }

// Done is closed when the submission is terminal.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result blocks until the submission finishes or ctx ends.
func (h *Handle) Result(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		return h.result, h.result.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
