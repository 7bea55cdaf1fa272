// Package tracking wraps external fetch operations so every attempt leaves
// exactly one FetchRecord behind.
package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/fingerprint"
	"github.com/wonny/evlq/internal/payload"
	"github.com/wonny/evlq/internal/recorder"
	"github.com/wonny/evlq/internal/validation"
	"github.com/wonny/evlq/pkg/logger"
)

// MetadataKey is the payload key provenance is attached under
const MetadataKey = "_metadata"

// Operation is one external fetch: it returns a payload or an error
type Operation func(ctx context.Context) (payload.Value, error)

// Middleware wraps an Operation
type Middleware func(Operation) Operation

// Chain composes middlewares; the first one is the outermost
func Chain(mws ...Middleware) Middleware {
	return func(op Operation) Operation {
		for i := len(mws) - 1; i >= 0; i-- {
			op = mws[i](op)
		}
		return op
	}
}

// Tracker records fetch attempts through a Recorder
// ⭐ SSOT: 외부 호출 추적(FetchRecord 생성)은 Tracker에서만
type Tracker struct {
	recorder  *recorder.Recorder
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

// Option configures a Tracker
type Option func(*Tracker)

// WithValidator scores successful payloads against their contract.
// Without it successes are recorded as valid with score 1.0.
func WithValidator(v *validation.Validator) Option {
	return func(t *Tracker) { t.validator = v }
}

// WithClock overrides the tracker clock
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a Tracker
func NewTracker(rec *recorder.Recorder, log *logger.Logger, opts ...Option) *Tracker {
	t := &Tracker{recorder: rec, log: log, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type trackConfig struct {
	provenance bool
}

// TrackOption configures one Track middleware
type TrackOption func(*trackConfig)

// WithProvenance attaches the fetch metadata to map payloads under MetadataKey
func WithProvenance() TrackOption {
	return func(c *trackConfig) { c.provenance = true }
}

// Track returns a middleware recording each attempt of the wrapped operation.
//
// A returned error is recorded as status 0 and handed back unchanged.
// A context.Canceled error writes nothing: a cancelled attempt has no outcome.
func (t *Tracker) Track(sourceID, sourceURL string, opts ...TrackOption) Middleware {
	var cfg trackConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(op Operation) Operation {
		return func(ctx context.Context) (payload.Value, error) {
			start := t.now()
			result, err := op(ctx)
			finished := t.now()
			elapsedMS := float64(finished.Sub(start)) / float64(time.Millisecond)

			if err != nil {
				if errors.Is(err, context.Canceled) {
					t.log.WithSource(sourceID).Debug("Fetch cancelled, not recorded")
					return result, err
				}

				rec := failureRecord(sourceID, sourceURL, finished, elapsedMS, 0, err.Error())
				t.finish(ctx, rec)
				return result, err
			}

			rec := t.successRecord(sourceID, sourceURL, finished, elapsedMS, 200, result)
			t.finish(ctx, rec)

			if cfg.provenance {
				result = AttachProvenance(result, rec)
			}
			return result, nil
		}
	}
}

// successRecord fingerprints and optionally validates a returned payload
func (t *Tracker) successRecord(sourceID, sourceURL string, at time.Time, elapsedMS float64, status int, result payload.Value) *contracts.FetchRecord {
	fp := fingerprint.Of(result)

	rec := &contracts.FetchRecord{
		SourceID:         sourceID,
		SourceURL:        sourceURL,
		FetchedAt:        at.UTC(),
		ResponseTimeMS:   elapsedMS,
		StatusCode:       status,
		Success:          true,
		ContentHash:      fp.ContentHash,
		DataSizeBytes:    fp.DataSizeBytes,
		RowCount:         fp.RowCount,
		ValidationPassed: true,
		ValidationErrors: []contracts.ValidationError{},
		DataQualityScore: 1.0,
	}

	if t.validator != nil {
		res := t.validator.ValidateData(sourceID, result)
		rec.ValidationPassed = res.IsValid
		rec.ValidationErrors = res.Errors
		rec.DataQualityScore = res.QualityScore
	}
	return rec
}

func failureRecord(sourceID, sourceURL string, at time.Time, elapsedMS float64, status int, msg string) *contracts.FetchRecord {
	return &contracts.FetchRecord{
		SourceID:         sourceID,
		SourceURL:        sourceURL,
		FetchedAt:        at.UTC(),
		ResponseTimeMS:   elapsedMS,
		StatusCode:       status,
		Success:          false,
		ErrorMessage:     msg,
		ContentHash:      "",
		RowCount:         0,
		ValidationPassed: false,
		ValidationErrors: []contracts.ValidationError{},
		DataQualityScore: 0.0,
	}
}

// finish persists rec (best-effort) and updates metrics
func (t *Tracker) finish(ctx context.Context, rec *contracts.FetchRecord) {
	t.recorder.StoreFetchMetadata(ctx, rec)
	observe(rec)

	t.log.WithSource(rec.SourceID).
		WithFields(map[string]interface{}{
			"duration_ms": rec.ResponseTimeMS,
			"success":     rec.Success,
			"status_code": rec.StatusCode,
		}).
		Debug("Fetch tracked")
}

// AttachProvenance returns a copy of a map payload carrying rec under MetadataKey.
// Other payloads are returned unchanged.
func AttachProvenance(result payload.Value, rec *contracts.FetchRecord) payload.Value {
	if result.Kind() != payload.KindMap {
		return result
	}

	quality := "good"
	errMsg := payload.Null()
	if !rec.Success {
		quality = "error"
		errMsg = payload.String(rec.ErrorMessage)
	}

	meta := payload.Map(map[string]payload.Value{
		"source_id":        payload.String(rec.SourceID),
		"source_url":       payload.String(rec.SourceURL),
		"fetched_at":       payload.String(rec.FetchedAt.Format(time.RFC3339Nano)),
		"status_code":      payload.Int(int64(rec.StatusCode)),
		"response_time_ms": payload.Float(rec.ResponseTimeMS),
		"content_hash":     payload.String(rec.ContentHash),
		"data_size_bytes":  payload.Int(int64(rec.DataSizeBytes)),
		"row_count":        payload.Int(int64(rec.RowCount)),
		"success":          payload.Bool(rec.Success),
		"error_message":    errMsg,
		"data_quality":     payload.String(quality),
	})
	return result.With(MetadataKey, meta)
}
