package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"muxlive/internal/core/domain"
	"muxlive/internal/core/ports"

	"go.uber.org/zap"
)

// PermanentStreamService owns the single long-lived live stream. Its
// readiness moves from initializing to ready or failed exactly once.
type PermanentStreamService struct {
	client       ports.LiveStreamClient
	configuredID domain.LiveStreamID
	params       domain.CreateParams
	events       ports.EventPublisher
	metrics      ports.MetricsRecorder
	logger       *zap.SugaredLogger

	started atomic.Bool
	state   atomic.Pointer[domain.Readiness]
}

func NewPermanentStreamService(
	client ports.LiveStreamClient,
	configuredID domain.LiveStreamID,
	events ports.EventPublisher,
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
) *PermanentStreamService {
	s := &PermanentStreamService{
		client:       client,
		configuredID: configuredID,
		params:       domain.DefaultCreateParams(),
		events:       events,
		metrics:      metrics,
		logger:       logger,
	}
	s.state.Store(&domain.Readiness{State: domain.StateUninitialized, ChangedAt: time.Now()})
	return s
}

func (s *PermanentStreamService) Readiness() domain.Readiness {
	return *s.state.Load()
}

// Current returns the cached stream, or nil before initialization succeeds.
// The value is whatever the platform returned at startup.
func (s *PermanentStreamService) Current() *domain.LiveStream {
	return s.state.Load().Stream
}

// Start runs EnsurePermanentStream in the background. Failures are logged
// and leave the service in the failed state. The returned channel is closed
// once initialization has resolved.
func (s *PermanentStreamService) Start(ctx context.Context, timeout time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		initCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := s.EnsurePermanentStream(initCtx); err != nil {
			s.logger.Errorw("permanent stream initialization failed; status endpoints will report 503 until restart",
				"error", err,
			)
		}
	}()
	return done
}

// EnsurePermanentStream reuses the configured stream when the platform knows
// it and otherwise creates a new one. It may run only once per service.
func (s *PermanentStreamService) EnsurePermanentStream(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return domain.ErrAlreadyInitialized
	}

	var fetchErr error
	if s.configuredID != "" {
		stream, err := s.client.GetLiveStream(ctx, s.configuredID)
		if err == nil {
			s.logger.Infow("reusing permanent live stream",
				"live_stream_id", stream.ID,
				"status", stream.Status,
				"playback_id", stream.FirstPlaybackID(),
			)
			s.markReady(ctx, stream)
			return nil
		}
		fetchErr = err
		s.logger.Warnw("configured live stream unavailable, creating a new one",
			"live_stream_id", s.configuredID,
			"not_found", errors.Is(err, domain.ErrStreamNotFound),
			"error", err,
		)
	}

	stream, err := s.client.CreateLiveStream(ctx, s.params)
	if err != nil {
		if fetchErr != nil {
			err = fmt.Errorf("fetch: %v; create: %w", fetchErr, err)
		}
		s.markFailed(err)
		return fmt.Errorf("ensure permanent stream: %w", err)
	}

	s.metrics.RecordStreamCreated(ports.StreamKindPermanent)
	s.publish(ctx, ports.EventStreamCreated, stream)

	// The only place the stream key is ever emitted.
	s.logger.Warnw("created permanent live stream; record these credentials now, they will not be shown again",
		"live_stream_id", stream.ID,
		"playback_id", stream.FirstPlaybackID(),
		"stream_key", stream.StreamKey,
		"ingest_url", stream.IngestURL,
		"hint", "set MUX_LIVE_STREAM_ID to reuse this stream on restart",
	)
	s.markReady(ctx, stream)
	return nil
}

func (s *PermanentStreamService) markReady(ctx context.Context, stream *domain.LiveStream) {
	s.state.Store(&domain.Readiness{State: domain.StateReady, Stream: stream, ChangedAt: time.Now()})
	s.metrics.RecordReadiness(domain.StateReady)
	s.publish(ctx, ports.EventStreamReady, stream)
}

func (s *PermanentStreamService) markFailed(err error) {
	s.state.Store(&domain.Readiness{State: domain.StateFailed, Reason: err.Error(), ChangedAt: time.Now()})
	s.metrics.RecordReadiness(domain.StateFailed)
}

func (s *PermanentStreamService) publish(ctx context.Context, eventType string, stream *domain.LiveStream) {
	if err := s.events.PublishStreamEvent(ctx, eventType, stream); err != nil {
		s.logger.Warnw("failed to publish stream event", "type", eventType, "error", err)
	}
}
