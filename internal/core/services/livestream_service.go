package services

import (
	"context"
	"fmt"
	"sync"

	"muxlive/internal/core/domain"
	"muxlive/internal/core/ports"

	"go.uber.org/zap"
)

type liveStreamService struct {
	client    ports.LiveStreamClient
	permanent ports.PermanentStream
	events    ports.EventPublisher
	metrics   ports.MetricsRecorder
	logger    *zap.SugaredLogger

	mu         sync.Mutex
	lastStatus domain.LiveStreamStatus
}

func NewLiveStreamService(
	client ports.LiveStreamClient,
	permanent ports.PermanentStream,
	events ports.EventPublisher,
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
) ports.LiveStreamService {
	return &liveStreamService{
		client:    client,
		permanent: permanent,
		events:    events,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreateAdHoc always creates a new stream; nothing is reused or remembered.
func (s *liveStreamService) CreateAdHoc(ctx context.Context) (*domain.LiveStream, error) {
	stream, err := s.client.CreateLiveStream(ctx, domain.DefaultCreateParams())
	if err != nil {
		return nil, err
	}
	// Callers can do nothing with a stream they cannot play back.
	if stream.FirstPlaybackID() == "" {
		s.logger.Warnw("created live stream has no playback id", "live_stream_id", stream.ID)
		return nil, fmt.Errorf("create live stream %s: %w", stream.ID, domain.ErrNoPlaybackID)
	}

	s.metrics.RecordStreamCreated(ports.StreamKindAdHoc)
	if err := s.events.PublishStreamEvent(ctx, ports.EventStreamCreated, stream); err != nil {
		s.logger.Warnw("failed to publish stream event", "type", ports.EventStreamCreated, "error", err)
	}
	s.logger.Infow("created ad-hoc live stream",
		"live_stream_id", stream.ID,
		"playback_id", stream.FirstPlaybackID(),
	)
	return stream, nil
}

// FetchPermanentStatus re-reads the permanent stream from the platform. The
// cached copy only supplies the id.
func (s *liveStreamService) FetchPermanentStatus(ctx context.Context) (*domain.LiveStream, error) {
	r := s.permanent.Readiness()
	if !r.IsReady() {
		return nil, fmt.Errorf("%w: %s", domain.ErrStreamNotReady, r.State)
	}

	stream, err := s.client.GetLiveStream(ctx, r.Stream.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordStatusQuery(stream)
	if s.statusChanged(stream.Status) {
		if err := s.events.PublishStreamEvent(ctx, ports.EventStreamStatusChanged, stream); err != nil {
			s.logger.Warnw("failed to publish stream event", "type", ports.EventStreamStatusChanged, "error", err)
		}
	}
	return stream, nil
}

func (s *liveStreamService) statusChanged(status domain.LiveStreamStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.lastStatus != "" && s.lastStatus != status
	s.lastStatus = status
	return changed
}
