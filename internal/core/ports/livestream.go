package ports

import (
	"context"

	"muxlive/internal/core/domain"
)

// LiveStreamClient talks to the remote live-video platform.
type LiveStreamClient interface {
	CreateLiveStream(ctx context.Context, params domain.CreateParams) (*domain.LiveStream, error)
	GetLiveStream(ctx context.Context, id domain.LiveStreamID) (*domain.LiveStream, error)
}

type LiveStreamService interface {
	CreateAdHoc(ctx context.Context) (*domain.LiveStream, error)
	FetchPermanentStatus(ctx context.Context) (*domain.LiveStream, error)
}

type PermanentStream interface {
	Readiness() domain.Readiness
}

// EventPublisher fans out stream lifecycle events. Implementations must be
// safe to call when no broker is configured.
type EventPublisher interface {
	PublishStreamEvent(ctx context.Context, eventType string, stream *domain.LiveStream) error
}

const (
	StreamKindAdHoc     = "adhoc"
	StreamKindPermanent = "permanent"
)

type MetricsRecorder interface {
	RecordStreamCreated(kind string)
	RecordReadiness(state domain.ReadinessState)
	RecordStatusQuery(stream *domain.LiveStream)
}

const (
	EventStreamCreated       = "stream.created"
	EventStreamReady         = "stream.ready"
	EventStreamStatusChanged = "stream.status_changed"
)
