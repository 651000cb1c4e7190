package services_test

import (
	"context"

	"muxlive/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockLiveStreamClient struct {
	mock.Mock
}

func (m *MockLiveStreamClient) CreateLiveStream(ctx context.Context, params domain.CreateParams) (*domain.LiveStream, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LiveStream), args.Error(1)
}

func (m *MockLiveStreamClient) GetLiveStream(ctx context.Context, id domain.LiveStreamID) (*domain.LiveStream, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LiveStream), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishStreamEvent(ctx context.Context, eventType string, stream *domain.LiveStream) error {
	args := m.Called(ctx, eventType, stream)
	return args.Error(0)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordStreamCreated(kind string) {
	m.Called(kind)
}

func (m *MockMetrics) RecordReadiness(state domain.ReadinessState) {
	m.Called(state)
}

func (m *MockMetrics) RecordStatusQuery(stream *domain.LiveStream) {
	m.Called(stream)
}

type stubReadiness struct {
	r domain.Readiness
}

func (s stubReadiness) Readiness() domain.Readiness { return s.r }

func newStream(id, status, playbackID string) *domain.LiveStream {
	return &domain.LiveStream{
		ID:          domain.LiveStreamID(id),
		Status:      domain.LiveStreamStatus(status),
		PlaybackIDs: []domain.PlaybackID{{ID: playbackID, Policy: domain.PlaybackPolicyPublic}},
		StreamKey:   "sk-" + id,
		IngestURL:   "rtmps://global-live.mux.com:443/app",
	}
}
