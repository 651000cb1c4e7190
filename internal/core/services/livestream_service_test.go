package services_test

import (
	"context"
	"errors"
	"testing"

	"muxlive/internal/core/domain"
	"muxlive/internal/core/ports"
	"muxlive/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func readyWith(stream *domain.LiveStream) stubReadiness {
	return stubReadiness{r: domain.Readiness{State: domain.StateReady, Stream: stream}}
}

func TestCreateAdHoc_AlwaysCreates(t *testing.T) {
	client := new(MockLiveStreamClient)
	events := new(MockEventPublisher)
	metrics := new(MockMetrics)

	client.On("CreateLiveStream", mock.Anything, domain.DefaultCreateParams()).Return(newStream("a", "idle", "pa"), nil).Once()
	client.On("CreateLiveStream", mock.Anything, domain.DefaultCreateParams()).Return(newStream("b", "idle", "pb"), nil).Once()
	events.On("PublishStreamEvent", mock.Anything, ports.EventStreamCreated, mock.Anything).Return(nil)
	metrics.On("RecordStreamCreated", ports.StreamKindAdHoc).Return()

	svc := services.NewLiveStreamService(client, stubReadiness{}, events, metrics, zaptest.NewLogger(t).Sugar())

	first, err := svc.CreateAdHoc(context.Background())
	require.NoError(t, err)
	second, err := svc.CreateAdHoc(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "pa", first.FirstPlaybackID())
	assert.Equal(t, "pb", second.FirstPlaybackID())
	metrics.AssertNumberOfCalls(t, "RecordStreamCreated", 2)
}

func TestCreateAdHoc_RemoteError(t *testing.T) {
	client := new(MockLiveStreamClient)
	client.On("CreateLiveStream", mock.Anything, mock.Anything).Return(nil, errors.New("mux: 401 unauthorized"))

	svc := services.NewLiveStreamService(client, stubReadiness{}, new(MockEventPublisher), new(MockMetrics), zaptest.NewLogger(t).Sugar())

	_, err := svc.CreateAdHoc(context.Background())
	assert.EqualError(t, err, "mux: 401 unauthorized")
}

func TestCreateAdHoc_NoPlaybackID(t *testing.T) {
	client := new(MockLiveStreamClient)
	metrics := new(MockMetrics)
	events := new(MockEventPublisher)
	client.On("CreateLiveStream", mock.Anything, mock.Anything).
		Return(&domain.LiveStream{ID: "ls", Status: domain.StatusIdle}, nil)

	svc := services.NewLiveStreamService(client, stubReadiness{}, events, metrics, zaptest.NewLogger(t).Sugar())

	stream, err := svc.CreateAdHoc(context.Background())
	assert.Nil(t, stream)
	assert.ErrorIs(t, err, domain.ErrNoPlaybackID)
	metrics.AssertNotCalled(t, "RecordStreamCreated", mock.Anything)
	events.AssertNotCalled(t, "PublishStreamEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchPermanentStatus_NotReady(t *testing.T) {
	client := new(MockLiveStreamClient)
	svc := services.NewLiveStreamService(client, stubReadiness{}, new(MockEventPublisher), new(MockMetrics), zaptest.NewLogger(t).Sugar())

	_, err := svc.FetchPermanentStatus(context.Background())
	assert.ErrorIs(t, err, domain.ErrStreamNotReady)
	client.AssertNotCalled(t, "GetLiveStream", mock.Anything, mock.Anything)
}

func TestFetchPermanentStatus_ReflectsLiveStatus(t *testing.T) {
	cached := newStream("ls-1", "idle", "pb-1")
	client := new(MockLiveStreamClient)
	client.On("GetLiveStream", mock.Anything, domain.LiveStreamID("ls-1")).Return(newStream("ls-1", "idle", "pb-1"), nil).Once()
	client.On("GetLiveStream", mock.Anything, domain.LiveStreamID("ls-1")).Return(newStream("ls-1", "active", "pb-1"), nil).Once()

	events := new(MockEventPublisher)
	events.On("PublishStreamEvent", mock.Anything, ports.EventStreamStatusChanged, mock.Anything).Return(nil)
	metrics := new(MockMetrics)
	metrics.On("RecordStatusQuery", mock.Anything).Return()

	svc := services.NewLiveStreamService(client, readyWith(cached), events, metrics, zaptest.NewLogger(t).Sugar())

	first, err := svc.FetchPermanentStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, first.IsActive())

	second, err := svc.FetchPermanentStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, second.IsActive())

	// the cached copy is never updated by status queries
	assert.Equal(t, domain.StatusIdle, cached.Status)
	events.AssertNumberOfCalls(t, "PublishStreamEvent", 1)
}

func TestFetchPermanentStatus_RemoteError(t *testing.T) {
	client := new(MockLiveStreamClient)
	client.On("GetLiveStream", mock.Anything, mock.Anything).Return(nil, domain.ErrStreamNotFound)

	svc := services.NewLiveStreamService(client, readyWith(newStream("ls-1", "idle", "pb")), new(MockEventPublisher), new(MockMetrics), zaptest.NewLogger(t).Sugar())

	_, err := svc.FetchPermanentStatus(context.Background())
	assert.ErrorIs(t, err, domain.ErrStreamNotFound)
}
