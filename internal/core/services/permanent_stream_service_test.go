package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"muxlive/internal/core/domain"
	"muxlive/internal/core/ports"
	"muxlive/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type permanentFixture struct {
	client  *MockLiveStreamClient
	events  *MockEventPublisher
	metrics *MockMetrics
	logs    *observer.ObservedLogs
}

func newPermanentFixture() *permanentFixture {
	f := &permanentFixture{
		client:  new(MockLiveStreamClient),
		events:  new(MockEventPublisher),
		metrics: new(MockMetrics),
	}
	f.events.On("PublishStreamEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.metrics.On("RecordStreamCreated", mock.Anything).Return()
	f.metrics.On("RecordReadiness", mock.Anything).Return()
	return f
}

func (f *permanentFixture) service(id domain.LiveStreamID) *services.PermanentStreamService {
	core, logs := observer.New(zapcore.DebugLevel)
	f.logs = logs
	return services.NewPermanentStreamService(f.client, id, f.events, f.metrics, zap.New(core).Sugar())
}

func TestEnsurePermanentStream_ReusesConfiguredStream(t *testing.T) {
	f := newPermanentFixture()
	existing := newStream("ls-existing", "idle", "pb-1")
	f.client.On("GetLiveStream", mock.Anything, domain.LiveStreamID("ls-existing")).Return(existing, nil).Once()

	svc := f.service("ls-existing")
	require.NoError(t, svc.EnsurePermanentStream(context.Background()))

	r := svc.Readiness()
	assert.Equal(t, domain.StateReady, r.State)
	assert.Same(t, existing, r.Stream)
	assert.Same(t, existing, svc.Current())

	f.client.AssertNotCalled(t, "CreateLiveStream", mock.Anything, mock.Anything)
	f.metrics.AssertNotCalled(t, "RecordStreamCreated", mock.Anything)
	f.events.AssertCalled(t, "PublishStreamEvent", mock.Anything, ports.EventStreamReady, existing)

	// the stream key is never logged when reusing
	for _, entry := range f.logs.All() {
		_, hasKey := entry.ContextMap()["stream_key"]
		assert.False(t, hasKey)
	}
}

func TestEnsurePermanentStream_NotFoundCreatesExactlyOnce(t *testing.T) {
	f := newPermanentFixture()
	created := newStream("ls-new", "idle", "pb-new")
	f.client.On("GetLiveStream", mock.Anything, domain.LiveStreamID("ls-gone")).
		Return(nil, domain.ErrStreamNotFound).Once()
	f.client.On("CreateLiveStream", mock.Anything, domain.DefaultCreateParams()).Return(created, nil).Once()

	svc := f.service("ls-gone")
	require.NoError(t, svc.EnsurePermanentStream(context.Background()))

	assert.Same(t, created, svc.Current())
	f.client.AssertNumberOfCalls(t, "GetLiveStream", 1)
	f.client.AssertNumberOfCalls(t, "CreateLiveStream", 1)
	f.metrics.AssertCalled(t, "RecordStreamCreated", ports.StreamKindPermanent)
	assert.Equal(t, 1, f.logs.FilterMessageSnippet("configured live stream unavailable").Len())
}

func TestEnsurePermanentStream_NoConfiguredIDCreates(t *testing.T) {
	f := newPermanentFixture()
	created := newStream("ls-new", "idle", "pb-new")
	f.client.On("CreateLiveStream", mock.Anything, mock.Anything).Return(created, nil).Once()

	svc := f.service("")
	require.NoError(t, svc.EnsurePermanentStream(context.Background()))

	f.client.AssertNotCalled(t, "GetLiveStream", mock.Anything, mock.Anything)
	assert.Equal(t, domain.StateReady, svc.Readiness().State)

	// stream key and ingest url are surfaced exactly once
	keyed := 0
	for _, entry := range f.logs.All() {
		fields := entry.ContextMap()
		if fields["stream_key"] == "sk-ls-new" {
			keyed++
			assert.Equal(t, "rtmps://global-live.mux.com:443/app", fields["ingest_url"])
		}
	}
	assert.Equal(t, 1, keyed)
}

func TestEnsurePermanentStream_BothFailLeavesFailedState(t *testing.T) {
	f := newPermanentFixture()
	f.client.On("GetLiveStream", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	f.client.On("CreateLiveStream", mock.Anything, mock.Anything).Return(nil, errors.New("401 unauthorized"))

	svc := f.service("ls-1")
	err := svc.EnsurePermanentStream(context.Background())
	require.Error(t, err)

	r := svc.Readiness()
	assert.Equal(t, domain.StateFailed, r.State)
	assert.Nil(t, r.Stream)
	assert.Contains(t, r.Reason, "timeout")
	assert.Contains(t, r.Reason, "401 unauthorized")
	assert.Nil(t, svc.Current())
	f.metrics.AssertCalled(t, "RecordReadiness", domain.StateFailed)
}

func TestEnsurePermanentStream_RunsOnce(t *testing.T) {
	f := newPermanentFixture()
	f.client.On("CreateLiveStream", mock.Anything, mock.Anything).Return(newStream("ls", "idle", "pb"), nil).Once()

	svc := f.service("")
	require.NoError(t, svc.EnsurePermanentStream(context.Background()))
	assert.ErrorIs(t, svc.EnsurePermanentStream(context.Background()), domain.ErrAlreadyInitialized)
	f.client.AssertNumberOfCalls(t, "CreateLiveStream", 1)
}

func TestEnsurePermanentStream_EventFailureDoesNotBlockReadiness(t *testing.T) {
	f := newPermanentFixture()
	f.events = new(MockEventPublisher)
	f.events.On("PublishStreamEvent", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	f.client.On("CreateLiveStream", mock.Anything, mock.Anything).Return(newStream("ls", "idle", "pb"), nil)

	svc := f.service("")
	require.NoError(t, svc.EnsurePermanentStream(context.Background()))
	assert.True(t, svc.Readiness().IsReady())
}

func TestStart_InitializesInBackground(t *testing.T) {
	f := newPermanentFixture()
	release := make(chan struct{})
	f.client.On("CreateLiveStream", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(newStream("ls", "active", "pb"), nil)

	svc := f.service("")
	done := svc.Start(context.Background(), time.Second)

	assert.Equal(t, domain.StateUninitialized, svc.Readiness().State)
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("initialization did not finish")
	}
	assert.Equal(t, domain.StateReady, svc.Readiness().State)
}

func TestStart_FailureIsSwallowed(t *testing.T) {
	f := newPermanentFixture()
	f.client.On("CreateLiveStream", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	svc := f.service("")
	<-svc.Start(context.Background(), time.Second)

	assert.Equal(t, domain.StateFailed, svc.Readiness().State)
	assert.Equal(t, 1, f.logs.FilterMessageSnippet("initialization failed").Len())
}
