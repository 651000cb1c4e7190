package monitoring

import (
	"time"

	"muxlive/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	remoteCallsTotal   *prometheus.CounterVec
	remoteCallDuration *prometheus.HistogramVec
	streamsCreated     *prometheus.CounterVec
	statusQueries      *prometheus.CounterVec

	permanentState  prometheus.Gauge
	permanentActive prometheus.Gauge
}

// NewPrometheusCollector registers the service metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		remoteCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "muxlive_remote_calls_total",
			Help: "Calls made to the live-video platform",
		}, []string{"operation", "outcome"}),

		remoteCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "muxlive_remote_call_duration_seconds",
			Help:    "Latency of calls made to the live-video platform",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),

		streamsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "muxlive_streams_created_total",
			Help: "Live streams created by this process",
		}, []string{"kind"}),

		statusQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "muxlive_status_queries_total",
			Help: "Permanent stream status queries by observed status",
		}, []string{"status"}),

		permanentState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "muxlive_permanent_stream_state",
			Help: "Permanent stream readiness (0 initializing, 1 ready, 2 failed)",
		}),

		permanentActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "muxlive_permanent_stream_active",
			Help: "1 when the last observed permanent stream status was active",
		}),
	}
}

func (p *PrometheusCollector) ObserveRemoteCall(operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.remoteCallsTotal.WithLabelValues(operation, outcome).Inc()
	p.remoteCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordStreamCreated(kind string) {
	p.streamsCreated.WithLabelValues(kind).Inc()
}

func (p *PrometheusCollector) RecordReadiness(state domain.ReadinessState) {
	p.permanentState.Set(float64(state))
}

func (p *PrometheusCollector) RecordStatusQuery(stream *domain.LiveStream) {
	p.statusQueries.WithLabelValues(string(stream.Status)).Inc()
	if stream.IsActive() {
		p.permanentActive.Set(1)
	} else {
		p.permanentActive.Set(0)
	}
}
