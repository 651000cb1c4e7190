package monitoring

import (
	"context"
	"fmt"
	"time"

	"muxlive/internal/core/domain"
	"muxlive/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// AddRedisCheck adds a Redis health check
func (h *HealthChecker) AddRedisCheck(client *redis.Client, timeout time.Duration) {
	h.AddCheck("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}, timeout)
}

// AddPermanentStreamCheck fails until the permanent stream is ready and
// reports the failure reason once initialization has given up.
func (h *HealthChecker) AddPermanentStreamCheck(stream ports.PermanentStream) {
	h.AddCheck("permanent_stream", func(ctx context.Context) error {
		r := stream.Readiness()
		switch r.State {
		case domain.StateReady:
			return nil
		case domain.StateFailed:
			return fmt.Errorf("failed: %s", r.Reason)
		default:
			return fmt.Errorf("%s", r.State)
		}
	}, 0)
}
