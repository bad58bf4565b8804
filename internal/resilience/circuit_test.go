package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/resilience"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newBreaker(c *clock) *resilience.Breaker {
	return resilience.NewBreaker(resilience.BreakerConfig{
		Target:       "snapshot_store",
		MinRequests:  2,
		FailureRatio: 0.5,
		OpenFor:      time.Minute,
		Now:          c.now,
	})
}

func TestBreakerTransitions(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	breaker := newBreaker(c)
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx), "breaker should open after threshold exceeded")

	c.t = c.t.Add(time.Minute)
	require.True(t, breaker.Allow(ctx), "breaker should admit a probe after cool off")
	require.Equal(t, resilience.HalfOpen, breaker.State())
	require.False(t, breaker.Allow(ctx), "only one probe at a time")

	breaker.Report(ctx, true)
	require.Equal(t, resilience.Closed, breaker.State())
	require.True(t, breaker.Allow(ctx))
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	breaker := newBreaker(c)
	ctx := context.Background()
	boom := errors.New("redis down")

	for i := 0; i < 2; i++ {
		require.ErrorIs(t, breaker.Do(ctx, func(context.Context) error { return boom }), boom)
	}
	require.ErrorIs(t, breaker.Do(ctx, func(context.Context) error { return nil }), resilience.ErrOpenCircuit)

	c.t = c.t.Add(time.Minute)
	require.ErrorIs(t, breaker.Do(ctx, func(context.Context) error { return boom }), boom)
	require.Equal(t, resilience.Open, breaker.State())
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	breaker := newBreaker(c)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 3; i++ {
		err := breaker.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
		require.ErrorIs(t, err, context.Canceled)
	}
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestBreakerMetrics(t *testing.T) {
	obs.MustRegisterDomainMetrics("toko_test", prometheus.NewRegistry())
	require.NotNil(t, obs.BreakerState)

	c := &clock{t: time.Unix(1_700_000_000, 0)}
	breaker := resilience.NewBreaker(resilience.BreakerConfig{Target: "metrics_probe", MinRequests: 1, Now: c.now})
	ctx := context.Background()

	breaker.Report(ctx, false)
	require.Equal(t, 1.0, testutil.ToFloat64(obs.BreakerState.WithLabelValues("metrics_probe")))
	require.Equal(t, 1.0, testutil.ToFloat64(obs.BreakerTransitionsTotal.WithLabelValues("metrics_probe", "closed", "open")))
}
