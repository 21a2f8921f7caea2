package balance

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerCache stops calling a failing cache for a cool-down period so that
// reports fall back to the ledger without paying a network timeout on every
// read. Invalidate always reaches the inner cache.
type BreakerCache struct {
	inner   Cache
	breaker *gobreaker.CircuitBreaker
}

type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

func NewBreakerCache(inner Cache, cfg BreakerConfig, logger *zap.Logger) *BreakerCache {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "balance-cache",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BreakerCache{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// State reports the breaker state, "closed", "half-open" or "open".
func (c *BreakerCache) State() string {
	return c.breaker.State().String()
}

func (c *BreakerCache) Generation(ctx context.Context) (int64, error) {
	v, err := c.breaker.Execute(func() (any, error) {
		return c.inner.Generation(ctx)
	})
	if err != nil {
		return 0, err
	}

	return v.(int64), nil
}

func (c *BreakerCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := c.breaker.Execute(func() (any, error) {
		return c.inner.Get(ctx, key, dst)
	})
	if err != nil {
		return false, err
	}

	return v.(bool), nil
}

func (c *BreakerCache) Set(ctx context.Context, key string, value any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.inner.Set(ctx, key, value)
	})

	return err
}

func (c *BreakerCache) Invalidate(ctx context.Context) error {
	return c.inner.Invalidate(ctx)
}
