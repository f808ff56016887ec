package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerSettings struct {
	Name string
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:                "cart-storage",
		ConsecutiveFailures: 5,
		OpenTimeout:         10 * time.Second,
	}
}

// BreakerStorage fails fast while the wrapped backend keeps failing.
// ErrNotFound and caller cancellation do not count as backend failures.
type BreakerStorage struct {
	next    Storage
	breaker *gobreaker.CircuitBreaker[string]
}

func NewBreakerStorage(next Storage, settings BreakerSettings, logger *zap.Logger) *BreakerStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := settings.ConsecutiveFailures
	if threshold == 0 {
		threshold = 1
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("storage circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &BreakerStorage{next: next, breaker: cb}
}

func (b *BreakerStorage) Get(ctx context.Context, key string) (string, error) {
	return b.breaker.Execute(func() (string, error) {
		return b.next.Get(ctx, key)
	})
}

func (b *BreakerStorage) Set(ctx context.Context, key, value string) error {
	_, err := b.breaker.Execute(func() (string, error) {
		return "", b.next.Set(ctx, key, value)
	})
	return err
}

// Ping bypasses the breaker so health checks see the real backend state.
func (b *BreakerStorage) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}

func (b *BreakerStorage) State() gobreaker.State {
	return b.breaker.State()
}
