package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig configures a circuit breaker around a generation provider
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// BreakerGenerator fails fast while the wrapped provider keeps failing
type BreakerGenerator struct {
	inner   GenerationProvider
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerGenerator wraps a generation provider with a circuit breaker
func NewBreakerGenerator(inner GenerationProvider, cfg BreakerConfig, logger *zap.Logger) *BreakerGenerator {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.5
	}

	settings := gobreaker.Settings{
		Name:        inner.Name() + "-generation",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("generation circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// caller cancellations say nothing about provider health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerGenerator{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Name returns the wrapped provider name
func (b *BreakerGenerator) Name() string {
	return b.inner.Name()
}

// Generate runs the wrapped provider unless the breaker is open
func (b *BreakerGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, b.inner.Name())
		}
		return nil, err
	}
	return result.(*GenerateResponse), nil
}

// State returns the current breaker state
func (b *BreakerGenerator) State() gobreaker.State {
	return b.breaker.State()
}
