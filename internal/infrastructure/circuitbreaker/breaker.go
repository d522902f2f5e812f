package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Settings configures a breaker. Zero values fall back to DefaultSettings.
type Settings struct {
	Name string `mapstructure:"name"`

	// MaxRequests may pass while half-open.
	MaxRequests uint32 `mapstructure:"max_requests"`

	// Interval clears the closed-state counts.
	Interval time.Duration `mapstructure:"interval"`

	// Timeout is how long the breaker stays open.
	Timeout time.Duration `mapstructure:"timeout"`

	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32 `mapstructure:"failure_threshold"`
}

func DefaultSettings(name string) Settings {
	return Settings{
		Name:             name,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Breaker guards calls to one upstream dependency.
type Breaker struct {
	cb  *gobreaker.CircuitBreaker
	log *zap.Logger
}

func New(s Settings, log *zap.Logger) *Breaker {
	d := DefaultSettings(s.Name)
	if s.MaxRequests == 0 {
		s.MaxRequests = d.MaxRequests
	}
	if s.Interval <= 0 {
		s.Interval = d.Interval
	}
	if s.Timeout <= 0 {
		s.Timeout = d.Timeout
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = d.FailureThreshold
	}
	threshold := s.FailureThreshold

	b := &Breaker{log: log}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A caller that went away says nothing about the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return b
}

func (b *Breaker) Name() string {
	return b.cb.Name()
}

func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Execute runs fn through the breaker. When the breaker is open fn is not
// called and the error satisfies IsOpen.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	v, _ := res.(T)
	return v, err
}

// IsOpen reports whether err came from a breaker refusing the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
