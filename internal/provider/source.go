package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bruno-farias/raspi-info-ticker/internal/circuitbreaker"
	"github.com/bruno-farias/raspi-info-ticker/internal/metrics"
)

// Source is one upstream able to produce a T.
type Source[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)
}

// Attempt is the outcome of trying one source.
type Attempt struct {
	Source   string
	Err      error
	Duration time.Duration
}

// OK reports whether the attempt produced data.
func (a Attempt) OK() bool {
	return a.Err == nil
}

// AttemptsError is returned when every source failed.
type AttemptsError struct {
	Attempts []Attempt
}

func (e *AttemptsError) Error() string {
	if len(e.Attempts) == 0 {
		return "no sources configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Source+": "+a.Err.Error())
	}
	return "all sources failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual source errors to errors.Is.
func (e *AttemptsError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// FetchFirst tries sources in order and returns the first success together
// with its index and the attempts made so far.
func FetchFirst[T any](ctx context.Context, sources []Source[T]) (T, int, []Attempt, error) {
	var zero T
	attempts := make([]Attempt, 0, len(sources))

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Source: src.Name, Err: err})
			break
		}

		start := time.Now()
		value, err := src.Fetch(ctx)
		elapsed := time.Since(start)
		attempts = append(attempts, Attempt{Source: src.Name, Err: err, Duration: elapsed})

		if !errors.Is(err, ErrNotConfigured) && !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			metrics.RecordFetch(src.Name, elapsed, err)
		}
		if err == nil {
			return value, i, attempts, nil
		}
	}
	return zero, -1, attempts, &AttemptsError{Attempts: attempts}
}

// Guarded wraps a source with a circuit breaker.
func Guarded[T any](src Source[T], cb *circuitbreaker.CircuitBreaker) Source[T] {
	if cb == nil {
		return src
	}
	return Source[T]{
		Name: src.Name,
		Fetch: func(ctx context.Context) (T, error) {
			return circuitbreaker.Call(ctx, cb, func() (T, error) {
				return src.Fetch(ctx)
			})
		},
	}
}
