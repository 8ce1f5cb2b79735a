package repository

import (
	"context"
	"errors"

	"github.com/bruno-farias/raspi-info-ticker/internal/circuitbreaker"
	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
)

// HistoryRepositoryWithCircuitBreaker guards a history store with a circuit
// breaker. History is diagnostic only, so writes rejected by an open circuit
// are dropped silently.
type HistoryRepositoryWithCircuitBreaker struct {
	repo           HistoryRepositoryInterface
	circuitBreaker *circuitbreaker.CircuitBreaker
}

func NewHistoryRepositoryWithCircuitBreaker(repo HistoryRepositoryInterface, cb *circuitbreaker.CircuitBreaker) *HistoryRepositoryWithCircuitBreaker {
	return &HistoryRepositoryWithCircuitBreaker{
		repo:           repo,
		circuitBreaker: cb,
	}
}

func (r *HistoryRepositoryWithCircuitBreaker) Create(ctx context.Context, event *model.RefreshEvent) error {
	err := r.circuitBreaker.Execute(ctx, func() error {
		return r.repo.Create(ctx, event)
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil
	}
	return err
}

func (r *HistoryRepositoryWithCircuitBreaker) Query(ctx context.Context, q HistoryQuery) ([]model.RefreshEvent, error) {
	return circuitbreaker.Call(ctx, r.circuitBreaker, func() ([]model.RefreshEvent, error) {
		return r.repo.Query(ctx, q)
	})
}

func (r *HistoryRepositoryWithCircuitBreaker) Count(ctx context.Context, q HistoryQuery) (int64, error) {
	return circuitbreaker.Call(ctx, r.circuitBreaker, func() (int64, error) {
		return r.repo.Count(ctx, q)
	})
}

// GetCircuitBreaker returns the underlying circuit breaker for monitoring.
func (r *HistoryRepositoryWithCircuitBreaker) GetCircuitBreaker() *circuitbreaker.CircuitBreaker {
	return r.circuitBreaker
}
