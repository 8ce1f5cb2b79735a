package repository

import (
	"context"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
)

// HistoryRepositoryInterface is implemented by the MongoDB store, its circuit
// breaker wrapper and the no-op store used when MongoDB is disabled.
type HistoryRepositoryInterface interface {
	Create(ctx context.Context, event *model.RefreshEvent) error
	Query(ctx context.Context, q HistoryQuery) ([]model.RefreshEvent, error)
	Count(ctx context.Context, q HistoryQuery) (int64, error)
}

// NoopHistory discards events.
type NoopHistory struct{}

func (NoopHistory) Create(context.Context, *model.RefreshEvent) error { return nil }

func (NoopHistory) Query(context.Context, HistoryQuery) ([]model.RefreshEvent, error) {
	return []model.RefreshEvent{}, nil
}

func (NoopHistory) Count(context.Context, HistoryQuery) (int64, error) { return 0, nil }
