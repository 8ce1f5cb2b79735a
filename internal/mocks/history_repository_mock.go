// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
	"github.com/bruno-farias/raspi-info-ticker/internal/repository"
)

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, event *model.RefreshEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockHistoryRepository) Query(ctx context.Context, q repository.HistoryQuery) ([]model.RefreshEvent, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RefreshEvent), args.Error(1)
}

func (m *MockHistoryRepository) Count(ctx context.Context, q repository.HistoryQuery) (int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(int64), args.Error(1)
}
