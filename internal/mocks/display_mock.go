// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"
)

type MockDisplay struct {
	mock.Mock
}

func (m *MockDisplay) FullRepaint(ctx context.Context, frame image.Image) error {
	args := m.Called(ctx, frame)
	return args.Error(0)
}

func (m *MockDisplay) SetPartialBaseline(ctx context.Context, frame image.Image) error {
	args := m.Called(ctx, frame)
	return args.Error(0)
}

func (m *MockDisplay) PartialRepaint(ctx context.Context, frame image.Image) error {
	args := m.Called(ctx, frame)
	return args.Error(0)
}

func (m *MockDisplay) Sleep(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDisplay) Init(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
