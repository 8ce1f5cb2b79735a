//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bruno-farias/raspi-info-ticker/internal/circuitbreaker"
	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
)

func TestHistoryRepository_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewHistoryRepository(db)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []*model.RefreshEvent{
		{SessionID: "s1", Screen: "exchange_rates", ScreenIndex: 1, TotalScreens: 2, Action: "full_repaint", HasData: true, CreatedAt: base},
		{SessionID: "s1", Screen: "weather", ScreenIndex: 2, TotalScreens: 2, Action: "partial_repaint", HasData: true, Cached: true, CreatedAt: base.Add(10 * time.Second)},
		{SessionID: "s2", Screen: "weather", ScreenIndex: 1, TotalScreens: 1, Action: "full_repaint", Error: "display operation failed", CreatedAt: base.Add(20 * time.Second)},
	}
	for _, e := range events {
		require.NoError(t, repo.Create(ctx, e))
		assert.NotEmpty(t, e.ID)
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := repo.Query(ctx, HistoryQuery{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "s2", got[0].SessionID)
		assert.Equal(t, events[0].ID, got[2].ID)
		assert.True(t, got[0].CreatedAt.Equal(base.Add(20*time.Second)))
	})

	t.Run("filters", func(t *testing.T) {
		got, err := repo.Query(ctx, HistoryQuery{SessionID: "s1", Screen: "weather"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Cached)

		since := base.Add(5 * time.Second)
		n, err := repo.Count(ctx, HistoryQuery{Action: "full_repaint", Since: &since})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("limit and skip", func(t *testing.T) {
		got, err := repo.Query(ctx, HistoryQuery{Limit: 1, Skip: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "weather", got[0].Screen)
		assert.Equal(t, "s1", got[0].SessionID)
	})

	t.Run("duplicate id", func(t *testing.T) {
		dup := *events[0]
		assert.Error(t, repo.Create(ctx, &dup))
	})

	t.Run("through circuit breaker", func(t *testing.T) {
		guarded := NewHistoryRepositoryWithCircuitBreaker(repo, circuitbreaker.New(circuitbreaker.DefaultConfig()))
		n, err := guarded.Count(ctx, HistoryQuery{})
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})
}

func TestHistoryRepository_CancelledContext(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewHistoryRepository(db)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Create(ctx, &model.RefreshEvent{SessionID: "s"})

	assert.True(t, errors.Is(err, context.Canceled))
}
