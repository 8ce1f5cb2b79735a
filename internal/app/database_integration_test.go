//go:build integration

package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bruno-farias/raspi-info-ticker/config"
	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
	"github.com/bruno-farias/raspi-info-ticker/internal/repository"
	"github.com/bruno-farias/raspi-info-ticker/internal/testutil"
)

func TestInitializeHistory(t *testing.T) {
	breaker := config.Defaults().Breaker

	t.Run("disabled", func(t *testing.T) {
		assert.Nil(t, InitializeHistory(config.DatabaseConfig{Enabled: false}, breaker))
	})

	t.Run("unreachable server", func(t *testing.T) {
		cfg := config.DatabaseConfig{
			Enabled:      true,
			URI:          "mongodb://127.0.0.1:1",
			DatabaseName: "unreachable",
		}
		assert.Nil(t, InitializeHistory(cfg, breaker))
	})

	t.Run("records and queries events", func(t *testing.T) {
		ctx := context.Background()
		cfg := config.DatabaseConfig{
			Enabled:      true,
			URI:          testutil.MongoURI(),
			DatabaseName: testutil.DBName(t.Name()),
			HistoryTTL:   time.Hour,
		}

		comps := InitializeHistory(cfg, breaker)
		require.NotNil(t, comps)
		defer func() { _ = comps.Close(ctx) }()

		require.NoError(t, comps.Repo.Create(ctx, &model.RefreshEvent{
			SessionID: "session",
			Screen:    "clock",
			Action:    "full_repaint",
		}))

		events, err := comps.Repo.Query(ctx, repository.HistoryQuery{SessionID: "session", Limit: 10})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "clock", events[0].Screen)
		assert.False(t, comps.CircuitBreaker.IsOpen())
	})
}

func TestApp_RunRecordsHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Enabled = true
	cfg.Database.URI = testutil.MongoURI()
	cfg.Database.DatabaseName = testutil.DBName(t.Name())

	a, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, a.History)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.Session.Status().LastAction != ""
	}, 10*time.Second, 20*time.Millisecond)

	n, err := a.History.Repo.Count(context.Background(), repository.HistoryQuery{SessionID: a.Session.ID()})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	cancel()
	require.NoError(t, <-done)
}
