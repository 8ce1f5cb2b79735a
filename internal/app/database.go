package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bruno-farias/raspi-info-ticker/config"
	"github.com/bruno-farias/raspi-info-ticker/internal/circuitbreaker"
	"github.com/bruno-farias/raspi-info-ticker/internal/repository"
)

const historyBreakerName = "mongodb-history"

// HistoryComponents holds the refresh history store.
type HistoryComponents struct {
	DB             *repository.MongoDB
	Repo           repository.HistoryRepositoryInterface
	CircuitBreaker *circuitbreaker.CircuitBreaker
}

// InitializeHistory connects to MongoDB and builds the breaker-guarded
// history repository. Returns nil if the database is disabled or the
// connection fails; the ticker then runs without history.
func InitializeHistory(cfg config.DatabaseConfig, breaker config.BreakerConfig) *HistoryComponents {
	if !cfg.Enabled {
		return nil
	}

	db, err := repository.NewMongoDB(cfg.URI, cfg.DatabaseName)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to MongoDB - continuing without history")
		return nil
	}

	log.Info().Str("database", cfg.DatabaseName).Msg("Connected to MongoDB")

	if cfg.HistoryTTL > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.SetHistoryTTL(ctx, cfg.HistoryTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to set history TTL index")
		}
	}

	cb := newCircuitBreaker(historyBreakerName, breaker)

	return &HistoryComponents{
		DB:             db,
		Repo:           repository.NewHistoryRepositoryWithCircuitBreaker(repository.NewHistoryRepository(db), cb),
		CircuitBreaker: cb,
	}
}

// Close disconnects from MongoDB. Safe on a nil receiver.
func (h *HistoryComponents) Close(ctx context.Context) error {
	if h == nil || h.DB == nil {
		return nil
	}
	return h.DB.Close(ctx)
}

func (h *HistoryComponents) repo() repository.HistoryRepositoryInterface {
	if h == nil {
		return nil
	}
	return h.Repo
}
