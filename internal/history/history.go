// Package history persists conversation turns to durable storage and serves
// the most recent ones back for warming the memory store.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/config"
	"ambient-assistant/internal/history/postgres"
	"ambient-assistant/internal/history/redis"
	"ambient-assistant/internal/history/sqlite"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/logging"
	"ambient-assistant/internal/observability/metrics"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown history driver")

// Store is a durable turn store. Save upserts by TurnID so feedback updates
// overwrite the earlier record.
type Store interface {
	Save(ctx context.Context, turn models.ConversationTurn) error
	Recent(ctx context.Context, n int) ([]models.ConversationTurn, error)
	Close() error
}

// Open connects the configured driver.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(ctx, cfg.SQLitePath)
	case "postgres":
		return postgres.Open(ctx, cfg.PostgresDSN)
	case "redis":
		return redis.Open(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// Sink writes every conversation.turn event behind to a Store.
type Sink struct {
	store   Store
	name    string
	timeout time.Duration
	logger  zerolog.Logger
}

func NewSink(store Store, name string) *Sink {
	return &Sink{
		store:   store,
		name:    name,
		timeout: 5 * time.Second,
		logger:  logging.WithComponent("history").With().Str("driver", name).Logger(),
	}
}

// Attach subscribes the sink until ctx is done.
func (s *Sink) Attach(ctx context.Context, sub bus.Subscriber) error {
	return bus.OnContext(ctx, sub, models.TopicConversationTurn, s.save)
}

func (s *Sink) save(ctx context.Context, turn models.ConversationTurn) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.store.Save(ctx, turn)
	metrics.DefaultMetrics.RecordForwardPublish(s.name, models.TopicConversationTurn, "turn", err, time.Since(start).Seconds())
	if err != nil {
		// Durable storage is best effort; the turn stays in memory.
		s.logger.Warn().Err(err).Str("turnId", turn.TurnID).Msg("Failed to persist turn")
		return nil
	}
	s.logger.Debug().Str("turnId", turn.TurnID).Msg("Turn persisted")
	return nil
}

// Recent delegates to the store.
func (s *Sink) Recent(ctx context.Context, n int) ([]models.ConversationTurn, error) {
	return s.store.Recent(ctx, n)
}
