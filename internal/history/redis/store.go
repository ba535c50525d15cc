// Package redis keeps recent conversation turns in Redis: one JSON value per
// turn plus a sorted set indexed by creation time.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"ambient-assistant/internal/models"
)

const defaultPrefix = "ambient:"

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store is a Redis-backed turn store.
type Store struct {
	client *goredis.Client
	prefix string
}

// Open connects and pings the server.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	opt, err := goredis.ParseURL(cfg.Addr)
	if err != nil {
		opt = &goredis.Options{Addr: cfg.Addr}
	}
	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opt.DB = cfg.DB
	}
	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("history: connect redis: %w", err)
	}
	return New(client, cfg.Prefix), nil
}

// New wraps an existing client.
func New(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) indexKey() string {
	return s.prefix + "turns"
}

func (s *Store) turnKey(turnID string) string {
	return s.prefix + "turn:" + turnID
}

// score orders turns by creation time in milliseconds.
func score(t models.ConversationTurn) float64 {
	return float64(t.CreatedAt.UnixMilli())
}

func (s *Store) Save(ctx context.Context, turn models.ConversationTurn) error {
	b, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("history: encode turn %s: %w", turn.TurnID, err)
	}
	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.turnKey(turn.TurnID), b, 0)
		p.ZAdd(ctx, s.indexKey(), goredis.Z{Score: score(turn), Member: turn.TurnID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("history: save turn %s: %w", turn.TurnID, err)
	}
	return nil
}

// Recent returns up to n turns, newest first. Index entries whose value has
// expired or was deleted are skipped.
func (s *Store) Recent(ctx context.Context, n int) ([]models.ConversationTurn, error) {
	if n <= 0 {
		return nil, nil
	}
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("history: read index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.turnKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("history: read turns: %w", err)
	}
	return decodeTurns(values)
}

func decodeTurns(values []any) ([]models.ConversationTurn, error) {
	turns := make([]models.ConversationTurn, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var t models.ConversationTurn
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("history: decode turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
