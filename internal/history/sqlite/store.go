// Package sqlite stores conversation turns in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ambient-assistant/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	turn_id         TEXT PRIMARY KEY,
	thread_id       TEXT NOT NULL DEFAULT '',
	question        TEXT NOT NULL,
	answer          TEXT NOT NULL,
	embedding       TEXT,
	embedding_state TEXT NOT NULL DEFAULT '',
	feedback        TEXT NOT NULL DEFAULT '',
	app_context     TEXT NOT NULL DEFAULT '',
	backend_used    TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_created ON turns(created_at DESC);
`

const upsert = `
INSERT INTO turns (turn_id, thread_id, question, answer, embedding, embedding_state, feedback, app_context, backend_used, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(turn_id) DO UPDATE SET
	answer = excluded.answer,
	embedding = excluded.embedding,
	embedding_state = excluded.embedding_state,
	feedback = excluded.feedback,
	backend_used = excluded.backend_used`

// Store is a SQLite-backed turn store.
type Store struct {
	db *sql.DB
}

// Open creates the database file and its schema if missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("history: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, turn models.ConversationTurn) error {
	var vec sql.NullString
	if len(turn.Embedding) > 0 {
		b, err := json.Marshal(turn.Embedding)
		if err != nil {
			return fmt.Errorf("history: encode embedding: %w", err)
		}
		vec = sql.NullString{String: string(b), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, upsert,
		turn.TurnID, turn.ThreadID, turn.Question, turn.Answer, vec,
		string(turn.EmbeddingState), string(turn.Feedback), turn.AppContext, turn.BackendUsed,
		turn.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("history: save turn %s: %w", turn.TurnID, err)
	}
	return nil
}

// Recent returns up to n turns, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]models.ConversationTurn, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT turn_id, thread_id, question, answer, embedding, embedding_state, feedback, app_context, backend_used, created_at
		FROM turns ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var (
			t                 models.ConversationTurn
			vec               sql.NullString
			state, fb         string
			createdAtUnixMill int64
		)
		if err := rows.Scan(&t.TurnID, &t.ThreadID, &t.Question, &t.Answer, &vec, &state, &fb, &t.AppContext, &t.BackendUsed, &createdAtUnixMill); err != nil {
			return nil, fmt.Errorf("history: scan turn: %w", err)
		}
		if vec.Valid {
			if err := json.Unmarshal([]byte(vec.String), &t.Embedding); err != nil {
				return nil, fmt.Errorf("history: decode embedding for %s: %w", t.TurnID, err)
			}
		}
		t.EmbeddingState = models.EmbeddingState(state)
		t.Feedback = models.Sentiment(fb)
		t.CreatedAt = time.UnixMilli(createdAtUnixMill)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
