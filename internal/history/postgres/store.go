// Package postgres stores conversation turns in PostgreSQL with pgvector
// embeddings.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"ambient-assistant/internal/models"
)

// TurnRecord is the persisted form of a conversation turn.
type TurnRecord struct {
	TurnID    string           `gorm:"primaryKey;type:text"`
	ThreadID  string           `gorm:"type:text;index"`
	Question  string           `gorm:"type:text;not null"`
	Answer    string           `gorm:"type:text;not null"`
	Embedding *pgvector.Vector `gorm:"type:vector"`
	Feedback  string           `gorm:"type:text"`
	Context   datatypes.JSON   `gorm:"type:jsonb"`
	CreatedAt time.Time        `gorm:"index:idx_turn_records_created,sort:desc"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime"`
}

func (TurnRecord) TableName() string {
	return "conversation_turns"
}

// turnContext holds the descriptive fields kept as JSON.
type turnContext struct {
	AppContext     string `json:"appContext,omitempty"`
	BackendUsed    string `json:"backendUsed,omitempty"`
	EmbeddingState string `json:"embeddingState,omitempty"`
}

func toRecord(t models.ConversationTurn) (TurnRecord, error) {
	meta, err := json.Marshal(turnContext{
		AppContext:     t.AppContext,
		BackendUsed:    t.BackendUsed,
		EmbeddingState: string(t.EmbeddingState),
	})
	if err != nil {
		return TurnRecord{}, err
	}
	rec := TurnRecord{
		TurnID:    t.TurnID,
		ThreadID:  t.ThreadID,
		Question:  t.Question,
		Answer:    t.Answer,
		Feedback:  string(t.Feedback),
		Context:   datatypes.JSON(meta),
		CreatedAt: t.CreatedAt,
	}
	if len(t.Embedding) > 0 {
		v := pgvector.NewVector(t.Embedding)
		rec.Embedding = &v
	}
	return rec, nil
}

func toTurn(r TurnRecord) models.ConversationTurn {
	t := models.ConversationTurn{
		TurnID:    r.TurnID,
		ThreadID:  r.ThreadID,
		Question:  r.Question,
		Answer:    r.Answer,
		Feedback:  models.Sentiment(r.Feedback),
		CreatedAt: r.CreatedAt,
	}
	if r.Embedding != nil {
		t.Embedding = r.Embedding.Slice()
	}
	var meta turnContext
	if len(r.Context) > 0 && json.Unmarshal(r.Context, &meta) == nil {
		t.AppContext = meta.AppContext
		t.BackendUsed = meta.BackendUsed
		t.EmbeddingState = models.EmbeddingState(meta.EmbeddingState)
	}
	return t
}

// Store is a gorm-backed turn store.
type Store struct {
	db *gorm.DB
}

// Open connects and migrates the turns table. The vector extension must be
// installable by the connecting role.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("history: connect postgres: %w", err)
	}
	if err := db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("history: enable pgvector: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&TurnRecord{}); err != nil {
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, turn models.ConversationTurn) error {
	rec, err := toRecord(turn)
	if err != nil {
		return fmt.Errorf("history: encode turn %s: %w", turn.TurnID, err)
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "turn_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"answer", "embedding", "feedback", "context", "updated_at"}),
		}).
		Create(&rec).Error
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
	var records []TurnRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(n).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	turns := make([]models.ConversationTurn, len(records))
	for i, r := range records {
		turns[i] = toTurn(r)
	}
	return turns, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
