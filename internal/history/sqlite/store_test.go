package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ambient-assistant/internal/models"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "history", "turns.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndRecent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"t1", "t2", "t3"} {
		turn := models.ConversationTurn{
			TurnID:         id,
			ThreadID:       "0:0",
			Question:       "q-" + id,
			Answer:         "a-" + id,
			Embedding:      []float32{float32(i), 0.5},
			EmbeddingState: models.EmbeddingReady,
			AppContext:     "Code",
			BackendUsed:    "ollama",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Save(ctx, turn); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	turns, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].TurnID != "t3" || turns[1].TurnID != "t2" {
		t.Errorf("expected newest first [t3 t2], got [%s %s]", turns[0].TurnID, turns[1].TurnID)
	}
	got := turns[0]
	if len(got.Embedding) != 2 || got.Embedding[0] != 2 {
		t.Errorf("expected embedding [2 0.5], got %v", got.Embedding)
	}
	if got.EmbeddingState != models.EmbeddingReady || got.AppContext != "Code" || got.BackendUsed != "ollama" {
		t.Errorf("unexpected fields: %+v", got)
	}
	if !got.CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("expected created at %v, got %v", base.Add(2*time.Minute), got.CreatedAt)
	}
}

func TestStore_SaveUpdatesFeedback(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	turn := models.ConversationTurn{TurnID: "t1", Question: "q", Answer: "a", CreatedAt: time.Now()}

	if err := s.Save(ctx, turn); err != nil {
		t.Fatalf("save: %v", err)
	}
	turn.Feedback = models.SentimentNegative
	if err := s.Save(ctx, turn); err != nil {
		t.Fatalf("update: %v", err)
	}

	turns, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn after upsert, got %d", len(turns))
	}
	if turns[0].Feedback != models.SentimentNegative {
		t.Errorf("expected negative feedback, got %q", turns[0].Feedback)
	}
	if turns[0].Embedding != nil {
		t.Errorf("expected no embedding, got %v", turns[0].Embedding)
	}
}

func TestStore_RecentZero(t *testing.T) {
	s := openTemp(t)
	turns, err := s.Recent(context.Background(), 0)
	if err != nil || turns != nil {
		t.Errorf("expected nil, nil; got %v, %v", turns, err)
	}
}
