package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/config"
	"ambient-assistant/internal/models"
)

type memStore struct {
	mu    sync.Mutex
	turns map[string]models.ConversationTurn
	saved chan string
	fail  bool
}

func (m *memStore) Save(_ context.Context, turn models.ConversationTurn) error {
	if m.fail {
		m.saved <- turn.TurnID
		return errors.New("disk full")
	}
	m.mu.Lock()
	m.turns[turn.TurnID] = turn
	m.mu.Unlock()
	m.saved <- turn.TurnID
	return nil
}

func (m *memStore) Recent(context.Context, int) ([]models.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ConversationTurn, 0, len(m.turns))
	for _, t := range m.turns {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func waitSaved(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("turn was not saved")
		return ""
	}
}

func TestSink_PersistsTurns(t *testing.T) {
	b := bus.New()
	defer b.Close()
	store := &memStore{turns: map[string]models.ConversationTurn{}, saved: make(chan string, 4)}
	sink := NewSink(store, "mem")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, sink.Attach(ctx, b))

	require.NoError(t, b.Publish(models.TopicConversationTurn, models.ConversationTurn{TurnID: "t1", Question: "q", Answer: "a"}))
	assert.Equal(t, "t1", waitSaved(t, store.saved))

	require.NoError(t, b.Publish(models.TopicConversationTurn, models.ConversationTurn{TurnID: "t1", Question: "q", Answer: "a", Feedback: models.SentimentPositive}))
	waitSaved(t, store.saved)

	turns, err := sink.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, models.SentimentPositive, turns[0].Feedback)
}

func TestSink_FailureIsAbsorbed(t *testing.T) {
	store := &memStore{saved: make(chan string, 1), fail: true}
	sink := NewSink(store, "mem")
	assert.NoError(t, sink.save(context.Background(), models.ConversationTurn{TurnID: "t1"}))
	assert.Equal(t, "t1", <-store.saved)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.HistoryConfig{Driver: "mongo"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestOpen_SQLite(t *testing.T) {
	store, err := Open(context.Background(), config.HistoryConfig{Driver: "sqlite", SQLitePath: t.TempDir() + "/turns.db"})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), models.ConversationTurn{TurnID: "x", Question: "q", Answer: "a", CreatedAt: time.Now()}))
	turns, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}
