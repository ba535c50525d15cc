package voice_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambient-assistant/internal/models"
	"ambient-assistant/internal/service/voice"
	"ambient-assistant/internal/service/voice/mock"
)

type recorder struct {
	mu     sync.Mutex
	topics []string
	items  []models.UserQuery
}

func (r *recorder) Publish(topic string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	if q, ok := payload.(models.UserQuery); ok {
		r.items = append(r.items, q)
	}
	return nil
}

func (r *recorder) queries() []models.UserQuery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.UserQuery(nil), r.items...)
}

var question = mock.Utterance{
	Partials:   []string{"What is", "What is a mutex"},
	Final:      "What is a mutex?",
	Confidence: 0.9,
}

func newSession(t *testing.T, limits voice.Limits) (*voice.Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	adapter := mock.New(mock.WithDelay(0), mock.WithUtterance(question))
	s := voice.NewSession(adapter, rec, "voice", limits)
	require.NoError(t, s.Start(context.Background()))
	return s, rec
}

func TestSession_FinalBecomesQuery(t *testing.T) {
	s, rec := newSession(t, voice.DefaultLimits())
	ctx := context.Background()

	require.NoError(t, s.SendAudio(ctx, []byte{1, 2}))
	assert.Equal(t, "What is", s.LastPartial())
	require.NoError(t, s.SendAudio(ctx, []byte{1, 2}))
	require.NoError(t, s.SendAudio(ctx, []byte{1, 2}))

	qs := rec.queries()
	require.Len(t, qs, 1)
	assert.Equal(t, "What is a mutex?", qs[0].Text)
	assert.True(t, qs[0].Voice)
	assert.Equal(t, "voice", qs[0].ThreadID)
	assert.Equal(t, []string{models.TopicUserManualQuery}, rec.topics)

	assert.Equal(t, voice.StateListening, s.Utterance().State())
	assert.Equal(t, "voice-utt-2", s.Utterance().ID())
	assert.Equal(t, 1, s.Asked())

	require.NoError(t, s.Close())
	assert.Len(t, rec.queries(), 1)
}

func TestSession_CloseFlushesTrailingFinal(t *testing.T) {
	s, rec := newSession(t, voice.DefaultLimits())
	require.NoError(t, s.SendAudio(context.Background(), []byte{1}))
	require.NoError(t, s.Close())

	qs := rec.queries()
	require.Len(t, qs, 1)
	assert.Equal(t, "What is a mutex?", qs[0].Text)
	assert.Equal(t, voice.StateClosed, s.Utterance().State())
}

func TestSession_ErrorDropsUtterance(t *testing.T) {
	s, rec := newSession(t, voice.DefaultLimits())
	s.OnPartial("What is")
	s.OnError(errors.New("stream reset"))
	s.OnFinal("What is a mutex?", 0.9)

	assert.Empty(t, rec.queries())
	assert.Equal(t, voice.StateDropped, s.Utterance().State())
	assert.ErrorIs(t, s.SendAudio(context.Background(), []byte{1}), voice.ErrUtteranceClosed)
}

func TestSession_AudioLimit(t *testing.T) {
	s, rec := newSession(t, voice.Limits{MaxAudioBytes: 4})
	ctx := context.Background()

	require.NoError(t, s.SendAudio(ctx, []byte{1, 2, 3}))
	assert.ErrorIs(t, s.SendAudio(ctx, []byte{4, 5}), voice.ErrLimitExceeded)
	assert.Equal(t, voice.StateDropped, s.Utterance().State())

	require.NoError(t, s.Close())
	assert.Empty(t, rec.queries())
}

func TestSession_PartialLimit(t *testing.T) {
	s, _ := newSession(t, voice.Limits{MaxPartials: 1})
	s.OnPartial("a")
	assert.Equal(t, voice.StateListening, s.Utterance().State())
	s.OnPartial("b")
	assert.Equal(t, voice.StateDropped, s.Utterance().State())
}

func TestSession_EmptyFinalIsNotAsked(t *testing.T) {
	s, rec := newSession(t, voice.DefaultLimits())
	s.OnFinal("   ", 0.2)
	assert.Empty(t, rec.queries())
	assert.Equal(t, voice.StateListening, s.Utterance().State())
}
