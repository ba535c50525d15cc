package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambient-assistant/internal/models"
	"ambient-assistant/internal/schema"
)

type recorder struct {
	topics   []string
	payloads []any
}

func (r *recorder) Publish(topic string, payload any) error {
	r.topics = append(r.topics, topic)
	r.payloads = append(r.payloads, payload)
	return nil
}

func TestControl_PublishesValidEvents(t *testing.T) {
	rec := &recorder{}
	c := NewControl(rec, func() models.PipelineStatus { return models.PipelineStatus{ActiveBackend: "demo"} })

	require.NoError(t, c.Ask(models.UserQuery{Text: "What is a monad?"}))
	require.NoError(t, c.Feedback(models.UserFeedback{TurnID: "t1", Sentiment: models.SentimentPositive}))
	require.NoError(t, c.Pause(models.UserPause{Paused: true}))
	require.NoError(t, c.Hotkey())
	require.NoError(t, c.Typed(models.TypedInput{Text: "why"}))
	require.NoError(t, c.Typed(models.TypedInput{}))

	assert.Equal(t, []string{
		models.TopicUserManualQuery,
		models.TopicUserFeedback,
		models.TopicUserPause,
		models.TopicTriggerHotkey,
		models.TopicInputTyped,
	}, rec.topics)
	assert.Equal(t, "demo", c.Status().ActiveBackend)
}

func TestControl_RejectsInvalidEvents(t *testing.T) {
	rec := &recorder{}
	c := NewControl(rec, nil)

	assert.ErrorIs(t, c.Ask(models.UserQuery{}), schema.ErrInvalidEvent)
	assert.ErrorIs(t, c.Feedback(models.UserFeedback{Sentiment: "meh"}), schema.ErrInvalidEvent)
	assert.Empty(t, rec.topics)
	assert.False(t, c.Status().Paused)
}
