package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/models"
)

type fakeConn struct {
	mu      sync.Mutex
	msgs    []*nats.Msg
	fail    error
	drained bool
}

func (c *fakeConn) PublishMsg(m *nats.Msg) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *fakeConn) Drain() error {
	c.drained = true
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestNATSPublisher_Subjects(t *testing.T) {
	conn := &fakeConn{}
	p := newNATSPublisher(conn, "ambient", "assistant")
	ctx := context.Background()

	require.NoError(t, p.PublishAnswer(ctx, "0:0", models.Answer{TurnID: "t1", Text: "hi"}))
	require.NoError(t, p.PublishTurn(ctx, "a.b*c", models.ConversationTurn{TurnID: "a.b*c"}))
	require.NoError(t, p.PublishTurn(ctx, "", models.ConversationTurn{}))

	require.Equal(t, 3, conn.count())
	assert.Equal(t, "ambient.answers.0:0", conn.msgs[0].Subject)
	assert.Equal(t, "ambient.turns.a_b_c", conn.msgs[1].Subject)
	assert.Equal(t, "ambient.turns", conn.msgs[2].Subject)
	assert.Equal(t, "answer", conn.msgs[0].Header.Get("eventType"))
	assert.Equal(t, "assistant", conn.msgs[0].Header.Get("principal"))

	var a models.Answer
	require.NoError(t, json.Unmarshal(conn.msgs[0].Data, &a))
	assert.Equal(t, "hi", a.Text)

	require.NoError(t, p.Close())
	assert.True(t, conn.drained)
}

func TestNATSPublisher_Errors(t *testing.T) {
	conn := &fakeConn{fail: nats.ErrConnectionClosed}
	p := newNATSPublisher(conn, "ambient", "")
	assert.ErrorIs(t, p.PublishAnswer(context.Background(), "k", models.Answer{}), nats.ErrConnectionClosed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.PublishTurn(ctx, "k", models.ConversationTurn{}), context.Canceled)
}

type recordingSink struct {
	name    string
	answers chan string
	turns   chan string
	fail    bool
	closed  bool
}

func newRecordingSink(name string, fail bool) *recordingSink {
	return &recordingSink{name: name, answers: make(chan string, 4), turns: make(chan string, 4), fail: fail}
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) PublishAnswer(_ context.Context, key string, _ any) error {
	s.answers <- key
	if s.fail {
		return errors.New("broker down")
	}
	return nil
}

func (s *recordingSink) PublishTurn(_ context.Context, key string, _ any) error {
	s.turns <- key
	if s.fail {
		return errors.New("broker down")
	}
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func recv(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for forward")
		return ""
	}
}

func TestForwarder_FansOutToSinks(t *testing.T) {
	b := bus.New()
	defer b.Close()

	failing := newRecordingSink("broken", true)
	ok := newRecordingSink("ok", false)
	f := NewForwarder(failing, ok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.Attach(ctx, b))

	require.NoError(t, b.Publish(models.TopicAnswerFinal, models.Answer{TurnID: "t1", ThreadID: "0:0"}))
	assert.Equal(t, "0:0", recv(t, failing.answers))
	assert.Equal(t, "0:0", recv(t, ok.answers))

	require.NoError(t, b.Publish(models.TopicConversationTurn, models.ConversationTurn{TurnID: "t1"}))
	assert.Equal(t, "t1", recv(t, failing.turns))
	assert.Equal(t, "t1", recv(t, ok.turns))

	require.NoError(t, f.Close())
	assert.True(t, failing.closed)
	assert.True(t, ok.closed)
}

func TestForwarder_NoSinks(t *testing.T) {
	b := bus.New()
	defer b.Close()
	assert.NoError(t, NewForwarder().Attach(context.Background(), b))
}
