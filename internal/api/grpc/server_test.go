package grpcapi

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"ambient-assistant/internal/api"
	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/service/voice"
	"ambient-assistant/internal/service/voice/mock"
	pb "ambient-assistant/proto"
)

type harness struct {
	client  *Client
	bus     *bus.Bus
	queries chan models.UserQuery
}

func newHarness(t *testing.T, factory voice.Factory) *harness {
	t.Helper()
	b := bus.New()
	t.Cleanup(func() { _ = b.Close() })

	h := &harness{bus: b, queries: make(chan models.UserQuery, 8)}
	require.NoError(t, bus.On(b, models.TopicUserManualQuery, func(_ context.Context, q models.UserQuery) error {
		h.queries <- q
		return nil
	}))

	control := api.NewControl(b, func() models.PipelineStatus {
		return models.PipelineStatus{ActiveBackend: "ollama", Paused: true}
	})

	lis := bufconn.Listen(1 << 20)
	g := grpc.NewServer()
	Register(g, New(control, b, factory))
	go func() { _ = g.Serve(lis) }()
	t.Cleanup(g.Stop)

	client, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	h.client = client
	return h
}

func (h *harness) nextQuery(t *testing.T) models.UserQuery {
	t.Helper()
	select {
	case q := <-h.queries:
		return q
	case <-time.After(5 * time.Second):
		t.Fatal("no query published")
		return models.UserQuery{}
	}
}

func TestAsk(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	resp, err := h.client.Ask(ctx, models.UserQuery{Text: "What is a semaphore?", Mode: models.ModeSolver})
	require.NoError(t, err)
	assert.True(t, resp.Accepted)

	q := h.nextQuery(t)
	assert.Equal(t, "What is a semaphore?", q.Text)
	assert.Equal(t, models.ModeSolver, q.Mode)

	_, err = h.client.Ask(ctx, models.UserQuery{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestFeedbackPauseStatus(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	assert.Equal(t, codes.InvalidArgument, status.Code(h.client.Feedback(ctx, models.UserFeedback{})))
	require.NoError(t, h.client.Feedback(ctx, models.UserFeedback{TurnID: "t1", Sentiment: models.SentimentNegative}))
	require.NoError(t, h.client.Pause(ctx, true))

	st, err := h.client.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Paused)
	assert.Equal(t, "ollama", st.ActiveBackend)
}

func TestWatch_FiltersByThread(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := h.client.Watch(ctx, &pb.WatchRequest{ThreadId: "0:0", Partials: true})
	require.NoError(t, err)

	require.NoError(t, h.bus.Publish(models.TopicAnswerFinal, models.Answer{TurnID: "other", ThreadID: "9:9"}))
	require.NoError(t, h.bus.Publish(models.TopicAnswerPartial, models.AnswerPartial{TurnID: "t1", ThreadID: "0:0", Text: "par"}))
	require.NoError(t, h.bus.Publish(models.TopicAnswerFinal, models.Answer{TurnID: "t1", ThreadID: "0:0", Text: "partial answer"}))

	seen := map[string]*WatchEvent{}
	for len(seen) < 2 {
		ev, err := w.Recv()
		require.NoError(t, err)
		seen[ev.Type] = ev
	}
	require.NotNil(t, seen[EventPartial].Partial)
	assert.Equal(t, "par", seen[EventPartial].Partial.Text)
	require.NotNil(t, seen[EventFinal].Final)
	assert.Equal(t, "t1", seen[EventFinal].Final.TurnID)
}

func TestSpeak_AsksSpokenQuestion(t *testing.T) {
	u := mock.Utterance{Partials: []string{"Why is"}, Final: "Why is my build slow?", Confidence: 0.9}
	h := newHarness(t, mock.Factory(mock.WithDelay(0), mock.WithUtterance(u)))

	s, err := h.client.Speak(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Send(&pb.AudioChunk{ThreadId: "mic", Audio: []byte{1, 2, 3}}))
	require.NoError(t, s.Send(&pb.AudioChunk{Audio: []byte{4, 5, 6}}))

	resp, err := s.CloseAndRecv()
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.GetAsked())

	q := h.nextQuery(t)
	assert.Equal(t, "Why is my build slow?", q.Text)
	assert.True(t, q.Voice)
	assert.Equal(t, "mic", q.ThreadID)
}

func TestSpeak_Disabled(t *testing.T) {
	h := newHarness(t, nil)
	s, err := h.client.Speak(context.Background())
	require.NoError(t, err)
	_ = s.Send(&pb.AudioChunk{Audio: []byte{1}})
	_, err = s.CloseAndRecv()
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}
