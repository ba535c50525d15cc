package pipeline

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/schema"
	"ambient-assistant/internal/service/capture"
	"ambient-assistant/internal/service/embedding"
	"ambient-assistant/internal/service/llm"
	"ambient-assistant/internal/service/memory"
	"ambient-assistant/internal/service/orchestrator"
)

// gatedEmbedder blocks on one text until released.
type gatedEmbedder struct {
	embedding.Embedder
	gatedText string
	entered   chan struct{}
	release   chan struct{}
}

func (g *gatedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == g.gatedText {
		close(g.entered)
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.Embedder.Embed(ctx, text)
}

type recordingDispatcher struct {
	next Dispatcher

	mu      sync.Mutex
	queries []string
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, packet models.ContextPacket, preference string) *orchestrator.Request {
	d.mu.Lock()
	d.queries = append(d.queries, packet.Query)
	d.mu.Unlock()
	return d.next.Dispatch(ctx, packet, preference)
}

func (d *recordingDispatcher) Queries() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.queries...)
}

type fakeSource struct {
	calls    atomic.Int32
	released atomic.Int32
}

func (f *fakeSource) Capture(_ context.Context, trig capture.Trigger) (*models.Frame, error) {
	f.calls.Add(1)
	frame := models.NewFrame("frame", time.Now(), models.Region{}, "ref", func() error {
		f.released.Add(1)
		return nil
	})
	frame.App = "Code"
	return frame, nil
}

type fakeExtractor struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeExtractor) set(lines ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = lines
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) Extract(context.Context, *models.Frame) (iter.Seq[models.TextBlock], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blocks := make([]models.TextBlock, len(f.lines))
	for i, l := range f.lines {
		blocks[i] = models.TextBlock{Text: l, Region: models.Region{X: 10, Y: 20 * i, Width: 400, Height: 18}, Confidence: 0.9}
	}
	return slices.Values(blocks), nil
}

type fakeGuard struct{ allowed atomic.Bool }

func (g *fakeGuard) Evaluate(context.Context) bool { return g.allowed.Load() }
func (g *fakeGuard) Allow() bool                   { return g.allowed.Load() }
func (g *fakeGuard) SetUserPaused(paused bool) bool {
	g.allowed.Store(!paused)
	return !paused
}

type fakeHistory struct{ turns []models.ConversationTurn }

func (h fakeHistory) Recent(context.Context, int) ([]models.ConversationTurn, error) {
	return h.turns, nil
}

type answerBackend struct{ calls atomic.Int32 }

func (b *answerBackend) Name() string { return "primary" }

func (b *answerBackend) Generate(_ context.Context, req llm.Request, cb llm.Callback) (llm.Result, error) {
	b.calls.Add(1)
	text := "Answer: " + req.Query
	cb.OnDelta(text)
	return llm.Result{Text: text}, nil
}

type harness struct {
	p        *Pipeline
	source   *fakeSource
	extract  *fakeExtractor
	guard    *fakeGuard
	mem      *memory.Store
	backend  *answerBackend
	finals   chan models.Answer
	turns    chan models.ConversationTurn
	eventBus *bus.Bus
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := bus.New()
	t.Cleanup(func() { _ = b.Close() })

	h := &harness{
		source:   &fakeSource{},
		extract:  &fakeExtractor{},
		guard:    &fakeGuard{},
		mem:      memory.New(memory.DefaultConfig(), embedding.NewHashingEmbedder(128)),
		backend:  &answerBackend{},
		finals:   make(chan models.Answer, 8),
		turns:    make(chan models.ConversationTurn, 8),
		eventBus: b,
	}
	h.guard.allowed.Store(true)

	require.NoError(t, bus.On(b, models.TopicAnswerFinal, func(_ context.Context, a models.Answer) error {
		h.finals <- a
		return nil
	}))
	require.NoError(t, bus.On(b, models.TopicConversationTurn, func(_ context.Context, turn models.ConversationTurn) error {
		h.turns <- turn
		return nil
	}))

	ocfg := orchestrator.DefaultConfig()
	ocfg.Primary, ocfg.Secondary = "primary", ""
	orch := orchestrator.New(ocfg, llm.NewRegistry(h.backend), b, nil)

	cfg := DefaultConfig()
	cfg.Interval = time.Hour
	h.p = New(cfg, Deps{
		Source:     h.source,
		Extractor:  h.extract,
		Guard:      h.guard,
		Memory:     h.mem,
		Dispatcher: orch,
		Bus:        b,
	})
	return h
}

func receive[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	var zero T
	return zero
}

func TestCycle_AnswersScreenQuestion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.extract.set("package main", "// What is a binary search tree?", "func main() {}")

	j, ok := h.p.cycle(ctx, capture.Trigger{Reason: models.TriggerTimer})
	require.True(t, ok)
	assert.Equal(t, "What is a binary search tree?", j.candidate.SourceText)
	assert.Equal(t, models.TriggerTimer, j.candidate.TriggerReason)
	assert.Equal(t, "Code", j.candidate.App)
	assert.NotZero(t, j.candidate.Generation)
	assert.Contains(t, j.screen, "package main")
	assert.EqualValues(t, 1, h.source.released.Load())

	h.p.process(ctx, j)

	final := receive(t, h.finals)
	assert.Equal(t, "primary", final.BackendUsed)
	assert.Equal(t, "Answer: What is a binary search tree?", final.Text)

	turn := receive(t, h.turns)
	assert.Equal(t, final.TurnID, turn.TurnID)
	assert.Equal(t, "What is a binary search tree?", turn.Question)
	assert.Equal(t, "Code", turn.AppContext)
	assert.Equal(t, models.EmbeddingReady, turn.EmbeddingState)
	assert.Equal(t, 1, h.mem.Len())
}

func TestCycle_UnchangedScreenYieldsNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.extract.set("Why is the build failing on CI?")

	_, ok := h.p.cycle(ctx, capture.Trigger{Reason: models.TriggerTimer})
	require.True(t, ok)
	_, ok = h.p.cycle(ctx, capture.Trigger{Reason: models.TriggerTimer})
	assert.False(t, ok)
}

func TestCycle_SuspendedGuardSkipsCapture(t *testing.T) {
	h := newHarness(t)
	h.guard.allowed.Store(false)
	h.extract.set("What is a heap?")

	_, ok := h.p.cycle(context.Background(), capture.Trigger{Reason: models.TriggerTimer})
	assert.False(t, ok)
	assert.Zero(t, h.source.calls.Load())
}

func TestCycle_TypedInputWithoutCapture(t *testing.T) {
	h := newHarness(t)
	h.p.deps.Source = nil
	h.p.Typed("How do I reverse a linked list?")

	j, ok := h.p.cycle(context.Background(), capture.Trigger{Reason: models.TriggerTimer})
	require.True(t, ok)
	assert.Equal(t, "How do I reverse a linked list?", j.candidate.SourceText)
	assert.Empty(t, h.p.takeKeystrokes())
}

func TestProcess_SkipsSupersededCandidate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.extract.set("What is a heap?")
	stale, ok := h.p.cycle(ctx, capture.Trigger{Reason: models.TriggerTimer})
	require.True(t, ok)

	h.extract.set("What is a heap?", "What is a priority queue and when should I use one?")
	fresh, ok := h.p.cycle(ctx, capture.Trigger{Reason: models.TriggerTimer})
	require.True(t, ok)
	require.Equal(t, stale.candidate.ThreadID, fresh.candidate.ThreadID)

	h.p.process(ctx, stale)
	assert.Zero(t, h.backend.calls.Load())
}

func TestAsk(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.p.Ask(ctx, models.UserQuery{Text: "Explain goroutines", Mode: models.ModeSolver}))
	j := <-h.p.jobs
	assert.Equal(t, ManualThread, j.candidate.ThreadID)
	assert.Equal(t, models.TriggerManual, j.candidate.TriggerReason)
	assert.Equal(t, models.ModeSolver, j.candidate.Mode)
	assert.NotZero(t, j.candidate.Generation)

	require.NoError(t, h.p.Ask(ctx, models.UserQuery{Text: "spoken", Voice: true, ThreadID: "voice"}))
	j = <-h.p.jobs
	assert.Equal(t, models.TriggerVoice, j.candidate.TriggerReason)
	assert.Equal(t, "voice", j.candidate.ThreadID)

	assert.ErrorIs(t, h.p.Ask(ctx, models.UserQuery{}), schema.ErrInvalidEvent)
}

func TestFeedback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.mem.Insert(ctx, models.ConversationTurn{TurnID: "t1", Question: "q", Answer: "a", CreatedAt: time.Now()}))

	require.NoError(t, h.p.Feedback(ctx, models.UserFeedback{TurnID: "t1", Sentiment: models.SentimentPositive}))
	turn := receive(t, h.turns)
	assert.Equal(t, models.SentimentPositive, turn.Feedback)

	require.NoError(t, h.p.Feedback(ctx, models.UserFeedback{TurnID: "missing", Sentiment: models.SentimentNegative}))
	assert.ErrorIs(t, h.p.Feedback(ctx, models.UserFeedback{TurnID: "t1", Sentiment: "meh"}), schema.ErrInvalidEvent)
}

func TestTyped_KeepsRecentRunes(t *testing.T) {
	h := newHarness(t)
	h.p.Typed(strings.Repeat("a", maxKeystrokeRunes))
	h.p.Typed("why?")
	got := h.p.takeKeystrokes()
	assert.Len(t, []rune(got), maxKeystrokeRunes)
	assert.True(t, strings.HasSuffix(got, "\nwhy?"))
}

func TestWarm(t *testing.T) {
	h := newHarness(t)
	h.p.deps.History = fakeHistory{turns: []models.ConversationTurn{
		{TurnID: "a", Question: "q1", Answer: "a1", CreatedAt: time.Now().Add(-time.Minute)},
		{TurnID: "b", Question: "q2", Answer: "a2", CreatedAt: time.Now()},
	}}
	assert.Equal(t, 2, h.p.Warm(context.Background()))
	assert.Equal(t, 2, h.mem.Len())
}

func TestPause(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.p.Pause(true))
	assert.False(t, h.guard.Allow())
	assert.True(t, h.p.Pause(false))
}

func TestRun_HotkeyTriggersAnswer(t *testing.T) {
	h := newHarness(t)
	h.extract.set("How does a hash map handle collisions?")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.p.Run(ctx) }()

	require.True(t, h.p.Trigger(models.TriggerHotkey))
	final := receive(t, h.finals)
	assert.Equal(t, "Answer: How does a hash map handle collisions?", final.Text)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop")
	}
}

func TestProcess_CandidateSupersededDuringRetrieval(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	embedder := &gatedEmbedder{
		Embedder:  embedding.NewHashingEmbedder(128),
		gatedText: "first question?",
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	h.p.deps.Memory = memory.New(memory.DefaultConfig(), embedder)
	dispatcher := &recordingDispatcher{next: h.p.deps.Dispatcher}
	h.p.deps.Dispatcher = dispatcher

	require.NoError(t, h.p.Ask(ctx, models.UserQuery{Text: "first question?", ThreadID: "t"}))
	first := <-h.p.jobs

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.p.process(ctx, first)
	}()
	receive(t, embedder.entered)

	require.NoError(t, h.p.Ask(ctx, models.UserQuery{Text: "second question?", ThreadID: "t"}))
	second := <-h.p.jobs
	assert.Greater(t, second.candidate.Generation, first.candidate.Generation)
	h.p.process(ctx, second)

	final := receive(t, h.finals)
	assert.Equal(t, "Answer: second question?", final.Text)

	close(embedder.release)
	receive(t, done)

	if got := dispatcher.Queries(); !slices.Equal(got, []string{"second question?"}) {
		t.Errorf("expected only the current question dispatched, got %v", got)
	}
	select {
	case a := <-h.finals:
		t.Errorf("expected no answer for the stale question, got %q", a.Text)
	default:
	}
}
