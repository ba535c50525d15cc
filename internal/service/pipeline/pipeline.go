// Package pipeline drives the sensing loop: capture, extraction, question
// detection, memory retrieval, context building and dispatch. It also turns
// presentation-layer events (manual queries, feedback, pause, hotkeys, typed
// input) into pipeline actions.
package pipeline

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/logging"
	"ambient-assistant/internal/observability/metrics"
	"ambient-assistant/internal/schema"
	"ambient-assistant/internal/service/capture"
	"ambient-assistant/internal/service/contextbuilder"
	"ambient-assistant/internal/service/detect"
	"ambient-assistant/internal/service/memory"
	"ambient-assistant/internal/service/ocr"
	"ambient-assistant/internal/service/orchestrator"
)

// ManualThread is the thread for manual queries that name none.
const ManualThread = "manual"

const maxKeystrokeRunes = 500

// Config configures the pipeline loop.
type Config struct {
	Interval        time.Duration
	Workers         int
	QueueSize       int
	TopK            int
	ThreadTurns     int
	TokenBudget     int
	WarmTurns       int
	Mode            models.Mode
	Backend         string
	ForegroundPoll  time.Duration
	DetectionActive bool
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Interval:        2 * time.Second,
		Workers:         4,
		QueueSize:       16,
		TopK:            5,
		ThreadTurns:     4,
		TokenBudget:     contextbuilder.DefaultTokenBudget,
		WarmTurns:       100,
		Mode:            models.ModeNormal,
		ForegroundPoll:  time.Second,
		DetectionActive: true,
	}
}

// Guard gates capture and dispatch.
type Guard interface {
	Evaluate(ctx context.Context) bool
	Allow() bool
	SetUserPaused(paused bool) bool
}

// Dispatcher starts answering a context packet.
type Dispatcher interface {
	Dispatch(ctx context.Context, packet models.ContextPacket, preference string) *orchestrator.Request
}

// History provides recent durable turns for warming and rebuilds.
type History interface {
	Recent(ctx context.Context, n int) ([]models.ConversationTurn, error)
}

// Bus is the event bus as used by the pipeline.
type Bus interface {
	bus.Publisher
	bus.Subscriber
}

// Deps are the pipeline's collaborators. Source, Extractor, Foreground,
// Guard and History may be nil.
type Deps struct {
	Source     capture.Source
	Extractor  ocr.Extractor
	Foreground capture.ForegroundSource
	Detector   *detect.Detector
	Debouncer  *detect.Debouncer
	Guard      Guard
	Memory     *memory.Store
	Dispatcher Dispatcher
	History    History
	Bus        Bus
}

type job struct {
	candidate models.Candidate
	screen    string
}

// Pipeline is the sensing loop plus its worker pool.
type Pipeline struct {
	deps      Deps
	validator *schema.Validator
	now       func() time.Time

	mu         sync.Mutex
	cfg        Config
	keystrokes []rune
	lastScreen string

	builder  atomic.Pointer[contextbuilder.Builder]
	triggers chan capture.Trigger
	jobs     chan job

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a pipeline.
func New(cfg Config, deps Deps) *Pipeline {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Mode == "" {
		cfg.Mode = models.ModeNormal
	}
	if deps.Detector == nil {
		deps.Detector = detect.New(detect.DefaultConfig(), nil)
	}
	if deps.Debouncer == nil {
		deps.Debouncer = detect.NewDebouncer(0, 0)
	}
	p := &Pipeline{
		deps:      deps,
		validator: schema.New(),
		now:       time.Now,
		cfg:       cfg,
		triggers:  make(chan capture.Trigger, 8),
		jobs:      make(chan job, cfg.QueueSize),
		logger:    logging.WithComponent("pipeline"),
		metrics:   metrics.DefaultMetrics,
	}
	p.builder.Store(contextbuilder.New(cfg.TokenBudget))
	return p
}

// Reconfigure applies cfg. Worker count and queue size keep their startup
// values.
func (p *Pipeline) Reconfigure(cfg Config) {
	p.mu.Lock()
	cfg.Workers = p.cfg.Workers
	cfg.QueueSize = p.cfg.QueueSize
	if cfg.Interval <= 0 {
		cfg.Interval = p.cfg.Interval
	}
	if cfg.Mode == "" {
		cfg.Mode = models.ModeNormal
	}
	p.cfg = cfg
	p.mu.Unlock()
	p.builder.Store(contextbuilder.New(cfg.TokenBudget))
	p.logger.Info().Dur("interval", cfg.Interval).Str("mode", string(cfg.Mode)).Msg("Pipeline reconfigured")
}

func (p *Pipeline) config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Trigger requests an immediate capture cycle. It never blocks; a trigger
// arriving while the queue is full is dropped.
func (p *Pipeline) Trigger(reason models.TriggerReason) bool {
	select {
	case p.triggers <- capture.Trigger{Reason: reason, At: p.now()}:
		return true
	default:
		return false
	}
}

// Warm loads recent durable turns into memory. Failures are logged.
func (p *Pipeline) Warm(ctx context.Context) int {
	n := p.config().WarmTurns
	if p.deps.History == nil || p.deps.Memory == nil || n <= 0 {
		return 0
	}
	turns, err := p.deps.History.Recent(ctx, n)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Could not load history; starting with empty memory")
		return 0
	}
	loaded := p.deps.Memory.Warm(ctx, turns)
	p.logger.Info().Int("turns", loaded).Msg("Memory warmed from history")
	return loaded
}

// Run subscribes to inbound events and runs the loop and workers until ctx
// ends or one of them fails.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if p.deps.Bus != nil {
		if err := p.subscribe(ctx); err != nil {
			return err
		}
	}

	g.Go(func() error { return p.loop(ctx) })
	for i := 0; i < p.config().Workers; i++ {
		g.Go(func() error { return p.worker(ctx) })
	}
	if p.deps.Foreground != nil {
		g.Go(func() error {
			capture.WatchForeground(ctx, p.deps.Foreground, p.config().ForegroundPoll, p.triggers)
			return nil
		})
	}

	p.logger.Info().Int("workers", p.config().Workers).Msg("Pipeline started")
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	p.logger.Info().Msg("Pipeline stopped")
	return err
}

func (p *Pipeline) loop(ctx context.Context) error {
	interval := p.config().Interval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var trig capture.Trigger
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			trig = capture.Trigger{Reason: models.TriggerTimer, At: p.now()}
		case trig = <-p.triggers:
		}

		if next := p.config().Interval; next != interval {
			interval = next
			ticker.Reset(interval)
		}

		j, ok := p.cycle(ctx, trig)
		if !ok {
			continue
		}
		if err := p.enqueue(ctx, j); err != nil {
			return nil
		}
	}
}

func (p *Pipeline) enqueue(ctx context.Context, j job) error {
	select {
	case p.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cycle runs one sensing pass and returns the job to answer, if any.
func (p *Pipeline) cycle(ctx context.Context, trig capture.Trigger) (job, bool) {
	cfg := p.config()
	if !cfg.DetectionActive {
		return job{}, false
	}
	if p.deps.Guard != nil && !p.deps.Guard.Evaluate(ctx) {
		return job{}, false
	}

	blocks, app := p.sense(ctx, trig)
	keys := p.takeKeystrokes()
	screen := ocr.Text(blocks)
	if len(blocks) > 0 {
		p.mu.Lock()
		p.lastScreen = screen
		p.mu.Unlock()
	}

	c := p.deps.Detector.Detect(blocks, keys)
	if c == nil {
		return job{}, false
	}
	c.TriggerReason = trig.Reason
	c.App = app
	if !p.deps.Debouncer.Accept(c) {
		return job{}, false
	}
	p.metrics.RecordCandidate(string(c.TriggerReason))
	logger := logging.WithThread(c.ThreadID)
	logger.Debug().
		Float64("score", c.Score).
		Str("trigger", string(c.TriggerReason)).
		Msg("Question detected")
	return job{candidate: *c, screen: screen}, true
}

// sense captures and extracts one frame. Failures yield no blocks.
func (p *Pipeline) sense(ctx context.Context, trig capture.Trigger) ([]models.TextBlock, string) {
	if p.deps.Source == nil || p.deps.Extractor == nil {
		return nil, trig.App
	}
	frame, err := p.deps.Source.Capture(ctx, trig)
	if err != nil {
		return nil, trig.App
	}
	defer func() {
		if err := frame.Release(); err != nil {
			p.logger.Debug().Err(err).Str("frame", frame.ID).Msg("Failed to release frame")
		}
	}()

	seq, err := p.deps.Extractor.Extract(ctx, frame)
	if err != nil {
		p.logger.Debug().Err(err).Str("frame", frame.ID).Msg("Extraction skipped")
		return nil, frame.App
	}
	blocks := slices.Collect(seq)
	p.metrics.RecordTextBlocks(len(blocks))
	return blocks, frame.App
}

func (p *Pipeline) worker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-p.jobs:
			p.process(ctx, j)
		}
	}
}

// process answers one candidate and records the resulting turn.
func (p *Pipeline) process(ctx context.Context, j job) {
	c := j.candidate
	logger := logging.WithThread(c.ThreadID)
	if !p.deps.Debouncer.IsCurrent(c) {
		logger.Debug().Uint64("generation", c.Generation).Msg("Candidate superseded before dispatch")
		return
	}
	cfg := p.config()

	var retrieved, thread []models.ConversationTurn
	if p.deps.Memory != nil {
		var err error
		retrieved, err = p.deps.Memory.Retrieve(ctx, c.SourceText, cfg.TopK)
		if err != nil {
			logger.Warn().Err(err).Msg("Memory retrieval failed; continuing without it")
		}
		thread = p.deps.Memory.Thread(c.ThreadID, cfg.ThreadTurns)
	}

	packet := p.builder.Load().Build(contextbuilder.Inputs{
		Candidate: c,
		Retrieved: retrieved,
		Screen:    j.screen,
		Thread:    thread,
	})

	// Retrieval may have outlived this candidate.
	if !p.deps.Debouncer.IsCurrent(c) {
		logger.Debug().Uint64("generation", c.Generation).Msg("Candidate superseded during retrieval")
		return
	}
	req := p.deps.Dispatcher.Dispatch(ctx, packet, cfg.Backend)
	answer, err := req.Wait(ctx)
	if err != nil {
		reqLogger := logging.WithRequest(c.ThreadID, req.ID)
		reqLogger.Debug().Err(err).Msg("No answer recorded")
		return
	}
	p.record(ctx, c, answer)
}

// record stores a completed answer as a conversation turn and publishes it
// for durable write-behind.
func (p *Pipeline) record(ctx context.Context, c models.Candidate, answer models.Answer) {
	turn := models.ConversationTurn{
		TurnID:      answer.TurnID,
		Question:    c.SourceText,
		Answer:      answer.Text,
		CreatedAt:   p.now(),
		AppContext:  c.App,
		ThreadID:    c.ThreadID,
		BackendUsed: answer.BackendUsed,
	}

	if p.deps.Memory != nil {
		if err := p.deps.Memory.Insert(ctx, turn); err != nil {
			p.logger.Warn().Err(err).Str("turnId", turn.TurnID).Msg("Turn stored without embedding")
		}
		if stored, ok := p.deps.Memory.Get(turn.TurnID); ok {
			turn = stored
		}
		p.verifyMemory(ctx)
	}
	p.publish(models.TopicConversationTurn, turn)
}

// verifyMemory rebuilds the store from history when its invariants break.
func (p *Pipeline) verifyMemory(ctx context.Context) {
	err := p.deps.Memory.Verify()
	if err == nil {
		return
	}
	p.logger.Error().Err(err).Msg("Memory store invariant violated")
	var turns []models.ConversationTurn
	if p.deps.History != nil {
		if recent, herr := p.deps.History.Recent(ctx, p.config().WarmTurns); herr == nil {
			turns = recent
		} else {
			p.logger.Warn().Err(herr).Msg("History unavailable for rebuild")
		}
	}
	p.deps.Memory.Rebuild(ctx, turns)
}

// Ask answers a question directly, bypassing detection.
func (p *Pipeline) Ask(ctx context.Context, q models.UserQuery) error {
	if err := p.validator.Validate(q); err != nil {
		return err
	}
	cfg := p.config()
	mode := cfg.Mode
	if q.Mode != "" {
		mode = models.ParseMode(string(q.Mode))
	}
	threadID := q.ThreadID
	if threadID == "" {
		threadID = ManualThread
	}
	reason := models.TriggerManual
	if q.Voice {
		reason = models.TriggerVoice
	}
	contentType, language := detect.Classify(q.Text)

	c := &models.Candidate{
		SourceText:    q.Text,
		TriggerReason: reason,
		Timestamp:     p.now(),
		Score:         1,
		ThreadID:      threadID,
		Mode:          mode,
		ContentType:   contentType,
		Language:      language,
	}
	p.deps.Debouncer.Stamp(c)
	p.metrics.RecordCandidate(string(reason))

	p.mu.Lock()
	screen := p.lastScreen
	p.mu.Unlock()
	return p.enqueue(ctx, job{candidate: *c, screen: screen})
}

// Feedback applies user feedback to a stored turn and republishes it.
func (p *Pipeline) Feedback(_ context.Context, fb models.UserFeedback) error {
	if err := p.validator.Validate(fb); err != nil {
		return err
	}
	if p.deps.Memory == nil {
		return nil
	}
	turn, ok := p.deps.Memory.SetFeedback(fb.TurnID, fb.Sentiment)
	if !ok {
		p.logger.Warn().Str("turnId", fb.TurnID).Msg("Feedback for unknown turn")
		return nil
	}
	p.publish(models.TopicConversationTurn, turn)
	return nil
}

// Pause applies the explicit user pause.
func (p *Pipeline) Pause(paused bool) bool {
	if p.deps.Guard == nil {
		return !paused
	}
	return p.deps.Guard.SetUserPaused(paused)
}

// Typed records recently typed text for the next cycle.
func (p *Pipeline) Typed(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keystrokes) > 0 {
		p.keystrokes = append(p.keystrokes, '\n')
	}
	p.keystrokes = append(p.keystrokes, []rune(text)...)
	if over := len(p.keystrokes) - maxKeystrokeRunes; over > 0 {
		p.keystrokes = p.keystrokes[over:]
	}
}

func (p *Pipeline) takeKeystrokes() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := string(p.keystrokes)
	p.keystrokes = nil
	return s
}

func (p *Pipeline) subscribe(ctx context.Context) error {
	b := p.deps.Bus
	subs := []func() error{
		func() error {
			return bus.OnContext(ctx, b, models.TopicUserManualQuery, func(ctx context.Context, q models.UserQuery) error {
				return p.Ask(ctx, q)
			})
		},
		func() error {
			return bus.OnContext(ctx, b, models.TopicUserFeedback, func(ctx context.Context, fb models.UserFeedback) error {
				return p.Feedback(ctx, fb)
			})
		},
		func() error {
			return bus.OnContext(ctx, b, models.TopicUserPause, func(_ context.Context, ev models.UserPause) error {
				p.Pause(ev.Paused)
				return nil
			})
		},
		func() error {
			return bus.OnContext(ctx, b, models.TopicTriggerHotkey, func(_ context.Context, _ models.HotkeyTrigger) error {
				if !p.Trigger(models.TriggerHotkey) {
					p.logger.Debug().Msg("Hotkey trigger dropped; cycle already queued")
				}
				return nil
			})
		},
		func() error {
			return bus.OnContext(ctx, b, models.TopicInputTyped, func(_ context.Context, in models.TypedInput) error {
				p.Typed(in.Text)
				return nil
			})
		},
	}
	for _, sub := range subs {
		if err := sub(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) publish(topic string, payload any) {
	if p.deps.Bus == nil {
		return
	}
	if err := p.deps.Bus.Publish(topic, payload); err != nil {
		p.logger.Warn().Err(err).Str("topic", topic).Msg("Failed to publish")
	}
}
