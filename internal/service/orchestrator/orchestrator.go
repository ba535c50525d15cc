// Package orchestrator turns context packets into streamed answers.
//
// Each conversation thread has at most one request in flight. Dispatching
// on a busy thread cancels the earlier request, which then publishes nothing
// further. A request tries its preferred backend with bounded retries and
// falls back to the next configured backend; when every backend is
// exhausted it still publishes exactly one answer.final, attributed to
// backend "none".
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/logging"
	"ambient-assistant/internal/observability/metrics"
	"ambient-assistant/internal/service/contextbuilder"
	"ambient-assistant/internal/service/llm"
	"ambient-assistant/internal/service/request"
)

var (
	// ErrCancelled is returned by Wait for superseded or suspended requests.
	ErrCancelled = errors.New("request cancelled")
	// ErrSuspended is returned by Wait when dispatch was refused by the gate.
	ErrSuspended = errors.New("dispatch suspended")
	// ErrBackendsExhausted is returned by Wait when no backend could answer.
	ErrBackendsExhausted = errors.New("all backends exhausted")
	// ErrClosed is returned by Wait for requests dispatched after Close.
	ErrClosed = errors.New("orchestrator closed")
	// ErrStale is returned by Wait when a newer generation was already
	// dispatched on the thread.
	ErrStale = errors.New("stale generation")
)

// AdhocThread is used for packets without a thread id.
const AdhocThread = "adhoc"

// Config configures backend selection and retry behaviour.
type Config struct {
	Primary        string
	Secondary      string
	MaxAttempts    int
	AttemptTimeout time.Duration
	GracePeriod    time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxTokens      int
	Temperature    float64
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		Primary:        "ollama",
		Secondary:      "demo",
		MaxAttempts:    2,
		AttemptTimeout: 30 * time.Second,
		GracePeriod:    500 * time.Millisecond,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		MaxTokens:      1024,
		Temperature:    0.3,
	}
}

// Orchestrator dispatches requests to model backends.
type Orchestrator struct {
	registry  *llm.Registry
	publisher bus.Publisher
	state     *models.PipelineState
	ids       *request.Generator
	now       func() time.Time

	mu       sync.Mutex
	cfg      Config
	gate     func() bool
	inflight map[string]*Request
	latest   map[string]uint64
	closed   bool
	wg       sync.WaitGroup

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New creates an orchestrator. publisher and state may be nil.
func New(cfg Config, registry *llm.Registry, publisher bus.Publisher, state *models.PipelineState) *Orchestrator {
	if state == nil {
		state = models.NewPipelineState(cfg.Primary)
	}
	return &Orchestrator{
		registry:  registry,
		publisher: publisher,
		state:     state,
		ids:       request.NewGenerator(),
		now:       time.Now,
		cfg:       normalize(cfg),
		inflight:  make(map[string]*Request),
		latest:    make(map[string]uint64),
		logger:    logging.WithComponent("orchestrator"),
		metrics:   metrics.DefaultMetrics,
	}
}

func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	if cfg.GracePeriod < 0 {
		cfg.GracePeriod = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	return cfg
}

// SetGate installs a check consulted on every dispatch. The privacy guard's
// Allow is wired here.
func (o *Orchestrator) SetGate(allow func() bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gate = allow
}

// Reconfigure applies cfg to requests dispatched from now on.
func (o *Orchestrator) Reconfigure(cfg Config) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg = normalize(cfg)
}

// Config returns the active configuration.
func (o *Orchestrator) Config() Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}

// InFlight returns the number of threads with an unfinished request.
func (o *Orchestrator) InFlight() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inflight)
}

// Dispatch starts answering packet and returns immediately. preference names
// the backend to try first; empty means the configured primary. A packet
// whose generation is older than one already dispatched on its thread is
// refused with ErrStale; generation zero is never fenced.
func (o *Orchestrator) Dispatch(ctx context.Context, packet models.ContextPacket, preference string) *Request {
	threadID := packet.ThreadID
	if threadID == "" {
		threadID = AdhocThread
	}
	r := newRequest(o.ids.Next(threadID), threadID, uuid.NewString(), packet.Query, o.now())

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		r.lifecycle.Cancel()
		r.finish(models.Answer{}, ErrClosed)
		return r
	}
	if o.gate != nil && !o.gate() {
		o.mu.Unlock()
		r.lifecycle.Cancel()
		r.finish(models.Answer{}, ErrSuspended)
		o.logger.Debug().Str("threadId", threadID).Msg("Dispatch refused while suspended")
		return r
	}
	if packet.Generation != 0 {
		if packet.Generation < o.latest[threadID] {
			o.mu.Unlock()
			r.lifecycle.Cancel()
			r.finish(models.Answer{}, ErrStale)
			o.logger.Debug().
				Str("threadId", threadID).
				Uint64("generation", packet.Generation).
				Msg("Dispatch refused for stale generation")
			return r
		}
		o.latest[threadID] = packet.Generation
	}
	cfg := o.cfg
	prior := o.inflight[threadID]
	o.inflight[threadID] = r
	rctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	o.wg.Add(1)
	o.mu.Unlock()

	if prior != nil && prior.abort() {
		logger := logging.WithRequest(threadID, prior.ID)
		logger.Info().
			Str("supersededBy", r.ID).
			Msg("Request superseded")
	}

	go o.run(rctx, r, prior, packet, preference, cfg)
	return r
}

// Cancel cancels the in-flight request of a thread.
func (o *Orchestrator) Cancel(threadID string) bool {
	o.mu.Lock()
	r := o.inflight[threadID]
	o.mu.Unlock()
	return r != nil && r.abort()
}

// CancelAll cancels every in-flight request and returns how many were
// cancelled. It runs when the privacy guard suspends the pipeline.
func (o *Orchestrator) CancelAll() int {
	o.mu.Lock()
	pending := make([]*Request, 0, len(o.inflight))
	for _, r := range o.inflight {
		pending = append(pending, r)
	}
	o.mu.Unlock()

	n := 0
	for _, r := range pending {
		if r.abort() {
			n++
		}
	}
	if n > 0 {
		o.logger.Info().Int("cancelled", n).Msg("Cancelled in-flight requests")
	}
	return n
}

// Close cancels outstanding requests and waits for them to finish.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.CancelAll()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) run(ctx context.Context, r *Request, prior *Request, packet models.ContextPacket, preference string, cfg Config) {
	defer o.wg.Done()
	defer r.cancel()
	logger := logging.WithRequest(r.ThreadID, r.ID)

	if prior != nil {
		o.awaitPrior(ctx, prior, cfg.GracePeriod, logger)
	}
	if err := r.lifecycle.Dispatch(); err != nil {
		o.cancelled(r, "")
		return
	}
	o.state.SetInFlight(r.ID)
	o.metrics.RecordRequestStart()
	logger.Debug().Int("tokens", packet.TokenBudgetUsed).Msg("Dispatching request")

	req := llm.Request{
		Messages:    contextbuilder.Render(packet),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Mode:        string(packet.Mode),
		Query:       packet.Query,
	}

	var lastErr error
	for _, name := range backendOrder(cfg, preference) {
		res, err := o.tryBackend(ctx, r, name, req, cfg)
		if err == nil {
			o.complete(r, name, res)
			return
		}
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			o.cancelled(r, name)
			return
		}
		lastErr = err
		logger := logging.WithBackend(r.ThreadID, r.ID, name)
		logger.Warn().Err(err).Msg("Backend exhausted")
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no backend configured", llm.ErrBackendUnavailable)
	}
	o.fail(r, lastErr)
}

// awaitPrior gives a superseded request a bounded time to release its
// backend before the new request starts.
func (o *Orchestrator) awaitPrior(ctx context.Context, prior *Request, grace time.Duration, logger zerolog.Logger) {
	if grace <= 0 {
		return
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-prior.Done():
	case <-ctx.Done():
	case <-timer.C:
		logger.Warn().Str("priorRequestId", prior.ID).Dur("grace", grace).Msg("Superseded request still running after grace period")
	}
}

func (o *Orchestrator) tryBackend(ctx context.Context, r *Request, name string, req llm.Request, cfg Config) (llm.Result, error) {
	logger := logging.WithBackend(r.ThreadID, r.ID, name)
	backend, err := o.registry.Get(name)
	if err != nil {
		o.metrics.RecordBackendAttempt(name, "unavailable")
		return llm.Result{}, err
	}
	o.state.SetActiveBackend(name)

	op := func() (llm.Result, error) {
		stream, err := o.beginAttempt(r, name)
		if err != nil {
			return llm.Result{}, backoff.Permanent(err)
		}

		actx, cancel := context.WithTimeout(ctx, cfg.AttemptTimeout)
		defer cancel()
		res, err := backend.Generate(actx, req, stream)
		err = llm.Classify(actx, err)
		switch {
		case err == nil:
			o.metrics.RecordBackendAttempt(name, "ok")
			stream.flush()
			if res.Text == "" {
				res.Text = stream.text()
			}
			return res, nil
		case errors.Is(err, context.Canceled):
			return llm.Result{}, backoff.Permanent(err)
		case errors.Is(err, llm.ErrBackendTimeout):
			o.metrics.RecordBackendAttempt(name, "timeout")
			return llm.Result{}, err
		default:
			o.metrics.RecordBackendAttempt(name, "unavailable")
			return llm.Result{}, backoff.Permanent(err)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialBackoff
	bo.MaxInterval = cfg.MaxBackoff
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Info().Err(err).Dur("backoff", next).Msg("Retrying backend")
		}),
	)
}

// beginAttempt resets the accumulated text and returns to DISPATCHING.
func (o *Orchestrator) beginAttempt(r *Request, backend string) (*partialStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.lifecycle.Retry(); err != nil {
		return nil, context.Canceled
	}
	r.attempts++
	r.text.Reset()
	return &partialStream{o: o, r: r, backend: backend, attempt: r.attempts}, nil
}

func (o *Orchestrator) complete(r *Request, backend string, res llm.Result) {
	now := o.now()
	r.mu.Lock()
	if err := r.lifecycle.Complete(); err != nil {
		r.mu.Unlock()
		o.cancelled(r, backend)
		return
	}
	answer := models.Answer{
		TurnID:      r.TurnID,
		Text:        res.Text,
		BackendUsed: backend,
		LatencyMs:   r.latency(now).Milliseconds(),
		Truncated:   res.Truncated,
		RequestID:   r.ID,
		ThreadID:    r.ThreadID,
		Question:    r.Question,
	}
	o.publish(models.TopicAnswerFinal, answer)
	r.mu.Unlock()

	o.release(r)
	if res.Truncated {
		o.metrics.RecordTruncated()
	}
	o.metrics.RecordRequestEnd(backend, "completed", r.latency(now).Seconds())
	logger := logging.WithBackend(r.ThreadID, r.ID, backend)
	logger.Info().
		Int64("latencyMs", answer.LatencyMs).
		Bool("truncated", answer.Truncated).
		Msg("Answer completed")
	r.finish(answer, nil)
}

func (o *Orchestrator) fail(r *Request, cause error) {
	now := o.now()
	r.mu.Lock()
	if !r.lifecycle.Fail() {
		r.mu.Unlock()
		o.cancelled(r, "")
		return
	}
	answer := models.Answer{
		TurnID:      r.TurnID,
		Text:        failureText(cause),
		BackendUsed: models.BackendNone,
		LatencyMs:   r.latency(now).Milliseconds(),
		RequestID:   r.ID,
		ThreadID:    r.ThreadID,
		Question:    r.Question,
	}
	o.publish(models.TopicAnswerFinal, answer)
	r.mu.Unlock()

	o.release(r)
	o.metrics.RecordRequestEnd(models.BackendNone, "failed", r.latency(now).Seconds())
	logger := logging.WithRequest(r.ThreadID, r.ID)
	logger.Error().Err(cause).Msg("No backend could answer")
	r.finish(answer, fmt.Errorf("%w: %v", ErrBackendsExhausted, cause))
}

func (o *Orchestrator) cancelled(r *Request, backend string) {
	r.lifecycle.Cancel()
	o.release(r)
	if backend == "" {
		backend = models.BackendNone
	}
	o.metrics.RecordRequestEnd(backend, "cancelled", r.latency(o.now()).Seconds())
	logger := logging.WithRequest(r.ThreadID, r.ID)
	logger.Debug().Msg("Request cancelled")
	r.finish(models.Answer{}, ErrCancelled)
}

func (o *Orchestrator) release(r *Request) {
	o.mu.Lock()
	if o.inflight[r.ThreadID] == r {
		delete(o.inflight, r.ThreadID)
	}
	o.mu.Unlock()
	o.state.ClearInFlight(r.ID)
}

func (o *Orchestrator) publish(topic string, payload any) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(topic, payload); err != nil {
		o.logger.Warn().Err(err).Str("topic", topic).Msg("Failed to publish answer event")
	}
}

// backendOrder lists the backends to try: the preference, then primary, then
// secondary, without duplicates.
func backendOrder(cfg Config, preference string) []string {
	var order []string
	for _, name := range []string{preference, cfg.Primary, cfg.Secondary} {
		if name == "" {
			continue
		}
		dup := false
		for _, seen := range order {
			if seen == name {
				dup = true
				break
			}
		}
		if !dup {
			order = append(order, name)
		}
	}
	return order
}

func failureText(cause error) string {
	reason := "the model backends are unavailable"
	if errors.Is(cause, llm.ErrBackendTimeout) {
		reason = "the model backends did not respond in time"
	}
	return "Sorry, I couldn't answer this right now because " + reason +
		". Check the backend settings or try again in a moment."
}

// partialStream republishes backend deltas as cumulative answer.partial
// events for one attempt, coalesced at sentence and code fence boundaries.
type partialStream struct {
	o       *Orchestrator
	r       *Request
	backend string
	attempt int
	first   bool
	chunks  chunker
}

func (s *partialStream) OnDelta(delta string) {
	if delta == "" {
		return
	}
	r := s.r
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempts != s.attempt {
		return
	}
	if err := r.lifecycle.Stream(); err != nil {
		return
	}
	if !s.first {
		s.first = true
		s.o.metrics.RecordFirstDelta(r.latency(s.o.now()).Seconds())
	}
	r.text.WriteString(delta)
	if s.chunks.add(delta, r.text.String()) {
		s.emitLocked()
	}
}

// flush publishes whatever the chunker still holds once the attempt
// succeeded, so the last partial matches the final text.
func (s *partialStream) flush() {
	r := s.r
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempts != s.attempt || r.lifecycle.State() != request.StateStreaming {
		return
	}
	s.emitLocked()
}

func (s *partialStream) emitLocked() {
	delta := s.chunks.take()
	if delta == "" {
		return
	}
	r := s.r
	s.o.publish(models.TopicAnswerPartial, models.AnswerPartial{
		TurnID:      r.TurnID,
		RequestID:   r.ID,
		ThreadID:    r.ThreadID,
		BackendUsed: s.backend,
		Text:        r.text.String(),
		Delta:       delta,
		Attempt:     s.attempt,
	})
}

func (s *partialStream) text() string {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.r.attempts != s.attempt {
		return ""
	}
	return s.r.text.String()
}
