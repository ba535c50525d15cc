// Package memory holds recent conversation turns in a bounded, embedding
// indexed store.
//
// Readers never take the write lock: Retrieve works on an immutable snapshot
// published through an atomic pointer and records recency with atomics.
// Inserts, evictions and feedback updates take the write lock only for the
// in-memory mutation; embeddings are computed before the lock is taken.
package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/logging"
	"ambient-assistant/internal/observability/metrics"
	"ambient-assistant/internal/service/embedding"
)

// Errors returned by the store.
var (
	// ErrEmbeddingUnavailable means the turn was stored but is not yet
	// retrievable. It is retried on later inserts.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrInvariant reports a violated internal invariant found by Verify.
	ErrInvariant = errors.New("memory invariant violated")
)

// Config configures a Store.
type Config struct {
	Capacity          int
	MinSimilarity     float64
	EmbeddingAttempts int
	// RetryBatch caps how many pending turns one Insert re-embeds.
	RetryBatch int
	// RetryTimeout bounds each re-embedding.
	RetryTimeout time.Duration
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:          1000,
		MinSimilarity:     0.2,
		EmbeddingAttempts: 3,
		RetryBatch:        4,
		RetryTimeout:      2 * time.Second,
	}
}

type entry struct {
	turn     models.ConversationTurn
	attempts int
	lastUsed atomic.Uint64
}

func (e *entry) retrievable() bool {
	return e.turn.EmbeddingState == models.EmbeddingReady && len(e.turn.Embedding) > 0
}

type snapshot struct {
	retrievable []*entry
	all         []*entry // ordered by CreatedAt, then TurnID
}

// Store is a bounded memory of conversation turns.
type Store struct {
	cfg      Config
	embedder embedding.Embedder
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	entries map[string]*entry

	snap  atomic.Pointer[snapshot]
	clock atomic.Uint64
}

// New creates an empty store.
func New(cfg Config, embedder embedding.Embedder) *Store {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.EmbeddingAttempts <= 0 {
		cfg.EmbeddingAttempts = def.EmbeddingAttempts
	}
	if cfg.RetryBatch <= 0 {
		cfg.RetryBatch = def.RetryBatch
	}
	if cfg.RetryTimeout <= 0 {
		cfg.RetryTimeout = def.RetryTimeout
	}
	s := &Store{
		cfg:      cfg,
		embedder: embedder,
		logger:   logging.WithComponent("memory"),
		metrics:  metrics.DefaultMetrics,
		entries:  make(map[string]*entry),
	}
	s.snap.Store(&snapshot{})
	return s
}

// Insert adds turn, replacing any turn with the same ID. When the turn has no
// embedding one is computed; if that fails the turn is kept but is not
// retrievable and ErrEmbeddingUnavailable is returned. Pending turns from
// earlier inserts are retried first.
func (s *Store) Insert(ctx context.Context, turn models.ConversationTurn) error {
	if turn.TurnID == "" {
		return fmt.Errorf("insert turn: empty turn id")
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	turn = turn.Clone()

	retried := s.retryPending(ctx)

	var embedErr error
	attempts := 0
	if len(turn.Embedding) > 0 {
		turn.EmbeddingState = models.EmbeddingReady
	} else {
		attempts = 1
		vec, err := s.embed(ctx, turn)
		if err != nil {
			embedErr = fmt.Errorf("%w: turn %s: %v", ErrEmbeddingUnavailable, turn.TurnID, err)
			turn.EmbeddingState = models.EmbeddingPending
			if attempts >= s.cfg.EmbeddingAttempts {
				turn.EmbeddingState = models.EmbeddingDisabled
			}
		} else {
			turn.Embedding = vec
			turn.EmbeddingState = models.EmbeddingReady
		}
	}

	s.mu.Lock()
	s.applyRetries(retried)
	e := &entry{turn: turn, attempts: attempts}
	if old, ok := s.entries[turn.TurnID]; ok {
		e.lastUsed.Store(old.lastUsed.Load())
		if turn.Feedback == models.SentimentNone {
			e.turn.Feedback = old.turn.Feedback
		}
	} else {
		e.lastUsed.Store(s.clock.Add(1))
	}
	s.entries[turn.TurnID] = e
	evicted := s.evictLocked()
	s.publishLocked()
	size := len(s.entries)
	s.mu.Unlock()

	s.metrics.RecordMemorySize(size)
	for _, id := range evicted {
		s.metrics.RecordEviction()
		s.logger.Debug().Str("turnId", id).Msg("Evicted turn")
	}
	if embedErr != nil {
		s.metrics.RecordEmbeddingFailure()
		s.logger.Warn().Err(embedErr).Str("turnId", turn.TurnID).Msg("Turn stored without embedding")
	}
	return embedErr
}

type retryResult struct {
	id  string
	vec []float32
	err error
}

// retryPending re-embeds up to RetryBatch turns still waiting for an
// embedding, oldest first, each under RetryTimeout. The first failure ends
// the batch. Embedding runs without the lock; results are applied by
// applyRetries.
func (s *Store) retryPending(ctx context.Context) []retryResult {
	s.mu.Lock()
	var pending []models.ConversationTurn
	for _, e := range s.entries {
		if e.turn.EmbeddingState == models.EmbeddingPending {
			pending = append(pending, e.turn)
		}
	}
	s.mu.Unlock()

	slices.SortFunc(pending, func(a, b models.ConversationTurn) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.TurnID, b.TurnID)
	})
	if len(pending) > s.cfg.RetryBatch {
		pending = pending[:s.cfg.RetryBatch]
	}

	results := make([]retryResult, 0, len(pending))
	for _, t := range pending {
		if ctx.Err() != nil {
			break
		}
		rctx, cancel := context.WithTimeout(ctx, s.cfg.RetryTimeout)
		vec, err := s.embed(rctx, t)
		cancel()
		results = append(results, retryResult{id: t.TurnID, vec: vec, err: err})
		if err != nil {
			s.metrics.RecordEmbeddingFailure()
			s.logger.Debug().Err(err).Str("turnId", t.TurnID).Int("pending", len(pending)).Msg("Embedding retry failed")
			break
		}
	}
	return results
}

func (s *Store) applyRetries(results []retryResult) {
	for _, r := range results {
		old, ok := s.entries[r.id]
		if !ok || old.turn.EmbeddingState != models.EmbeddingPending {
			continue
		}
		e := &entry{turn: old.turn, attempts: old.attempts + 1}
		e.lastUsed.Store(old.lastUsed.Load())
		switch {
		case r.err == nil:
			e.turn.Embedding = r.vec
			e.turn.EmbeddingState = models.EmbeddingReady
		case e.attempts >= s.cfg.EmbeddingAttempts:
			e.turn.EmbeddingState = models.EmbeddingDisabled
			s.logger.Warn().Str("turnId", r.id).Int("attempts", e.attempts).Msg("Giving up on embedding; turn is not retrievable")
		}
		s.entries[r.id] = e
	}
}

func (s *Store) embed(ctx context.Context, turn models.ConversationTurn) ([]float32, error) {
	if s.embedder == nil {
		return nil, errors.New("no embedder configured")
	}
	vec, err := s.embedder.Embed(ctx, turn.Question+"\n"+turn.Answer)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, errors.New("empty embedding")
	}
	return vec, nil
}

// evictLocked removes least-recently-used turns until the store fits.
// Ties go to the older turn, then the smaller ID.
func (s *Store) evictLocked() []string {
	var evicted []string
	for len(s.entries) > s.cfg.Capacity {
		var victim *entry
		for _, e := range s.entries {
			if victim == nil || olderUse(e, victim) {
				victim = e
			}
		}
		delete(s.entries, victim.turn.TurnID)
		evicted = append(evicted, victim.turn.TurnID)
	}
	return evicted
}

func olderUse(a, b *entry) bool {
	au, bu := a.lastUsed.Load(), b.lastUsed.Load()
	if au != bu {
		return au < bu
	}
	if !a.turn.CreatedAt.Equal(b.turn.CreatedAt) {
		return a.turn.CreatedAt.Before(b.turn.CreatedAt)
	}
	return a.turn.TurnID < b.turn.TurnID
}

func (s *Store) publishLocked() {
	next := &snapshot{all: make([]*entry, 0, len(s.entries))}
	for _, e := range s.entries {
		next.all = append(next.all, e)
		if e.retrievable() {
			next.retrievable = append(next.retrievable, e)
		}
	}
	slices.SortFunc(next.all, func(a, b *entry) int {
		if c := a.turn.CreatedAt.Compare(b.turn.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.turn.TurnID, b.turn.TurnID)
	})
	s.snap.Store(next)
}

// Retrieve embeds query and returns up to k turns by descending cosine
// similarity. Ties go to the newest turn, then the smaller ID. Turns below
// the configured minimum similarity are left out.
func (s *Store) Retrieve(ctx context.Context, query string, k int) ([]models.ConversationTurn, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", ErrEmbeddingUnavailable)
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrEmbeddingUnavailable, err)
	}
	return s.RetrieveVector(vec, k), nil
}

// RetrieveVector is Retrieve with a precomputed query embedding.
func (s *Store) RetrieveVector(query []float32, k int) []models.ConversationTurn {
	if k <= 0 || len(query) == 0 {
		return nil
	}
	s.metrics.RecordRetrieval()
	snap := s.snap.Load()

	type scored struct {
		e   *entry
		sim float64
	}
	candidates := make([]scored, 0, len(snap.retrievable))
	for _, e := range snap.retrievable {
		sim := embedding.Cosine(query, e.turn.Embedding)
		if sim < s.cfg.MinSimilarity {
			continue
		}
		candidates = append(candidates, scored{e: e, sim: sim})
	}
	slices.SortFunc(candidates, func(a, b scored) int {
		if a.sim != b.sim {
			return cmp.Compare(b.sim, a.sim)
		}
		if c := b.e.turn.CreatedAt.Compare(a.e.turn.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.e.turn.TurnID, b.e.turn.TurnID)
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]models.ConversationTurn, len(candidates))
	for i, c := range candidates {
		c.e.lastUsed.Store(s.clock.Add(1))
		out[i] = c.e.turn.Clone()
	}
	return out
}

// Thread returns up to n most recent turns of threadID, oldest first.
func (s *Store) Thread(threadID string, n int) []models.ConversationTurn {
	if n <= 0 || threadID == "" {
		return nil
	}
	snap := s.snap.Load()
	var out []models.ConversationTurn
	for i := len(snap.all) - 1; i >= 0 && len(out) < n; i-- {
		if snap.all[i].turn.ThreadID == threadID {
			out = append(out, snap.all[i].turn.Clone())
		}
	}
	slices.Reverse(out)
	return out
}

// Get returns the turn with the given ID.
func (s *Store) Get(turnID string) (models.ConversationTurn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[turnID]
	if !ok {
		return models.ConversationTurn{}, false
	}
	return e.turn.Clone(), true
}

// SetFeedback records user feedback on a turn and returns the updated turn.
func (s *Store) SetFeedback(turnID string, sentiment models.Sentiment) (models.ConversationTurn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.entries[turnID]
	if !ok {
		return models.ConversationTurn{}, false
	}
	e := &entry{turn: old.turn, attempts: old.attempts}
	e.turn.Feedback = sentiment
	e.lastUsed.Store(old.lastUsed.Load())
	s.entries[turnID] = e
	s.publishLocked()
	return e.turn.Clone(), true
}

// Len returns the number of stored turns, retrievable or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Verify checks the store's invariants.
func (s *Store) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) > s.cfg.Capacity {
		return fmt.Errorf("%w: size %d exceeds capacity %d", ErrInvariant, len(s.entries), s.cfg.Capacity)
	}
	snap := s.snap.Load()
	if len(snap.all) != len(s.entries) {
		return fmt.Errorf("%w: snapshot holds %d turns, store holds %d", ErrInvariant, len(snap.all), len(s.entries))
	}
	for _, e := range snap.retrievable {
		if len(e.turn.Embedding) == 0 {
			return fmt.Errorf("%w: retrievable turn %s has no embedding", ErrInvariant, e.turn.TurnID)
		}
		if cur, ok := s.entries[e.turn.TurnID]; !ok || cur != e {
			return fmt.Errorf("%w: snapshot turn %s is stale", ErrInvariant, e.turn.TurnID)
		}
	}
	return nil
}

// Rebuild discards the current contents and reloads turns, typically from
// durable history after Verify fails.
func (s *Store) Rebuild(ctx context.Context, turns []models.ConversationTurn) {
	s.metrics.RecordRebuild()
	s.mu.Lock()
	s.entries = make(map[string]*entry)
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Warn().Int("turns", len(turns)).Msg("Rebuilding memory store")
	s.Warm(ctx, turns)
}

// Warm inserts turns oldest first. Embedding failures are logged, not returned.
func (s *Store) Warm(ctx context.Context, turns []models.ConversationTurn) int {
	ordered := slices.Clone(turns)
	slices.SortStableFunc(ordered, func(a, b models.ConversationTurn) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	loaded := 0
	for _, t := range ordered {
		if ctx.Err() != nil {
			break
		}
		err := s.Insert(ctx, t)
		if err != nil && !errors.Is(err, ErrEmbeddingUnavailable) {
			s.logger.Warn().Err(err).Str("turnId", t.TurnID).Msg("Skipping history turn")
			continue
		}
		loaded++
	}
	return loaded
}
