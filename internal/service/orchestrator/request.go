package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"ambient-assistant/internal/models"
	"ambient-assistant/internal/service/request"
)

// Request is the handle for one dispatched question.
type Request struct {
	ID       string
	ThreadID string
	TurnID   string
	Question string

	lifecycle *request.Lifecycle
	cancel    context.CancelFunc
	started   time.Time

	// mu orders partial and final publishing against cancellation, so nothing
	// is published for a request once it has been cancelled.
	mu       sync.Mutex
	text     strings.Builder
	attempts int

	once   sync.Once
	done   chan struct{}
	answer models.Answer
	err    error
}

func newRequest(id, threadID, turnID, question string, started time.Time) *Request {
	return &Request{
		ID:        id,
		ThreadID:  threadID,
		TurnID:    turnID,
		Question:  question,
		lifecycle: request.NewLifecycle(id),
		cancel:    func() {},
		started:   started,
		done:      make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (r *Request) State() request.State {
	return r.lifecycle.State()
}

// Done is closed once the request reached a terminal state.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the request finishes or ctx ends. A cancelled request
// returns ErrCancelled; a failed one returns the explanatory answer together
// with ErrBackendsExhausted.
func (r *Request) Wait(ctx context.Context) (models.Answer, error) {
	select {
	case <-ctx.Done():
		return models.Answer{}, ctx.Err()
	case <-r.done:
	}
	return r.answer, r.err
}

// abort cancels the request. It reports false when the request had already
// finished.
func (r *Request) abort() bool {
	r.mu.Lock()
	ok := r.lifecycle.Cancel()
	r.mu.Unlock()
	if ok {
		r.cancel()
	}
	return ok
}

func (r *Request) finish(answer models.Answer, err error) {
	r.once.Do(func() {
		r.answer = answer
		r.err = err
		close(r.done)
	})
}

func (r *Request) latency(now time.Time) time.Duration {
	return now.Sub(r.started)
}
