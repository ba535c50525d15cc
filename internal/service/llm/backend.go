// Package llm defines the contract every language-model backend implements.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Errors a backend may return. Both are retryable by the orchestrator.
var (
	// ErrBackendUnavailable means the backend could not be reached or refused
	// the request (connection error, 5xx, missing credentials).
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrBackendTimeout means the per-attempt deadline expired.
	ErrBackendTimeout = errors.New("backend timeout")
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single generation request.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64

	// Mode and Query let scripted backends tailor output without parsing prompts.
	Mode  string
	Query string
}

// Result is the outcome of a completed generation.
type Result struct {
	Text      string
	Truncated bool
}

// Callback receives streamed output.
type Callback interface {
	// OnDelta is called with each newly generated piece of text, in order.
	OnDelta(delta string)
}

// CallbackFunc adapts a function to Callback.
type CallbackFunc func(delta string)

func (f CallbackFunc) OnDelta(delta string) { f(delta) }

// Backend generates answers. Generate blocks until the response is complete,
// ctx is done, or an error occurs. Deltas are delivered on cb before return.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request, cb Callback) (Result, error)
}

// Classify maps transport failures onto the backend error taxonomy.
// Context cancellation is passed through untouched so callers can tell a
// superseded request from a slow backend.
func Classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrBackendTimeout) {
		return err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}

// StatusError maps an HTTP status onto the backend error taxonomy.
func StatusError(backend string, status int, body string) error {
	switch {
	case status == 408 || status == 504:
		return fmt.Errorf("%w: %s returned status %d: %s", ErrBackendTimeout, backend, status, body)
	default:
		return fmt.Errorf("%w: %s returned status %d: %s", ErrBackendUnavailable, backend, status, body)
	}
}
