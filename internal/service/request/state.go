// Package request provides request ID generation and lifecycle management
// for model orchestrator requests.
package request

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a request.
type State int

const (
	// StateIdle - Request created, not yet handed to a backend.
	StateIdle State = iota
	// StateDispatching - Waiting for a backend to produce its first delta.
	StateDispatching
	// StateStreaming - Deltas are arriving and being republished.
	StateStreaming
	// StateCompleted - Final answer published.
	StateCompleted
	// StateCancelled - Superseded or suspended; no final is published.
	StateCancelled
	// StateFailed - Every backend was exhausted.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDispatching:
		return "DISPATCHING"
	case StateStreaming:
		return "STREAMING"
	case StateCompleted:
		return "COMPLETED"
	case StateCancelled:
		return "CANCELLED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true for COMPLETED, CANCELLED and FAILED.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Errors for invalid state transitions.
var (
	ErrRequestFinished = errors.New("request already finished")
	ErrNotDispatched   = errors.New("request not dispatched")
	ErrAlreadyStarted  = errors.New("request already dispatched")
)

// Lifecycle manages the state machine for a single request.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	IDLE → DISPATCHING → STREAMING → COMPLETED
//	           ↑    │        │
//	           └────┼────────┘ Retry()
//	                └──→ COMPLETED (no deltas)
//
//	any non-terminal ──→ CANCELLED | FAILED
type Lifecycle struct {
	mu        sync.RWMutex
	requestID string
	state     State
}

// NewLifecycle creates a new request lifecycle in IDLE state.
func NewLifecycle(requestID string) *Lifecycle {
	return &Lifecycle{
		requestID: requestID,
		state:     StateIdle,
	}
}

// RequestID returns the request ID.
func (l *Lifecycle) RequestID() string {
	return l.requestID
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// IsFinished returns true if the request is in a terminal state.
func (l *Lifecycle) IsFinished() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.IsTerminal()
}

// Dispatch moves IDLE to DISPATCHING.
func (l *Lifecycle) Dispatch() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.state == StateIdle:
		l.state = StateDispatching
		return nil
	case l.state.IsTerminal():
		return ErrRequestFinished
	default:
		return ErrAlreadyStarted
	}
}

// Stream records a delta. The first delta moves DISPATCHING to STREAMING.
func (l *Lifecycle) Stream() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateDispatching:
		l.state = StateStreaming
		return nil
	case StateStreaming:
		return nil
	case StateIdle:
		return ErrNotDispatched
	default:
		return ErrRequestFinished
	}
}

// Retry returns a streaming request to DISPATCHING for another attempt.
func (l *Lifecycle) Retry() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateDispatching, StateStreaming:
		l.state = StateDispatching
		return nil
	case StateIdle:
		return ErrNotDispatched
	default:
		return ErrRequestFinished
	}
}

// Complete transitions to COMPLETED. Only one caller wins.
func (l *Lifecycle) Complete() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateDispatching, StateStreaming:
		l.state = StateCompleted
		return nil
	case StateIdle:
		return ErrNotDispatched
	default:
		return ErrRequestFinished
	}
}

// Cancel transitions to CANCELLED.
// Returns true if the request was cancelled, false if already terminal.
func (l *Lifecycle) Cancel() bool {
	return l.finish(StateCancelled)
}

// Fail transitions to FAILED.
// Returns true if the request failed, false if already terminal.
func (l *Lifecycle) Fail() bool {
	return l.finish(StateFailed)
}

func (l *Lifecycle) finish(to State) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = to
	return true
}
