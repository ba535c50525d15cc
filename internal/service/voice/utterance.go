package voice

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle state of one spoken utterance.
type State int

const (
	// StateListening - audio is arriving; partial transcripts are allowed.
	StateListening State = iota
	// StateFinal - the final transcript was turned into a query.
	StateFinal
	// StateClosed - the session ended normally.
	StateClosed
	// StateDropped - abandoned after an error or a limit; no query is asked.
	StateDropped
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "LISTENING"
	case StateFinal:
		return "FINAL"
	case StateClosed:
		return "CLOSED"
	case StateDropped:
		return "DROPPED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal reports CLOSED and DROPPED.
func (s State) IsTerminal() bool {
	return s == StateClosed || s == StateDropped
}

var (
	ErrUtteranceClosed     = errors.New("utterance is closed")
	ErrFinalAlreadyEmitted = errors.New("final transcript already handled")
	ErrPartialAfterFinal   = errors.New("partial transcript after final")
)

// Utterance guards the one-query-per-utterance rule.
//
//	LISTENING → FINAL → (Reset) LISTENING ...
//	any non-terminal → DROPPED
//	any → CLOSED
type Utterance struct {
	mu    sync.RWMutex
	id    string
	state State
}

func NewUtterance(id string) *Utterance {
	return &Utterance{id: id, state: StateListening}
}

func (u *Utterance) ID() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.id
}

func (u *Utterance) State() State {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.state
}

// Hear validates a partial transcript.
func (u *Utterance) Hear() error {
	u.mu.RLock()
	defer u.mu.RUnlock()
	switch u.state {
	case StateListening:
		return nil
	case StateFinal:
		return ErrPartialAfterFinal
	default:
		return ErrUtteranceClosed
	}
}

// Finalize moves LISTENING to FINAL. It succeeds once per utterance.
func (u *Utterance) Finalize() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch u.state {
	case StateListening:
		u.state = StateFinal
		return nil
	case StateFinal:
		return ErrFinalAlreadyEmitted
	default:
		return ErrUtteranceClosed
	}
}

// Close ends the utterance. Idempotent.
func (u *Utterance) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state = StateClosed
}

// Drop abandons the utterance. It returns false when already terminal.
func (u *Utterance) Drop() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state.IsTerminal() {
		return false
	}
	u.state = StateDropped
	return true
}

// Reset starts listening for the next utterance unless the session closed.
func (u *Utterance) Reset(id string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == StateClosed {
		return false
	}
	u.id = id
	u.state = StateListening
	return true
}
