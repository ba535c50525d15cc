package voice

import (
	"errors"
	"testing"
)

func TestUtterance_FinalOnce(t *testing.T) {
	u := NewUtterance("utt-1")

	if err := u.Hear(); err != nil {
		t.Fatalf("expected partial allowed, got %v", err)
	}
	if err := u.Finalize(); err != nil {
		t.Fatalf("expected finalize to succeed, got %v", err)
	}
	if err := u.Finalize(); !errors.Is(err, ErrFinalAlreadyEmitted) {
		t.Errorf("expected ErrFinalAlreadyEmitted, got %v", err)
	}
	if err := u.Hear(); !errors.Is(err, ErrPartialAfterFinal) {
		t.Errorf("expected ErrPartialAfterFinal, got %v", err)
	}
}

func TestUtterance_Drop(t *testing.T) {
	u := NewUtterance("utt-1")
	if !u.Drop() {
		t.Fatal("expected drop to succeed")
	}
	if u.Drop() {
		t.Error("expected second drop to be refused")
	}
	if err := u.Finalize(); !errors.Is(err, ErrUtteranceClosed) {
		t.Errorf("expected ErrUtteranceClosed after drop, got %v", err)
	}
	if !u.Reset("utt-2") {
		t.Fatal("expected reset after drop")
	}
	if u.ID() != "utt-2" || u.State() != StateListening {
		t.Errorf("expected utt-2 LISTENING, got %s %s", u.ID(), u.State())
	}
}

func TestUtterance_ClosedStaysClosed(t *testing.T) {
	u := NewUtterance("utt-1")
	u.Close()
	if u.Reset("utt-2") {
		t.Error("expected reset to be refused after close")
	}
	if u.State() != StateClosed {
		t.Errorf("expected CLOSED, got %s", u.State())
	}
	if u.Drop() {
		t.Error("expected drop to be refused after close")
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateListening: "LISTENING",
		StateFinal:     "FINAL",
		StateClosed:    "CLOSED",
		StateDropped:   "DROPPED",
		State(9):       "UNKNOWN(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}
