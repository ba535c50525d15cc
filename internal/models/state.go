package models

import "sync"

// PipelineState is the single process-wide view of the pipeline.
//
// Each field has exactly one writer: Paused is written only by the privacy
// guard; ActiveBackend and InFlightRequestID only by the model orchestrator.
// Everyone else reads through Snapshot.
type PipelineState struct {
	mu                sync.RWMutex
	paused            bool
	pauseReasons      []string
	activeBackend     string
	inFlightRequestID string
}

// PipelineStatus is a point-in-time copy of PipelineState.
type PipelineStatus struct {
	Paused            bool     `json:"paused"`
	PauseReasons      []string `json:"pauseReasons,omitempty"`
	ActiveBackend     string   `json:"activeBackend"`
	InFlightRequestID string   `json:"inFlightRequestId,omitempty"`
}

// NewPipelineState creates a state with the given initial backend.
func NewPipelineState(activeBackend string) *PipelineState {
	return &PipelineState{activeBackend: activeBackend}
}

// Snapshot returns a copy of the current state.
func (s *PipelineState) Snapshot() PipelineStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return PipelineStatus{
		Paused:            s.paused,
		PauseReasons:      append([]string(nil), s.pauseReasons...),
		ActiveBackend:     s.activeBackend,
		InFlightRequestID: s.inFlightRequestID,
	}
}

// Paused reports whether capture and dispatch are suspended.
func (s *PipelineState) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// SetPaused is called by the privacy guard only.
func (s *PipelineState) SetPaused(paused bool, reasons []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
	s.pauseReasons = append([]string(nil), reasons...)
}

// SetActiveBackend is called by the orchestrator only.
func (s *PipelineState) SetActiveBackend(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeBackend = name
}

// SetInFlight is called by the orchestrator only.
func (s *PipelineState) SetInFlight(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlightRequestID = requestID
}

// ClearInFlight clears the in-flight request if it is still requestID.
// Called by the orchestrator only.
func (s *PipelineState) ClearInFlight(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlightRequestID == requestID {
		s.inFlightRequestID = ""
	}
}
