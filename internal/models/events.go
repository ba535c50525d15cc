package models

import "time"

// Bus topics.
const (
	TopicAnswerPartial    = "answer.partial"
	TopicAnswerFinal      = "answer.final"
	TopicPipelinePaused   = "pipeline.paused"
	TopicPipelineResumed  = "pipeline.resumed"
	TopicConversationTurn = "conversation.turn"
	TopicUserFeedback     = "user.feedback"
	TopicUserManualQuery  = "user.manual_query"
	TopicUserPause        = "user.pause"
	TopicTriggerHotkey    = "trigger.hotkey"
	TopicInputTyped       = "input.typed"
)

// PipelineStatusEvent is published on pipeline.paused and pipeline.resumed.
type PipelineStatusEvent struct {
	Paused    bool      `json:"paused"`
	Reasons   []string  `json:"reasons,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UserFeedback is emitted by the presentation layer for a rendered answer.
type UserFeedback struct {
	TurnID    string    `json:"turn_id" validate:"required"`
	Sentiment Sentiment `json:"sentiment" validate:"omitempty,oneof=positive negative"`
}

// UserQuery is a question typed or spoken directly to the assistant.
type UserQuery struct {
	Text     string `json:"text" validate:"required,max=8000"`
	Mode     Mode   `json:"mode,omitempty" validate:"omitempty,oneof=normal suggester solver"`
	ThreadID string `json:"thread_id,omitempty"`
	Voice    bool   `json:"voice,omitempty"`
}

// UserPause toggles the explicit user pause.
type UserPause struct {
	Paused bool `json:"paused"`
}

// HotkeyTrigger requests an immediate capture cycle.
type HotkeyTrigger struct {
	Timestamp time.Time `json:"timestamp"`
}

// TypedInput carries recently typed text or clipboard contents.
type TypedInput struct {
	Text string `json:"text"`
}
