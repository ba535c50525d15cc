// Package models defines the data structures shared across the sensing pipeline.
package models

import (
	"fmt"
	"time"
)

// Region is a screen rectangle in pixels.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether the region is unset.
func (r Region) IsZero() bool {
	return r.Width == 0 && r.Height == 0
}

// Union returns the smallest region containing both r and o.
func (r Region) Union(o Region) Region {
	if r.IsZero() {
		return o
	}
	if o.IsZero() {
		return r
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1 := max(r.X+r.Width, o.X+o.Width)
	y1 := max(r.Y+r.Height, o.Y+o.Height)
	return Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Key quantizes the region's top-left corner onto a grid so that small OCR
// jitter maps to the same key.
func (r Region) Key(grid int) string {
	if grid <= 0 {
		grid = 1
	}
	return fmt.Sprintf("%d:%d", r.X/grid, r.Y/grid)
}

// Frame is a captured screen image. It is consumed by the text extractor and
// never persisted.
type Frame struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Region      Region    `json:"region"`
	RawImageRef string    `json:"rawImageRef"`

	// App is the foreground application at capture time, when known.
	App string `json:"app,omitempty"`

	release func() error
}

// NewFrame creates a frame whose Release runs the given cleanup once.
func NewFrame(id string, ts time.Time, region Region, ref string, release func() error) *Frame {
	return &Frame{ID: id, Timestamp: ts, Region: region, RawImageRef: ref, release: release}
}

// Release discards the frame's backing image.
func (f *Frame) Release() error {
	if f == nil || f.release == nil {
		return nil
	}
	rel := f.release
	f.release = nil
	return rel()
}

// TextBlock is one recognized run of text with its bounding region.
type TextBlock struct {
	Text       string  `json:"text"`
	Region     Region  `json:"region"`
	Confidence float64 `json:"confidence"` // 0.0 - 1.0
}

// TriggerReason describes why a candidate was produced.
type TriggerReason string

const (
	TriggerTimer      TriggerReason = "timer"
	TriggerHotkey     TriggerReason = "hotkey"
	TriggerForeground TriggerReason = "foreground_change"
	TriggerManual     TriggerReason = "manual_query"
	TriggerVoice      TriggerReason = "voice_query"
)

// Mode selects how the assistant answers.
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeSuggester Mode = "suggester"
	ModeSolver    Mode = "solver"
)

// ParseMode returns the mode for s, defaulting to ModeNormal.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeSuggester, ModeSolver:
		return Mode(s)
	default:
		return ModeNormal
	}
}

// Candidate is a detected, not-yet-answered question.
type Candidate struct {
	SourceText    string        `json:"sourceText"`
	TriggerReason TriggerReason `json:"triggerReason"`
	Timestamp     time.Time     `json:"timestamp"`
	Score         float64       `json:"score"`

	Region      Region `json:"region"`
	ThreadID    string `json:"threadId"`
	Generation  uint64 `json:"generation"`
	Mode        Mode   `json:"mode"`
	ContentType string `json:"contentType,omitempty"`
	Language    string `json:"language,omitempty"`
	App         string `json:"app,omitempty"`
}

// Sentiment is the tri-state user feedback on an answer.
type Sentiment string

const (
	SentimentNone     Sentiment = ""
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment maps user input onto a Sentiment.
func ParseSentiment(s string) (Sentiment, error) {
	switch s {
	case "positive", "up", "+1":
		return SentimentPositive, nil
	case "negative", "down", "-1":
		return SentimentNegative, nil
	case "", "none":
		return SentimentNone, nil
	default:
		return SentimentNone, fmt.Errorf("unknown sentiment %q", s)
	}
}

// EmbeddingState tracks whether a turn is eligible for semantic retrieval.
type EmbeddingState string

const (
	EmbeddingReady    EmbeddingState = "ready"
	EmbeddingPending  EmbeddingState = "pending"
	EmbeddingDisabled EmbeddingState = "disabled"
)

// ConversationTurn is a question/answer pair.
type ConversationTurn struct {
	TurnID     string    `json:"turnId"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Embedding  []float32 `json:"embedding,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Feedback   Sentiment `json:"feedback,omitempty"`
	AppContext string    `json:"appContext,omitempty"`

	ThreadID       string         `json:"threadId,omitempty"`
	BackendUsed    string         `json:"backendUsed,omitempty"`
	EmbeddingState EmbeddingState `json:"embeddingState,omitempty"`
}

// Clone returns a deep copy of the turn.
func (t ConversationTurn) Clone() ConversationTurn {
	if t.Embedding != nil {
		t.Embedding = append([]float32(nil), t.Embedding...)
	}
	return t
}

// ContextPacket is the budget-constrained input handed to a model backend.
type ContextPacket struct {
	Query           string             `json:"query"`
	ScreenExcerpt   string             `json:"screenExcerpt"`
	RetrievedTurns  []ConversationTurn `json:"retrievedTurns"`
	ThreadTurns     []ConversationTurn `json:"threadTurns,omitempty"`
	TokenBudgetUsed int                `json:"tokenBudgetUsed"`

	ThreadID    string `json:"threadId"`
	Mode        Mode   `json:"mode"`
	ContentType string `json:"contentType,omitempty"`
	Language    string `json:"language,omitempty"`
	// Generation orders packets on a thread; zero means unordered.
	Generation uint64 `json:"generation,omitempty"`
}

// BackendNone marks an answer produced without any backend.
const BackendNone = "none"

// Answer is the terminal response for a request.
type Answer struct {
	TurnID      string `json:"turnId"`
	Text        string `json:"text"`
	BackendUsed string `json:"backendUsed"`
	LatencyMs   int64  `json:"latencyMs"`
	Truncated   bool   `json:"truncated"`

	RequestID string `json:"requestId"`
	ThreadID  string `json:"threadId"`
	Question  string `json:"question"`
}

// AnswerPartial carries the cumulative text of a streaming answer.
type AnswerPartial struct {
	TurnID      string `json:"turnId"`
	RequestID   string `json:"requestId"`
	ThreadID    string `json:"threadId"`
	BackendUsed string `json:"backendUsed"`
	Text        string `json:"text"`
	Delta       string `json:"delta"`
	Attempt     int    `json:"attempt"`
}
