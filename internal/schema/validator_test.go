package schema

import (
	"errors"
	"strings"
	"testing"

	"ambient-assistant/internal/models"
)

func TestValidate(t *testing.T) {
	v := New()
	tests := []struct {
		name    string
		event   any
		wantErr bool
	}{
		{"query", models.UserQuery{Text: "What is a trie?"}, false},
		{"empty query", models.UserQuery{}, true},
		{"long query", models.UserQuery{Text: strings.Repeat("a", 8001)}, true},
		{"bad mode", models.UserQuery{Text: "q", Mode: "loud"}, true},
		{"feedback", models.UserFeedback{TurnID: "t1", Sentiment: models.SentimentPositive}, false},
		{"clear feedback", models.UserFeedback{TurnID: "t1"}, false},
		{"feedback without turn", models.UserFeedback{Sentiment: models.SentimentNegative}, true},
		{"bad sentiment", models.UserFeedback{TurnID: "t1", Sentiment: "meh"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.event)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEvent) {
					t.Errorf("expected ErrInvalidEvent, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
