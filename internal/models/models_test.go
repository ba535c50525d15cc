package models

import (
	"errors"
	"testing"
	"time"
)

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRegion_Union(t *testing.T) {
	tests := []struct {
		name string
		a, b Region
		want Region
	}{
		{"zero left", Region{}, Region{X: 1, Y: 2, Width: 3, Height: 4}, Region{X: 1, Y: 2, Width: 3, Height: 4}},
		{"zero right", Region{X: 1, Y: 2, Width: 3, Height: 4}, Region{}, Region{X: 1, Y: 2, Width: 3, Height: 4}},
		{"stacked lines", Region{X: 10, Y: 10, Width: 100, Height: 20}, Region{X: 5, Y: 30, Width: 50, Height: 20}, Region{X: 5, Y: 10, Width: 105, Height: 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Union(tt.b); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestRegion_Key(t *testing.T) {
	a := Region{X: 101, Y: 205, Width: 10, Height: 10}
	b := Region{X: 120, Y: 230, Width: 90, Height: 12}
	if a.Key(64) != b.Key(64) {
		t.Errorf("expected nearby regions to share a key, got %s and %s", a.Key(64), b.Key(64))
	}
	c := Region{X: 400, Y: 205}
	if a.Key(64) == c.Key(64) {
		t.Errorf("expected distant regions to differ, both got %s", a.Key(64))
	}
	if a.Key(0) != "101:205" {
		t.Errorf("expected grid 0 to act as 1, got %s", a.Key(0))
	}
}

func TestFrame_ReleaseOnce(t *testing.T) {
	calls := 0
	f := NewFrame("f1", fixedTime, Region{}, "/tmp/x.png", func() error {
		calls++
		return errors.New("boom")
	})

	if err := f.Release(); err == nil {
		t.Error("expected first release to return cleanup error")
	}
	if err := f.Release(); err != nil {
		t.Errorf("expected second release to be a no-op, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 cleanup call, got %d", calls)
	}

	var nilFrame *Frame
	if err := nilFrame.Release(); err != nil {
		t.Errorf("expected nil frame release to succeed, got %v", err)
	}
}

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		in      string
		want    Sentiment
		wantErr bool
	}{
		{"positive", SentimentPositive, false},
		{"up", SentimentPositive, false},
		{"negative", SentimentNegative, false},
		{"-1", SentimentNegative, false},
		{"", SentimentNone, false},
		{"none", SentimentNone, false},
		{"meh", SentimentNone, true},
	}
	for _, tt := range tests {
		got, err := ParseSentiment(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSentiment(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseSentiment(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("solver") != ModeSolver {
		t.Error("expected solver mode")
	}
	if ParseMode("suggester") != ModeSuggester {
		t.Error("expected suggester mode")
	}
	if ParseMode("bogus") != ModeNormal {
		t.Error("expected unknown mode to fall back to normal")
	}
}

func TestConversationTurn_Clone(t *testing.T) {
	orig := ConversationTurn{TurnID: "t1", Embedding: []float32{1, 2}}
	c := orig.Clone()
	c.Embedding[0] = 9
	if orig.Embedding[0] != 1 {
		t.Error("expected clone to own its embedding")
	}
}

func TestPipelineState(t *testing.T) {
	s := NewPipelineState("primary")

	s.SetPaused(true, []string{"screen_sharing"})
	s.SetInFlight("req-1")
	snap := s.Snapshot()
	if !snap.Paused || snap.PauseReasons[0] != "screen_sharing" {
		t.Errorf("expected paused with reason, got %+v", snap)
	}
	if snap.ActiveBackend != "primary" {
		t.Errorf("expected primary, got %s", snap.ActiveBackend)
	}

	s.ClearInFlight("req-0")
	if s.Snapshot().InFlightRequestID != "req-1" {
		t.Error("expected stale clear to be ignored")
	}
	s.ClearInFlight("req-1")
	if s.Snapshot().InFlightRequestID != "" {
		t.Error("expected in-flight request to be cleared")
	}

	snap.PauseReasons[0] = "mutated"
	if s.Snapshot().PauseReasons[0] != "screen_sharing" {
		t.Error("expected snapshot to be a copy")
	}
}
