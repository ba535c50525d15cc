package detect

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"ambient-assistant/internal/models"
)

func blocks(lines ...string) []models.TextBlock {
	out := make([]models.TextBlock, len(lines))
	for i, l := range lines {
		out[i] = models.TextBlock{Text: l, Region: models.Region{X: 10, Y: 20 * i, Width: 300, Height: 18}, Confidence: 0.9}
	}
	return out
}

func TestHeuristicScorer(t *testing.T) {
	s := HeuristicScorer{}
	q := s.Score("What is a binary search tree?")
	if q < 0.5 || q > 1 {
		t.Errorf("expected question above threshold and at most 1, got %f", q)
	}
	if s.Score("") != 0 {
		t.Errorf("expected 0 for empty text, got %f", s.Score(""))
	}
	if s.Score("tree?") <= s.Score("tree") {
		t.Error("expected question mark to raise the score")
	}
	if s.Score("what tree") <= s.Score("that tree") {
		t.Error("expected interrogative to raise the score")
	}
	short, long := s.Score("Why?"), s.Score("Why does the balanced tree rotate left here?")
	if long < short {
		t.Errorf("expected longer text to score at least as high, got %f < %f", long, short)
	}
	if got := s.Score(strings.Repeat("why ", 100) + "?"); got > 1+1e-9 {
		t.Errorf("expected score capped at 1, got %f", got)
	}
}

func TestSentences(t *testing.T) {
	got := sentences("Fix this. Why does main.go fail? ok")
	want := []string{"Fix this.", "Why does main.go fail?", "ok"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDetect_FindsQuestion(t *testing.T) {
	d := New(DefaultConfig(), nil)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return fixed }

	c := d.Detect(blocks("package main", "// What is a binary search tree?", "func main() {}"), "")
	if c == nil {
		t.Fatal("expected a candidate")
	}
	if c.SourceText != "What is a binary search tree?" {
		t.Errorf("expected question text, got %q", c.SourceText)
	}
	if c.Region.Y != 20 {
		t.Errorf("expected region of the second line, got %+v", c.Region)
	}
	if !c.Timestamp.Equal(fixed) || c.Mode != models.ModeNormal {
		t.Errorf("expected timestamp and mode set, got %+v", c)
	}
	if c.ContentType != ContentCode {
		t.Errorf("expected code content, got %q", c.ContentType)
	}

	if again := d.Detect(blocks("package main", "// What is a binary search tree?", "func main() {}"), ""); again != nil {
		t.Errorf("expected unchanged screen to yield nothing, got %+v", again)
	}
}

func TestDetect_KeystrokesAlwaysCount(t *testing.T) {
	d := New(DefaultConfig(), nil)
	screen := blocks("Quarterly report", "Revenue grew")
	_ = d.Detect(screen, "")

	c := d.Detect(screen, "How do I reverse a linked list?")
	if c == nil || c.SourceText != "How do I reverse a linked list?" {
		t.Fatalf("expected typed question, got %+v", c)
	}
}

func TestDetect_BelowThreshold(t *testing.T) {
	d := New(DefaultConfig(), nil)
	if c := d.Detect(nil, "how do i fix this"); c != nil {
		t.Errorf("expected no candidate below threshold, got %+v", c)
	}
	if c := d.Detect(blocks("just some notes"), ""); c != nil {
		t.Errorf("expected no candidate without a question, got %+v", c)
	}
}

func TestDetect_TieGoesToLaterSentence(t *testing.T) {
	d := New(DefaultConfig(), nil)
	c := d.Detect(blocks("Why is it red?", "Why is it big?"), "")
	if c == nil || c.SourceText != "Why is it big?" {
		t.Fatalf("expected later question, got %+v", c)
	}
}

func TestDetect_TrailingWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowLines = 2
	d := New(cfg, nil)
	if c := d.Detect(blocks("What is old news?", "line a", "line b"), ""); c != nil {
		t.Errorf("expected question outside the window to be ignored, got %+v", c)
	}
}

func TestDetect_ChangeGate(t *testing.T) {
	d := New(DefaultConfig(), nil)
	base := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	_ = d.Detect(blocks(base), "")

	c := d.Detect(blocks(base, "Why does the compiler reject this generic constraint?"), "")
	if c == nil {
		t.Fatal("expected significant change to be detected")
	}
	if !strings.HasPrefix(c.SourceText, "Why does the compiler") {
		t.Errorf("unexpected candidate %q", c.SourceText)
	}
	if again := d.Detect(blocks(base, "Why does the compiler reject this generic constraint?"), ""); again != nil {
		t.Errorf("expected unchanged screen to yield nothing, got %+v", again)
	}
}

func TestDetect_TypedLineOnStaticScreen(t *testing.T) {
	d := New(DefaultConfig(), nil)
	page := make([]string, 0, 41)
	for i := range 40 {
		page = append(page, fmt.Sprintf("row %d of a long static document with many words", i))
	}
	_ = d.Detect(blocks(page...), "")

	edited := append(page, "why?")
	c := d.Detect(blocks(edited...), "")
	if c == nil || c.SourceText != "why?" {
		t.Fatalf("expected the new line on a mostly unchanged screen, got %+v", c)
	}
	if c.Region.Y != 20*40 {
		t.Errorf("expected region of the new line, got %+v", c.Region)
	}
	if again := d.Detect(blocks(edited...), ""); again != nil {
		t.Errorf("expected the same screen to yield nothing, got %+v", again)
	}
}

func TestDetect_CustomScorer(t *testing.T) {
	d := New(DefaultConfig(), ScorerFunc(func(string) float64 { return 0.9 }))
	c := d.Detect(blocks("is this fine"), "")
	if c == nil || c.Score != 0.9 {
		t.Fatalf("expected custom score, got %+v", c)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantType string
		wantLang string
	}{
		{"go", "package main\nfunc main() {\n\tx := 1\n\tif x > 0 {\n}", ContentCode, "go"},
		{"python", "import os\ndef run(self):\n    if self.ok:\n        print(1)", ContentCode, "python"},
		{"docs", "/** Returns the node count */", ContentDocumentation, ""},
		{"prose", strings.Repeat("word ", 25), ContentText, ""},
		{"design", "width: 12px; fill: rgb(0,0,0)", ContentDesign, ""},
		{"general", "hello", ContentGeneral, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotLang := Classify(tt.text)
			if gotType != tt.wantType || gotLang != tt.wantLang {
				t.Errorf("expected %s/%s, got %s/%s", tt.wantType, tt.wantLang, gotType, gotLang)
			}
		})
	}
}

func TestDebouncer_DropsDuplicatesAndSupersedes(t *testing.T) {
	d := NewDebouncer(64, time.Minute)
	region := models.Region{X: 101, Y: 205, Width: 200, Height: 18}

	first := &models.Candidate{SourceText: "What is a heap?", Region: region}
	if !d.Accept(first) {
		t.Fatal("expected first candidate accepted")
	}
	if first.ThreadID != "1:3" || first.Generation == 0 {
		t.Errorf("expected thread and generation stamped, got %+v", first)
	}

	dup := &models.Candidate{SourceText: "what is a  heap?", Region: models.Region{X: 120, Y: 230}}
	if d.Accept(dup) {
		t.Error("expected identical text in the same region to be dropped")
	}

	next := &models.Candidate{SourceText: "What is a trie?", Region: region}
	if !d.Accept(next) {
		t.Fatal("expected new text accepted")
	}
	if next.Generation <= first.Generation {
		t.Errorf("expected generation to increase, got %d then %d", first.Generation, next.Generation)
	}
	if d.IsCurrent(*first) {
		t.Error("expected first candidate superseded")
	}
	if !d.IsCurrent(*next) {
		t.Error("expected latest candidate current")
	}

	other := &models.Candidate{SourceText: "What is a heap?", Region: models.Region{X: 900, Y: 900}}
	if !d.Accept(other) {
		t.Error("expected a different region to be independent")
	}
	if !d.IsCurrent(*next) {
		t.Error("expected other regions not to supersede")
	}
}

func TestDebouncer_CooldownExpires(t *testing.T) {
	d := NewDebouncer(64, 30*time.Millisecond)
	c := &models.Candidate{SourceText: "Why?", Region: models.Region{X: 1, Y: 1}}
	if !d.Accept(c) {
		t.Fatal("expected accepted")
	}
	time.Sleep(60 * time.Millisecond)
	again := &models.Candidate{SourceText: "Why?", Region: models.Region{X: 1, Y: 1}}
	if !d.Accept(again) {
		t.Error("expected same text accepted after the cool-down")
	}
}

func TestDebouncer_Stamp(t *testing.T) {
	d := NewDebouncer(0, 0)
	a := &models.Candidate{SourceText: "q", ThreadID: "manual"}
	b := &models.Candidate{SourceText: "q", ThreadID: "manual"}
	d.Stamp(a)
	d.Stamp(b)
	if b.Generation != a.Generation+1 {
		t.Errorf("expected consecutive generations, got %d and %d", a.Generation, b.Generation)
	}
	if d.Current("manual") != b.Generation {
		t.Errorf("expected current generation %d, got %d", b.Generation, d.Current("manual"))
	}
}
