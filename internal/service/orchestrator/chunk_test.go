package orchestrator

import (
	"strings"
	"testing"
)

func TestChunker(t *testing.T) {
	tests := []struct {
		name   string
		deltas []string
		want   []bool
	}{
		{"sentence end", []string{"Hello", " world. "}, []bool{false, true}},
		{"colon", []string{"Steps:"}, []bool{true}},
		{"paragraph", []string{"First\n\n"}, []bool{true}},
		{"decimal is not a sentence", []string{"pi is 3.14"}, []bool{false}},
		{"size", []string{strings.Repeat("a", chunkSize)}, []bool{true}},
		{"open fence holds", []string{"```py\n", "print(1). ", strings.Repeat("x", chunkSize)}, []bool{false, false, false}},
		{"fence close flushes", []string{"``", "`\nx\n``", "`"}, []bool{false, false, true}},
		{"held fence cap", []string{"```\n", strings.Repeat("x", maxHeld)}, []bool{false, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c chunker
			text := ""
			for i, d := range tt.deltas {
				text += d
				if got := c.add(d, text); got != tt.want[i] {
					t.Errorf("delta %d %q: expected %v, got %v", i, d, tt.want[i], got)
				}
				if tt.want[i] {
					c.take()
				}
			}
		})
	}
}

func TestChunker_TakeReturnsSinceLastFlush(t *testing.T) {
	var c chunker
	c.add("One. ", "One. ")
	if got := c.take(); got != "One. " {
		t.Errorf("expected %q, got %q", "One. ", got)
	}
	c.add("Two", "One. Two")
	if got := c.take(); got != "Two" {
		t.Errorf("expected %q, got %q", "Two", got)
	}
	if got := c.take(); got != "" {
		t.Errorf("expected empty buffer, got %q", got)
	}
}
