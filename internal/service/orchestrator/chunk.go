package orchestrator

import "strings"

const (
	// chunkSize is the pending length that forces a partial outside code.
	chunkSize = 150
	// maxHeld caps how much text an open code fence may hold back.
	maxHeld = 1024
	fence   = "```"
)

var breakPoints = []string{". ", "! ", "? ", ":", "\n\n"}

// chunker decides when buffered deltas are worth publishing as a partial.
// Text inside an unclosed code fence is held so a rendered partial never
// shows half a code block.
type chunker struct {
	pending strings.Builder
	fences  int
}

// add buffers delta given the attempt text so far, including delta, and
// reports whether the buffer should be flushed now.
func (c *chunker) add(delta, text string) bool {
	c.pending.WriteString(delta)
	closed := false
	if n := strings.Count(text, fence); n != c.fences {
		closed = n%2 == 0
		c.fences = n
	}
	held := c.pending.Len()
	switch {
	case closed:
		return true
	case c.fences%2 == 1:
		return held >= maxHeld
	case held >= chunkSize:
		return true
	}
	tail := text[max(0, len(text)-3):]
	for _, b := range breakPoints {
		if strings.Contains(tail, b) {
			return true
		}
	}
	return false
}

// take returns and clears the buffered text.
func (c *chunker) take() string {
	s := c.pending.String()
	c.pending.Reset()
	return s
}
