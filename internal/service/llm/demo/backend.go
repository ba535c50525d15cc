// Package demo provides a scripted backend that needs no credentials.
// It streams canned answers chunk by chunk so the whole pipeline, including
// partial answer rendering, can run offline.
package demo

import (
	"context"
	"strings"
	"sync"
	"time"

	"ambient-assistant/internal/service/llm"
)

// Name is the backend name used in configuration and answers.
const Name = "demo"

// ScriptedAnswer is a canned answer chosen when its keyword appears in the query.
type ScriptedAnswer struct {
	Keyword string
	Text    string
}

// DefaultAnswers provides sample answers for simulation.
var DefaultAnswers = []ScriptedAnswer{
	{
		Keyword: "binary search tree",
		Text: "A binary search tree is a binary tree where every node's left subtree holds smaller keys " +
			"and its right subtree holds larger keys. Lookups, inserts and deletes take O(h) time, " +
			"which is O(log n) when the tree is balanced.",
	},
	{
		Keyword: "go",
		Text: "Go is a statically typed, compiled language with built-in concurrency through goroutines " +
			"and channels. A minimal program is `package main` with a `func main()` entry point.",
	},
	{
		Keyword: "python",
		Text: "Python is a dynamically typed language known for readability. " +
			"Indentation defines blocks and the standard library covers most everyday tasks.",
	},
	{
		Keyword: "javascript",
		Text: "JavaScript runs in browsers and on servers through Node.js. " +
			"It is event driven and handles asynchronous work with promises and async/await.",
	},
}

const fallbackAnswer = "I'm running in demo mode, so this is a scripted answer. " +
	"Configure a model backend to get real answers to questions on your screen."

var modePrefix = map[string]string{
	"suggester": "Teacher mode: here are hints rather than a full solution. ",
	"solver":    "Solution mode: here is a complete walkthrough. ",
}

// Backend implements llm.Backend with scripted responses.
type Backend struct {
	answers    []ScriptedAnswer
	chunkWords int
	delay      time.Duration

	mu    sync.Mutex
	calls int
}

// Option configures the demo backend.
type Option func(*Backend)

// WithAnswers replaces the scripted answers.
func WithAnswers(answers []ScriptedAnswer) Option {
	return func(b *Backend) { b.answers = answers }
}

// WithChunking sets words per delta and the delay between deltas.
func WithChunking(words int, delay time.Duration) Option {
	return func(b *Backend) {
		if words > 0 {
			b.chunkWords = words
		}
		b.delay = delay
	}
}

// New creates a demo backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		answers:    DefaultAnswers,
		chunkWords: 5,
		delay:      100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return Name }

// Calls returns how many times Generate has been invoked.
func (b *Backend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// Generate streams the scripted answer for req.Query.
func (b *Backend) Generate(ctx context.Context, req llm.Request, cb llm.Callback) (llm.Result, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	answer := modePrefix[req.Mode] + b.pick(req.Query)
	words := strings.Fields(answer)
	truncated := false
	// Words stand in for tokens.
	if req.MaxTokens > 0 && len(words) > req.MaxTokens {
		words = words[:req.MaxTokens]
		truncated = true
	}

	var text strings.Builder
	for i := 0; i < len(words); i += b.chunkWords {
		if i > 0 && b.delay > 0 {
			timer := time.NewTimer(b.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return llm.Result{}, llm.Classify(ctx, ctx.Err())
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return llm.Result{}, llm.Classify(ctx, err)
		}

		end := min(i+b.chunkWords, len(words))
		chunk := strings.Join(words[i:end], " ")
		if end < len(words) {
			chunk += " "
		}
		text.WriteString(chunk)
		cb.OnDelta(chunk)
	}

	return llm.Result{Text: text.String(), Truncated: truncated}, nil
}

func (b *Backend) pick(query string) string {
	q := strings.ToLower(query)
	for _, a := range b.answers {
		if a.Keyword != "" && containsWord(q, a.Keyword) {
			return a.Text
		}
	}
	return fallbackAnswer
}

// containsWord reports whether phrase occurs in s on word boundaries.
func containsWord(s, phrase string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], phrase)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(phrase)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
