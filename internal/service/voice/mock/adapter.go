// Package mock provides a scripted speech-to-text adapter for running voice
// queries without cloud credentials.
package mock

import (
	"context"
	"sync"
	"time"

	"ambient-assistant/internal/service/voice"
)

// Utterance is one scripted spoken question.
type Utterance struct {
	Partials   []string
	Final      string
	Confidence float64
}

// DefaultUtterances cycle across adapters created by New.
var DefaultUtterances = []Utterance{
	{
		Partials:   []string{"What is", "What is a", "What is a goroutine"},
		Final:      "What is a goroutine?",
		Confidence: 0.94,
	},
	{
		Partials:   []string{"How do I", "How do I reverse"},
		Final:      "How do I reverse a linked list?",
		Confidence: 0.91,
	},
	{
		Partials:   []string{"Why does", "Why does my test"},
		Final:      "Why does my test hang on a closed channel?",
		Confidence: 0.89,
	},
}

var (
	counterMu sync.Mutex
	counter   int
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithDelay delays each callback. Zero delivers callbacks synchronously
// from SendAudio and Close.
func WithDelay(d time.Duration) Option {
	return func(a *Adapter) { a.delay = d }
}

// WithUtterance scripts a specific utterance.
func WithUtterance(u Utterance) Option {
	return func(a *Adapter) { a.utterance = u }
}

// Adapter emits one partial per audio chunk, then the final on the next chunk
// or on Close, whichever comes first.
type Adapter struct {
	delay     time.Duration
	utterance Utterance

	mu        sync.Mutex
	cb        voice.Callback
	next      int
	finalSent bool
	closed    bool
	wg        sync.WaitGroup
}

func New(opts ...Option) *Adapter {
	counterMu.Lock()
	u := DefaultUtterances[counter%len(DefaultUtterances)]
	counter++
	counterMu.Unlock()

	a := &Adapter{delay: 50 * time.Millisecond, utterance: u}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Factory returns a voice.Factory creating mock adapters.
func Factory(opts ...Option) voice.Factory {
	return func(context.Context) (voice.Adapter, error) {
		return New(opts...), nil
	}
}

func (a *Adapter) Start(_ context.Context, cb voice.Callback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = cb
	return nil
}

func (a *Adapter) SendAudio(_ context.Context, _ []byte) error {
	a.mu.Lock()
	if a.closed || a.cb == nil || a.finalSent {
		a.mu.Unlock()
		return nil
	}
	cb := a.cb
	if a.next < len(a.utterance.Partials) {
		text := a.utterance.Partials[a.next]
		a.next++
		a.mu.Unlock()
		a.deliver(func() { cb.OnPartial(text) })
		return nil
	}
	a.finalSent = true
	u := a.utterance
	a.mu.Unlock()
	a.deliver(func() { cb.OnFinal(u.Final, u.Confidence) })
	return nil
}

// Close sends the final if the stream ended early and waits for pending
// callbacks.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	cb, u := a.cb, a.utterance
	sendFinal := !a.finalSent && cb != nil
	a.finalSent = true
	a.mu.Unlock()

	if sendFinal {
		a.deliver(func() { cb.OnFinal(u.Final, u.Confidence) })
	}
	a.wg.Wait()
	return nil
}

func (a *Adapter) deliver(fn func()) {
	if a.delay <= 0 {
		fn()
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		time.Sleep(a.delay)
		fn()
	}()
}
