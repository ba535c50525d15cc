package events

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/logging"
)

// Sink is an external destination for answers and turns.
type Sink interface {
	Name() string
	PublishAnswer(ctx context.Context, key string, event any) error
	PublishTurn(ctx context.Context, key string, event any) error
	Close() error
}

// Forwarder copies answer.final and conversation.turn events to every sink.
// Forwarding is write-behind: failures are logged and never reach the bus.
type Forwarder struct {
	sinks   []Sink
	timeout time.Duration
	logger  zerolog.Logger
}

func NewForwarder(sinks ...Sink) *Forwarder {
	return &Forwarder{
		sinks:   sinks,
		timeout: 10 * time.Second,
		logger:  logging.WithComponent("forwarder"),
	}
}

// Attach subscribes until ctx is done.
func (f *Forwarder) Attach(ctx context.Context, sub bus.Subscriber) error {
	if len(f.sinks) == 0 {
		return nil
	}
	if err := bus.OnContext(ctx, sub, models.TopicAnswerFinal, f.answer); err != nil {
		return err
	}
	return bus.OnContext(ctx, sub, models.TopicConversationTurn, f.turn)
}

func (f *Forwarder) answer(ctx context.Context, a models.Answer) error {
	f.each(ctx, func(ctx context.Context, s Sink) error {
		return s.PublishAnswer(ctx, a.ThreadID, a)
	})
	return nil
}

func (f *Forwarder) turn(ctx context.Context, t models.ConversationTurn) error {
	f.each(ctx, func(ctx context.Context, s Sink) error {
		return s.PublishTurn(ctx, t.TurnID, t)
	})
	return nil
}

func (f *Forwarder) each(ctx context.Context, fn func(context.Context, Sink) error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	for _, s := range f.sinks {
		if err := fn(ctx, s); err != nil {
			f.logger.Warn().Err(err).Str("sink", s.Name()).Msg("Forward failed")
		}
	}
}

// Close closes every sink.
func (f *Forwarder) Close() error {
	var errs []error
	for _, s := range f.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
