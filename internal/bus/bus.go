// Package bus is the in-process publish/subscribe backbone between pipeline
// components and the presentation layer.
//
// Delivery is ordered per topic: each topic has one pump goroutine that hands
// messages to watermill's gochannel one at a time and waits for every
// subscriber to acknowledge before sending the next. Publish only enqueues.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"ambient-assistant/internal/observability/logging"
	"ambient-assistant/internal/observability/metrics"
)

// ErrClosed is returned when publishing to or subscribing on a closed bus.
var ErrClosed = errors.New("bus closed")

// Handler processes one delivered message. Returned errors are logged; the
// message is acknowledged either way.
type Handler func(ctx context.Context, msg *message.Message) error

// Publisher is the publishing half of the bus.
type Publisher interface {
	Publish(topic string, payload any) error
}

// Subscriber is the subscribing half of the bus.
type Subscriber interface {
	Subscribe(topic string, handler Handler) error
	SubscribeContext(ctx context.Context, topic string, handler Handler) error
}

// Bus is an ordered, asynchronous in-memory event bus.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	topics map[string]*topicQueue
	closed bool
}

type topicQueue struct {
	mu     sync.Mutex
	items  []*message.Message
	notify chan struct{}
}

func (q *topicQueue) push(msg *message.Message) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *topicQueue) pop() (*message.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	msg := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return msg, true
}

// New creates a running bus.
func New() *Bus {
	logger := logging.WithComponent("bus")
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		}, NewLoggerAdapter(logger)),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		topics: make(map[string]*topicQueue),
	}
}

// Publish encodes payload as JSON and enqueues it on topic. It never waits
// for subscribers.
func (b *Bus) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)

	q, err := b.queue(topic)
	if err != nil {
		return err
	}
	q.push(msg)
	metrics.DefaultMetrics.RecordBusPublish(topic)
	return nil
}

// Subscribe registers handler on topic for the lifetime of the bus.
func (b *Bus) Subscribe(topic string, handler Handler) error {
	return b.SubscribeContext(b.ctx, topic, handler)
}

// SubscribeContext registers handler on topic until ctx is done.
func (b *Bus) SubscribeContext(ctx context.Context, topic string, handler Handler) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	msgs, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range msgs {
			if err := handler(msg.Context(), msg); err != nil {
				b.logger.Warn().
					Err(err).
					Str("topic", topic).
					Str("messageId", msg.UUID).
					Msg("Handler failed")
			}
			msg.Ack()
		}
	}()
	return nil
}

// Close stops all pumps and subscriptions. Messages still queued are dropped.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	err := b.pubsub.Close()
	b.wg.Wait()
	return err
}

func (b *Bus) queue(topic string) (*topicQueue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	q, ok := b.topics[topic]
	if ok {
		return q, nil
	}
	q = &topicQueue{notify: make(chan struct{}, 1)}
	b.topics[topic] = q

	b.wg.Add(1)
	go b.pump(topic, q)
	return q, nil
}

func (b *Bus) pump(topic string, q *topicQueue) {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case <-q.notify:
		}
		for {
			msg, ok := q.pop()
			if !ok {
				break
			}
			if err := b.pubsub.Publish(topic, msg); err != nil {
				b.logger.Error().Err(err).Str("topic", topic).Msg("Failed to deliver message")
				if b.ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// Decode unmarshals a delivered message's JSON payload.
func Decode[T any](msg *message.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", msg.Metadata.Get("topic"), err)
	}
	return v, nil
}

// On subscribes a typed handler. Payloads that fail to decode are logged and
// skipped.
func On[T any](s Subscriber, topic string, fn func(ctx context.Context, v T) error) error {
	return s.Subscribe(topic, func(ctx context.Context, msg *message.Message) error {
		v, err := Decode[T](msg)
		if err != nil {
			return err
		}
		return fn(ctx, v)
	})
}

// OnContext is On bound to ctx.
func OnContext[T any](ctx context.Context, s Subscriber, topic string, fn func(ctx context.Context, v T) error) error {
	return s.SubscribeContext(ctx, topic, func(ctx context.Context, msg *message.Message) error {
		v, err := Decode[T](msg)
		if err != nil {
			return err
		}
		return fn(ctx, v)
	})
}
