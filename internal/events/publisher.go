// Package events forwards answers and conversation turns from the in-process
// bus to external brokers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ambient-assistant/internal/observability/metrics"
)

// Publisher publishes answers and turns to separate Kafka topics.
type Publisher struct {
	writerAnswers *kafka.Writer
	writerTurns   *kafka.Writer
	principal     string
	topicAnswers  string
	topicTurns    string
	enabled       bool
	metrics       *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers      []string
	TopicAnswers string
	TopicTurns   string
	Principal    string
	Enabled      bool
}

// New creates a Kafka publisher. A nil or disabled config yields a
// log-only publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:    cfg.Principal,
			topicAnswers: cfg.TopicAnswers,
			topicTurns:   cfg.TopicTurns,
			metrics:      m,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}
	writer := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicAnswers", cfg.TopicAnswers).
		Str("topicTurns", cfg.TopicTurns).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerAnswers: writer(cfg.TopicAnswers),
		writerTurns:   writer(cfg.TopicTurns),
		principal:     cfg.Principal,
		topicAnswers:  cfg.TopicAnswers,
		topicTurns:    cfg.TopicTurns,
		enabled:       true,
		metrics:       m,
	}
}

func (p *Publisher) Name() string { return "kafka" }

// PublishAnswer publishes a final answer keyed by thread, so one thread's
// answers stay ordered within a partition.
func (p *Publisher) PublishAnswer(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerAnswers, p.topicAnswers, "answer", key, event)
}

// PublishTurn publishes a conversation turn keyed by turn ID.
func (p *Publisher) PublishTurn(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerTurns, p.topicTurns, "turn", key, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		Int("bytes", len(payload)).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordForwardPublish(p.Name(), topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordForwardPublish(p.Name(), topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordForwardPublish(p.Name(), topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var errs []error
	if p.writerAnswers != nil {
		if err := p.writerAnswers.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing answers writer")
			errs = append(errs, err)
		}
	}
	if p.writerTurns != nil {
		if err := p.writerTurns.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing turns writer")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
