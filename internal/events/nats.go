package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"ambient-assistant/internal/observability/metrics"
)

// natsConn is the subset of *nats.Conn the forwarder uses.
type natsConn interface {
	PublishMsg(m *nats.Msg) error
	Drain() error
}

// NATSPublisher publishes answers and turns on core NATS subjects
// "<prefix>.answers.<key>" and "<prefix>.turns.<key>".
type NATSPublisher struct {
	conn      natsConn
	prefix    string
	principal string
	metrics   *metrics.Metrics
}

// NATSConfig holds NATS forwarder configuration.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	Principal     string
}

// NewNATS connects to the server with bounded reconnects.
func NewNATS(cfg NATSConfig) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Principal),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info().Str("url", cfg.URL).Str("prefix", cfg.SubjectPrefix).Msg("NATS publisher initialized")
	return newNATSPublisher(nc, cfg.SubjectPrefix, cfg.Principal), nil
}

func newNATSPublisher(conn natsConn, prefix, principal string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix, principal: principal, metrics: metrics.DefaultMetrics}
}

func (p *NATSPublisher) Name() string { return "nats" }

func (p *NATSPublisher) subject(kind, key string) string {
	if key == "" {
		return fmt.Sprintf("%s.%s", p.prefix, kind)
	}
	return fmt.Sprintf("%s.%s.%s", p.prefix, kind, subjectToken(key))
}

// subjectToken replaces characters NATS treats as separators or wildcards.
func subjectToken(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch c {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			b[i] = '_'
		}
	}
	return string(b)
}

func (p *NATSPublisher) PublishAnswer(ctx context.Context, key string, event any) error {
	return p.publish(ctx, "answers", "answer", key, event)
}

func (p *NATSPublisher) PublishTurn(ctx context.Context, key string, event any) error {
	return p.publish(ctx, "turns", "turn", key, event)
}

func (p *NATSPublisher) publish(ctx context.Context, kind, eventType, key string, event any) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := p.subject(kind, key)
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set("eventType", eventType)
	msg.Header.Set("principal", p.principal)

	err = p.conn.PublishMsg(msg)
	p.metrics.RecordForwardPublish(p.Name(), p.prefix+"."+kind, eventType, err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
