// Package audit publishes moderation enforcement events to Kafka.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Event types recorded on the audit topic.
const (
	TypeWarning  = "warning"
	TypeRemoval  = "removal"
	TypeMute     = "mute"
	TypeUnmute   = "unmute"
	TypeSettings = "settings_change"
)

// Event is the JSON envelope written per enforcement action.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Chat      string    `json:"chat"`
	Actor     string    `json:"actor,omitempty"`
	Target    string    `json:"target,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Config holds audit trail settings.
type Config struct {
	Enabled bool   `json:"enabled" envconfig:"ENABLED"`
	Brokers string `json:"brokers" envconfig:"BROKERS"`
	Topic   string `json:"topic" envconfig:"TOPIC"`
}

// Publisher writes audit events to a Kafka topic, best-effort. A nil or
// disabled publisher is a no-op, so call sites never need to gate on it.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher. With auditing disabled or no brokers
// configured it returns a no-op publisher.
func NewPublisher(cfg Config) *Publisher {
	if !cfg.Enabled || strings.TrimSpace(cfg.Brokers) == "" {
		return &Publisher{}
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "groupwarden.audit"
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(cfg.Brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// Record publishes one event. Failures are logged and swallowed; the
// moderation flow never depends on the audit trail.
func (p *Publisher) Record(ctx context.Context, evt Event) {
	if p == nil || p.writer == nil {
		return
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	value, err := json.Marshal(evt)
	if err != nil {
		slog.Warn("Audit event encode failed", "type", evt.Type, "error", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(evt.Chat),
		Value: value,
		Time:  evt.Timestamp,
	})
	if err != nil {
		slog.Warn("Audit event publish failed", "type", evt.Type, "error", err)
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
