package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/ogulcanaydogan/govcore/pkg/audit"
)

// KafkaConfig configures the Kafka audit sink.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	ClientID     string
	BatchTimeout time.Duration
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes audit record events to a Kafka topic.
type Kafka struct {
	writer kafkaWriter
	topic  string
}

// NewKafka creates a Kafka audit sink.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	brokers := normalizeBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka sink requires at least one broker")
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return nil, fmt.Errorf("kafka sink requires a topic")
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: false,
		Async:                  false,
		BatchTimeout:           batchTimeout,
	}
	if cfg.ClientID != "" {
		writer.Transport = &kafka.Transport{
			ClientID: cfg.ClientID,
		}
	}

	return &Kafka{
		writer: writer,
		topic:  topic,
	}, nil
}

func normalizeBrokers(brokers []string) []string {
	out := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		broker = strings.TrimSpace(broker)
		if broker == "" {
			continue
		}
		out = append(out, broker)
	}
	return out
}

// Publish writes a single audit record event to Kafka. Messages are keyed by
// request ID so all records of a request land in one partition, preserving
// their relative order.
func (k *Kafka) Publish(ctx context.Context, rec audit.Record) error {
	event := NewEvent(rec)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(rec.RequestID),
		Value: payload,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("audit_record_appended")},
			{Key: "event_version", Value: []byte(event.EventVersion)},
			{Key: "request_id", Value: []byte(rec.RequestID)},
			{Key: "action", Value: []byte(rec.Action)},
			{Key: "record_hash", Value: []byte(rec.RecordHash)},
		},
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing audit event to topic %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
