// Package publisher emits ledger events to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"credentia/internal/eventlog"
	"credentia/internal/ledger/models"
	"credentia/internal/platform/kafka/producer"
)

// EventTypeCredentialIssued is the event_type header of issued-credential events.
const EventTypeCredentialIssued = "CredentialIssued"

// EventTypeLogEntry is the event_type header of archived event log entries.
const EventTypeLogEntry = "LogEntry"

// Producer is the subset of the Kafka producer the publishers need.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
	ProduceAsync(msg *producer.Message) error
}

// CredentialIssued is the payload published when a record is committed.
// The student's name and email stay off the wire.
type CredentialIssued struct {
	RecordID    models.RecordID `json:"record_id"`
	BlockNumber int64           `json:"block_number"`
	CourseName  string          `json:"course_name"`
	Institution string          `json:"institution"`
	Issuer      string          `json:"issuer"`
	IssuedAt    time.Time       `json:"issued_at"`
}

// NewCredentialIssued builds the event for record.
func NewCredentialIssued(record models.CredentialRecord) CredentialIssued {
	return CredentialIssued{
		RecordID:    record.RecordID,
		BlockNumber: record.BlockNumber,
		CourseName:  record.CourseName,
		Institution: record.Institution,
		Issuer:      record.Issuer,
		IssuedAt:    record.IssueDate,
	}
}

// CredentialPublisher publishes CredentialIssued events keyed by record ID.
type CredentialPublisher struct {
	producer Producer
	topic    string
}

// NewCredentialPublisher creates a publisher writing to topic.
func NewCredentialPublisher(p Producer, topic string) *CredentialPublisher {
	return &CredentialPublisher{producer: p, topic: topic}
}

// PublishCredentialIssued publishes synchronously and waits for the broker ack.
func (p *CredentialPublisher) PublishCredentialIssued(ctx context.Context, record models.CredentialRecord) error {
	payload, err := json.Marshal(NewCredentialIssued(record))
	if err != nil {
		return fmt.Errorf("marshal credential issued event: %w", err)
	}
	return p.producer.Produce(ctx, &producer.Message{
		Topic:   p.topic,
		Key:     []byte(record.RecordID),
		Value:   payload,
		Headers: map[string]string{"event_type": EventTypeCredentialIssued},
	})
}

// LogArchiver forwards event log entries to a topic without waiting for delivery.
type LogArchiver struct {
	producer Producer
	topic    string
}

// NewLogArchiver creates an archiver writing to topic.
func NewLogArchiver(p Producer, topic string) *LogArchiver {
	return &LogArchiver{producer: p, topic: topic}
}

// Archive buffers entry for asynchronous delivery.
func (a *LogArchiver) Archive(_ context.Context, entry eventlog.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	return a.producer.ProduceAsync(&producer.Message{
		Topic: a.topic,
		Key:   []byte(entry.Severity),
		Value: payload,
		Headers: map[string]string{
			"event_type": EventTypeLogEntry,
			"severity":   string(entry.Severity),
		},
	})
}

var _ eventlog.Archiver = (*LogArchiver)(nil)
