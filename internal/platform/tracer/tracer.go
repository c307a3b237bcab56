// Package tracer is a small tracing abstraction the ledger uses instead of
// calling OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: for tests and when tracing is disabled
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span. The returned context carries the span and
	// should be passed to child operations.
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashStudentID hashes a student ID so traces can be correlated without
// carrying the raw identifier.
func HashStudentID(studentID string) string {
	if studentID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(studentID))
	return hex.EncodeToString(sum[:8])
}

// Span names used by the ledger.
const (
	SpanIssueCredential  = "ledger.issue"
	SpanVerifyCredential = "ledger.verify"
)

// Attribute keys used by the ledger.
const (
	AttrStudentIDHash    = "student_id_hash"
	AttrRecordID         = "record_id"
	AttrBlockNumber      = "block_number"
	AttrSimulatedLatency = "simulated_latency_ms"
	AttrFound            = "found"
	AttrReason           = "reason"
)

// Event names used by the ledger.
const (
	EventTransactionMined  = "transaction.mined"
	EventCredentialEmitted = "credential.emitted"
)
