package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"credentia/internal/eventlog"
	"credentia/internal/ledger/idgen"
	"credentia/internal/ledger/metrics"
	"credentia/internal/ledger/models"
	"credentia/internal/ledger/notify"
	"credentia/internal/ledger/store"
	"credentia/internal/platform/clock"
	"credentia/internal/platform/tracer"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/middleware/requesttime"
	"credentia/pkg/platform/sentinel"
	"credentia/pkg/requestcontext"
)

// Default simulated latencies.
const (
	DefaultIssueDelay  = 2000 * time.Millisecond
	DefaultVerifyDelay = 800 * time.Millisecond
)

// IDGenerator derives record IDs for new credentials.
type IDGenerator interface {
	Generate(studentName, studentID, courseName string, submittedAt time.Time) models.RecordID
}

// CredentialPublisher announces committed credentials to other systems.
type CredentialPublisher interface {
	PublishCredentialIssued(ctx context.Context, record models.CredentialRecord) error
}

// Option configures the ledger service.
type Option func(*Service)

// Service simulates ledger transactions: issue waits for a block to be mined,
// verify waits for a state query, and both narrate their progress in the event log.
//
// At most one issue transaction is pending at a time. Verifications may overlap
// with each other and with a pending issue.
type Service struct {
	store       store.Store
	events      *eventlog.Log
	ids         IDGenerator
	clock       clock.Clock
	issueDelay  time.Duration
	verifyDelay time.Duration
	notifier    notify.Notifier
	publisher   CredentialPublisher
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
	logger      *slog.Logger

	issuing atomic.Bool

	stateMu     sync.RWMutex
	lastIssued  *models.IssueResult
	highlighted models.RecordID
}

// New creates a ledger service over st that narrates into events.
func New(st store.Store, events *eventlog.Log, opts ...Option) *Service {
	svc := &Service{
		store:       st,
		events:      events,
		ids:         idgen.New(),
		clock:       clock.New(),
		issueDelay:  DefaultIssueDelay,
		verifyDelay: DefaultVerifyDelay,
		tracer:      tracer.NewNoop(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithLogger configures the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer configures span emission.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock replaces the clock driving timestamps and simulated latency.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIssueDelay overrides the simulated mining latency.
func WithIssueDelay(d time.Duration) Option {
	return func(s *Service) {
		s.issueDelay = d
	}
}

// WithVerifyDelay overrides the simulated query latency.
func WithVerifyDelay(d time.Duration) Option {
	return func(s *Service) {
		s.verifyDelay = d
	}
}

// WithNotifier sends certificate copies after each commit.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithPublisher announces each commit as a CredentialIssued event.
func WithPublisher(p CredentialPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithIDGenerator replaces the record ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Service) {
		if g != nil {
			s.ids = g
		}
	}
}

// IssueCredential validates fields, checks the student ID against the ledger,
// waits out the mining delay and commits the record.
//
// Once the transaction is pending it resolves regardless of ctx cancellation.
func (s *Service) IssueCredential(ctx context.Context, fields models.IssueFields) (_ *models.IssueResult, err error) {
	if missing := fields.MissingFields(); len(missing) > 0 {
		s.observeRejected(models.ReasonMissingField)
		return nil, models.MissingFieldError(missing)
	}
	fields = fields.Normalize()

	if !s.issuing.CompareAndSwap(false, true) {
		s.observeRejected(models.ReasonIssueInProgress)
		return nil, models.ErrIssueInProgress
	}
	defer s.issuing.Store(false)

	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssueCredential,
		tracer.String(tracer.AttrStudentIDHash, tracer.HashStudentID(fields.StudentID)),
		tracer.Duration(tracer.AttrSimulatedLatency, s.issueDelay),
	)
	defer func() { span.End(err) }()

	s.setLastIssued(nil)

	exists, err := s.store.ExistsByStudentID(ctx, fields.StudentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check student id")
	}
	if exists {
		return nil, s.rejectDuplicate(ctx, span, fields.StudentID)
	}

	started := s.clock.Now()
	submittedAt := s.submissionTime(ctx)
	s.setPending(true)
	defer s.setPending(false)
	s.events.Info(ctx, fmt.Sprintf(`Initiating transaction: issueCredential("%s", "%s")...`, fields.StudentName, fields.StudentID))

	<-s.clock.After(s.issueDelay)

	record := models.CredentialRecord{
		RecordID:     s.ids.Generate(fields.StudentName, fields.StudentID, fields.CourseName, submittedAt),
		StudentName:  fields.StudentName,
		StudentID:    fields.StudentID,
		StudentEmail: fields.StudentEmail,
		CourseName:   fields.CourseName,
		Institution:  fields.Institution,
		IssueDate:    s.clock.Now(),
		Issuer:       models.PlaceholderIssuer,
		IsValid:      true,
	}
	committed, err := s.store.Append(ctx, record)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, s.rejectDuplicate(ctx, span, fields.StudentID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append credential")
	}

	span.SetAttributes(
		tracer.String(tracer.AttrRecordID, committed.RecordID.String()),
		tracer.Int64(tracer.AttrBlockNumber, committed.BlockNumber),
	)
	span.AddEvent(tracer.EventTransactionMined)
	s.events.Success(ctx, fmt.Sprintf("Transaction Mined! Block #%d", committed.BlockNumber))
	s.events.Success(ctx, fmt.Sprintf("Event Emitted: CredentialIssued(recordId: %s)", committed.RecordID))
	s.publish(ctx, span, committed)
	s.events.Success(ctx, fmt.Sprintf("Certificate copy sent to %s", committed.StudentEmail))
	s.sendCertificate(ctx, committed)

	result := &models.IssueResult{
		RecordID:      committed.RecordID,
		NotifiedEmail: committed.StudentEmail,
		BlockNumber:   committed.BlockNumber,
	}
	s.setLastIssued(result)
	s.observeIssued(ctx, started)

	s.logger.InfoContext(ctx, "credential issued",
		"record_id", committed.RecordID.String(),
		"block_number", committed.BlockNumber,
		"request_id", requestcontext.RequestID(ctx),
	)
	copied := *result
	return &copied, nil
}

// VerifyCredential waits out the query delay and looks id up on the ledger.
// Each call appends exactly one entry, the outcome, to the event log. A blank
// id is rejected without touching it.
func (s *Service) VerifyCredential(ctx context.Context, id models.RecordID) (_ *models.CredentialRecord, err error) {
	id, err = models.ParseRecordID(id.String())
	if err != nil {
		return nil, models.MissingFieldError([]string{"record_id"})
	}

	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyCredential,
		tracer.String(tracer.AttrRecordID, id.String()),
		tracer.Duration(tracer.AttrSimulatedLatency, s.verifyDelay),
	)
	defer func() { span.End(err) }()

	started := s.clock.Now()
	s.setHighlighted("")

	<-s.clock.After(s.verifyDelay)

	record, err := s.store.FindByID(ctx, id)
	s.observeDuration(metrics.OperationVerify, started)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query ledger")
		}
		span.SetAttributes(tracer.Bool(tracer.AttrFound, false), tracer.String(tracer.AttrReason, models.ReasonNotFound))
		s.events.Error(ctx, "Query returned null. Invalid ID.")
		if s.metrics != nil {
			s.metrics.IncrementVerification(false)
		}
		return nil, models.ErrCredentialNotFound
	}

	span.SetAttributes(tracer.Bool(tracer.AttrFound, true))
	s.setHighlighted(record.RecordID)
	s.events.Success(ctx, "Record found and validated.")
	if s.metrics != nil {
		s.metrics.IncrementVerification(true)
	}
	return &record, nil
}

// EventLog returns a newest-first copy of the event log.
func (s *Service) EventLog() []eventlog.Entry {
	return s.events.Entries()
}

// ListRecords returns every committed record in block order.
func (s *Service) ListRecords(ctx context.Context) ([]models.CredentialRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return records, nil
}

// Size returns the number of committed records.
func (s *Service) Size(ctx context.Context) (int, error) {
	n, err := s.store.Len(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count credentials")
	}
	return n, nil
}

// State returns a snapshot of the session for visualization.
func (s *Service) State() models.SessionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	state := models.SessionState{
		Processing:  s.issuing.Load(),
		Highlighted: s.highlighted,
	}
	if s.lastIssued != nil {
		last := *s.lastIssued
		state.LastIssued = &last
	}
	return state
}

func (s *Service) rejectDuplicate(ctx context.Context, span tracer.Span, studentID string) error {
	span.SetAttributes(tracer.String(tracer.AttrReason, models.ReasonDuplicateStudentID))
	s.events.Error(ctx, fmt.Sprintf("Transaction Rejected: Duplicate Student ID %s", studentID))
	s.observeRejected(models.ReasonDuplicateStudentID)
	return models.DuplicateStudentIDError(studentID)
}

// submissionTime prefers the request arrival time so the ID reflects when the
// issuer submitted, not when the handler got scheduled.
func (s *Service) submissionTime(ctx context.Context) time.Time {
	if t, ok := requesttime.FromContext(ctx); ok {
		return t
	}
	return s.clock.Now()
}

func (s *Service) publish(ctx context.Context, span tracer.Span, record models.CredentialRecord) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCredentialIssued(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish credential issued event",
			"error", err,
			"record_id", record.RecordID.String(),
		)
		return
	}
	span.AddEvent(tracer.EventCredentialEmitted)
}

func (s *Service) sendCertificate(ctx context.Context, record models.CredentialRecord) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendCertificate(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to send certificate copy",
			"error", err,
			"record_id", record.RecordID.String(),
		)
	}
}

func (s *Service) setLastIssued(result *models.IssueResult) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.lastIssued = result
}

func (s *Service) setHighlighted(id models.RecordID) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.highlighted = id
}

func (s *Service) setPending(pending bool) {
	if s.metrics != nil {
		s.metrics.SetIssuePending(pending)
	}
}

func (s *Service) observeRejected(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementRejected(reason)
	}
}

func (s *Service) observeIssued(ctx context.Context, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementIssued()
	s.observeDuration(metrics.OperationIssue, started)
	if n, err := s.store.Len(ctx); err == nil {
		s.metrics.SetLedgerSize(n)
	}
}

func (s *Service) observeDuration(operation string, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveTransactionDuration(operation, s.clock.Now().Sub(started).Seconds())
	}
}
