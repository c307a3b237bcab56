// Package notify delivers certificate copies to students once their credential
// has been committed.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"credentia/internal/ledger/models"
)

// Notifier delivers a certificate copy for a committed record.
type Notifier interface {
	SendCertificate(ctx context.Context, record models.CredentialRecord) error
}

// Message is the rendered certificate notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Render builds the notification for record.
func Render(record models.CredentialRecord) Message {
	return Message{
		To:      record.StudentEmail,
		Subject: fmt.Sprintf("Your %s certificate", record.CourseName),
		Body: fmt.Sprintf(
			"%s,\n\n%s has issued your %s credential.\nRecord ID: %s\nBlock: #%d\nIssued: %s\n",
			record.StudentName,
			record.Institution,
			record.CourseName,
			record.RecordID,
			record.BlockNumber,
			record.IssueDate.UTC().Format("2006-01-02"),
		),
	}
}

// LogNotifier writes notifications to the logger instead of delivering them.
// Use in development and whenever no mail transport is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier backed by logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SendCertificate logs the rendered message and returns nil.
func (n *LogNotifier) SendCertificate(ctx context.Context, record models.CredentialRecord) error {
	msg := Render(record)
	n.logger.InfoContext(ctx, "certificate copy (not delivered)",
		"to", msg.To,
		"subject", msg.Subject,
		"record_id", record.RecordID.String(),
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
