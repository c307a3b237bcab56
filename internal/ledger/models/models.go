package models

import (
	"strings"
	"time"

	dErrors "credentia/pkg/domain-errors"
)

const (
	// BaseBlockNumber is the block number assigned to the first committed record.
	BaseBlockNumber int64 = 10245

	// PlaceholderIssuer is the single implicit issuer identity stamped on every record.
	PlaceholderIssuer = "0x123...abc"

	// DefaultInstitution is used when an issue request leaves the institution blank.
	DefaultInstitution = "Blockchain Institute of Technology"
)

// RecordID is the opaque primary key of a committed credential.
type RecordID string

// String returns the record ID as a string.
func (id RecordID) String() string {
	return string(id)
}

// ParseRecordID trims the candidate ID and rejects blank input. Any other value is
// accepted so that unknown IDs resolve to a not-found verification rather than a
// validation failure.
func ParseRecordID(value string) (RecordID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeValidation, "record_id is required")
	}
	return RecordID(trimmed), nil
}

// IssueFields are the issuer-supplied attributes of a new credential.
type IssueFields struct {
	StudentName  string
	StudentID    string
	StudentEmail string
	CourseName   string
	Institution  string
}

// Normalize trims every field and fills in the default institution.
func (f IssueFields) Normalize() IssueFields {
	out := IssueFields{
		StudentName:  strings.TrimSpace(f.StudentName),
		StudentID:    strings.TrimSpace(f.StudentID),
		StudentEmail: strings.TrimSpace(f.StudentEmail),
		CourseName:   strings.TrimSpace(f.CourseName),
		Institution:  strings.TrimSpace(f.Institution),
	}
	if out.Institution == "" {
		out.Institution = DefaultInstitution
	}
	return out
}

// MissingFields lists the required fields that are blank, in form order.
func (f IssueFields) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(f.StudentName) == "" {
		missing = append(missing, "student_name")
	}
	if strings.TrimSpace(f.StudentID) == "" {
		missing = append(missing, "student_id")
	}
	if strings.TrimSpace(f.StudentEmail) == "" {
		missing = append(missing, "student_email")
	}
	if strings.TrimSpace(f.CourseName) == "" {
		missing = append(missing, "course_name")
	}
	return missing
}

// CredentialRecord is one committed credential. Records are handed out by value;
// nothing outside the store holds a mutable reference.
type CredentialRecord struct {
	RecordID     RecordID  `json:"record_id"`
	StudentName  string    `json:"student_name"`
	StudentID    string    `json:"student_id"`
	StudentEmail string    `json:"student_email"`
	CourseName   string    `json:"course_name"`
	Institution  string    `json:"institution"`
	IssueDate    time.Time `json:"issue_date"`
	Issuer       string    `json:"issuer"`
	IsValid      bool      `json:"is_valid"`
	BlockNumber  int64     `json:"block_number"`
}

// IssueResult is what a committed issue transaction hands back to its caller.
type IssueResult struct {
	RecordID      RecordID `json:"record_id"`
	NotifiedEmail string   `json:"notified_email"`
	BlockNumber   int64    `json:"block_number"`
}

// SessionState is the read-only view a visualization collaborator polls:
// whether an issue is pending, the last committed result, and the record
// highlighted by the most recent successful verification.
type SessionState struct {
	Processing  bool         `json:"processing"`
	LastIssued  *IssueResult `json:"last_issued,omitempty"`
	Highlighted RecordID     `json:"highlighted,omitempty"`
}
