package models

import (
	"errors"
	"fmt"
	"strings"

	dErrors "credentia/pkg/domain-errors"
)

// Failure reasons surfaced to callers alongside the domain error code.
const (
	ReasonMissingField       = "MissingField"
	ReasonDuplicateStudentID = "DuplicateStudentId"
	ReasonIssueInProgress    = "IssueInProgress"
	ReasonNotFound           = "NotFound"
)

// Domain errors are matched by code, so each ledger failure owns a distinct code.
var (
	ErrMissingField       = dErrors.New(dErrors.CodeValidation, "required field missing")
	ErrDuplicateStudentID = dErrors.New(dErrors.CodeConflict, "student id already has a credential on the chain")
	ErrIssueInProgress    = dErrors.New(dErrors.CodeBusy, "an issue transaction is already pending")
	ErrCredentialNotFound = dErrors.New(dErrors.CodeNotFound, "credential id not found on the blockchain")
)

// MissingFieldError names the blank fields in its message.
func MissingFieldError(fields []string) error {
	if len(fields) == 0 {
		return ErrMissingField
	}
	return dErrors.New(dErrors.CodeValidation, "missing required fields: "+strings.Join(fields, ", "))
}

// DuplicateStudentIDError reports a business-key collision for studentID.
func DuplicateStudentIDError(studentID string) error {
	return dErrors.New(dErrors.CodeConflict,
		fmt.Sprintf("student id %q already has a credential on the chain", studentID))
}

// Reason maps an engine error to its caller-facing reason, or "" for errors the
// engine does not classify.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingField):
		return ReasonMissingField
	case errors.Is(err, ErrDuplicateStudentID):
		return ReasonDuplicateStudentID
	case errors.Is(err, ErrIssueInProgress):
		return ReasonIssueInProgress
	case errors.Is(err, ErrCredentialNotFound):
		return ReasonNotFound
	default:
		return ""
	}
}
