package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite covers the error primitives every ledger layer relies on:
// code-based matching, code preservation on wrap, and code extraction.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorString() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "credential not found"}
		s.Equal("credential not found", err.Error())
	})

	s.Run("falls back to code", func() {
		err := &Error{Code: CodeBusy}
		s.Equal("busy", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	s.Run("same code different message", func() {
		a := New(CodeConflict, "student id S1 already issued")
		b := New(CodeConflict, "student id S2 already issued")
		s.ErrorIs(a, b)
	})

	s.Run("different codes do not match", func() {
		s.NotErrorIs(New(CodeConflict, "dup"), New(CodeBusy, "busy"))
	})

	s.Run("plain errors never match", func() {
		s.NotErrorIs(New(CodeNotFound, "not found"), errors.New("not found"))
	})

	s.Run("matches through fmt wrapping", func() {
		inner := New(CodeNotFound, "credential not found")
		wrapped := fmt.Errorf("verify: %w", inner)
		s.ErrorIs(wrapped, &Error{Code: CodeNotFound})
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("preserves original domain code", func() {
		original := New(CodeConflict, "duplicate student id")
		wrapped := Wrap(original, CodeInternal, "commit failed")

		var domainErr *Error
		s.Require().ErrorAs(wrapped, &domainErr)
		s.Equal(CodeConflict, domainErr.Code)
		s.Equal("commit failed", domainErr.Message)
	})

	s.Run("uses provided code for plain errors", func() {
		root := errors.New("store unavailable")
		wrapped := Wrap(root, CodeInternal, "append failed")

		s.True(HasCode(wrapped, CodeInternal))
		s.ErrorIs(wrapped, root)
	})
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Equal(CodeValidation, CodeOf(New(CodeValidation, "student_id is required")))
	s.Equal(CodeNotFound, CodeOf(fmt.Errorf("lookup: %w", New(CodeNotFound, "missing"))))
	s.Equal(CodeInternal, CodeOf(errors.New("boom")))
	s.Equal(CodeInternal, CodeOf(nil))
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.True(HasCode(New(CodeBusy, "in flight"), CodeBusy))
	s.False(HasCode(New(CodeBusy, "in flight"), CodeConflict))
	s.False(HasCode(errors.New("plain"), CodeBusy))
	s.False(HasCode(nil, CodeBusy))
}
