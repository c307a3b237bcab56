package models_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"credentia/internal/ledger/models"
	dErrors "credentia/pkg/domain-errors"
)

type ModelsSuite struct {
	suite.Suite
}

func TestModelsSuite(t *testing.T) {
	suite.Run(t, new(ModelsSuite))
}

func (s *ModelsSuite) TestParseRecordID() {
	s.Run("rejects blank input", func() {
		for _, in := range []string{"", "   ", "\t\n"} {
			_, err := models.ParseRecordID(in)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})

	s.Run("accepts unknown shapes so lookups can report not found", func() {
		id, err := models.ParseRecordID("  0xnonexistent ")
		s.Require().NoError(err)
		s.Equal(models.RecordID("0xnonexistent"), id)
	})

	s.Run("accepts IDs without the hex prefix", func() {
		id, err := models.ParseRecordID("abc")
		s.Require().NoError(err)
		s.Equal(models.RecordID("abc"), id)
	})
}

func (s *ModelsSuite) TestIssueFieldsNormalize() {
	fields := models.IssueFields{
		StudentName:  "  Ann ",
		StudentID:    " S1",
		StudentEmail: "a@x.edu ",
		CourseName:   " CS ",
	}.Normalize()

	s.Equal("Ann", fields.StudentName)
	s.Equal("S1", fields.StudentID)
	s.Equal("a@x.edu", fields.StudentEmail)
	s.Equal("CS", fields.CourseName)
	s.Equal(models.DefaultInstitution, fields.Institution)

	custom := models.IssueFields{Institution: " MIT "}.Normalize()
	s.Equal("MIT", custom.Institution)
}

func (s *ModelsSuite) TestMissingFields() {
	cases := []struct {
		name   string
		fields models.IssueFields
		want   []string
	}{
		{"all present", models.IssueFields{StudentName: "Ann", StudentID: "S1", StudentEmail: "a@x.edu", CourseName: "CS"}, nil},
		{"all blank", models.IssueFields{}, []string{"student_name", "student_id", "student_email", "course_name"}},
		{"whitespace counts as blank", models.IssueFields{StudentName: "Ann", StudentID: " ", StudentEmail: "a@x.edu", CourseName: "CS"}, []string{"student_id"}},
		{"institution is optional", models.IssueFields{StudentName: "Ann", StudentID: "S1", StudentEmail: "a@x.edu", CourseName: "CS", Institution: ""}, nil},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, tc.fields.MissingFields())
		})
	}
}

func (s *ModelsSuite) TestReason() {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"missing field", models.MissingFieldError([]string{"student_id"}), models.ReasonMissingField},
		{"duplicate", models.DuplicateStudentIDError("S1"), models.ReasonDuplicateStudentID},
		{"in progress", models.ErrIssueInProgress, models.ReasonIssueInProgress},
		{"not found wrapped", fmt.Errorf("verify: %w", models.ErrCredentialNotFound), models.ReasonNotFound},
		{"unclassified", errors.New("boom"), ""},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, models.Reason(tc.err))
		})
	}
}

func (s *ModelsSuite) TestErrorMessages() {
	s.Contains(models.DuplicateStudentIDError("S1").Error(), `"S1"`)
	s.Equal("missing required fields: student_name, course_name",
		models.MissingFieldError([]string{"student_name", "course_name"}).Error())
	s.ErrorIs(models.MissingFieldError(nil), models.ErrMissingField)
}
