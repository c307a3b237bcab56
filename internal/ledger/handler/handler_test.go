package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"credentia/internal/eventlog"
	"credentia/internal/ledger/handler/mocks"
	"credentia/internal/ledger/models"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/httputil"
)

type HandlerSuite struct {
	suite.Suite
	router      http.Handler
	ctrl        *gomock.Controller
	mockService *mocks.MockService
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := New(s.mockService, logger)

	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) serve(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) errorBody(rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	var resp httputil.ErrorResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *HandlerSuite) TestIssue() {
	s.Run("committed credential returns 201", func() {
		s.mockService.EXPECT().
			IssueCredential(gomock.Any(), models.IssueFields{
				StudentName:  "Alice",
				StudentID:    "S1",
				StudentEmail: "a@x.io",
				CourseName:   "CS101",
			}).
			Return(&models.IssueResult{RecordID: "0xabc", BlockNumber: 10245, NotifiedEmail: "a@x.io"}, nil)

		rec := s.serve(http.MethodPost, "/credentials",
			[]byte(`{"student_name":" Alice ","student_id":"S1","student_email":"a@x.io","course_name":"CS101"}`))

		assert.Equal(s.T(), http.StatusCreated, rec.Code)
		var resp IssueResponse
		require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(s.T(), IssueResponse{RecordID: "0xabc", BlockNumber: 10245, NotifiedEmail: "a@x.io"}, resp)
	})

	s.Run("duplicate student id returns 409 with reason", func() {
		s.mockService.EXPECT().IssueCredential(gomock.Any(), gomock.Any()).
			Return(nil, models.DuplicateStudentIDError("S1"))

		rec := s.serve(http.MethodPost, "/credentials",
			[]byte(`{"student_name":"Bob","student_id":"S1","student_email":"b@x.io","course_name":"CS"}`))

		assert.Equal(s.T(), http.StatusConflict, rec.Code)
		resp := s.errorBody(rec)
		assert.Equal(s.T(), "conflict", resp.Error)
		assert.Equal(s.T(), models.ReasonDuplicateStudentID, resp.Reason)
	})

	s.Run("missing field returns 400 with reason", func() {
		s.mockService.EXPECT().IssueCredential(gomock.Any(), gomock.Any()).
			Return(nil, models.MissingFieldError([]string{"student_name"}))

		rec := s.serve(http.MethodPost, "/credentials", []byte(`{"student_id":"S1"}`))

		assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
		resp := s.errorBody(rec)
		assert.Equal(s.T(), "validation_error", resp.Error)
		assert.Equal(s.T(), models.ReasonMissingField, resp.Reason)
		assert.Equal(s.T(), "missing required fields: student_name", resp.ErrorDescription)
	})

	s.Run("pending transaction returns 409 IssueInProgress", func() {
		s.mockService.EXPECT().IssueCredential(gomock.Any(), gomock.Any()).
			Return(nil, models.ErrIssueInProgress)

		rec := s.serve(http.MethodPost, "/credentials",
			[]byte(`{"student_name":"A","student_id":"S9","student_email":"a@x.io","course_name":"C"}`))

		assert.Equal(s.T(), http.StatusConflict, rec.Code)
		resp := s.errorBody(rec)
		assert.Equal(s.T(), "transaction_pending", resp.Error)
		assert.Equal(s.T(), models.ReasonIssueInProgress, resp.Reason)
	})

	s.Run("malformed email is rejected before the ledger", func() {
		rec := s.serve(http.MethodPost, "/credentials",
			[]byte(`{"student_name":"A","student_id":"S1","student_email":"not-an-email","course_name":"C"}`))

		assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
		resp := s.errorBody(rec)
		assert.Equal(s.T(), "student_email must be a valid email", resp.ErrorDescription)
		assert.Empty(s.T(), resp.Reason)
	})

	s.Run("invalid JSON", func() {
		rec := s.serve(http.MethodPost, "/credentials", []byte("not valid json"))
		assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
		assert.Equal(s.T(), "bad_request", s.errorBody(rec).Error)
	})

	s.Run("internal error hides details", func() {
		s.mockService.EXPECT().IssueCredential(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("boom"), dErrors.CodeInternal, "failed to append credential"))

		rec := s.serve(http.MethodPost, "/credentials",
			[]byte(`{"student_name":"A","student_id":"S2","student_email":"a@x.io","course_name":"C"}`))

		assert.Equal(s.T(), http.StatusInternalServerError, rec.Code)
		resp := s.errorBody(rec)
		assert.Equal(s.T(), "internal_error", resp.Error)
		assert.Empty(s.T(), resp.ErrorDescription)
	})
}

func (s *HandlerSuite) TestVerify() {
	s.Run("found", func() {
		record := &models.CredentialRecord{
			RecordID:    "0xabc",
			StudentName: "Alice",
			StudentID:   "S1",
			IssueDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Issuer:      models.PlaceholderIssuer,
			IsValid:     true,
			BlockNumber: 10245,
		}
		s.mockService.EXPECT().VerifyCredential(gomock.Any(), models.RecordID("0xabc")).Return(record, nil)

		rec := s.serve(http.MethodGet, "/credentials/0xabc", nil)

		assert.Equal(s.T(), http.StatusOK, rec.Code)
		var got models.CredentialRecord
		require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(s.T(), *record, got)
	})

	s.Run("not found", func() {
		s.mockService.EXPECT().VerifyCredential(gomock.Any(), models.RecordID("0xnope")).
			Return(nil, models.ErrCredentialNotFound)

		rec := s.serve(http.MethodGet, "/credentials/0xnope", nil)

		assert.Equal(s.T(), http.StatusNotFound, rec.Code)
		resp := s.errorBody(rec)
		assert.Equal(s.T(), "not_found", resp.Error)
		assert.Equal(s.T(), models.ReasonNotFound, resp.Reason)
	})
}

func (s *HandlerSuite) TestList() {
	s.Run("empty ledger encodes an empty array", func() {
		s.mockService.EXPECT().ListRecords(gomock.Any()).Return(nil, nil)

		rec := s.serve(http.MethodGet, "/credentials", nil)

		assert.Equal(s.T(), http.StatusOK, rec.Code)
		assert.JSONEq(s.T(), `{"size":0,"records":[]}`, rec.Body.String())
	})

	s.Run("records in block order", func() {
		s.mockService.EXPECT().ListRecords(gomock.Any()).Return([]models.CredentialRecord{
			{RecordID: "0x1", BlockNumber: 10245},
			{RecordID: "0x2", BlockNumber: 10246},
		}, nil)

		rec := s.serve(http.MethodGet, "/credentials", nil)

		var resp ListResponse
		require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(s.T(), 2, resp.Size)
		assert.Equal(s.T(), models.RecordID("0x2"), resp.Records[1].RecordID)
	})
}

func (s *HandlerSuite) TestEvents() {
	entries := []eventlog.Entry{
		{Message: "Record found and validated.", Severity: eventlog.SeveritySuccess, Display: "10:00:01"},
		{Message: "Transaction Mined! Block #10245", Severity: eventlog.SeverityInfo, Display: "10:00:00"},
	}

	s.Run("returns newest first", func() {
		s.mockService.EXPECT().EventLog().Return(entries)

		rec := s.serve(http.MethodGet, "/events", nil)

		var resp EventsResponse
		require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(s.T(), resp.Entries, 2)
		assert.Equal(s.T(), "Record found and validated.", resp.Entries[0].Message)
	})

	s.Run("limit keeps the newest entries", func() {
		s.mockService.EXPECT().EventLog().Return(entries)

		rec := s.serve(http.MethodGet, "/events?limit=1", nil)

		var resp EventsResponse
		require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(s.T(), resp.Entries, 1)
		assert.Equal(s.T(), eventlog.SeveritySuccess, resp.Entries[0].Severity)
	})

	s.Run("invalid limit", func() {
		s.mockService.EXPECT().EventLog().Return(entries)

		rec := s.serve(http.MethodGet, "/events?limit=-1", nil)
		assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	})

	s.Run("empty log encodes an empty array", func() {
		s.mockService.EXPECT().EventLog().Return(nil)

		rec := s.serve(http.MethodGet, "/events", nil)
		assert.JSONEq(s.T(), `{"entries":[]}`, rec.Body.String())
	})
}

func (s *HandlerSuite) TestState() {
	s.mockService.EXPECT().State().Return(models.SessionState{
		Processing:  true,
		LastIssued:  &models.IssueResult{RecordID: "0xabc", BlockNumber: 10245, NotifiedEmail: "a@x.io"},
		Highlighted: "0xabc",
	})

	rec := s.serve(http.MethodGet, "/state", nil)

	assert.Equal(s.T(), http.StatusOK, rec.Code)
	assert.JSONEq(s.T(),
		`{"processing":true,"last_issued":{"record_id":"0xabc","notified_email":"a@x.io","block_number":10245},"highlighted":"0xabc"}`,
		rec.Body.String())
}
