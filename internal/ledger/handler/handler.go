package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"credentia/internal/eventlog"
	"credentia/internal/ledger/models"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/httputil"
	"credentia/pkg/requestcontext"
	"credentia/pkg/validation"
)

// Service defines the ledger operations used by the handler.
type Service interface {
	IssueCredential(ctx context.Context, fields models.IssueFields) (*models.IssueResult, error)
	VerifyCredential(ctx context.Context, id models.RecordID) (*models.CredentialRecord, error)
	ListRecords(ctx context.Context) ([]models.CredentialRecord, error)
	EventLog() []eventlog.Entry
	State() models.SessionState
}

// Handler exposes the ledger over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ledger handler.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials", h.HandleIssue)
	r.Get("/credentials", h.HandleList)
	r.Get("/credentials/{recordID}", h.HandleVerify)
	r.Get("/events", h.HandleEvents)
	r.Get("/state", h.HandleState)
}

// IssueRequest is the request body for credential issuance. Blank required
// fields are left to the ledger so they surface as MissingField.
type IssueRequest struct {
	StudentName  string `json:"student_name" validate:"max=200"`
	StudentID    string `json:"student_id" validate:"max=64"`
	StudentEmail string `json:"student_email" validate:"omitempty,email,max=254"`
	CourseName   string `json:"course_name" validate:"max=200"`
	Institution  string `json:"institution" validate:"max=200"`
}

// Normalize trims surrounding whitespace so format checks see the real value.
func (r *IssueRequest) Normalize() {
	r.StudentName = strings.TrimSpace(r.StudentName)
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.StudentEmail = strings.TrimSpace(r.StudentEmail)
	r.CourseName = strings.TrimSpace(r.CourseName)
	r.Institution = strings.TrimSpace(r.Institution)
}

// Validate checks field lengths and the email format.
func (r *IssueRequest) Validate() error {
	return validation.Validate(r)
}

func (r *IssueRequest) fields() models.IssueFields {
	return models.IssueFields{
		StudentName:  r.StudentName,
		StudentID:    r.StudentID,
		StudentEmail: r.StudentEmail,
		CourseName:   r.CourseName,
		Institution:  r.Institution,
	}
}

// IssueResponse is the response body for a committed credential.
type IssueResponse struct {
	RecordID      string `json:"record_id"`
	BlockNumber   int64  `json:"block_number"`
	NotifiedEmail string `json:"notified_email"`
}

// ListResponse is the response body for the ledger listing.
type ListResponse struct {
	Size    int                       `json:"size"`
	Records []models.CredentialRecord `json:"records"`
}

// EventsResponse is the response body for the event log, newest first.
type EventsResponse struct {
	Entries []eventlog.Entry `json:"entries"`
}

// HandleIssue submits an issue transaction and blocks until it is mined.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueRequest](ctx, w, r, h.logger)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.service.IssueCredential(ctx, req.fields())
	if err != nil {
		h.writeLedgerError(ctx, w, err, "issue credential rejected", requestID)
		return
	}

	h.logger.InfoContext(ctx, "credential issued",
		"record_id", result.RecordID.String(),
		"block_number", result.BlockNumber,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusCreated, IssueResponse{
		RecordID:      result.RecordID.String(),
		BlockNumber:   result.BlockNumber,
		NotifiedEmail: result.NotifiedEmail,
	})
}

// HandleVerify looks a credential up by record ID.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	record, err := h.service.VerifyCredential(ctx, models.RecordID(chi.URLParam(r, "recordID")))
	if err != nil {
		h.writeLedgerError(ctx, w, err, "verify credential failed", requestID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleList returns every committed record in block order.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.service.ListRecords(ctx)
	if err != nil {
		h.writeLedgerError(ctx, w, err, "list credentials failed", requestcontext.RequestID(ctx))
		return
	}
	if records == nil {
		records = []models.CredentialRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Size: len(records), Records: records})
}

// HandleEvents returns the event log. An optional ?limit=n keeps the n newest.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	entries := h.service.EventLog()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		if limit < len(entries) {
			entries = entries[:limit]
		}
	}
	if entries == nil {
		entries = []eventlog.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, EventsResponse{Entries: entries})
}

// HandleState returns the session snapshot.
func (h *Handler) HandleState(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.State())
}

func (h *Handler) writeLedgerError(ctx context.Context, w http.ResponseWriter, err error, msg, requestID string) {
	reason := models.Reason(err)
	if reason == "" {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestID)
	} else {
		h.logger.InfoContext(ctx, msg, "reason", reason, "request_id", requestID)
	}
	httputil.WriteErrorWithReason(w, err, reason)
}
