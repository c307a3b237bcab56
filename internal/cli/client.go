package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"credentia/internal/ledger/handler"
	"credentia/internal/ledger/models"
	"credentia/pkg/platform/httputil"
)

// DefaultTimeout leaves room for the server's mining delay.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status      int
	Code        string
	Description string
	Reason      string
}

func (e *APIError) Error() string {
	msg := e.Code
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// Client calls the ledger HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Issue submits an issue transaction and waits for it to be mined.
func (c *Client) Issue(ctx context.Context, req handler.IssueRequest) (*handler.IssueResponse, error) {
	var resp handler.IssueResponse
	if err := c.do(ctx, http.MethodPost, "/credentials", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify looks a record up by ID.
func (c *Client) Verify(ctx context.Context, id string) (*models.CredentialRecord, error) {
	var record models.CredentialRecord
	if err := c.do(ctx, http.MethodGet, "/credentials/"+url.PathEscape(id), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns the ledger contents in block order.
func (c *Client) List(ctx context.Context) (*handler.ListResponse, error) {
	var resp handler.ListResponse
	if err := c.do(ctx, http.MethodGet, "/credentials", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events returns the event log newest first; limit 0 means all entries.
func (c *Client) Events(ctx context.Context, limit int) (*handler.EventsResponse, error) {
	path := "/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp handler.EventsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope httputil.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == "" {
			return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
		}
		return &APIError{
			Status:      resp.StatusCode,
			Code:        envelope.Error,
			Description: envelope.ErrorDescription,
			Reason:      envelope.Reason,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
