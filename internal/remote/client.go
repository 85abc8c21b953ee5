// Package remote is the HTTP client for the authoritative report API.
// It speaks the JSON CRUD contract and classifies failures into the
// typed errors the repository's fallback logic dispatches on.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
)

// defaultTimeout bounds every request so a hung server can never leave
// an operation's loading flag stuck.
const defaultTimeout = 10 * time.Second

// Client is a thin HTTP client for the report service. Report ids are
// treated as opaque strings throughout; nothing is assumed about their
// shape beyond uniqueness.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a report API client rooted at baseURL
// (e.g., http://localhost:8787). A non-positive timeout falls back to
// the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// List fetches the full report collection.
func (c *Client) List(ctx context.Context) ([]model.Report, error) {
	var reports []model.Report
	if err := c.do(ctx, http.MethodGet, "/reports", "", nil, &reports, http.StatusOK); err != nil {
		return nil, err
	}
	return reports, nil
}

// Get fetches a single report by id.
func (c *Client) Get(ctx context.Context, id string) (*model.Report, error) {
	var report model.Report
	path := "/reports/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, id, nil, &report, http.StatusOK); err != nil {
		return nil, err
	}
	return &report, nil
}

// Create submits a new report. On success the returned record carries
// the server-assigned id, createdAt, defaulted status, and the server's
// initial timeline entry.
func (c *Client) Create(ctx context.Context, report model.Report) (*model.Report, error) {
	var created model.Report
	if err := c.do(ctx, http.MethodPost, "/reports", "", report, &created, http.StatusCreated); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update applies a partial update. The server merges shallowly,
// appends its own timeline entry, and returns the merged record.
func (c *Client) Update(ctx context.Context, id string, upd model.ReportUpdate) (*model.Report, error) {
	var updated model.Report
	path := "/reports/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, path, id, upd, &updated, http.StatusOK); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a report from the remote store.
func (c *Client) Delete(ctx context.Context, id string) error {
	path := "/reports/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, id, nil, nil, http.StatusNoContent)
}

// Prediction is the AI endpoint's answer.
type Prediction struct {
	Title     string         `json:"title"`
	Category  model.Category `json:"category"`
	Priority  int            `json:"priority"`
	Reasoning string         `json:"reasoning,omitempty"`
}

// Predict asks the AI endpoint to classify a description.
func (c *Client) Predict(ctx context.Context, text string) (*Prediction, error) {
	body := map[string]string{"text": text}
	var pred Prediction
	if err := c.do(ctx, http.MethodPost, "/ai/predict", "", body, &pred, http.StatusOK); err != nil {
		return nil, err
	}
	return &pred, nil
}

// do builds the request, sends it, and maps the response onto the
// typed error taxonomy: 404 → NotFoundError, 400 → ValidationError,
// anything else unexpected → TransportError.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	id string,
	body interface{},
	result interface{},
	wantStatus int,
) error {
	op := method + " " + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	switch resp.StatusCode {
	case wantStatus:
		// fall through to decode
	case http.StatusNotFound:
		return &NotFoundError{ID: id}
	case http.StatusBadRequest:
		return &ValidationError{Message: strings.TrimSpace(string(respBody))}
	default:
		return &TransportError{
			Op:  op,
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return &ValidationError{Message: fmt.Sprintf("decoding %s response: %v", op, err)}
	}
	return nil
}
