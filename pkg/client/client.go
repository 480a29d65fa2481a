// Package client is a Go client for the grievance REST API. It carries an
// explicit session (never ambient storage), tolerates both list response
// shapes (bare array or {results, count}), and never applies optimistic
// local mutations: after a server-side change it re-fetches the
// authoritative record.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/google/uuid"
)

// ErrSessionInvalid signals a 401/403 from the backend: the token is absent,
// expired, or insufficient. Session teardown is the caller's concern.
var ErrSessionInvalid = errors.New("session invalid")

// APIError is a non-2xx response with the server's error message, surfaced
// verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Session supplies the bearer token for each request.
type Session interface {
	Token() string
}

// StaticToken is the simplest Session: a fixed token string.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client talks to one grievance server.
type Client struct {
	baseURL *url.URL
	session Session
	http    *http.Client

	// gen guards against stale list responses overwriting newer ones:
	// each list fetch gets a generation; callers keep the highest seen.
	gen atomic.Uint64
}

// New creates a client. httpClient may be nil (http.DefaultClient is used;
// no retry policy is added — retries, if any, belong to the transport).
func New(baseURL string, session Session, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: u, session: session, http: httpClient}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := *c.baseURL
	u.Path, _ = url.JoinPath(u.Path, path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrSessionInvalid
	}
	if resp.StatusCode >= 400 {
		var errBody struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &errBody) != nil || errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListOptions narrows a grievance list request.
type ListOptions struct {
	Status string // tab key, e.g. "Pending"
	Sort   string // "urgency" for most-urgent-first
	Page   int    // 0 = unpaginated
}

// ListGrievances fetches the caller's grievance list. The server may answer
// with a bare array or a paginated {results, count} envelope; both decode
// transparently. The returned generation increases with every call — a
// caller racing concurrent fetches keeps the result with the highest
// generation and discards the rest.
func (c *Client) ListGrievances(ctx context.Context, opts ListOptions) ([]models.Grievance, uint64, error) {
	gen := c.gen.Add(1)

	query := url.Values{}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Sort != "" {
		query.Set("sort", opts.Sort)
	}
	if opts.Page > 0 {
		query.Set("page", fmt.Sprint(opts.Page))
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "grievances/", query, nil, &raw); err != nil {
		return nil, gen, err
	}

	records, err := decodeList(raw)
	if err != nil {
		return nil, gen, err
	}
	return records, gen, nil
}

// decodeList accepts either a bare array or a {results, count} envelope.
func decodeList(raw json.RawMessage) ([]models.Grievance, error) {
	var records []models.Grievance
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}
	var envelope struct {
		Results []models.Grievance `json:"results"`
		Count   int                `json:"count"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unrecognized list shape: %w", err)
	}
	return envelope.Results, nil
}

// GetGrievance fetches one record.
func (c *Client) GetGrievance(ctx context.Context, id uuid.UUID) (*models.Grievance, error) {
	var g models.Grievance
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("grievances/%s/", id), nil, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListEvents fetches a grievance's audit trail, newest first.
func (c *Client) ListEvents(ctx context.Context, id uuid.UUID) ([]models.GrievanceEvent, error) {
	var events []models.GrievanceEvent
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("grievances/%s/events/", id), nil, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Categories fetches the ordered category tree.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var tree []models.Category
	if err := c.do(ctx, http.MethodGet, "categories/", nil, nil, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// Patch applies a partial update and returns the updated record.
func (c *Client) Patch(ctx context.Context, id uuid.UUID, patch interface{}) (*models.Grievance, error) {
	var g models.Grievance
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("grievances/%s/", id), nil, patch, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Reopen moves a closed grievance back to Reopened.
func (c *Client) Reopen(ctx context.Context, id uuid.UUID, reason string) (*models.Grievance, error) {
	var g models.Grievance
	body := map[string]string{"reason": reason}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("grievances/%s/reopen/", id), nil, body, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// RequestExtension asks the server for an SLA extension. The extension
// amount and eligibility rule live server-side, so no local due-date change
// is applied: on success the authoritative record is re-fetched and
// returned. A rejection surfaces the server's message verbatim with no
// retry.
func (c *Client) RequestExtension(ctx context.Context, id uuid.UUID) (*models.Grievance, error) {
	path := fmt.Sprintf("admin-grievances/%s/grant_extension/", id)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, nil); err != nil {
		return nil, err
	}
	return c.GetGrievance(ctx, id)
}
