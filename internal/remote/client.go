// Package remote talks to a time-tracking REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/timesheet/internal/model"
)

// ErrNotFound matches an APIError with status 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote API error %d", e.Status)
	}
	return fmt.Sprintf("remote API error %d: %s", e.Status, e.Message)
}

// UserMessage returns the server's explanation, if it sent one.
func (e *APIError) UserMessage() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client is an HTTP client for the time API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient returns a Client for baseURL. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewAuthClient returns a Client whose requests carry tokens from ts.
func NewAuthClient(ctx context.Context, baseURL string, ts oauth2.TokenSource) *Client {
	return NewClient(baseURL, oauth2.NewClient(ctx, ts))
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding API response: %w", err)
	}
	return nil
}

// decodeError reads an {"error": ...} or {"message": ...} body.
func decodeError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	apiErr := &APIError{Status: status}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Error
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
	}
	return apiErr
}

// ListTimeEntries fetches the entries of userID dated from..to inclusive.
func (c *Client) ListTimeEntries(ctx context.Context, userID string, from, to model.DateKey) ([]model.TimeEntry, error) {
	q := url.Values{}
	if userID != "" {
		q.Set("user_id", userID)
	}
	q.Set("from", string(from))
	q.Set("to", string(to))

	var out []model.TimeEntry
	if err := c.do(ctx, http.MethodGet, "/time-entries", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTimeEntry creates an entry and returns it as stored by the server.
func (c *Client) CreateTimeEntry(ctx context.Context, ne model.NewEntry) (model.TimeEntry, error) {
	var out model.TimeEntry
	err := c.do(ctx, http.MethodPost, "/time-entries", nil, ne, &out)
	return out, err
}

// UpdateTimeEntry patches an entry and returns the server's copy.
func (c *Client) UpdateTimeEntry(ctx context.Context, id string, p model.EntryPatch) (model.TimeEntry, error) {
	var out model.TimeEntry
	err := c.do(ctx, http.MethodPatch, "/time-entries/"+url.PathEscape(id), nil, p, &out)
	return out, err
}

// DeleteTimeEntry deletes one entry.
func (c *Client) DeleteTimeEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/time-entries/"+url.PathEscape(id), nil, nil, nil)
}

// BulkDeleteTimeEntries deletes all ids in one request.
func (c *Client) BulkDeleteTimeEntries(ctx context.Context, ids []string) error {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	return c.do(ctx, http.MethodPost, "/time-entries/bulk-delete", nil, body, nil)
}

// ListProjectsForClient fetches the projects of a client.
func (c *Client) ListProjectsForClient(ctx context.Context, clientID string) ([]model.Project, error) {
	var out []model.Project
	if err := c.do(ctx, http.MethodGet, "/clients/"+url.PathEscape(clientID)+"/projects", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTasksForProject fetches the tasks of a client's project.
func (c *Client) ListTasksForProject(ctx context.Context, clientID, projectID string) ([]model.Task, error) {
	path := "/clients/" + url.PathEscape(clientID) + "/projects/" + url.PathEscape(projectID) + "/tasks"
	var out []model.Task
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
