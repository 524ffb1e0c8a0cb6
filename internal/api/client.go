// Package api is the HTTP collaborator for the notifications backend. It
// performs authenticated JSON requests and classifies every failure as a
// NetworkError, ServerError (AuthError for 401) or ValidationError.
package api

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

	"github.com/nhle/notification-center/internal/classify"
	"github.com/nhle/notification-center/internal/model"
)

// Client is a thin HTTP client for the notifications REST collection.
// It never retries; callers decide whether to re-invoke a failed operation.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a client rooted at baseURL (the prefix in front of
// /notifications). The token is sent as a Bearer credential when non-empty.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListNotifications performs GET /notifications with the filter encoded as
// query parameters. Categories and priorities are canonicalized on receipt.
func (c *Client) ListNotifications(
	ctx context.Context,
	filter model.Filter,
) ([]model.Notification, error) {
	path := "/notifications"
	if q := filterQuery(filter).Encode(); q != "" {
		path += "?" + q
	}

	var list []model.Notification
	if err := c.do(ctx, "list notifications", http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	for i := range list {
		classify.Canonicalize(&list[i])
	}
	return list, nil
}

// MarkRead performs PATCH /notifications/{id}/read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.do(ctx, "mark read", http.MethodPatch, itemPath(id, "read"), nil, nil)
}

// MarkUnread performs PATCH /notifications/{id}/unread.
func (c *Client) MarkUnread(ctx context.Context, id string) error {
	return c.do(ctx, "mark unread", http.MethodPatch, itemPath(id, "unread"), nil, nil)
}

// Archive performs PATCH /notifications/{id}/archive.
func (c *Client) Archive(ctx context.Context, id string) error {
	return c.do(ctx, "archive", http.MethodPatch, itemPath(id, "archive"), nil, nil)
}

// MarkAllRead performs POST /notifications/mark-all-read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, "mark all read", http.MethodPost, "/notifications/mark-all-read", nil, nil)
}

// Delete performs DELETE /notifications/{id}.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, itemPath(id, ""), nil, nil)
}

// UnreadCount performs GET /notifications/unread-count.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp UnreadCountResponse
	if err := c.do(ctx, "unread count", http.MethodGet, "/notifications/unread-count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// GetPreferences performs GET /notification-preferences.
func (c *Client) GetPreferences(ctx context.Context) (model.Preferences, error) {
	var prefs model.Preferences
	if err := c.do(ctx, "get preferences", http.MethodGet, "/notification-preferences", nil, &prefs); err != nil {
		return model.Preferences{}, err
	}
	prefs.Categories = classify.CanonicalCategories(prefs.Categories)
	return prefs, nil
}

// UpdatePreferences validates prefs locally and performs
// PUT /notification-preferences. A 400 or 422 answer becomes a ValidationError.
func (c *Client) UpdatePreferences(ctx context.Context, prefs model.Preferences) error {
	if err := ValidatePreferences(prefs); err != nil {
		return err
	}
	return c.do(ctx, "update preferences", http.MethodPut, "/notification-preferences", prefs, nil)
}

// do builds the request, attaches auth, and maps the outcome onto the error
// taxonomy. A nil result skips decoding.
func (c *Client) do(
	ctx context.Context,
	op string,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
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

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("reading response body: %w", readErr)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(op, method, path, resp.StatusCode, respBody)
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &ServerError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unmarshaling response from %s %s: %v", method, path, err),
		}
	}

	return nil
}

// classifyStatus turns a non-2xx response into a typed error.
func classifyStatus(op, method, path string, status int, body []byte) error {
	var errResp ErrorResponse
	decoded := json.Unmarshal(body, &errResp) == nil

	if method == http.MethodPut &&
		(status == http.StatusBadRequest || status == http.StatusUnprocessableEntity) {
		fields := errResp.Fields
		if len(fields) == 0 {
			msg := errResp.Error
			if msg == "" {
				msg = strings.TrimSpace(string(body))
			}
			fields = map[string]string{"preferences": msg}
		}
		return &ValidationError{Fields: fields}
	}

	msg := strings.TrimSpace(string(body))
	if decoded && errResp.Error != "" {
		msg = errResp.Error
		if errResp.Detail != "" {
			msg += ": " + errResp.Detail
		}
	}

	srv := ServerError{Op: op, StatusCode: status, Message: msg}
	if status == http.StatusUnauthorized {
		return &AuthError{ServerError: srv}
	}
	return &srv
}

// filterQuery encodes a filter as GET /notifications query parameters.
func filterQuery(f model.Filter) url.Values {
	q := url.Values{}
	if f.Category != nil {
		q.Set("category", string(*f.Category))
	}
	if f.Priority != nil {
		q.Set("priority", string(*f.Priority))
	}
	if f.IsRead != nil {
		q.Set("is_read", strconv.FormatBool(*f.IsRead))
	}
	if f.IsArchived != nil {
		q.Set("is_archived", strconv.FormatBool(*f.IsArchived))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

func itemPath(id, action string) string {
	p := "/notifications/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}
