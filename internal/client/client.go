// Package client is the HTTP client for the AgentNote REST API.
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
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/starford/agentnote/internal/apperr"
	"github.com/starford/agentnote/internal/models"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultAttempts   = 3
	defaultRetryDelay = 200 * time.Millisecond
)

// APIError is a failure reported by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// Is maps HTTP statuses onto the shared sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case apperr.ErrNotFound:
		return e.Status == http.StatusNotFound
	case apperr.ErrInvalidInput:
		return e.Status == http.StatusBadRequest
	case apperr.ErrAlreadyExists:
		return e.Status == http.StatusConflict
	}
	return false
}

// Client talks to one AgentNote server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetry sets how many times a read request is attempted and the delay between
// attempts. Mutating requests are never retried.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay >= 0 {
			c.delay = delay
		}
	}
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		attempts:   defaultAttempts,
		delay:      defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchDoc returns the envelope of GET /api/docs/{id}. A missing document is a
// success=false envelope, not an error.
func (c *Client) FetchDoc(ctx context.Context, id int64) (*models.Envelope[models.Doc], error) {
	var env models.Envelope[models.Doc]
	if _, err := c.get(ctx, "/api/docs/"+strconv.FormatInt(id, 10), nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// GetDoc returns one document.
func (c *Client) GetDoc(ctx context.Context, id int64) (*models.Doc, error) {
	env, err := c.FetchDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, &APIError{Status: http.StatusNotFound, Message: env.Error}
	}
	return &env.Data, nil
}

// ListDocs returns documents matching f, newest first.
func (c *Client) ListDocs(ctx context.Context, f models.DocFilter) ([]models.Doc, error) {
	q := url.Values{}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Tag != "" {
		q.Set("tag", f.Tag)
	}
	if f.Keyword != "" {
		q.Set("keyword", f.Keyword)
	}
	return getData[[]models.Doc](ctx, c, "/api/docs", q)
}

// Categories returns document categories with counts.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	return getData[[]models.Category](ctx, c, "/api/categories", nil)
}

// Tags returns tags with usage counts.
func (c *Client) Tags(ctx context.Context) ([]models.Tag, error) {
	return getData[[]models.Tag](ctx, c, "/api/tags", nil)
}

// DeleteDoc deletes one document.
func (c *Client) DeleteDoc(ctx context.Context, id int64) error {
	var env models.Envelope[json.RawMessage]
	return c.send(ctx, http.MethodDelete, "/api/docs/"+strconv.FormatInt(id, 10), nil, &env)
}

// SaveDocRequest is the body of POST /api/docs.
type SaveDocRequest struct {
	Slug     string   `json:"slug,omitempty"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Source   string   `json:"source,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// SaveDoc creates a document, or updates the one with the same slug.
func (c *Client) SaveDoc(ctx context.Context, req SaveDocRequest) (*models.Doc, error) {
	var env models.Envelope[models.Doc]
	if err := c.send(ctx, http.MethodPost, "/api/docs", req, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// Chat sends one chat message and returns the reply. A reply with success=false
// is returned as is; it carries the usage error for the user.
func (c *Client) Chat(ctx context.Context, message string) (*models.ChatReply, error) {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, fmt.Errorf("client: marshal chat: %w", err)
	}
	status, raw, err := c.do(ctx, http.MethodPost, "/api/chat", nil, body)
	if err != nil {
		return nil, err
	}
	var reply models.ChatReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("client: decode chat reply (%d): %w", status, err)
	}
	if status >= http.StatusInternalServerError {
		return nil, &APIError{Status: status, Message: reply.Error}
	}
	return &reply, nil
}

func getData[T any](ctx context.Context, c *Client, path string, q url.Values) (T, error) {
	var env models.Envelope[T]
	status, err := c.get(ctx, path, q, &env)
	if err != nil {
		return env.Data, err
	}
	if !env.Success {
		return env.Data, &APIError{Status: status, Message: env.Error}
	}
	return env.Data, nil
}

// get performs a GET with retries on transport failures and 5xx responses. Any
// other status is decoded into out and returned with its code.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) (int, error) {
	var (
		status int
		raw    []byte
	)
	err := retry.Do(
		func() error {
			var err error
			status, raw, err = c.do(ctx, http.MethodGet, path, q, nil)
			if err != nil {
				return err
			}
			if status >= http.StatusInternalServerError {
				return &APIError{Status: status, Message: errorMessage(raw)}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return status, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return status, fmt.Errorf("client: decode %s (%d): %w", path, status, err)
	}
	return status, nil
}

// send performs a mutating request once. A non-2xx status or success=false
// envelope becomes an *APIError.
func (c *Client) send(ctx context.Context, method, path string, in any, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("client: marshal body: %w", err)
		}
	}
	status, raw, err := c.do(ctx, method, path, nil, body)
	if err != nil {
		return err
	}

	var head struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(raw, &head)
	if status >= http.StatusBadRequest || !head.Success {
		msg := head.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: status, Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("client: decode %s (%d): %w", path, status, err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte) (int, []byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("client: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("client: read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}

// IsNotFound reports whether err means the requested resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
