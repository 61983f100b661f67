package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ticketly-client/internal/auth"
	"ticketly-client/internal/logger"
)

const (
	DefaultBaseURL = "http://localhost:8000/api/v1"
	DefaultTimeout = 10 * time.Second

	RequestIDHeader = "X-Request-ID"
)

// Session is what the client needs from the session manager.
type Session interface {
	Token() (tokenType, token string, ok bool)
	Teardown(ctx context.Context) error
}

// Requester is the part of Client the domain services depend on.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, in, out interface{}) error
	Put(ctx context.Context, path string, in, out interface{}) error
	Delete(ctx context.Context, path string, out interface{}) error
	PostForm(ctx context.Context, path string, form url.Values, out interface{}) error
	PostMultipart(ctx context.Context, path, field, filename string, r io.Reader, out interface{}) error
}

var _ Requester = (*Client)(nil)

// Client wraps net/http with the backend's conventions: bearer auth,
// request ids, JSON bodies and error payload extraction.
type Client struct {
	baseURL string
	http    *http.Client
	session Session
	logger  *logger.Logger

	mu             sync.Mutex
	onUnauthorized []func()
}

// NewClient builds a client. sess may be nil for anonymous use.
func NewClient(baseURL string, timeout time.Duration, sess Session, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		session: sess,
		logger:  log,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// OnUnauthorized registers a hook that runs after a 401 tore the session down.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.Do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	body, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return c.Do(ctx, http.MethodPost, path, body, "application/json", out)
}

func (c *Client) Put(ctx context.Context, path string, in, out interface{}) error {
	body, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return c.Do(ctx, http.MethodPut, path, body, "application/json", out)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, nil, "", out)
}

// PostForm sends an urlencoded form, as the login endpoint expects.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", out)
}

// PostMultipart uploads r as the form file field.
func (c *Client) PostMultipart(ctx context.Context, path, field, filename string, r io.Reader, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return c.Do(ctx, http.MethodPost, path, &buf, w.FormDataContentType(), out)
}

// Do performs one request. A 2xx body is decoded into out when out is
// non-nil; anything else becomes an *Error.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.New().String())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.session != nil {
		if tokenType, token, ok := c.session.Token(); ok {
			req.Header.Set("Authorization", auth.FormatBearer(tokenType, token))
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("API", fmt.Sprintf("%s %s failed: %v", method, path, err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("API", fmt.Sprintf("Failed to close response body: %v", err))
		}
	}(resp.Body)

	data, err := io.ReadAll(resp.Body)
	c.logger.LogAPI(method, path, resp.StatusCode, time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx, method, path)
		return newError(resp.StatusCode, data)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) handleUnauthorized(ctx context.Context, method, path string) {
	c.logger.LogSecurity("UNAUTHORIZED", fmt.Sprintf("%s %s returned 401, clearing session", method, path))
	if c.session != nil {
		if err := c.session.Teardown(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("SESSION", err.Error())
		}
	}

	c.mu.Lock()
	hooks := append([]func(){}, c.onUnauthorized...)
	c.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}
}

func encodeJSON(in interface{}) (io.Reader, error) {
	if in == nil {
		return nil, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return bytes.NewReader(data), nil
}
