package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// DefaultOrigin is the static Origin header value sent with every request.
const DefaultOrigin = "test-client"

var (
	// ErrNotCollection is returned by List when the response is valid JSON but not an array.
	ErrNotCollection = errors.New("backend: list response is not a collection")

	// ErrNoBaseURL is returned when the client has no backend URL configured.
	ErrNoBaseURL = errors.New("backend: base url not configured")
)

// APIError is an application error reported by the backend in the
// "error" field of an otherwise successful response.
type APIError struct {
	Op      string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %s: %s", e.Op, e.Message)
}

// Client talks to the products REST endpoint. All operations share one URL
// and differ only in method.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	origin  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithOrigin overrides the Origin header value.
func WithOrigin(origin string) Option {
	return func(c *Client) {
		if o := strings.TrimSpace(origin); o != "" {
			c.origin = o
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSpace(baseURL),
		origin:  DefaultOrigin,
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the endpoint currently in use.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL points the client at a different backend. In-flight requests keep the old URL.
func (c *Client) SetBaseURL(u string) {
	c.mu.Lock()
	c.baseURL = strings.TrimSpace(u)
	c.mu.Unlock()
}

// List fetches the full product collection.
func (c *Client) List(ctx context.Context) ([]Product, error) {
	body, err := c.do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: list: %w", err)
	}
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("backend: list: invalid json response")
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotCollection
	}
	var out []Product
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("backend: list: decode: %w", err)
	}
	if out == nil {
		out = []Product{}
	}
	return out, nil
}

// Create posts a new product and returns the record the backend sent back.
func (c *Client) Create(ctx context.Context, p Product) (Product, error) {
	return c.mutateRecord(ctx, http.MethodPost, "create", p)
}

// Update puts an edited product and returns the record the backend sent back.
func (c *Client) Update(ctx context.Context, p Product) (Product, error) {
	return c.mutateRecord(ctx, http.MethodPut, "update", p)
}

// Delete removes a product. Only the JSON "error" field decides failure;
// the HTTP status is not inspected and an empty body counts as success.
func (c *Client) Delete(ctx context.Context, p Product) error {
	_, err := c.mutate(ctx, http.MethodDelete, "delete", p)
	return err
}

func (c *Client) mutateRecord(ctx context.Context, method, op string, p Product) (Product, error) {
	body, err := c.mutate(ctx, method, op, p)
	if err != nil {
		return Product{}, err
	}
	if len(body) == 0 || body[0] != '{' {
		return Product{}, nil
	}
	var out Product
	if err := json.Unmarshal(body, &out); err != nil {
		return Product{}, fmt.Errorf("backend: %s: decode: %w", op, err)
	}
	return out, nil
}

// mutate sends p with the given method and returns the trimmed response body
// after checking it for an application error.
func (c *Client) mutate(ctx context.Context, method, op string, p Product) ([]byte, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("backend: %s: encode: %w", op, err)
	}
	body, err := c.do(ctx, method, payload)
	if err != nil {
		return nil, fmt.Errorf("backend: %s: %w", op, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("backend: %s: invalid json response", op)
	}
	if msg, ok := errorField(body); ok {
		return nil, &APIError{Op: op, Message: msg}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method string, payload []byte) ([]byte, error) {
	url := c.BaseURL()
	if url == "" {
		return nil, ErrNoBaseURL
	}
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.origin)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// errorField reports the "error" member of a JSON object when it is set to
// anything other than null, false, 0 or "".
func errorField(body []byte) (string, bool) {
	if body[0] != '{' {
		return "", false
	}
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Error) == 0 {
		return "", false
	}
	raw := strings.TrimSpace(string(env.Error))
	switch raw {
	case "null", "false", "0", `""`:
		return "", false
	}
	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		return s, true
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message, true
	}
	return raw, true
}
