package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/buildtrack/buildtrack/pkg/types"
)

// TestClient provides HTTP client utilities for testing
type TestClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewTestClient creates a new test HTTP client
func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RequestOption configures HTTP requests
type RequestOption func(*http.Request)

// WithHeader adds a header to the request
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// Response wraps HTTP response with helpers
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// JSON unmarshals response body into v
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// String returns response body as string
func (r *Response) String() string {
	return string(r.Body)
}

// IsSuccess returns true if status code is 2xx
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs HTTP GET request
func (c *TestClient) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, opts...)
}

// Post performs HTTP POST request with a raw body
func (c *TestClient) Post(ctx context.Context, path string, body []byte, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body, opts...)
}

func (c *TestClient) do(ctx context.Context, method, path string, body []byte, opts ...RequestOption) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

// ---- Operation Helpers ----

// Result is the envelope every operation answers with.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Decode unmarshals the data of a successful result into v.
func (r *Result) Decode(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("result has no data")
	}
	return json.Unmarshal(r.Data, v)
}

// Call posts payload to /rpc/<op> and returns the envelope. A nil payload
// sends an empty body.
func (c *TestClient) Call(ctx context.Context, op string, payload any) (*Result, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	resp, err := c.Post(ctx, "/rpc/"+op, body)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%s: %d - %s", op, resp.StatusCode, resp.String())
	}

	var res Result
	if err := resp.JSON(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MustSucceed calls op and decodes its data into out, failing when the
// operation does not succeed. out may be nil.
func (c *TestClient) MustSucceed(ctx context.Context, op string, payload, out any) error {
	res, err := c.Call(ctx, op, payload)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%s failed: %s", op, res.Message)
	}
	if out == nil {
		return nil
	}
	return res.Decode(out)
}

// Operations lists the operations the server dispatches.
func (c *TestClient) Operations(ctx context.Context) ([]string, error) {
	resp, err := c.Get(ctx, "/rpc")
	if err != nil {
		return nil, err
	}
	var body struct {
		Operations []string `json:"operations"`
	}
	if err := resp.JSON(&body); err != nil {
		return nil, err
	}
	return body.Operations, nil
}

// CreateProject creates a project from in.
func (c *TestClient) CreateProject(ctx context.Context, in map[string]any) (*types.Project, error) {
	var p types.Project
	if err := c.MustSucceed(ctx, "project.create", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProject removes a project and everything recorded against it.
func (c *TestClient) DeleteProject(ctx context.Context, id types.ID) error {
	return c.MustSucceed(ctx, "project.delete", map[string]any{"id": id, "cascade": true}, nil)
}
