package testutil

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SSEEvent is one frame read from the event stream. Heartbeat comments are
// reported with Type "heartbeat" and no data.
type SSEEvent struct {
	Type string
	Data json.RawMessage
}

// PushEvent is the JSON carried in every "message" frame.
type PushEvent struct {
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties"`
}

// SSEClient reads /event in the background.
type SSEClient struct {
	BaseURL    string
	HTTPClient *http.Client

	eventsCh chan SSEEvent
	errCh    chan error
	cancel   context.CancelFunc
	body     io.ReadCloser
}

// NewSSEClient creates a new SSE test client
func NewSSEClient(baseURL string) *SSEClient {
	return &SSEClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		eventsCh:   make(chan SSEEvent, 100),
		errCh:      make(chan error, 1),
	}
}

// Connect opens the stream and starts reading frames.
func (c *SSEClient) Connect(ctx context.Context, path string) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		resp.Body.Close()
		return fmt.Errorf("unexpected content type: %s", ct)
	}

	c.body = resp.Body
	go c.read(resp.Body)
	return nil
}

func (c *SSEClient) read(body io.Reader) {
	defer close(c.eventsCh)

	scanner := bufio.NewScanner(body)
	var eventType string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				c.eventsCh <- SSEEvent{Type: eventType, Data: json.RawMessage(data.String())}
			}
			eventType = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
			c.eventsCh <- SSEEvent{Type: "heartbeat"}
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil && !strings.Contains(err.Error(), "context canceled") {
		c.errCh <- err
	}
}

// WaitForPush waits for a message frame whose type is pushType, skipping
// everything else.
func (c *SSEClient) WaitForPush(pushType string, timeout time.Duration) (*PushEvent, error) {
	deadline := time.After(timeout)
	for {
		select {
		case evt, ok := <-c.eventsCh:
			if !ok {
				return nil, fmt.Errorf("connection closed")
			}
			if evt.Type != "message" {
				continue
			}
			var p PushEvent
			if err := json.Unmarshal(evt.Data, &p); err != nil {
				return nil, err
			}
			if p.Type == pushType {
				return &p, nil
			}
		case err := <-c.errCh:
			return nil, err
		case <-deadline:
			return nil, fmt.Errorf("timeout waiting for %s", pushType)
		}
	}
}

// Close closes the SSE connection
func (c *SSEClient) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.body != nil {
		c.body.Close()
	}
}
