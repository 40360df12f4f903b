package ntfy

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
)

const userAgent = "herald/0.1.0"

// SendFormat selects how a message travels over the wire.
const (
	SendFormatText = "text"
	SendFormatJSON = "json"
)

// Sender is the delivery surface the daemon worker depends on.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Options configures a Client.
type Options struct {
	ServerURL  string
	AuthToken  string
	SendFormat string
	Timeout    time.Duration
	Retry      RetryPolicy

	// HTTPClient overrides the transport, mainly for tests. When set,
	// Timeout is ignored.
	HTTPClient *http.Client
}

// Client publishes messages to a single ntfy server.
type Client struct {
	base   *url.URL
	token  string
	format string
	retry  RetryPolicy
	http   *http.Client
	stats  *statsRecorder
}

// New validates opts and builds a client. The server URL must be absolute.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.ServerURL)
	if raw == "" {
		return nil, fmt.Errorf("ntfy server URL is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse ntfy server URL: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("ntfy server URL %q is not absolute", raw)
	}

	format := opts.SendFormat
	if format == "" {
		format = SendFormatText
	}
	if format != SendFormatText && format != SendFormatJSON {
		return nil, fmt.Errorf("unknown send format %q", format)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	retry := opts.Retry
	if retry.MaxAttempts == 0 && retry.BaseDelay == 0 {
		retry = DefaultRetryPolicy()
	}

	return &Client{
		base:   base,
		token:  opts.AuthToken,
		format: format,
		retry:  retry,
		http:   httpClient,
		stats:  newStatsRecorder(),
	}, nil
}

// Send delivers msg, retrying transient failures per the client's retry
// policy. Permanent rejections from the server fail immediately.
func (c *Client) Send(ctx context.Context, msg *Message) error {
	if strings.TrimSpace(msg.Topic) == "" {
		return fmt.Errorf("message topic is required")
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxAttempts; attempt++ {
		lastErr = c.sendOnce(ctx, msg)
		if lastErr == nil {
			c.stats.recordSuccess(time.Since(start))
			return nil
		}
		if !IsRetryable(lastErr) || attempt == c.retry.MaxAttempts {
			break
		}
		c.stats.recordRetry()
		select {
		case <-time.After(c.retry.Delay(attempt)):
		case <-ctx.Done():
			c.stats.recordFailure(ctx.Err())
			return ctx.Err()
		}
	}
	c.stats.recordFailure(lastErr)
	return lastErr
}

// Health probes the server's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	target := c.base.JoinPath("v1", "health").String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ntfy health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// Stats returns a snapshot of the client's delivery counters.
func (c *Client) Stats() Stats {
	return c.stats.snapshot()
}

func (c *Client) sendOnce(ctx context.Context, msg *Message) error {
	var req *http.Request
	var err error
	if c.format == SendFormatJSON {
		req, err = c.jsonRequest(ctx, msg)
	} else {
		req, err = c.textRequest(ctx, msg)
	}
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// textRequest posts the body as plain text to the topic URL with message
// metadata carried in X- headers.
func (c *Client) textRequest(ctx context.Context, msg *Message) (*http.Request, error) {
	target := c.base.JoinPath(msg.Topic).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(msg.Body))
	if err != nil {
		return nil, fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	c.authorize(req)

	if msg.Title != "" {
		req.Header.Set("X-Title", msg.Title)
	}
	if msg.Priority != 0 {
		req.Header.Set("X-Priority", strconv.Itoa(msg.Priority))
	}
	if len(msg.Tags) > 0 {
		req.Header.Set("X-Tags", strings.Join(msg.Tags, ","))
	}
	if msg.Click != "" {
		req.Header.Set("X-Click", msg.Click)
	}
	if msg.Attach != "" {
		req.Header.Set("X-Attach", msg.Attach)
	}
	if msg.Delay != "" {
		req.Header.Set("X-Delay", msg.Delay)
	}
	if msg.Email != "" {
		req.Header.Set("X-Email", msg.Email)
	}
	if msg.Call != "" {
		req.Header.Set("X-Call", msg.Call)
	}
	if msg.Markdown {
		req.Header.Set("X-Markdown", "true")
	}
	return req, nil
}

// jsonRequest posts the whole message as a JSON document to the server
// root, with the topic inside the body.
func (c *Client) jsonRequest(ctx context.Context, msg *Message) (*http.Request, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode ntfy message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return req, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
