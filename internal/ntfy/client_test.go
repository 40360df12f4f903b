package ntfy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  2,
		BaseDelay:    time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		JitterFactor: 0,
	}
}

func TestClientSendText(t *testing.T) {
	var gotPath, gotTitle, gotPriority, gotTags, gotAuth, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("X-Title")
		gotPriority = r.Header.Get("X-Priority")
		gotTags = r.Header.Get("X-Tags")
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer server.Close()

	client, err := New(Options{
		ServerURL:  server.URL,
		AuthToken:  "tk_secret",
		SendFormat: SendFormatText,
		Retry:      testPolicy(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	msg := &Message{
		Topic:    "herald-notifications",
		Title:    "Hook: Stop",
		Body:     "session finished",
		Priority: 4,
		Tags:     []string{"robot", "herald"},
	}
	if err := client.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/herald-notifications" {
		t.Errorf("path = %q, want /herald-notifications", gotPath)
	}
	if gotTitle != "Hook: Stop" {
		t.Errorf("title header = %q", gotTitle)
	}
	if gotPriority != "4" {
		t.Errorf("priority header = %q", gotPriority)
	}
	if gotTags != "robot,herald" {
		t.Errorf("tags header = %q", gotTags)
	}
	if gotAuth != "Bearer tk_secret" {
		t.Errorf("authorization header = %q", gotAuth)
	}
	if gotBody != "session finished" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestClientSendJSON(t *testing.T) {
	var gotPath string
	var decoded map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
			t.Errorf("decode request body: %v", err)
		}
	}))
	defer server.Close()

	client, err := New(Options{ServerURL: server.URL, SendFormat: SendFormatJSON, Retry: testPolicy()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	msg := &Message{Topic: "builds", Title: "done", Body: "ok", Priority: 3}
	if err := client.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/" {
		t.Errorf("json sends go to the server root, got path %q", gotPath)
	}
	if decoded["topic"] != "builds" || decoded["message"] != "ok" {
		t.Errorf("json body = %v", decoded)
	}
}

func TestClientRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	client, err := New(Options{ServerURL: server.URL, Retry: testPolicy()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Send(context.Background(), &Message{Topic: "t", Body: "b"}); err != nil {
		t.Fatalf("send after transient failures: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d attempts, want 3", got)
	}
	stats := client.Stats()
	if stats.MessagesSent != 1 || stats.RetryAttempts != 2 {
		t.Errorf("stats = %+v, want 1 sent and 2 retries", stats)
	}
}

func TestClientDoesNotRetryPermanentRejections(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such topic", http.StatusForbidden)
	}))
	defer server.Close()

	client, err := New(Options{ServerURL: server.URL, Retry: testPolicy()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = client.Send(context.Background(), &Message{Topic: "t", Body: "b"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusForbidden {
		t.Fatalf("send: got %v, want 403 status error", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d attempts, want 1", got)
	}
	stats := client.Stats()
	if stats.MessagesFailed != 1 || stats.RetryAttempts != 0 {
		t.Errorf("stats = %+v, want 1 failure and no retries", stats)
	}
	if stats.LastError == "" {
		t.Error("last error not recorded")
	}
}

func TestClientRetriesRateLimiting(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer server.Close()

	client, err := New(Options{ServerURL: server.URL, Retry: testPolicy()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Send(context.Background(), &Message{Topic: "t", Body: "b"}); err != nil {
		t.Fatalf("send after 429: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d attempts, want 2", got)
	}
}

func TestClientRequiresTopic(t *testing.T) {
	client, err := New(Options{ServerURL: "https://ntfy.sh"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Send(context.Background(), &Message{Body: "b"}); err == nil {
		t.Fatal("send without topic succeeded")
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{ServerURL: ""}); err == nil {
		t.Error("empty server URL accepted")
	}
	if _, err := New(Options{ServerURL: "ntfy.sh/no-scheme"}); err == nil {
		t.Error("relative server URL accepted")
	}
	if _, err := New(Options{ServerURL: "https://ntfy.sh", SendFormat: "yaml"}); err == nil {
		t.Error("unknown send format accepted")
	}
}

func TestClientHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			t.Errorf("health path = %q", r.URL.Path)
		}
	}))
	defer server.Close()

	client, err := New(Options{ServerURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}
