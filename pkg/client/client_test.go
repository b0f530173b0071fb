package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStatusAgainstLiveService(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"running":1,"packages":[{"name":"selenium","pid":4311,"startTime":"2026-01-02T03:04:05Z"}]}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL})
	res := c.Status(context.Background())

	if !res.Running || res.StatusCode != http.StatusOK {
		t.Fatalf("result: %+v", res)
	}
	if res.Count != 1 || len(res.Packages) != 1 {
		t.Fatalf("payload: %+v", res)
	}
	p := res.Packages[0]
	if p.Name != "selenium" || p.PID != 4311 || p.StartedAt.IsZero() {
		t.Fatalf("package: %+v", p)
	}
	if !c.IsRunning(context.Background()) {
		t.Fatalf("IsRunning should be true for 2xx")
	}
}

func TestStatusNothingListening(t *testing.T) {
	// Bind a port, then close it so nothing is listening on the address.
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := New(Config{BaseURL: url, Timeout: 500 * time.Millisecond})
	res := c.Status(context.Background())

	if res.Running {
		t.Fatalf("refused connection reported as running")
	}
	if res.Error == "" {
		t.Fatalf("probe failure should be captured in Error")
	}
	if c.IsRunning(context.Background()) {
		t.Fatalf("IsRunning should be false")
	}
}

func TestStatusNon2xxResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "tea time", http.StatusTeapot)
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL})
	res := c.Status(context.Background())

	if !res.Running {
		t.Fatalf("any HTTP response means something is listening")
	}
	if res.StatusCode != http.StatusTeapot {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if c.IsRunning(context.Background()) {
		t.Fatalf("non-2xx must not count as an active controller")
	}
}

func TestStatusUnparsablePayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer ts.Close()

	res := New(Config{BaseURL: ts.URL}).Status(context.Background())
	if !res.Running || res.StatusCode != http.StatusOK {
		t.Fatalf("garbled body should still count as running: %+v", res)
	}
	if res.Count != 0 || res.Packages != nil {
		t.Fatalf("payload should be empty: %+v", res)
	}
}
