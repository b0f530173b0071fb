package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Client probes a zypin status service over HTTP. It is the only
// cross-process signal the tool uses to decide whether a controller
// instance is already active before acting.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// DefaultConfig points at the fixed local status port.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:8421",
		Timeout: 3 * time.Second,
	}
}

// New creates a status client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		logger:  cfg.Logger,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// PackageStatus is one record of the remote supervisor's snapshot.
type PackageStatus struct {
	Name      string    `json:"name"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"startTime"`
}

// Result is the outcome of a status probe. Network-level failures are folded
// into Running=false with the message in Error; they are never surfaced as a
// Go error to the caller.
type Result struct {
	Running    bool
	StatusCode int
	Count      int
	Packages   []PackageStatus
	Error      string
}

type statusPayload struct {
	Running  int             `json:"running"`
	Packages []PackageStatus `json:"packages"`
}

// Status performs a bounded-time round trip against the service's /status
// endpoint. Any response at all means a controller is listening; refused
// connections, DNS failures and timeouts mean it is not.
func (c *Client) Status(ctx context.Context) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return Result{Error: err.Error()}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("status service unreachable", "url", c.baseURL, "error", err)
		return Result{Error: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	res := Result{Running: true, StatusCode: resp.StatusCode}
	var payload statusPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// still counts as running; the listener answered
		c.logger.Debug("status payload unparsable", "error", err)
		return res
	}
	res.Count = payload.Running
	res.Packages = payload.Packages
	return res
}

// IsRunning is the boolean form callers use before acting: a controller
// counts as active only when it answered with a 2xx.
func (c *Client) IsRunning(ctx context.Context) bool {
	res := c.Status(ctx)
	return res.Running && res.StatusCode >= 200 && res.StatusCode < 300
}
