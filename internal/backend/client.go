package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"coworkingbot/internal/config"
	"coworkingbot/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	maxResponseBytes = 4 << 20
)

// User-facing descriptions of transport failures.
const (
	msgTimeout = "Сервер не отвечает. Попробуйте позже."
)

// Result is the normalized reply of one backend call.
type Result struct {
	Status  string
	Message string
	Raw     json.RawMessage

	// Transport is set when the backend never produced a reply of its own.
	Transport bool
}

// OK reports whether the backend answered with status "success".
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Decode unmarshals the full response body into v.
func (r Result) Decode(v any) error {
	if len(r.Raw) == 0 {
		return errors.New("empty response")
	}
	return json.Unmarshal(r.Raw, v)
}

func errorResult(format string, args ...any) Result {
	return Result{Status: StatusError, Message: fmt.Sprintf(format, args...), Transport: true}
}

// Error is returned by every typed action when the call did not succeed.
type Error struct {
	Action  string
	Message string
	// Transport marks network, HTTP and decoding failures as opposed to an
	// error status reported by the backend itself.
	Transport bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// IsTransport reports whether err is a backend call that failed before the
// backend could answer.
func IsTransport(err error) bool {
	var berr *Error
	return errors.As(err, &berr) && berr.Transport
}

// Client talks to the booking backend: one endpoint, action name in the body,
// shared token for authentication.
type Client struct {
	url        string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zerolog.Logger

	cache    redis.UniversalClient
	cacheTTL time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache enables the redis read cache for slow-changing lookups.
func WithCache(client redis.UniversalClient, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = client
		c.cacheTTL = ttl
	}
}

// New builds a client. URL and token are required.
func New(cfg config.BackendConfig, logger *zerolog.Logger, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("backend url is not configured")
	}
	if cfg.Token == "" {
		return nil, errors.New("backend token is not configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultBackendTimeout
	}

	c := &Client{
		url:        cfg.URL,
		token:      cfg.Token,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Call performs one action. It never returns a Go error: transport and protocol
// failures come back as a Result with Status "error" and a readable Message.
func (c *Client) Call(ctx context.Context, action string, payload map[string]any) Result {
	start := time.Now()
	res := c.call(ctx, action, payload)
	took := time.Since(start)

	status := res.Status
	if status == "" {
		status = "unknown"
	}
	metrics.ObserveBackendCall(action, status, took)

	if !res.OK() {
		c.logger.Warn().Str("action", action).Str("status", res.Status).Str("message", res.Message).
			Dur("took", took).Msg("backend call failed")
	} else {
		c.logger.Debug().Str("action", action).Dur("took", took).Msg("backend call")
	}
	return res
}

func (c *Client) call(ctx context.Context, action string, payload map[string]any) Result {
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["token"] = c.token
	body["action"] = action

	data, err := json.Marshal(body)
	if err != nil {
		return errorResult("Ошибка формата запроса: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return errorResult("Ошибка сети: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Result{Status: StatusError, Message: msgTimeout, Transport: true}
		}
		return errorResult("Ошибка сети: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return errorResult("Ошибка сервера: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return Result{Status: StatusError, Message: msgTimeout, Transport: true}
		}
		return errorResult("Ошибка сети: %v", err)
	}

	var head struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return errorResult("Ошибка формата ответа: %v", err)
	}
	return Result{Status: head.Status, Message: head.Message, Raw: raw}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
