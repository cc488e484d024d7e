package studyapi

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
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/yungbote/neurobridge-companion/internal/observability"
	"github.com/yungbote/neurobridge-companion/internal/pkg/httpx"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
	"github.com/yungbote/neurobridge-companion/internal/platform/requestid"
)

const maxResponseBytes = 8 << 20

// Session supplies the bearer credential for protected calls and is told when the backend
// rejects the token it supplied.
type Session interface {
	Token() string
	HandleUnauthorized(ctx context.Context, token string)
}

type Options struct {
	// BaseURL is the API root, including the /api prefix.
	BaseURL string

	Timeout    time.Duration
	MaxRetries int
	// RequestsPerSecond caps outbound calls. Zero disables the limiter.
	RequestsPerSecond float64
	Burst             int

	HTTPClient *http.Client
}

type Client struct {
	log        *logger.Logger
	baseURL    string
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
	httpClient *http.Client

	mu      sync.RWMutex
	session Session
}

func New(log *logger.Logger, opts Options) (*Client, error) {
	if log == nil {
		log = logger.Nop()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		log:        log.With("client", "studyapi"),
		baseURL:    baseURL,
		timeout:    timeout,
		maxRetries: maxRetries,
		limiter:    limiter,
		httpClient: hc,
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// UseSession binds the credential source for protected calls.
func (c *Client) UseSession(s Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) currentSession() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

type authMode int

const (
	authSession authMode = iota
	authNone
	authExplicit
)

type request struct {
	op          string
	method      string
	path        string
	contentType string
	body        []byte
	auth        authMode
	token       string
}

func jsonRequest(op, method, path string, body any) (request, error) {
	r := request{op: op, method: method, path: path}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return r, fmt.Errorf("%s: encode body: %w", op, err)
		}
		r.body = raw
		r.contentType = "application/json"
	}
	return r, nil
}

// do sends r and decodes a 2xx JSON body into out. Only idempotent requests are retried, and
// only on transient failures.
func (c *Client) do(ctx context.Context, r request, out any) error {
	ctx, reqID := requestid.Ensure(ctx)

	ctx, span := observability.Tracer().Start(ctx, "studyapi."+r.op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", r.method),
		attribute.String("studyapi.path", r.path),
		attribute.String("request_id", reqID),
	)

	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token := ""
	switch r.auth {
	case authSession:
		if s := c.currentSession(); s != nil {
			token = strings.TrimSpace(s.Token())
		}
	case authExplicit:
		token = strings.TrimSpace(r.token)
	}

	retries := 0
	if httpx.IsIdempotent(r.method) {
		retries = c.maxRetries
	}

	var lastErr error
	backoff := 250 * time.Millisecond
	for attempt := 0; attempt <= retries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx2); err != nil {
				lastErr = err
				break
			}
		}

		start := time.Now()
		resp, raw, err := c.send(ctx2, r, token, reqID)
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.log.Debug("studyapi request",
			"op", r.op,
			"method", r.method,
			"path", r.path,
			"status", status,
			"attempt", attempt,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", reqID,
		)

		switch {
		case err != nil:
			lastErr = err
		case status < 200 || status >= 300:
			herr := parseHTTPError(status, raw)
			herr.RequestID = reqID
			lastErr = herr
			if status == http.StatusUnauthorized && r.auth == authSession && token != "" {
				if s := c.currentSession(); s != nil {
					s.HandleUnauthorized(ctx, token)
				}
			}
		default:
			span.SetAttributes(attribute.Int("http.status_code", status))
			if out == nil || len(bytes.TrimSpace(raw)) == 0 {
				return nil
			}
			if err := json.Unmarshal(raw, out); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "decode")
				return fmt.Errorf("%s: decode response: %w", r.op, err)
			}
			return nil
		}

		if attempt >= retries || !httpx.IsRetryableError(lastErr) {
			break
		}
		wait := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		if err := httpx.Sleep(ctx2, wait); err != nil {
			lastErr = err
			break
		}
		backoff *= 2
	}

	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, r.op)
	return lastErr
}

func (c *Client) send(ctx context.Context, r request, token, reqID string) (*http.Response, []byte, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, nil, err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestid.Header, reqID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp, nil, err
	}
	return resp, raw, nil
}
