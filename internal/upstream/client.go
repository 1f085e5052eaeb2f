// Package upstream is the REST client for the externally owned learning
// analytics API. Authenticated calls read the bearer token through TokenFrom
// and fail before any network traffic when it is absent.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
	"github.com/noah-isme/lms-admin-gateway/pkg/middleware/requestid"
)

// Auth selects whether a request carries the bearer token.
type Auth int

const (
	Public Auth = iota
	Bearer
)

const maxErrorBody = 64 << 10

var idSegment = regexp.MustCompile(`/[0-9]+(/|$)`)

// Metrics observes completed upstream requests. status is 0 when no response
// was received.
type Metrics interface {
	ObserveUpstreamRequest(method, endpoint string, status int, duration time.Duration)
}

// Config wires a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    Metrics
}

// Client issues requests against the upstream API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics Metrics
}

// New constructs a client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// BaseURL returns the configured upstream root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON decodes the JSON response of GET path?query into dest.
func (c *Client) GetJSON(ctx context.Context, auth Auth, path string, query url.Values, dest interface{}) error {
	return c.doJSON(ctx, auth, http.MethodGet, withQuery(path, query), nil, dest)
}

// PostJSON sends body as JSON and decodes the response into dest (may be nil).
func (c *Client) PostJSON(ctx context.Context, auth Auth, path string, body, dest interface{}) error {
	return c.doJSON(ctx, auth, http.MethodPost, path, body, dest)
}

// PutJSON sends body as JSON and decodes the response into dest (may be nil).
func (c *Client) PutJSON(ctx context.Context, auth Auth, path string, body, dest interface{}) error {
	return c.doJSON(ctx, auth, http.MethodPut, path, body, dest)
}

// PostForm sends form url-encoded values and decodes the JSON response.
func (c *Client) PostForm(ctx context.Context, auth Auth, path string, form url.Values, dest interface{}) error {
	req, err := c.newRequest(ctx, auth, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.decode(c.send(req, path), dest)
}

// GetText returns the body of a plain text endpoint.
func (c *Client) GetText(ctx context.Context, auth Auth, path string) (string, error) {
	req, err := c.newRequest(ctx, auth, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")
	res := c.send(req, path)
	if res.err != nil {
		return "", res.err
	}
	return string(res.body), nil
}

func (c *Client) doJSON(ctx context.Context, auth Auth, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, auth, method, path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.decode(c.send(req, path), dest)
}

func (c *Client) newRequest(ctx context.Context, auth Auth, method, path string, body io.Reader) (*http.Request, error) {
	var token string
	if auth == Bearer {
		var err error
		if token, err = TokenFrom(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}
	return req, nil
}

type result struct {
	body []byte
	err  error
}

func (c *Client) send(req *http.Request, path string) result {
	start := time.Now()
	endpoint := Endpoint(path)
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(req.Method, endpoint, 0, time.Since(start))
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return result{err: ctxErr}
		}
		c.logger.Warn("upstream request failed", zap.String("method", req.Method), zap.String("endpoint", endpoint), zap.Error(err))
		return result{err: appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	duration := time.Since(start)
	c.observe(req.Method, endpoint, resp.StatusCode, duration)
	c.logger.Debug("upstream request",
		zap.String("method", req.Method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return result{err: appErrors.UpstreamStatus(resp.StatusCode, errorMessage(resp.StatusCode, body))}
	}
	if readErr != nil {
		return result{err: appErrors.Wrap(readErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read upstream response")}
	}
	return result{body: body}
}

func (c *Client) decode(res result, dest interface{}) error {
	if res.err != nil {
		return res.err
	}
	if dest == nil || len(bytes.TrimSpace(res.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "invalid upstream response")
	}
	return nil
}

func (c *Client) observe(method, endpoint string, status int, d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveUpstreamRequest(method, endpoint, status, d)
	}
}

// errorBody is the upstream error shape. detail is a string, or a list of
// {msg} objects for request validation failures. error is the gateway's own
// response envelope, read when dashctl talks to the gateway.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// errorMessage prefers detail, then message, then error.message. A body that is not JSON falls
// back to the status text; JSON without either field gives the unknown error
// text.
func errorMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		if text := http.StatusText(status); text != "" {
			return text
		}
		return appErrors.ErrUpstreamStatus.Message
	}
	if msg := detailText(eb.Detail); msg != "" {
		return msg
	}
	if eb.Message != "" {
		return eb.Message
	}
	if eb.Error != nil && eb.Error.Message != "" {
		return eb.Error.Message
	}
	return appErrors.ErrUpstreamStatus.Message
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// Endpoint replaces numeric path segments with :id for metric labels.
func Endpoint(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for idSegment.MatchString(path) {
		path = idSegment.ReplaceAllString(path, "/:id$1")
	}
	return path
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
