// Package request wraps an HTTP client for API test cases.
//
// A Client is bound to one environment and one session. Every call:
//
//  1. joins the environment base URL and the path with exactly one slash
//  2. merges default, environment and per-call headers (defaults are never
//     mutated by a call)
//  3. injects the session token into the auth header when the session is valid
//  4. retries timeouts, refused connections and 5xx responses per the
//     environment retry policy, re-sending the full buffered body
//
// A response with status >= 400 is returned together with a
// RequestFailedError so callers can still inspect it.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qaharness/api-test-framework/internal/config"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/retry"
	"github.com/qaharness/api-test-framework/pkg/session"
)

const (
	headerContentType = "Content-Type"
	headerRequestID   = "X-Request-Id"
	contentTypeJSON   = "application/json"
	contentTypeForm   = "application/x-www-form-urlencoded"
	redacted          = "***"
)

type Client struct {
	env     config.Environment
	baseURL string
	session *session.Session
	http    *http.Client
	headers http.Header
	policy  retry.Policy
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// New validates the environment base URL and builds a client.
func New(env config.Environment, sess *session.Session, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(env.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, srvErrors.NewValidationError("base_url", "invalid base url %q", env.BaseURL)
	}

	if sess == nil {
		sess = session.New()
	}

	headers := http.Header{}
	for k, v := range env.Headers {
		headers.Set(k, v)
	}

	c := &Client{
		env:     env,
		baseURL: strings.TrimRight(u.String(), "/"),
		session: sess,
		http:    &http.Client{Timeout: env.Timeout},
		headers: headers,
		policy: retry.Policy{
			MaxRetries: env.MaxRetries,
			Delay:      env.RetryDelay,
			Name:       "request",
		},
	}

	for _, o := range opts {
		o(c)
	}

	return c, nil
}

func (c *Client) Session() *session.Session {
	return c.session
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL joins the base URL and path. Absolute http(s) URLs are returned as is.
func (c *Client) URL(path string) string {
	return JoinURL(c.baseURL, path)
}

func JoinURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) Get(ctx context.Context, path string, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, opts...)
}

func (c *Client) Post(ctx context.Context, path string, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, opts...)
}

func (c *Client) Put(ctx context.Context, path string, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, opts...)
}

// Do sends method path with the call options applied.
func (c *Client) Do(ctx context.Context, method, path string, opts ...CallOption) (*Response, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return nil, srvErrors.NewValidationError("method", "must not be empty")
	}

	cl := &call{}
	for _, o := range opts {
		o(cl)
	}

	body, contentType, err := cl.encode()
	if err != nil {
		return nil, err
	}

	target := c.URL(path)
	if len(cl.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + cl.query.Encode()
	}

	headers := c.mergeHeaders(cl.headers, contentType)

	policy := c.policy
	policy.OnRetry = func(attempt int, err error) {
		retriesTotal.Inc()
	}

	return retry.Do(ctx, policy, func(ctx context.Context) (*Response, error) {
		return c.send(ctx, method, target, headers, body)
	})
}

func (c *Client) mergeHeaders(extra map[string]string, contentType string) http.Header {
	h := c.headers.Clone()
	if contentType != "" {
		h.Set(headerContentType, contentType)
	}
	for k, v := range extra {
		h.Set(k, v)
	}

	if c.session.IsValid() {
		token, _ := c.session.Token()
		if c.env.AuthScheme != "" {
			token = c.env.AuthScheme + " " + token
		}
		h.Set(c.authHeader(), token)
	}

	return h
}

func (c *Client) authHeader() string {
	if c.env.AuthHeader == "" {
		return "Authorization"
	}
	return c.env.AuthHeader
}

func (c *Client) send(ctx context.Context, method, target string, headers http.Header, body []byte) (*Response, error) {
	log := zap.S().Named("request")

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, srvErrors.NewValidationError("url", "%v", err)
	}

	requestID := uuid.NewString()
	req.Header = headers.Clone()
	req.Header.Set(headerRequestID, requestID)

	log.Infow("sending request",
		"request_id", requestID, "method", method, "url", target,
		"headers", c.redact(req.Header), "payload", string(body))

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())

	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		log.Errorw("request failed", "request_id", requestID, "method", method, "url", target, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		return nil, err
	}

	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	r := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		RequestID:  requestID,
		Duration:   elapsed,
	}
	if len(data) > 0 {
		var doc any
		if json.Unmarshal(data, &doc) == nil {
			r.JSON = doc
		}
	}

	log.Infow("received response",
		"request_id", requestID, "status", resp.StatusCode, "duration", elapsed, "body", r.Text())

	if resp.StatusCode >= http.StatusBadRequest {
		return r, srvErrors.NewRequestFailedError(method, target, resp.StatusCode, r.Text())
	}

	return r, nil
}

func (c *Client) redact(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	auth := http.CanonicalHeaderKey(c.authHeader())
	for k := range h {
		if k == auth || k == "Authorization" || k == "Cookie" {
			out[k] = redacted
			continue
		}
		out[k] = h.Get(k)
	}
	return out
}

// Login posts body to path, reads the token at tokenPath in the JSON
// response and stores it in the session.
func (c *Client) Login(ctx context.Context, path string, body any, tokenPath string) (*Response, error) {
	resp, err := c.Post(ctx, path, WithJSON(body))
	if err != nil {
		return resp, err
	}

	value, ok := resp.Lookup(tokenPath)
	if !ok {
		return resp, srvErrors.NewValidationError("token_path", "%q not found in login response", tokenPath)
	}

	token, ok := value.(string)
	if !ok {
		return resp, srvErrors.NewValidationError("token_path", "%q is not a string", tokenPath)
	}

	if err := c.session.SetToken(token); err != nil {
		return resp, err
	}

	zap.S().Named("request").Infow("logged in", "path", path)

	return resp, nil
}

func (c *Client) Logout() {
	c.session.ClearToken()
}
