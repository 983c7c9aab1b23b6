// Package api is the CodePath HTTP client. It sends JSON requests with bearer
// authentication and, when the API rejects a token, refreshes it once and
// replays the request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/codepath/internal/client/tokenstore"
	"github.com/atinyakov/codepath/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pathRefresh = "/auth/refresh"

	// HeaderRequestID correlates client log lines with API logs.
	HeaderRequestID = "X-Request-ID"
)

// Request describes one API call.
type Request struct {
	// Method defaults to GET.
	Method string
	// Path is appended to the client's base URL, e.g. "/skills".
	Path string
	// Query is encoded into the URL when non-empty.
	Query url.Values
	// Body is encoded as JSON when non-nil.
	Body any
	// Token overrides the stored token for this call.
	Token string
	// SkipRefresh disables the refresh-and-retry policy. Credential
	// exchanges set it so that a rejected password never touches the session.
	SkipRefresh bool
}

// Response is the outcome of a call that reached the API.
type Response struct {
	// OK is true for 2xx statuses.
	OK     bool
	Status int
	// Payload is the raw body when it is valid JSON, nil otherwise.
	Payload json.RawMessage
}

// Decode unmarshals the payload into v.
func (r *Response) Decode(v any) error {
	if r.Payload == nil {
		return errors.New("response has no JSON payload")
	}
	return json.Unmarshal(r.Payload, v)
}

// Client talks to the CodePath API on behalf of the token owner.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  tokenstore.Store
	log     *zap.Logger

	// refreshMu serializes token refreshes.
	refreshMu sync.Mutex

	listenerMu sync.RWMutex
	listener   func(token string)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger; the default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a Client for baseURL that reads and rotates the bearer token in tokens.
func New(baseURL string, tokens tokenstore.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnTokenChange registers fn to be told about the token after a refresh, and
// about "" after the token was cleared because it could not be refreshed.
func (c *Client) OnTokenChange(fn func(token string)) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.listener = fn
}

// Do performs req. HTTP-level failures are reported through Response.OK and
// never as an error; the error is reserved for requests that got no response
// (wrapping ErrUnreachable) or could not be built.
//
// A 401 to a request that carried a token triggers one refresh. On success the
// request is replayed once with the new token and that result is returned. On
// failure the token store is cleared and the original 401 is returned. An
// explicit req.Token that is not the stored token is refreshed for that
// request only and never touches the store.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	stored, hasStored, err := c.tokens.Get(ctx)
	if err != nil {
		c.log.Warn("failed to read token", zap.Error(err))
	}
	token := req.Token
	if token == "" && hasStored {
		token = stored
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusUnauthorized || req.SkipRefresh || token == "" {
		return resp, nil
	}

	if req.Token != "" && (!hasStored || req.Token != stored) {
		return c.retryDetached(ctx, req, resp)
	}

	// Listeners run after refreshMu is released so they may issue requests.
	c.refreshMu.Lock()
	fresh, rotated, err := c.rotate(ctx, token)
	if err != nil {
		c.log.Info("token refresh failed, clearing session",
			zap.String("path", req.Path), zap.Error(err))
		if cerr := c.tokens.Clear(ctx); cerr != nil {
			c.log.Error("failed to clear token", zap.Error(cerr))
		}
	}
	c.refreshMu.Unlock()

	if err != nil {
		c.notify("")
		return resp, nil
	}
	if rotated {
		c.notify(fresh)
	}
	return c.send(ctx, req, fresh)
}

// retryDetached refreshes an explicit token that is not the stored session
// token. The new token only serves the replay: the store and the listener are
// left alone so a stale credential cannot replace the session.
func (c *Client) retryDetached(ctx context.Context, req Request, unauthorized *Response) (*Response, error) {
	refreshed, err := c.send(ctx, Request{Method: http.MethodPost, Path: pathRefresh}, req.Token)
	if err != nil || !refreshed.OK {
		c.log.Debug("refresh of explicit token failed", zap.String("path", req.Path))
		return unauthorized, nil
	}
	var pair models.TokenPair
	if err := refreshed.Decode(&pair); err != nil || pair.AccessToken == "" {
		return unauthorized, nil
	}
	return c.send(ctx, req, pair.AccessToken)
}

// rotate returns a token to replace failed and whether it was obtained by a
// refresh. If another request already rotated the stored token, that token is
// reused instead of refreshing again.
func (c *Client) rotate(ctx context.Context, failed string) (string, bool, error) {
	if current, ok, err := c.tokens.Get(ctx); err == nil && ok && current != failed {
		return current, false, nil
	}

	resp, err := c.send(ctx, Request{Method: http.MethodPost, Path: pathRefresh}, failed)
	if err != nil {
		return "", false, err
	}
	if !resp.OK {
		return "", false, newStatusError(resp)
	}
	var pair models.TokenPair
	if err := resp.Decode(&pair); err != nil || pair.AccessToken == "" {
		return "", false, errors.New("refresh response carries no access token")
	}
	if err := c.tokens.Set(ctx, pair.AccessToken); err != nil {
		return "", false, fmt.Errorf("store refreshed token: %w", err)
	}
	return pair.AccessToken, true, nil
}

func (c *Client) notify(token string) {
	c.listenerMu.RLock()
	fn := c.listener
	c.listenerMu.RUnlock()
	if fn != nil {
		fn(token)
	}
}

func (c *Client) send(ctx context.Context, req Request, token string) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, req.Path, err)
		}
		body = bytes.NewReader(b)
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, req.Path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	res, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn("api unreachable",
			zap.String("method", method),
			zap.String("path", req.Path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnreachable, method, req.Path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		c.log.Debug("failed to read response body", zap.String("request_id", requestID), zap.Error(err))
		raw = nil
	}

	resp := &Response{
		OK:     res.StatusCode >= 200 && res.StatusCode < 300,
		Status: res.StatusCode,
	}
	if len(bytes.TrimSpace(raw)) > 0 && json.Valid(raw) {
		resp.Payload = json.RawMessage(raw)
	}

	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", req.Path),
		zap.Int("status", res.StatusCode),
		zap.Bool("authenticated", token != ""),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", requestID),
	)
	return resp, nil
}
