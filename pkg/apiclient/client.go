// Package apiclient is the HTTP gateway to the marketplace backend.
package apiclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/freshmarket-storefront/pkg/logger"
)

// TokenSource supplies the bearer credential for outgoing requests.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	BearerToken() string
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	r      *resty.Client
	tokens TokenSource
	logger logger.ZapLogger
}

// RequestOption customizes a single request.
type RequestOption func(r *resty.Request)

func WithQuery(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetQueryParam(key, value)
	}
}

func WithHeader(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetHeader(key, value)
	}
}

type errorBody struct {
	Message string `json:"message"`
}

func New(cfg Config, tokens TokenSource, log logger.ZapLogger) *Client {
	r := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &Client{r: r, tokens: tokens, logger: log}
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPatch, path, body, out, opts)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, opts)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts []RequestOption) error {
	requestID := uuid.NewString()
	req := c.r.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID).
		SetError(&errorBody{})

	if c.tokens != nil {
		if tok := c.tokens.BearerToken(); tok != "" {
			req.SetAuthToken(tok)
		}
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	elapsed := time.Since(start)

	if err != nil {
		apiErr := &Error{Method: method, Path: path, Message: "request failed", Cause: err, Kind: ErrTransport}
		switch {
		case isTimeout(ctx, err):
			apiErr.Kind = ErrTimeout
			apiErr.Message = "request timed out"
		case resp != nil && resp.RawResponse != nil && !resp.IsError():
			apiErr.Kind = ErrDecode
			apiErr.StatusCode = resp.StatusCode()
			apiErr.Message = "decode response"
		}
		c.logger.Warn("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Duration("elapsed", elapsed),
			zap.String("kind", apiErr.Kind.String()),
			zap.Error(err),
		)
		return apiErr
	}

	if resp.IsError() {
		msg := http.StatusText(resp.StatusCode())
		if eb, ok := resp.Error().(*errorBody); ok && eb.Message != "" {
			msg = eb.Message
		}
		c.logger.Warn("api request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", msg),
		)
		return &Error{Kind: ErrStatus, Method: method, Path: path, StatusCode: resp.StatusCode(), Message: msg}
	}

	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
