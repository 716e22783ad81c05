// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.

// Package apiclient is the HTTP layer shared by the prober and the
// fan-out executor. It owns retries; callers own outcome classification.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/bitkoop-network/miner-cli/pkg/constants"
)

// Config tunes the shared HTTP behavior. Zero values fall back to the
// defaults in pkg/constants.
type Config struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	RetryClientErrors bool
	UserAgent         string
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = constants.RequestTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = constants.HTTPRetryDelay
	}
	if c.UserAgent == "" {
		c.UserAgent = constants.DefaultUserAgent
	}
	return c
}

// DefaultConfig returns the retry policy used by network operations:
// three retries with exponential delay, client errors not retried.
func DefaultConfig() Config {
	return Config{
		Timeout:    constants.RequestTimeout,
		MaxRetries: constants.HTTPMaxRetries,
		RetryDelay: constants.HTTPRetryDelay,
		UserAgent:  constants.DefaultUserAgent,
	}
}

// Response is one decoded HTTP exchange. Body is nil when the response
// carried no JSON object; Raw keeps whatever the server sent instead.
type Response struct {
	StatusCode   int
	Body         map[string]any
	Raw          string
	ResponseTime time.Duration
}

// SuccessField reports whether the response body carries a truthy
// "success" field, the validator protocol's acceptance marker.
func (r *Response) SuccessField() bool {
	if r.Body == nil {
		return false
	}
	ok, _ := r.Body["success"].(bool)
	return ok
}

// Client issues JSON requests with bounded per-request timeouts and a
// retry schedule for transient failures.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
		log:  log,
	}
}

// statusError marks a retryable HTTP status so the backoff loop can keep
// the decoded response around for the final attempt.
type statusError struct {
	resp *Response
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.resp.StatusCode)
}

// Do issues one logical request, retrying transient failures (5xx,
// timeouts, connection errors) up to the configured maximum. Any HTTP
// response, including a final non-2xx one, returns a *Response with a nil
// error; only transport failures surface as errors.
func (c *Client) Do(ctx context.Context, method, url string, payload any, headers map[string]string) (*Response, error) {
	operation := func() (*Response, error) {
		resp, err := c.doOnce(ctx, method, url, payload, headers)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		if resp.StatusCode >= 500 || (resp.StatusCode >= 400 && c.cfg.RetryClientErrors) {
			return nil, &statusError{resp: resp}
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryDelay
	resp, err := backoff.RetryNotifyWithData(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.cfg.MaxRetries)), ctx),
		func(err error, next time.Duration) {
			c.log.Debug("retrying request",
				zap.String("method", method),
				zap.String("url", url),
				zap.Error(err),
				zap.Duration("next-attempt-in", next))
		},
	)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return se.resp, nil
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) doOnce(ctx context.Context, method, url string, payload any, headers map[string]string) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("encoding payload: %w", err))
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, url, body)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		StatusCode:   httpResp.StatusCode,
		ResponseTime: time.Since(start),
	}
	if len(raw) > 0 {
		var decoded map[string]any
		if jsonErr := json.Unmarshal(raw, &decoded); jsonErr == nil {
			resp.Body = decoded
		} else {
			resp.Raw = string(raw)
		}
	}
	return resp, nil
}

// IsTimeout reports whether a transport error was a per-request deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ExtractError digs a human readable message out of a validator error
// response, falling back to the HTTP status.
func ExtractError(resp *Response) string {
	if resp.Body != nil {
		for _, field := range []string{"error", "message", "detail"} {
			if v, ok := resp.Body[field]; ok && v != nil {
				if s := fmt.Sprintf("%v", v); s != "" {
					return s
				}
			}
		}
		if errs, ok := resp.Body["errors"].(map[string]any); ok {
			parts := make([]string, 0, len(errs))
			for field, messages := range errs {
				switch m := messages.(type) {
				case []any:
					for _, msg := range m {
						parts = append(parts, fmt.Sprintf("%s: %v", field, msg))
					}
				default:
					parts = append(parts, fmt.Sprintf("%s: %v", field, m))
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}
	return fmt.Sprintf("HTTP %d error", resp.StatusCode)
}
