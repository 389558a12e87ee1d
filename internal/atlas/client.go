// Package atlas is the REST client for the Atlas game-server management API.
package atlas

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
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/gosuda/atlasdash/internal/domain"
)

const maxErrorBody = 64 << 10

type Config struct {
	BaseURL string
	Token   string // sent as a bearer token when set
	Timeout time.Duration
	// RPS and Burst bound outbound requests. RPS <= 0 disables the limiter.
	RPS   float64
	Burst int
}

type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("atlas.New: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("atlas.New: base url %q must be http or https", cfg.BaseURL)
	}

	var transport http.RoundTripper = http.DefaultTransport
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
			Base:   http.DefaultTransport,
		}
	}

	c := &Client{
		base: base,
		http: &http.Client{Timeout: cfg.Timeout, Transport: transport},
	}
	if cfg.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), max(cfg.Burst, 1))
	}

	return c, nil
}

// APIError is a non-2xx Atlas response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("atlas: status %d", e.StatusCode)
	}
	return fmt.Sprintf("atlas: status %d: %s", e.StatusCode, e.Message)
}

// Is maps status codes onto the domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrConflict:
		return e.StatusCode == http.StatusConflict
	case domain.ErrInvalidInput:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case domain.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case domain.ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	}
	return false
}

// envelope is the shape of every Atlas response body.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	target := c.base.String() + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" && decodeErr != nil {
			msg = strings.TrimSpace(string(raw[:min(len(raw), maxErrorBody)]))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if env.Status == "error" {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}

	return nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return fmt.Errorf("atlas.%s: %w", op, err)
}

// seg escapes one path segment.
func seg(s string) string {
	return url.PathEscape(s)
}
