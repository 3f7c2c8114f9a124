// Package client provides an authenticated HTTP client for the brand
// backends. It injects bearer tokens from an auth.Authenticator, tags every
// request with a trace id and shields the backend behind a circuit breaker so
// a failing cloud does not get hammered by retry storms.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/carconnectivity/vag-auth/pkg/auth"
	"github.com/carconnectivity/vag-auth/pkg/brand"
	"github.com/carconnectivity/vag-auth/pkg/logger"
)

// TokenSource yields a valid token set, authenticating or refreshing as
// needed. *auth.Authenticator satisfies it.
type TokenSource interface {
	Authenticate(ctx context.Context) (*auth.TokenStore, error)
}

// BreakerConfig tunes the circuit breaker guarding the brand backend.
type BreakerConfig struct {
	// MaxConsecutiveFailures is the number of consecutive failures before
	// the breaker opens.
	MaxConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// DefaultBreakerConfig returns the defaults used by the daemon.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxConsecutiveFailures: 5,
		Timeout:                30 * time.Second,
	}
}

// BrandClient issues authenticated requests against one brand's API.
type BrandClient struct {
	strategy brand.Strategy
	tokens   TokenSource
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	log      *logger.Logger
}

// New returns a BrandClient for the given brand, drawing tokens from tokens.
func New(strategy brand.Strategy, tokens TokenSource, cfg BreakerConfig, log *logger.Logger) *BrandClient {
	if log == nil {
		log = logger.Discard()
	}
	c := &BrandClient{
		strategy: strategy,
		tokens:   tokens,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        strategy.Name + "-api",
		MaxRequests: 1,
		Interval:    cfg.Timeout,
		Timeout:     2 * cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Do executes an authenticated request through the circuit breaker. The
// bearer token, brand headers and a fresh trace id are applied before
// sending. Non-2xx statuses are returned as errors with the body drained.
func (c *BrandClient) Do(req *http.Request) (*http.Response, error) {
	token, err := c.tokens.Authenticate(req.Context())
	if err != nil {
		return nil, fmt.Errorf("acquiring token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("User-Agent", c.strategy.UserAgent)
	req.Header.Set("X-Trace-Id", uuid.NewString())
	for k, v := range c.strategy.Headers {
		req.Header.Set(k, v)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, fmt.Errorf("%s: backend returned %d", c.strategy.Name, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return nil, c.wrapBreakerError(err)
	}
	return result.(*http.Response), nil
}

// GetJSON issues an authenticated GET and decodes a JSON response into out.
func (c *BrandClient) GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: GET %s returned %d", c.strategy.Name, url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// wrapBreakerError converts breaker sentinel errors to messages that name
// the affected brand.
func (c *BrandClient) wrapBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("%s API temporarily unavailable: %w", c.strategy.Name, err)
	}
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s API recovering, request shed: %w", c.strategy.Name, err)
	}
	return err
}

// State exposes the breaker state for health reporting.
func (c *BrandClient) State() gobreaker.State {
	return c.breaker.State()
}
