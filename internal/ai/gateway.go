package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Response is the result of a successful gateway call.
type Response struct {
	// Provider is the name of the provider that answered.
	Provider string

	// Text is the generated annotation.
	Text string

	// Latency is the duration of the successful call, excluding retries.
	Latency time.Duration
}

// breakerState tracks consecutive failures for one provider.
type breakerState struct {
	consecutiveFailures int
	openUntil           time.Time
}

// Gateway fronts one primary provider and an optional fallback chain with
// timeouts, retries, and per-provider circuit breakers.
//
// Design decision: The breaker is per provider, not global, because:
//  1. A rate-limited primary must not poison a healthy fallback
//  2. Cooldown expiry re-probes each backend independently
//  3. Counters stay meaningful when the chain is reordered
type Gateway struct {
	mu sync.Mutex

	// providers is the call order: primary first, then fallbacks.
	providers []Provider

	// breakers holds per-provider circuit state, keyed by provider name.
	breakers map[string]*breakerState

	// callTimeout bounds each individual provider call.
	callTimeout time.Duration

	// maxRetries is the number of retries after the first attempt.
	maxRetries int

	// baseBackoff is the first retry delay; it doubles per attempt.
	baseBackoff time.Duration

	// failureThreshold opens the breaker after this many consecutive
	// failures.
	failureThreshold int

	// cooldown is how long an open breaker short-circuits calls.
	cooldown time.Duration

	logger *slog.Logger

	// sleep is swapped in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithFallbacks appends fallback providers tried when the primary fails.
func WithFallbacks(providers ...Provider) GatewayOption {
	return func(g *Gateway) {
		g.providers = append(g.providers, providers...)
	}
}

// WithCallTimeout bounds each individual provider call.
func WithCallTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.callTimeout = d
	}
}

// WithMaxRetries sets the number of retries per provider after the first
// attempt.
func WithMaxRetries(n int) GatewayOption {
	return func(g *Gateway) {
		g.maxRetries = n
	}
}

// WithBaseBackoff sets the first retry delay.
func WithBaseBackoff(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.baseBackoff = d
	}
}

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int) GatewayOption {
	return func(g *Gateway) {
		g.failureThreshold = n
	}
}

// WithCooldown sets how long an open breaker short-circuits calls.
func WithCooldown(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.cooldown = d
	}
}

// WithGatewayLogger sets the gateway's logger.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway creates a gateway around the primary provider.
func NewGateway(primary Provider, opts ...GatewayOption) (*Gateway, error) {
	if primary == nil {
		return nil, ErrNoProvider
	}

	g := &Gateway{
		providers:        []Provider{primary},
		breakers:         make(map[string]*breakerState),
		callTimeout:      30 * time.Second,
		maxRetries:       2,
		baseBackoff:      time.Second,
		failureThreshold: 3,
		cooldown:         30 * time.Second,
		logger:           slog.Default(),
		sleep:            sleepCtx,
	}

	for _, opt := range opts {
		opt(g)
	}

	for _, p := range g.providers {
		g.breakers[p.Name()] = &breakerState{}
	}

	return g, nil
}

// Analyze sends the prompt to the first available provider in the chain.
// It retries transient failures with exponential backoff, surfaces auth
// failures immediately, and short-circuits providers whose breaker is open.
func (g *Gateway) Analyze(ctx context.Context, prompt string) (*Response, error) {
	var lastErr error

	for _, provider := range g.providers {
		if !g.allow(provider.Name()) {
			lastErr = fmt.Errorf("%w: %s", ErrProviderUnavailable, provider.Name())
			continue
		}

		resp, err := g.callWithRetry(ctx, provider, prompt)
		if err == nil {
			g.recordSuccess(provider.Name())
			return resp, nil
		}

		g.recordFailure(provider.Name())
		lastErr = err

		// Auth failures on one backend do not forbid trying the next:
		// fallbacks carry their own credentials.
		g.logger.Warn("ai provider failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()))
	}

	if lastErr == nil {
		lastErr = ErrNoProvider
	}
	return nil, lastErr
}

// callWithRetry runs one provider with per-call timeout and retry policy.
func (g *Gateway) callWithRetry(ctx context.Context, provider Provider, prompt string) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := g.baseBackoff << (attempt - 1)
			if err := g.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		start := time.Now()
		text, err := provider.Generate(callCtx, prompt)
		latency := time.Since(start)
		cancel()

		if err == nil {
			return &Response{
				Provider: provider.Name(),
				Text:     text,
				Latency:  latency,
			}, nil
		}

		// A deadline hit on the call context (not the parent) is a
		// provider timeout; the parent cancelling means the scan is over.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %s after %s", ErrProviderTimeout, provider.Name(), latency.Round(time.Millisecond))
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// isRetryable reports whether a failure is worth retrying.
func isRetryable(err error) bool {
	return errors.Is(err, errTransient) || errors.Is(err, ErrProviderTimeout)
}

// allow reports whether the provider's breaker permits a call, closing the
// breaker if its cooldown has elapsed.
func (g *Gateway) allow(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.breakers[name]
	if !ok {
		return true
	}
	if state.openUntil.IsZero() {
		return true
	}
	if time.Now().After(state.openUntil) {
		// Cooldown over: half-open, permit one probe.
		state.openUntil = time.Time{}
		state.consecutiveFailures = g.failureThreshold - 1
		return true
	}
	return false
}

// recordSuccess resets the provider's breaker.
func (g *Gateway) recordSuccess(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if state, ok := g.breakers[name]; ok {
		state.consecutiveFailures = 0
		state.openUntil = time.Time{}
	}
}

// recordFailure counts a failure and opens the breaker at the threshold.
func (g *Gateway) recordFailure(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.breakers[name]
	if !ok {
		return
	}
	state.consecutiveFailures++
	if state.consecutiveFailures >= g.failureThreshold {
		state.openUntil = time.Now().Add(g.cooldown)
		g.logger.Warn("ai provider circuit opened",
			slog.String("provider", name),
			slog.Duration("cooldown", g.cooldown))
	}
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
