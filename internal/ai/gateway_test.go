package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeProvider returns scripted results and counts calls.
type fakeProvider struct {
	mu      sync.Mutex
	name    string
	results []error
	text    string
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	if f.calls < len(f.results) {
		err = f.results[f.calls]
	}
	f.calls++
	if err != nil {
		return "", err
	}
	return f.text, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func transientErr() error {
	return fmt.Errorf("%w: HTTP 503", errTransient)
}

func authErr() error {
	return fmt.Errorf("%w (HTTP 401)", ErrProviderAuth)
}

func TestGatewayAnalyze(t *testing.T) {
	t.Parallel()

	t.Run("success on first attempt", func(t *testing.T) {
		t.Parallel()

		p := &fakeProvider{name: "openai", text: "analysis"}
		g, err := NewGateway(p)
		if err != nil {
			t.Fatalf("NewGateway() error = %v", err)
		}
		g.sleep = noSleep

		resp, err := g.Analyze(context.Background(), "prompt")
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if resp.Provider != "openai" || resp.Text != "analysis" {
			t.Errorf("resp = %+v, want openai/analysis", resp)
		}
	})

	t.Run("transient failures retried", func(t *testing.T) {
		t.Parallel()

		p := &fakeProvider{
			name:    "openai",
			text:    "recovered",
			results: []error{transientErr(), transientErr(), nil},
		}
		g, err := NewGateway(p, WithMaxRetries(2))
		if err != nil {
			t.Fatalf("NewGateway() error = %v", err)
		}
		g.sleep = noSleep

		resp, err := g.Analyze(context.Background(), "prompt")
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if resp.Text != "recovered" {
			t.Errorf("Text = %q, want recovered", resp.Text)
		}
		if p.callCount() != 3 {
			t.Errorf("calls = %d, want 3", p.callCount())
		}
	})

	t.Run("auth failure never retried", func(t *testing.T) {
		t.Parallel()

		p := &fakeProvider{name: "openai", results: []error{authErr(), nil}}
		g, err := NewGateway(p, WithMaxRetries(3))
		if err != nil {
			t.Fatalf("NewGateway() error = %v", err)
		}
		g.sleep = noSleep

		if _, err := g.Analyze(context.Background(), "prompt"); !errors.Is(err, ErrProviderAuth) {
			t.Errorf("Analyze() error = %v, want ErrProviderAuth", err)
		}
		if p.callCount() != 1 {
			t.Errorf("calls = %d, want 1 (no retry on auth failure)", p.callCount())
		}
	})

	t.Run("nil primary rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := NewGateway(nil); !errors.Is(err, ErrNoProvider) {
			t.Errorf("NewGateway(nil) error = %v, want ErrNoProvider", err)
		}
	})
}

func TestGatewayCircuitBreaker(t *testing.T) {
	t.Parallel()

	t.Run("opens after threshold and short-circuits", func(t *testing.T) {
		t.Parallel()

		p := &fakeProvider{
			name:    "openai",
			results: []error{authErr(), authErr(), authErr(), authErr()},
		}
		g, err := NewGateway(p,
			WithMaxRetries(0),
			WithFailureThreshold(3),
			WithCooldown(time.Hour),
		)
		if err != nil {
			t.Fatalf("NewGateway() error = %v", err)
		}
		g.sleep = noSleep

		// Three failures open the breaker.
		for range 3 {
			if _, err := g.Analyze(context.Background(), "prompt"); err == nil {
				t.Fatal("Analyze() should fail")
			}
		}

		// Fourth call short-circuits without reaching the provider.
		if _, err := g.Analyze(context.Background(), "prompt"); !errors.Is(err, ErrProviderUnavailable) {
			t.Errorf("Analyze() error = %v, want ErrProviderUnavailable", err)
		}
		if p.callCount() != 3 {
			t.Errorf("calls = %d, want 3 (breaker must block the 4th)", p.callCount())
		}
	})

	t.Run("closes after cooldown", func(t *testing.T) {
		t.Parallel()

		p := &fakeProvider{
			name:    "openai",
			text:    "back",
			results: []error{authErr(), authErr(), nil},
		}
		g, err := NewGateway(p,
			WithMaxRetries(0),
			WithFailureThreshold(2),
			WithCooldown(10*time.Millisecond),
		)
		if err != nil {
			t.Fatalf("NewGateway() error = %v", err)
		}
		g.sleep = noSleep

		for range 2 {
			_, _ = g.Analyze(context.Background(), "prompt")
		}
		if _, err := g.Analyze(context.Background(), "prompt"); !errors.Is(err, ErrProviderUnavailable) {
			t.Fatalf("breaker should be open, got %v", err)
		}

		time.Sleep(20 * time.Millisecond)

		resp, err := g.Analyze(context.Background(), "prompt")
		if err != nil {
			t.Fatalf("Analyze() after cooldown error = %v", err)
		}
		if resp.Text != "back" {
			t.Errorf("Text = %q, want back", resp.Text)
		}
	})

	t.Run("fallback engages when primary circuit opens", func(t *testing.T) {
		t.Parallel()

		primary := &fakeProvider{
			name:    "openai",
			results: []error{authErr(), authErr(), authErr()},
		}
		fallback := &fakeProvider{name: "ollama", text: "fallback answer"}

		g, err := NewGateway(primary,
			WithFallbacks(fallback),
			WithMaxRetries(0),
			WithFailureThreshold(3),
			WithCooldown(time.Hour),
		)
		if err != nil {
			t.Fatalf("NewGateway() error = %v", err)
		}
		g.sleep = noSleep

		// Each call fails over to the fallback; the primary accumulates
		// failures until its breaker opens.
		for range 4 {
			resp, err := g.Analyze(context.Background(), "prompt")
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if resp.Provider != "ollama" {
				t.Errorf("Provider = %q, want ollama", resp.Provider)
			}
		}

		if primary.callCount() != 3 {
			t.Errorf("primary calls = %d, want 3 (breaker open on 4th)", primary.callCount())
		}
	})
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	for _, name := range ProviderNames() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p, err := NewProvider(name, ProviderSettings{APIKey: "k"})
			if err != nil {
				t.Fatalf("NewProvider(%q) error = %v", name, err)
			}
			if p.Name() != name {
				t.Errorf("Name() = %q, want %q", p.Name(), name)
			}
		})
	}

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()

		if _, err := NewProvider("bard", ProviderSettings{}); !errors.Is(err, ErrUnknownProvider) {
			t.Errorf("NewProvider() error = %v, want ErrUnknownProvider", err)
		}
	})
}
