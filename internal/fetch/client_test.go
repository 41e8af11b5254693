package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("default options", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient()
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		if client.httpClient == nil {
			t.Error("httpClient should not be nil")
		}
		if client.userAgent == "" {
			t.Error("userAgent should have a default")
		}
	})

	t.Run("http proxy", func(t *testing.T) {
		t.Parallel()

		if _, err := NewClient(WithProxy("http://127.0.0.1:8080")); err != nil {
			t.Errorf("NewClient() with http proxy error = %v", err)
		}
	})

	t.Run("socks5 proxy", func(t *testing.T) {
		t.Parallel()

		if _, err := NewClient(WithProxy("socks5://127.0.0.1:9050")); err != nil {
			t.Errorf("NewClient() with socks5 proxy error = %v", err)
		}
	})

	t.Run("unsupported proxy scheme", func(t *testing.T) {
		t.Parallel()

		if _, err := NewClient(WithProxy("ftp://127.0.0.1:21")); err == nil {
			t.Error("NewClient() should reject ftp proxy scheme")
		}
	})
}

func TestClientFetch(t *testing.T) {
	t.Parallel()

	t.Run("successful fetch populates page", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("X-Powered-By", "PHP/5.4.0")
			_, _ = w.Write([]byte("<html><head><title>Test</title></head><body>hello</body></html>"))
		}))
		defer server.Close()

		client, err := NewClient()
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		page, err := client.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}

		if page.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want %d", page.StatusCode, http.StatusOK)
		}
		if page.ContentType != "text/html" {
			t.Errorf("ContentType = %q, want %q", page.ContentType, "text/html")
		}
		if page.GetHeader("X-Powered-By") != "PHP/5.4.0" {
			t.Errorf("X-Powered-By = %q, want %q", page.GetHeader("X-Powered-By"), "PHP/5.4.0")
		}
		if !strings.Contains(string(page.Body), "hello") {
			t.Error("Body should contain response content")
		}
		if page.Hash == "" {
			t.Error("Hash should be computed")
		}
	})

	t.Run("non-2xx status is not an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client, err := NewClient()
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		page, err := client.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if page.StatusCode != http.StatusInternalServerError {
			t.Errorf("StatusCode = %d, want %d", page.StatusCode, http.StatusInternalServerError)
		}
	})

	t.Run("sends user agent and custom headers", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotCustom, gotCookie string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotCustom = r.Header.Get("X-Scan-Token")
			gotCookie = r.Header.Get("Cookie")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client, err := NewClient(
			WithUserAgent("custom-agent/1.0"),
			WithHeaders(map[string]string{"X-Scan-Token": "abc123"}),
			WithCookie("session=xyz"),
		)
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		if _, err := client.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}

		if gotUA != "custom-agent/1.0" {
			t.Errorf("User-Agent = %q, want %q", gotUA, "custom-agent/1.0")
		}
		if gotCustom != "abc123" {
			t.Errorf("X-Scan-Token = %q, want %q", gotCustom, "abc123")
		}
		if !strings.Contains(gotCookie, "session=xyz") {
			t.Errorf("Cookie = %q, should contain session=xyz", gotCookie)
		}
	})

	t.Run("body truncated to max size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("a", 1024)))
		}))
		defer server.Close()

		client, err := NewClient(WithMaxBodySize(100))
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		page, err := client.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if len(page.Body) != 100 {
			t.Errorf("Body length = %d, want 100", len(page.Body))
		}
	})

	t.Run("context cancellation aborts fetch", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(2 * time.Second)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client, err := NewClient()
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if _, err := client.Fetch(ctx, server.URL); err == nil {
			t.Error("Fetch() should fail when context is cancelled")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient()
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		if _, err := client.Fetch(context.Background(), "://not-a-url"); err == nil {
			t.Error("Fetch() should fail for invalid URL")
		}
	})
}
