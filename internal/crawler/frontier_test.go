package crawler

import (
	"fmt"
	"sync"
	"testing"
)

// TestNewFrontier tests frontier creation.
func TestNewFrontier(t *testing.T) {
	t.Parallel()

	t.Run("scopes to seed host", func(t *testing.T) {
		t.Parallel()

		f, err := NewFrontier("https://Example.COM/start")
		if err != nil {
			t.Fatalf("NewFrontier() error = %v", err)
		}

		if d := f.Discover("https://example.com/page", 1, ""); d != Accepted {
			t.Errorf("same-host discover = %v, want accepted", d)
		}
		if d := f.Discover("https://other.com/page", 1, ""); d != RejectScope {
			t.Errorf("cross-host discover = %v, want out of scope", d)
		}
	})

	t.Run("allowed hosts extend scope", func(t *testing.T) {
		t.Parallel()

		f, err := NewFrontier("https://example.com",
			WithAllowedHosts([]string{"Static.Example.com"}))
		if err != nil {
			t.Fatalf("NewFrontier() error = %v", err)
		}

		if d := f.Discover("https://static.example.com/app.js", 1, ""); d != Accepted {
			t.Errorf("allowed-host discover = %v, want accepted", d)
		}
	})

	t.Run("invalid seed URL fails", func(t *testing.T) {
		t.Parallel()

		if _, err := NewFrontier("://not a url"); err == nil {
			t.Error("expected error for invalid seed URL")
		}
	})
}

// TestFrontierDiscover tests URL admission rules.
func TestFrontierDiscover(t *testing.T) {
	t.Parallel()

	t.Run("rejects duplicates after normalization", func(t *testing.T) {
		t.Parallel()

		f, err := NewFrontier("https://example.com")
		if err != nil {
			t.Fatal(err)
		}

		if d := f.Discover("https://example.com/page", 1, ""); d != Accepted {
			t.Fatalf("first discover = %v, want accepted", d)
		}
		// Same page: fragment stripped, scheme and host case-folded.
		if d := f.Discover("HTTPS://EXAMPLE.COM/page#section", 1, ""); d != RejectDuplicate {
			t.Errorf("second discover = %v, want duplicate", d)
		}
	})

	t.Run("root path and empty path are the same URL", func(t *testing.T) {
		t.Parallel()

		f, err := NewFrontier("https://example.com")
		if err != nil {
			t.Fatal(err)
		}

		if d := f.Discover("https://example.com", 0, ""); d != Accepted {
			t.Fatalf("discover = %v, want accepted", d)
		}
		if d := f.Discover("https://example.com/", 0, ""); d != RejectDuplicate {
			t.Errorf("discover = %v, want duplicate", d)
		}
	})

	t.Run("rejects beyond max depth", func(t *testing.T) {
		t.Parallel()

		f, err := NewFrontier("https://example.com", WithMaxDepth(1))
		if err != nil {
			t.Fatal(err)
		}

		if d := f.Discover("https://example.com/a", 1, ""); d != Accepted {
			t.Errorf("depth 1 = %v, want accepted", d)
		}
		if d := f.Discover("https://example.com/b", 2, ""); d != RejectDepth {
			t.Errorf("depth 2 = %v, want depth exceeded", d)
		}
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		t.Parallel()

		f, err := NewFrontier("https://example.com")
		if err != nil {
			t.Fatal(err)
		}

		if d := f.Discover("ftp://example.com/file", 1, ""); d != RejectInvalid {
			t.Errorf("ftp discover = %v, want invalid", d)
		}
	})
}

// TestFrontierLifecycle tests the pending/in-flight/drained transitions.
func TestFrontierLifecycle(t *testing.T) {
	t.Parallel()

	f, err := NewFrontier("https://example.com")
	if err != nil {
		t.Fatal(err)
	}

	if !f.Drained() {
		t.Error("new frontier should be drained")
	}

	f.Discover("https://example.com/a", 0, "")
	f.Discover("https://example.com/b", 1, "https://example.com/a")

	rec, ok := f.NextPending()
	if !ok {
		t.Fatal("expected a pending record")
	}
	if rec.URL != "https://example.com/a" {
		t.Errorf("dequeue order: got %s, want /a first", rec.URL)
	}

	// One record in-flight, one pending: not drained either way.
	if f.Drained() {
		t.Error("frontier with in-flight work should not be drained")
	}

	f.Done(rec)
	rec2, ok := f.NextPending()
	if !ok {
		t.Fatal("expected second pending record")
	}
	if rec2.Parent != "https://example.com/a" {
		t.Errorf("Parent = %q, want discovering page", rec2.Parent)
	}
	f.Done(rec2)

	if !f.Drained() {
		t.Error("frontier should be drained after all records are done")
	}

	stats := f.Stats()
	if stats.Discovered != 2 || stats.Visited != 2 || stats.Pending != 0 {
		t.Errorf("Stats() = %+v, want 2 discovered, 2 visited, 0 pending", stats)
	}
}

// TestFrontierConcurrentDiscover tests that concurrent workers never
// accept the same URL twice.
func TestFrontierConcurrentDiscover(t *testing.T) {
	t.Parallel()

	f, err := NewFrontier("https://example.com", WithMaxDepth(10))
	if err != nil {
		t.Fatal(err)
	}

	const workers = 8
	const urls = 50

	var wg sync.WaitGroup
	accepted := make([]int, workers)
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range urls {
				u := fmt.Sprintf("https://example.com/page-%d", i)
				if f.Discover(u, 1, "") == Accepted {
					accepted[w]++
				}
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, n := range accepted {
		total += n
	}
	if total != urls {
		t.Errorf("total accepted = %d, want %d (each URL accepted exactly once)", total, urls)
	}
	if stats := f.Stats(); stats.Discovered != urls {
		t.Errorf("Discovered = %d, want %d", stats.Discovered, urls)
	}
}

// TestNormalizeURL tests URL normalization rules.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		want     string
		wantHost string
		wantOK   bool
	}{
		{
			name:     "lowercases scheme and host",
			input:    "HTTPS://Example.COM/Path",
			want:     "https://example.com/Path",
			wantHost: "example.com",
			wantOK:   true,
		},
		{
			name:     "strips fragment",
			input:    "https://example.com/page#top",
			want:     "https://example.com/page",
			wantHost: "example.com",
			wantOK:   true,
		},
		{
			name:     "adds root path",
			input:    "https://example.com",
			want:     "https://example.com/",
			wantHost: "example.com",
			wantOK:   true,
		},
		{
			name:     "keeps query string",
			input:    "https://example.com/search?q=test",
			want:     "https://example.com/search?q=test",
			wantHost: "example.com",
			wantOK:   true,
		},
		{
			name:   "rejects non-http scheme",
			input:  "mailto:user@example.com",
			wantOK: false,
		},
		{
			name:   "rejects missing host",
			input:  "https:///path",
			wantOK: false,
		},
		{
			name:   "rejects unparseable",
			input:  "://bad",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, host, ok := NormalizeURL(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("normalized = %q, want %q", got, tt.want)
			}
			if host != tt.wantHost {
				t.Errorf("host = %q, want %q", host, tt.wantHost)
			}
		})
	}
}

// TestDecisionString tests rejection reason text.
func TestDecisionString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		decision Decision
		want     string
	}{
		{Accepted, "accepted"},
		{RejectDuplicate, "duplicate"},
		{RejectDepth, "depth exceeded"},
		{RejectScope, "out of scope"},
		{RejectInvalid, "invalid URL"},
		{Decision(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.decision.String(); got != tt.want {
			t.Errorf("Decision(%d).String() = %q, want %q", tt.decision, got, tt.want)
		}
	}
}
