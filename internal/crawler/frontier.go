package crawler

import (
	"net/url"
	"strings"
	"sync"
)

// Decision is the result of offering a URL to the frontier.
type Decision int

const (
	// Accepted means the URL was queued for scanning.
	Accepted Decision = iota

	// RejectDuplicate means the normalized URL is already known.
	RejectDuplicate

	// RejectDepth means the URL exceeds the configured maximum depth.
	RejectDepth

	// RejectScope means the URL's host is outside the scan scope.
	RejectScope

	// RejectInvalid means the URL could not be parsed.
	RejectInvalid
)

// String returns a human-readable rejection reason.
func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case RejectDuplicate:
		return "duplicate"
	case RejectDepth:
		return "depth exceeded"
	case RejectScope:
		return "out of scope"
	case RejectInvalid:
		return "invalid URL"
	default:
		return "unknown"
	}
}

// URLRecord tracks one discovered URL and its crawl bookkeeping.
// Records are created on discovery and retained after visiting for the
// final report; they are never deleted during a session.
type URLRecord struct {
	// URL is the normalized URL.
	URL string

	// Depth is the number of hops from the seed (seed = 0).
	Depth int

	// Parent is the normalized URL of the page that discovered this one.
	// Empty for the seed.
	Parent string

	// Visited is set exactly once when a worker finishes the record.
	Visited bool
}

// Frontier tracks visited and pending URLs, enforcing depth, scope, and
// dedup. Dequeue order is FIFO over whatever has been enqueued, which gives
// breadth-first traversal: depth 0 is the seed only, depth N is N hops out.
//
// Design decision: NextPending moves a record in-flight rather than marking
// it visited immediately, so the scheduler can distinguish "drained" (no
// pending AND no in-flight work that might discover more) from "temporarily
// empty while siblings are still parsing pages".
type Frontier struct {
	mu sync.Mutex

	// records maps normalized URL to its record. Identity comparison always
	// happens on the normalized form.
	records map[string]*URLRecord

	// queue holds pending records in discovery order.
	queue []*URLRecord

	// inFlight counts records handed to workers but not yet Done.
	inFlight int

	// maxDepth limits how deep to crawl from the seed.
	maxDepth int

	// scopeHost is the seed's host; discoveries on other hosts are rejected
	// unless listed in allowedHosts.
	scopeHost string

	// allowedHosts are additional hosts permitted besides the seed host.
	allowedHosts map[string]bool
}

// FrontierOption configures a Frontier.
type FrontierOption func(*Frontier)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the seed page, 1 = seed plus directly linked pages, etc.
func WithMaxDepth(depth int) FrontierOption {
	return func(f *Frontier) {
		f.maxDepth = depth
	}
}

// WithAllowedHosts permits discoveries on hosts other than the seed's.
func WithAllowedHosts(hosts []string) FrontierOption {
	return func(f *Frontier) {
		for _, h := range hosts {
			f.allowedHosts[strings.ToLower(h)] = true
		}
	}
}

// NewFrontier creates a frontier scoped to the given seed URL's host.
func NewFrontier(seedURL string, opts ...FrontierOption) (*Frontier, error) {
	u, err := url.Parse(seedURL)
	if err != nil {
		return nil, err
	}

	f := &Frontier{
		records:      make(map[string]*URLRecord),
		queue:        make([]*URLRecord, 0),
		maxDepth:     2,
		scopeHost:    strings.ToLower(u.Host),
		allowedHosts: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Discover offers a URL to the frontier. It accepts only if the normalized
// form is not already known, the depth is within bounds, and the host is in
// scope. Thread-safe for concurrent calls from multiple workers.
func (f *Frontier) Discover(rawURL string, depth int, parent string) Decision {
	normalized, host, ok := NormalizeURL(rawURL)
	if !ok {
		return RejectInvalid
	}

	if depth > f.maxDepth {
		return RejectDepth
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.inScope(host) {
		return RejectScope
	}

	if _, known := f.records[normalized]; known {
		return RejectDuplicate
	}

	rec := &URLRecord{
		URL:    normalized,
		Depth:  depth,
		Parent: parent,
	}
	f.records[normalized] = rec
	f.queue = append(f.queue, rec)

	return Accepted
}

// NextPending returns the oldest pending record, moving it in-flight.
// Returns false if no record is pending right now; callers should consult
// Drained to decide whether more work may still appear.
func (f *Frontier) NextPending() (*URLRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return nil, false
	}

	rec := f.queue[0]
	f.queue = f.queue[1:]
	f.inFlight++

	return rec, true
}

// Done marks an in-flight record as visited. Must be called exactly once
// per record returned by NextPending, after any link discovery for that
// page has been fed back via Discover.
func (f *Frontier) Done(rec *URLRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !rec.Visited {
		rec.Visited = true
		f.inFlight--
	}
}

// Drained reports whether the frontier has no pending and no in-flight
// records, meaning no future discoveries are possible.
func (f *Frontier) Drained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) == 0 && f.inFlight == 0
}

// Stats returns current frontier statistics.
func (f *Frontier) Stats() FrontierStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	visited := 0
	for _, rec := range f.records {
		if rec.Visited {
			visited++
		}
	}

	return FrontierStats{
		Discovered: len(f.records),
		Pending:    len(f.queue),
		Visited:    visited,
	}
}

// FrontierStats contains frontier counters.
type FrontierStats struct {
	// Discovered is the number of unique URLs accepted.
	Discovered int

	// Pending is the number of URLs queued but not yet claimed.
	Pending int

	// Visited is the number of URLs fully processed.
	Visited int
}

// inScope checks a host against the seed host and the allowlist.
// Caller must hold f.mu.
func (f *Frontier) inScope(host string) bool {
	if host == f.scopeHost {
		return true
	}
	return f.allowedHosts[host]
}

// NormalizeURL normalizes a URL for identity comparison and returns the
// normalized form together with the lowercased host. ok is false when the
// URL cannot be parsed or is not HTTP(S).
//
// Design decision: We normalize URLs because:
//  1. Same page can have different URL representations
//  2. Fragment (#anchor) doesn't change content
//  3. Empty path and "/" are equivalent for the root
func NormalizeURL(rawURL string) (normalized, host string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", false
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", false
	}

	u.Host = strings.ToLower(u.Host)
	if u.Host == "" {
		return "", "", false
	}

	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), u.Host, true
}
