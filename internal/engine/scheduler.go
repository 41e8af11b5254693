package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/deepeye-sec/deepeye/internal/aggregate"
	"github.com/deepeye-sec/deepeye/internal/crawler"
	"github.com/deepeye-sec/deepeye/internal/model"
)

// ErrInvalidTarget is returned when the seed URL cannot seed a frontier.
var ErrInvalidTarget = errors.New("invalid scan target URL")

// Fetcher retrieves pages for workers. Satisfied by *fetch.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.Page, error)
}

// CheckRunner executes checks against a page. Satisfied by *checks.Runner.
type CheckRunner interface {
	RunPage(ctx context.Context, page *model.Page) []model.Finding
}

// Options configures one scan session. Collaborators are injected so tests
// can substitute httptest-backed fetchers and canned runners.
type Options struct {
	// Target is the seed URL.
	Target string

	// TestSet names the check set, recorded on the session.
	TestSet string

	// Threads is the worker pool size. Values below 1 are treated as 1.
	Threads int

	// MaxDepth bounds crawl depth from the seed.
	MaxDepth int

	// MaxPages caps the number of pages fetched; 0 means unlimited.
	MaxPages int

	// RequestsPerSecond limits the aggregate fetch rate across all
	// workers; 0 means unlimited.
	RequestsPerSecond float64

	// Fetcher retrieves pages.
	Fetcher Fetcher

	// Runner executes checks.
	Runner CheckRunner

	// Logger for scan progress. Defaults to slog.Default().
	Logger *slog.Logger
}

// SessionHandle controls a running scan session.
type SessionHandle struct {
	cancel  context.CancelFunc
	done    chan struct{}
	session *model.ScanSession
}

// Wait blocks until the session finishes and returns the finalized session.
// Safe to call multiple times.
func (h *SessionHandle) Wait() *model.ScanSession {
	<-h.done
	return h.session
}

// Cancel requests a graceful stop: in-flight pages finish, their findings
// are kept, and the session is finalized with Cancelled set.
func (h *SessionHandle) Cancel() {
	h.cancel()
}

// Scheduler owns the shared state of one running session.
type Scheduler struct {
	opts     Options
	frontier *crawler.Frontier
	agg      *aggregate.Aggregator
	limiter  *rate.Limiter
	logger   *slog.Logger

	// pagesStarted counts claims against the MaxPages budget.
	pagesStarted atomic.Int64

	// pagesVisited counts completed fetch attempts.
	pagesVisited atomic.Int64

	// errorCount counts failed fetches.
	errorCount atomic.Int64

	// cancelled is set when the context ended before the frontier drained.
	cancelled atomic.Bool
}

// StartSession validates options, seeds the frontier, and launches the
// worker pool. The returned handle's Wait() yields the finalized session.
func StartSession(ctx context.Context, opts Options) (*SessionHandle, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("no fetcher configured")
	}
	if opts.Runner == nil {
		return nil, errors.New("no check runner configured")
	}
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	normalized, _, ok := crawler.NormalizeURL(opts.Target)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, opts.Target)
	}
	opts.Target = normalized

	frontier, err := crawler.NewFrontier(normalized, crawler.WithMaxDepth(opts.MaxDepth))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTarget, opts.Target, err)
	}
	if d := frontier.Discover(normalized, 0, ""); d != crawler.Accepted {
		return nil, fmt.Errorf("%w: seed rejected (%s)", ErrInvalidTarget, d)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	s := &Scheduler{
		opts:     opts,
		frontier: frontier,
		agg:      aggregate.New(),
		limiter:  rate.NewLimiter(limit, 1),
		logger:   opts.Logger,
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	handle := &SessionHandle{
		cancel:  cancel,
		done:    make(chan struct{}),
		session: model.NewScanSession(opts.Target, opts.TestSet),
	}

	go func() {
		defer close(handle.done)
		defer cancel()
		s.run(sessionCtx)
		s.finalize(handle.session)
	}()

	return handle, nil
}

// run executes the worker pool until the frontier drains or the context is
// cancelled.
func (s *Scheduler) run(ctx context.Context) {
	g, workerCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Threads)

	for i := range s.opts.Threads {
		workerID := i
		g.Go(func() error {
			s.worker(workerCtx, workerID)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors; failures become findings

	// ctx here is the session context, cancelled only from outside; the
	// natural drain path reaches this point with a live context.
	if ctx.Err() != nil {
		s.cancelled.Store(true)
	}
}

// worker is the per-goroutine scan loop: claim, fetch, check, feed links
// back, mark done.
func (s *Scheduler) worker(ctx context.Context, id int) {
	idleWait := time.NewTicker(10 * time.Millisecond)
	defer idleWait.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rec, ok := s.frontier.NextPending()
		if !ok {
			if s.frontier.Drained() {
				return
			}
			// Siblings are mid-page; their parses may enqueue more work.
			select {
			case <-ctx.Done():
				return
			case <-idleWait.C:
			}
			continue
		}

		s.processRecord(ctx, id, rec)
	}
}

// processRecord handles one claimed frontier record end to end.
func (s *Scheduler) processRecord(ctx context.Context, workerID int, rec *crawler.URLRecord) {
	defer s.frontier.Done(rec)

	if s.opts.MaxPages > 0 && s.pagesStarted.Add(1) > int64(s.opts.MaxPages) {
		// Budget spent: discard without fetching so the frontier can drain.
		return
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return
	}

	s.logger.Debug("fetching page",
		slog.Int("worker", workerID),
		slog.String("url", rec.URL),
		slog.Int("depth", rec.Depth))

	page, err := s.opts.Fetcher.Fetch(ctx, rec.URL)
	s.pagesVisited.Add(1)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.errorCount.Add(1)
		s.agg.Add(model.NewFinding(
			"fetch_error",
			rec.URL,
			"Page could not be fetched",
			"The page was discovered during the crawl but the request failed, so no checks ran against it.",
			err.Error(),
		))
		return
	}

	// Server errors produce an error page, not the real one: record the
	// failure and skip it. Client errors (401, 403, 404) still carry the
	// site's real headers and are worth checking.
	if page.StatusCode >= 500 {
		s.errorCount.Add(1)
		s.agg.Add(model.NewFinding(
			"fetch_error",
			rec.URL,
			"Page returned a server error",
			"The server answered with an error status, so no checks ran against this page.",
			fmt.Sprintf("HTTP %d", page.StatusCode),
		))
		return
	}

	page.Depth = rec.Depth
	if page.IsHTML() {
		s.parsePage(page)
	}

	for _, finding := range s.opts.Runner.RunPage(ctx, page) {
		s.agg.Add(finding)
	}

	for _, link := range page.Links {
		s.frontier.Discover(link, rec.Depth+1, rec.URL)
	}
}

// parsePage extracts HTML structure into the page and leaves Links holding
// only in-host URLs eligible for crawling.
func (s *Scheduler) parsePage(page *model.Page) {
	parser, err := crawler.NewParser(page.URL)
	if err != nil {
		return
	}
	result, err := parser.Parse(bytes.NewReader(page.Body))
	if err != nil {
		s.logger.Debug("page parse failed",
			slog.String("url", page.URL),
			slog.String("error", err.Error()))
		return
	}

	page.Title = result.Title
	page.Forms = result.Forms
	page.Scripts = result.Scripts
	page.Styles = result.Styles
	page.Images = result.Images
	page.Comments = result.Comments
	// All links feed the checks; the frontier's scope rules decide which
	// are crawled.
	page.Links = result.Links
}

// finalize writes the session's counters and findings exactly once.
func (s *Scheduler) finalize(session *model.ScanSession) {
	stats := s.frontier.Stats()
	session.FinishedAt = time.Now()
	session.PagesVisited = int(s.pagesVisited.Load())
	session.URLsDiscovered = stats.Discovered
	session.ErrorCount = int(s.errorCount.Load())
	session.Cancelled = s.cancelled.Load()
	session.SetFindings(s.agg.Snapshot())

	s.logger.Info("scan session finished",
		slog.String("session", session.ID),
		slog.String("target", session.Target),
		slog.Int("pages", session.PagesVisited),
		slog.Int("findings", session.TotalFindings()),
		slog.Bool("cancelled", session.Cancelled))
}
