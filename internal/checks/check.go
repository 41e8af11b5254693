package checks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// Check is a single security test executed against a fetched page.
// Implementations must be safe for concurrent use by multiple workers.
type Check interface {
	// Name returns the check's identifier, used for test-set selection
	// and internal_check_error attribution.
	Name() string

	// Passive reports whether the check inspects only the fetched page.
	// All catalog checks are passive today; the flag exists so a future
	// active check is automatically excluded from the recon set.
	Passive() bool

	// Run executes the check against a page. A returned error is converted
	// by the Runner into an internal_check_error finding; it never aborts
	// sibling checks.
	Run(ctx context.Context, page *model.Page) ([]model.Finding, error)
}

// ErrUnknownTestSet is returned when a test set name is not in the catalog.
var ErrUnknownTestSet = errors.New("unknown test set")

// Test set names.
const (
	TestSetRecon = "recon"
	TestSetQuick = "quick"
	TestSetFull  = "full"
)

// testSets maps a test set name to the check names it includes.
// Membership is data, not logic: adding a check to a set is an edit here.
var testSets = map[string][]string{
	TestSetRecon: {
		"security_headers",
		"server_fingerprint",
		"sensitive_paths",
		"cookie_flags",
		"html_comments",
	},
	TestSetQuick: {
		"security_headers",
		"server_fingerprint",
		"cookie_flags",
		"cors_policy",
		"mixed_content",
	},
	TestSetFull: {
		"security_headers",
		"server_fingerprint",
		"reflected_input",
		"sensitive_paths",
		"cookie_flags",
		"cors_policy",
		"mixed_content",
		"form_security",
		"html_comments",
		"image_metadata",
	},
}

// TestSetNames returns the valid test set names.
func TestSetNames() []string {
	return []string{TestSetRecon, TestSetQuick, TestSetFull}
}

// catalog returns one instance of every check in the closed catalog,
// keyed by name.
func catalog() map[string]Check {
	all := []Check{
		NewSecurityHeadersCheck(),
		NewServerFingerprintCheck(),
		NewReflectedInputCheck(),
		NewSensitivePathsCheck(),
		NewCookieFlagsCheck(),
		NewCORSPolicyCheck(),
		NewMixedContentCheck(),
		NewFormSecurityCheck(),
		NewHTMLCommentsCheck(),
		NewImageMetadataCheck(),
	}
	m := make(map[string]Check, len(all))
	for _, c := range all {
		m[c.Name()] = c
	}
	return m
}

// AnnotateFunc produces an AI annotation for the given prompt.
// The Runner treats a returned error as "annotation unavailable": the
// finding is kept, AIAnnotation stays empty, and AIAnnotationError records
// the cause.
type AnnotateFunc func(ctx context.Context, prompt string) (string, error)

// Annotation granularity values.
const (
	AnnotateOff     = "off"
	AnnotatePage    = "page"
	AnnotateFinding = "finding"
)

// Runner executes a selected set of checks against pages.
//
// Design decision: The Runner owns check-error isolation because:
//  1. A broken check must never silence the other checks on the page
//  2. Workers stay simple: one RunPage call per fetched page
//  3. Error findings flow through the same aggregation path as real ones
type Runner struct {
	// checks are the selected checks, in catalog order.
	checks []Check

	// logger for per-check diagnostics.
	logger *slog.Logger

	// annotate is the optional AI annotation hook.
	annotate AnnotateFunc

	// granularity is one of off, page, finding.
	granularity string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithAnnotator enables AI annotation of findings at the given granularity.
func WithAnnotator(fn AnnotateFunc, granularity string) RunnerOption {
	return func(r *Runner) {
		r.annotate = fn
		r.granularity = granularity
	}
}

// NewRunner creates a Runner for the named test set.
func NewRunner(testSet string, opts ...RunnerOption) (*Runner, error) {
	names, ok := testSets[testSet]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownTestSet, testSet, strings.Join(TestSetNames(), ", "))
	}

	cat := catalog()
	selected := make([]Check, 0, len(names))
	for _, name := range names {
		selected = append(selected, cat[name])
	}

	r := &Runner{
		checks:      selected,
		logger:      slog.Default(),
		granularity: AnnotateOff,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// CheckNames returns the names of the selected checks, in execution order.
func (r *Runner) CheckNames() []string {
	names := make([]string, 0, len(r.checks))
	for _, c := range r.checks {
		names = append(names, c.Name())
	}
	return names
}

// RunPage runs all selected checks against the page and returns the
// combined findings. Check failures become internal_check_error findings.
func (r *Runner) RunPage(ctx context.Context, page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	for _, check := range r.checks {
		select {
		case <-ctx.Done():
			return findings
		default:
		}

		checkFindings, err := check.Run(ctx, page)
		if err != nil {
			r.logger.Warn("check failed",
				slog.String("check", check.Name()),
				slog.String("url", page.URL),
				slog.String("error", err.Error()))
			findings = append(findings, model.NewFinding(
				"internal_check_error",
				page.URL,
				"Check execution failed: "+check.Name(),
				"The "+check.Name()+" check encountered an internal error and produced no results for this page.",
				err.Error(),
			))
			continue
		}
		findings = append(findings, checkFindings...)
	}

	r.applyAnnotations(ctx, page, findings)

	return findings
}

// applyAnnotations attaches AI annotations to findings according to the
// configured granularity.
func (r *Runner) applyAnnotations(ctx context.Context, page *model.Page, findings []model.Finding) {
	if r.annotate == nil || r.granularity == AnnotateOff || len(findings) == 0 {
		return
	}

	switch r.granularity {
	case AnnotateFinding:
		for i := range findings {
			text, err := r.annotate(ctx, findingPrompt(findings[i]))
			if err != nil {
				findings[i].AIAnnotationError = err.Error()
				continue
			}
			findings[i].AIAnnotation = text
		}
	case AnnotatePage:
		text, err := r.annotate(ctx, pagePrompt(page, findings))
		if err != nil {
			for i := range findings {
				findings[i].AIAnnotationError = err.Error()
			}
			return
		}
		for i := range findings {
			findings[i].AIAnnotation = text
		}
	}
}

// findingPrompt builds the annotation prompt for a single finding.
func findingPrompt(f model.Finding) string {
	var b strings.Builder
	b.WriteString("Explain the security impact of the following finding and how to remediate it.\n")
	b.WriteString("Finding: " + f.Title + "\n")
	b.WriteString("Severity: " + f.SeverityText + "\n")
	b.WriteString("URL: " + f.URL + "\n")
	if f.Evidence != "" {
		b.WriteString("Evidence: " + f.Evidence + "\n")
	}
	return b.String()
}

// pagePrompt builds one combined prompt for all findings on a page.
func pagePrompt(page *model.Page, findings []model.Finding) string {
	var b strings.Builder
	b.WriteString("Summarize the security posture of " + page.URL + " given these findings:\n")
	for _, f := range findings {
		b.WriteString("- [" + f.SeverityText + "] " + f.Title + "\n")
	}
	return b.String()
}
