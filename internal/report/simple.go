package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with severity indicators
// and clear section formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the session in human-readable format.
func (w *SimpleWriter) Write(session *model.ScanSession) (int, error) {
	var sb strings.Builder

	// Header
	w.writeHeader(&sb, session)

	// Summary
	w.writeSummary(&sb, session)

	// Findings by severity
	w.writeFindings(&sb, session)

	// Footer
	w.writeFooter(&sb)

	// Write to output
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, session *model.ScanSession) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          DEEPEYE SCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Target:          %s\n", session.Target))
	sb.WriteString(fmt.Sprintf("Scan Date:       %s\n", session.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Test Set:        %s\n", session.TestSet))
	sb.WriteString(fmt.Sprintf("Pages Visited:   %d\n", session.PagesVisited))
	sb.WriteString(fmt.Sprintf("URLs Discovered: %d\n", session.URLsDiscovered))
	if d := session.Duration(); d > 0 {
		sb.WriteString(fmt.Sprintf("Duration:        %s\n", d.Round(10*time.Millisecond)))
	}

	switch {
	case session.Cancelled:
		sb.WriteString("Status:          CANCELLED (partial results)\n")
	case session.ErrorCount > 0:
		sb.WriteString(fmt.Sprintf("Status:          Complete (%d request errors)\n", session.ErrorCount))
	default:
		sb.WriteString("Status:          Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, session *model.ScanSession) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SEVERITY SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  CRITICAL: %d\n", session.CriticalCount))
	sb.WriteString(fmt.Sprintf("  HIGH:     %d\n", session.HighCount))
	sb.WriteString(fmt.Sprintf("  MEDIUM:   %d\n", session.MediumCount))
	sb.WriteString(fmt.Sprintf("  LOW:      %d\n", session.LowCount))
	sb.WriteString(fmt.Sprintf("  INFO:     %d\n", session.InfoCount))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  TOTAL:    %d findings\n", session.TotalFindings()))
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, session *model.ScanSession) {
	if !session.HasFindings() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	// Write findings in order of severity (critical first)
	severities := []model.Severity{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
		model.SeverityInfo,
	}

	for _, severity := range severities {
		findings := session.FindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	// Severity header with visual indicator
	indicator := w.getSeverityIndicator(severity)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, severity.String()))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s\n", finding.Title))
		sb.WriteString(fmt.Sprintf("    URL: %s\n", finding.URL))
		if finding.Evidence != "" {
			sb.WriteString(fmt.Sprintf("    Evidence: %s\n", finding.Evidence))
		}
		if finding.Occurrences > 1 {
			sb.WriteString(fmt.Sprintf("    Occurrences: %d\n", finding.Occurrences))
		}
		if w.verbose {
			if finding.Description != "" {
				sb.WriteString(fmt.Sprintf("    Description: %s\n", finding.Description))
			}
			if finding.Impact != "" {
				sb.WriteString(fmt.Sprintf("    Impact: %s\n", finding.Impact))
			}
			if finding.Recommendation != "" {
				sb.WriteString(fmt.Sprintf("    Recommendation: %s\n", finding.Recommendation))
			}
		}
		if finding.AIAnnotation != "" {
			sb.WriteString(fmt.Sprintf("    AI Analysis: %s\n", finding.AIAnnotation))
		} else if w.verbose && finding.AIAnnotationError != "" {
			sb.WriteString(fmt.Sprintf("    AI Analysis unavailable: %s\n", finding.AIAnnotationError))
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by DeepEye\n")
	sb.WriteString("https://github.com/deepeye-sec/deepeye\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
