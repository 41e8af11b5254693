package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the session in Markdown format.
func (w *MarkdownWriter) Write(session *model.ScanSession) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, session)

	// Summary
	w.writeSummary(md, session)

	// Findings by severity
	w.writeFindings(md, session)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, session *model.ScanSession) {
	md.H1("DeepEye Scan Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + session.Target + "`"},
			{"Scan Date", session.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Test Set", session.TestSet},
			{"Pages Visited", strconv.Itoa(session.PagesVisited)},
			{"URLs Discovered", strconv.Itoa(session.URLsDiscovered)},
			{"Status", w.getStatusText(session)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on session state.
func (w *MarkdownWriter) getStatusText(session *model.ScanSession) string {
	if session.Cancelled {
		return "⚠️ Cancelled (partial results)"
	}
	if session.ErrorCount > 0 {
		return "✅ Complete (" + strconv.Itoa(session.ErrorCount) + " request errors)"
	}
	return "✅ Complete"
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, session *model.ScanSession) {
	md.H2("Severity Summary")
	md.PlainText("")

	// Summary table
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(session.CriticalCount)},
			{"🟠 High", strconv.Itoa(session.HighCount)},
			{"🟡 Medium", strconv.Itoa(session.MediumCount)},
			{"🔵 Low", strconv.Itoa(session.LowCount)},
			{"⚪ Info", strconv.Itoa(session.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(session.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	// Add pie chart if there are findings
	if session.HasFindings() {
		w.writePieChart(md, session)
	}

	// Add alert based on severity
	w.writeAlert(md, session)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, session *model.ScanSession) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if session.CriticalCount > 0 {
		chart.LabelAndIntValue("Critical", uint64(session.CriticalCount))
	}
	if session.HighCount > 0 {
		chart.LabelAndIntValue("High", uint64(session.HighCount))
	}
	if session.MediumCount > 0 {
		chart.LabelAndIntValue("Medium", uint64(session.MediumCount))
	}
	if session.LowCount > 0 {
		chart.LabelAndIntValue("Low", uint64(session.LowCount))
	}
	if session.InfoCount > 0 {
		chart.LabelAndIntValue("Info", uint64(session.InfoCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, session *model.ScanSession) {
	switch {
	case session.CriticalCount > 0:
		md.Cautionf(
			"Critical security issues detected! %d critical finding(s) require immediate attention.",
			session.CriticalCount,
		)
	case session.HighCount > 0:
		md.Warningf(
			"High severity issues detected. %d high severity finding(s) should be addressed.",
			session.HighCount,
		)
	case session.MediumCount > 0:
		md.Importantf(
			"Medium severity issues found. %d finding(s) may weaken the site's security posture.",
			session.MediumCount,
		)
	case session.TotalFindings() > 0:
		md.Note("Only low severity and informational findings detected.")
	default:
		md.Tip("No significant security issues detected.")
	}
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, session *model.ScanSession) {
	if !session.HasFindings() {
		md.H2("Findings")
		md.PlainText("")
		md.PlainText("No security findings detected.")
		md.PlainText("")
		return
	}

	md.H2("Findings")
	md.PlainText("")

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeverityHigh, "### 🟠 High"},
		{model.SeverityMedium, "### 🟡 Medium"},
		{model.SeverityLow, "### 🔵 Low"},
		{model.SeverityInfo, "### ⚪ Info"},
	}

	for _, sev := range severities {
		findings := session.FindingsBySeverity(sev.level)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	headers := []string{"Title", "URL", "Evidence", "Recommendation"}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		evidence := f.Evidence
		if evidence == "" {
			evidence = "-"
		}
		rec := f.Recommendation
		if rec == "" {
			rec = "-"
		}

		rows[i] = []string{
			f.Title,
			truncateString(f.URL, 50),
			truncateString(evidence, 50),
			truncateString(rec, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")

	// Add detailed descriptions and AI analysis for all findings
	for _, f := range findings {
		detail := f.Description
		if f.AIAnnotation != "" {
			if detail != "" {
				detail += " "
			}
			detail += "AI analysis: " + f.AIAnnotation
		}
		if detail != "" {
			md.Details(f.Title, detail)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [DeepEye](https://github.com/deepeye-sec/deepeye)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
