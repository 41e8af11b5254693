package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// createTestSession creates a finalized session with sample findings.
func createTestSession() *model.ScanSession {
	session := model.NewScanSession("https://example.com", "full")
	session.FinishedAt = session.StartedAt.Add(3 * time.Second)
	session.PagesVisited = 4
	session.URLsDiscovered = 7

	critical := model.NewFinding("password_form_http",
		"http://example.com/login", "Password form submitted over HTTP",
		"The login form posts credentials without TLS.", "action=/login")
	high := model.NewFinding("reflected_input",
		"https://example.com/search?q=probe", "Query parameter reflected in response",
		"The q parameter value appears verbatim in the page body.", "q=probe")
	medium := model.NewFinding("missing_csp",
		"https://example.com/", "Content-Security-Policy header missing", "", "")
	medium.Occurrences = 4
	info := model.NewFinding("robots_txt",
		"https://example.com/robots.txt", "robots.txt discloses paths",
		"Disallowed paths may reveal unlinked site structure.", "/admin")

	session.SetFindings([]model.Finding{critical, high, medium, info})
	return session
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "DEEPEYE SCAN REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "https://example.com") {
			t.Error("expected output to contain target")
		}
		if !strings.Contains(output, "Test Set:        full") {
			t.Error("expected output to contain test set")
		}
	})

	t.Run("writes severity summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SEVERITY SUMMARY") {
			t.Error("expected output to contain severity summary")
		}
		if !strings.Contains(output, "CRITICAL: 1") {
			t.Error("expected output to contain critical count")
		}
		if !strings.Contains(output, "TOTAL:    4 findings") {
			t.Error("expected output to contain total count")
		}
	})

	t.Run("writes findings with evidence and occurrences", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Password form submitted over HTTP") {
			t.Error("expected output to contain critical finding title")
		}
		if !strings.Contains(output, "Evidence: q=probe") {
			t.Error("expected output to contain evidence")
		}
		if !strings.Contains(output, "Occurrences: 4") {
			t.Error("expected output to contain occurrence count")
		}
	})

	t.Run("verbose mode includes descriptions and recommendations", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Description:") {
			t.Error("expected verbose output to contain descriptions")
		}
		if !strings.Contains(output, "Impact:") {
			t.Error("expected verbose output to contain impact")
		}
		if !strings.Contains(output, "Recommendation:") {
			t.Error("expected verbose output to contain recommendations")
		}
	})

	t.Run("non-verbose mode omits descriptions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "Recommendation:") {
			t.Error("expected non-verbose output to omit recommendations")
		}
	})

	t.Run("handles cancelled session", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		session := createTestSession()
		session.Cancelled = true

		_, err := w.Write(session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "CANCELLED") {
			t.Error("expected output to indicate cancellation")
		}
	})

	t.Run("shows request error count", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		session := createTestSession()
		session.ErrorCount = 2

		_, err := w.Write(session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "2 request errors") {
			t.Error("expected output to mention request errors")
		}
	})

	t.Run("includes AI annotations", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		session := model.NewScanSession("https://example.com", "quick")
		f := model.NewFinding("missing_hsts",
			"https://example.com/", "Strict-Transport-Security header missing", "", "")
		f.AIAnnotation = "First visits are vulnerable to SSL stripping."
		session.SetFindings([]model.Finding{f})

		_, err := w.Write(session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "AI Analysis: First visits") {
			t.Error("expected output to contain AI annotation")
		}
	})
}

// TestSimpleWriterSeverityIndicators tests severity indicators for all levels.
func TestSimpleWriterSeverityIndicators(t *testing.T) {
	t.Parallel()

	t.Run("shows all severity levels with showEmpty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))
		session := model.NewScanSession("https://empty.example.com", "recon")

		_, err := w.Write(session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, indicator := range []string{"[!!!]", "[!!]", "[!]", "[-]", "[i]"} {
			if !strings.Contains(output, indicator) {
				t.Errorf("expected indicator %s in output", indicator)
			}
		}
	})

	t.Run("hides findings section when empty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		session := model.NewScanSession("https://empty.example.com", "recon")

		_, err := w.Write(session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "FINDINGS") {
			t.Error("expected findings section to be hidden without showEmpty")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed model.ScanSession
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.Target != "https://example.com" {
			t.Errorf("expected target %q, got %q", "https://example.com", parsed.Target)
		}
		if len(parsed.Findings) != 4 {
			t.Errorf("expected 4 findings, got %d", len(parsed.Findings))
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) > 1 {
			t.Errorf("expected compact output (1 line), got %d lines", len(lines))
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) < 5 {
			t.Errorf("expected multi-line output, got %d lines", len(lines))
		}
	})

	t.Run("custom prefix and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithIndent(">>", "\t"))

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, ">>") {
			t.Error("expected custom prefix '>>' in output")
		}
		if !strings.Contains(output, "\t") {
			t.Error("expected tab indentation in output")
		}
	})
}

// TestFullJSONWriter tests the full JSON writer with metadata.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("includes version in output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewFullJSONWriter(&buf, "1.0.0", WithPrettyPrint())

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed JSONReport
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.Version != "1.0.0" {
			t.Errorf("expected version %q, got %q", "1.0.0", parsed.Version)
		}
		if parsed.Session == nil || parsed.Session.Target != "https://example.com" {
			t.Error("expected wrapped session in output")
		}
	})
}

// TestMultiWriter tests writing to multiple outputs.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		multi := NewMultiWriter(NewSimpleWriter(&buf1), NewJSONWriter(&buf2))

		n, err := multi.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Error("expected non-zero bytes written")
		}

		if buf1.Len() == 0 {
			t.Error("expected buf1 to have content")
		}
		if buf2.Len() == 0 {
			t.Error("expected buf2 to have content")
		}

		// Verify formats are different
		if strings.Contains(buf1.String(), "{") {
			t.Error("expected buf1 (simple) to not be JSON")
		}
		if !strings.Contains(buf2.String(), "{") {
			t.Error("expected buf2 (JSON) to contain JSON")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		multi := NewMultiWriter()

		n, err := multi.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 bytes written for empty writers, got %d", n)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# DeepEye Scan Report") {
			t.Error("expected output to contain H1 header")
		}
		if !strings.Contains(output, "https://example.com") {
			t.Error("expected output to contain target")
		}
	})

	t.Run("writes severity summary with alert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Severity Summary") {
			t.Error("expected output to contain severity summary header")
		}
		if !strings.Contains(output, "🔴 Critical") {
			t.Error("expected output to contain critical severity indicator")
		}
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected CAUTION alert for critical findings")
		}
	})

	t.Run("includes pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "pie") {
			t.Error("expected output to contain mermaid pie chart")
		}
	})

	t.Run("writes findings table with details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Findings") {
			t.Error("expected output to contain findings header")
		}
		if !strings.Contains(output, "Password form submitted over HTTP") {
			t.Error("expected output to contain critical finding title")
		}
		if !strings.Contains(output, "Recommendation") {
			t.Error("expected Recommendation column in output")
		}
		if !strings.Contains(output, "<details>") {
			t.Error("expected output to contain details tags")
		}
	})

	t.Run("handles cancelled session", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		session := createTestSession()
		session.Cancelled = true

		_, err := w.Write(session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "Cancelled") {
			t.Error("expected output to indicate cancellation")
		}
	})

	t.Run("handles session with no findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		session := model.NewScanSession("https://clean.example.com", "quick")

		_, err := w.Write(session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No security findings detected") {
			t.Error("expected message about no findings")
		}
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected TIP alert for no findings")
		}
	})

	t.Run("writes footer with link", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestSession())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "https://github.com/deepeye-sec/deepeye") {
			t.Error("expected footer with repository link")
		}
	})
}

// TestTruncateString tests the string truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"ab", 5, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			result := truncateString(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}
