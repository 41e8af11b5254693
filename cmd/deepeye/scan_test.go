package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deepeye-sec/deepeye/internal/config"
	"github.com/deepeye-sec/deepeye/internal/model"
)

// parseScanFlags creates a scan command and parses the given flags.
func parseScanFlags(t *testing.T, flags ...string) *config.Config {
	t.Helper()

	cmd := NewScanCmd()
	if err := cmd.ParseFlags(flags); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	cfg, err := buildConfig(cmd, []string{"https://example.com"})
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	return cfg
}

// TestBuildConfig tests flag-to-config mapping.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg := parseScanFlags(t)
		if cfg.Target != "https://example.com" {
			t.Errorf("Target = %q", cfg.Target)
		}
		if cfg.Depth != config.DefaultDepth {
			t.Errorf("Depth = %d, want default %d", cfg.Depth, config.DefaultDepth)
		}
		if cfg.TestSet != config.DefaultTestSet {
			t.Errorf("TestSet = %q, want %q", cfg.TestSet, config.DefaultTestSet)
		}
		if !cfg.VerifySSL {
			t.Error("VerifySSL should default to true")
		}
		if !cfg.SaveToDB {
			t.Error("SaveToDB should default to true")
		}
	})

	t.Run("crawl flags", func(t *testing.T) {
		t.Parallel()

		cfg := parseScanFlags(t,
			"-d", "5", "-t", "20", "--timeout", "10s",
			"--max-pages", "100", "--rate", "2.5")
		if cfg.Depth != 5 {
			t.Errorf("Depth = %d, want 5", cfg.Depth)
		}
		if cfg.Threads != 20 {
			t.Errorf("Threads = %d, want 20", cfg.Threads)
		}
		if cfg.Timeout != 10*time.Second {
			t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
		}
		if cfg.MaxPages != 100 {
			t.Errorf("MaxPages = %d, want 100", cfg.MaxPages)
		}
		if cfg.RequestsPerSecond != 2.5 {
			t.Errorf("RequestsPerSecond = %v, want 2.5", cfg.RequestsPerSecond)
		}
	})

	t.Run("test set flags", func(t *testing.T) {
		t.Parallel()

		if cfg := parseScanFlags(t, "--recon"); cfg.TestSet != "recon" {
			t.Errorf("TestSet = %q, want recon", cfg.TestSet)
		}
		if cfg := parseScanFlags(t, "--quick-scan"); cfg.TestSet != "quick" {
			t.Errorf("TestSet = %q, want quick", cfg.TestSet)
		}
		if cfg := parseScanFlags(t, "--full-scan"); cfg.TestSet != "full" {
			t.Errorf("TestSet = %q, want full", cfg.TestSet)
		}
	})

	t.Run("request shaping flags", func(t *testing.T) {
		t.Parallel()

		cfg := parseScanFlags(t,
			"--proxy", "socks5://127.0.0.1:9050",
			"--insecure",
			"--cookie", "session=abc",
			"--header", "X-Scan-Token=secret",
			"-u", "CustomAgent/1.0")
		if cfg.ProxyURL != "socks5://127.0.0.1:9050" {
			t.Errorf("ProxyURL = %q", cfg.ProxyURL)
		}
		if cfg.VerifySSL {
			t.Error("VerifySSL should be false with --insecure")
		}
		if cfg.Cookie != "session=abc" {
			t.Errorf("Cookie = %q", cfg.Cookie)
		}
		if cfg.Headers["X-Scan-Token"] != "secret" {
			t.Errorf("Headers = %v", cfg.Headers)
		}
		if cfg.UserAgent != "CustomAgent/1.0" {
			t.Errorf("UserAgent = %q", cfg.UserAgent)
		}
	})

	t.Run("ai flags", func(t *testing.T) {
		t.Parallel()

		cfg := parseScanFlags(t, "--ai-provider", "openai", "--ai-annotate", "page")
		if cfg.AIProvider != "openai" {
			t.Errorf("AIProvider = %q", cfg.AIProvider)
		}
		if cfg.AIAnnotate != "page" {
			t.Errorf("AIAnnotate = %q", cfg.AIAnnotate)
		}
	})

	t.Run("report flags", func(t *testing.T) {
		t.Parallel()

		cfg := parseScanFlags(t, "--json", "-o", "out.json", "--no-save")
		if !cfg.JSONReport {
			t.Error("JSONReport should be true")
		}
		if cfg.ReportFile != "out.json" {
			t.Errorf("ReportFile = %q", cfg.ReportFile)
		}
		if cfg.SaveToDB {
			t.Error("SaveToDB should be false with --no-save")
		}
	})

	t.Run("explicit missing config file fails", func(t *testing.T) {
		t.Parallel()

		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", "/nonexistent/.deepeye"}); err != nil {
			t.Fatalf("ParseFlags() error = %v", err)
		}
		if _, err := buildConfig(cmd, []string{"https://example.com"}); err == nil {
			t.Error("buildConfig() should fail for missing explicit config file")
		}
	})

	t.Run("config file profile applies under flags", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".deepeye")
		content := "scanner:\n  depth: 7\n  threads: 3\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cmd := NewScanCmd()
		// Explicit -t flag must win over the file; depth comes from the file.
		if err := cmd.ParseFlags([]string{"-c", path, "-t", "9"}); err != nil {
			t.Fatalf("ParseFlags() error = %v", err)
		}
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.Depth != 7 {
			t.Errorf("Depth = %d, want 7 from config file", cfg.Depth)
		}
		if cfg.Threads != 9 {
			t.Errorf("Threads = %d, want 9 from flag", cfg.Threads)
		}
	})
}

// TestScanCmdValidation tests that invalid flag combinations are rejected
// before any network activity.
func TestScanCmdValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{
			name: "missing target",
			args: []string{"scan"},
		},
		{
			name: "invalid target scheme",
			args: []string{"scan", "ftp://example.com"},
		},
		{
			name: "depth out of range",
			args: []string{"scan", "-d", "99", "https://example.com"},
		},
		{
			name: "conflicting report formats",
			args: []string{"scan", "--json", "--markdown", "https://example.com"},
		},
		{
			name: "unknown ai provider",
			args: []string{"scan", "--ai-provider", "bard", "https://example.com"},
		},
		{
			name: "conflicting test sets",
			args: []string{"scan", "--recon", "--full-scan", "https://example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := NewRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)

			if err := cmd.Execute(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

// TestOutputReport tests report output to files.
func TestOutputReport(t *testing.T) {
	t.Parallel()

	session := model.NewScanSession("https://example.com", "full")
	session.FinishedAt = session.StartedAt.Add(time.Second)
	session.SetFindings([]model.Finding{
		model.NewFinding("missing_csp", "https://example.com/",
			"Content-Security-Policy header missing", "", ""),
	})

	t.Run("writes JSON report to file", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "reports", "scan.json")

		if err := outputReport(cfg, session); err != nil {
			t.Fatalf("outputReport() error = %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		var parsed struct {
			Version string             `json:"version"`
			Session *model.ScanSession `json:"session"`
		}
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if parsed.Session == nil || parsed.Session.Target != "https://example.com" {
			t.Error("expected session in JSON report")
		}
	})

	t.Run("writes Markdown report to file", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "scan.md")

		if err := outputReport(cfg, session); err != nil {
			t.Fatalf("outputReport() error = %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if !strings.Contains(string(data), "# DeepEye Scan Report") {
			t.Error("expected Markdown header in report")
		}
	})

	t.Run("report file has restrictive permissions", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.ReportFile = filepath.Join(t.TempDir(), "scan.txt")

		if err := outputReport(cfg, session); err != nil {
			t.Fatalf("outputReport() error = %v", err)
		}

		info, err := os.Stat(cfg.ReportFile)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("report file permissions = %o, want 600", perm)
		}
	})
}

// TestApiKeyFromEnv tests the environment variable fallback per provider.
func TestApiKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env-test")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env-test")
	t.Setenv("XAI_API_KEY", "xai-env-test")

	tests := []struct {
		provider string
		want     string
	}{
		{"openai", "sk-env-test"},
		{"claude", "sk-ant-env-test"},
		{"grok", "xai-env-test"},
		{"ollama", ""},
	}

	for _, tt := range tests {
		if got := apiKeyFromEnv(tt.provider); got != tt.want {
			t.Errorf("apiKeyFromEnv(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}
