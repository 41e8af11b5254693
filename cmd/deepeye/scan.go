package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepeye-sec/deepeye/internal/ai"
	"github.com/deepeye-sec/deepeye/internal/checks"
	"github.com/deepeye-sec/deepeye/internal/config"
	"github.com/deepeye-sec/deepeye/internal/database"
	"github.com/deepeye-sec/deepeye/internal/engine"
	"github.com/deepeye-sec/deepeye/internal/fetch"
	"github.com/deepeye-sec/deepeye/internal/log"
	"github.com/deepeye-sec/deepeye/internal/model"
	"github.com/deepeye-sec/deepeye/internal/report"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <target-url>",
		Short: "Scan a website for security issues",
		Long: `Scan crawls a target site and runs passive security checks against
every fetched page:
- Security header analysis (CSP, HSTS, frame and content-type options)
- Server and technology fingerprinting, outdated software detection
- Reflected input, CORS policy, mixed content, form security
- Sensitive path references, HTML comment leaks, image EXIF metadata

Examples:
  # Full scan with defaults
  deepeye scan https://example.com

  # Fast reconnaissance-only pass
  deepeye scan --recon https://example.com

  # Deep crawl with more workers
  deepeye scan -d 5 -t 20 https://example.com

  # Annotate findings with an AI provider
  deepeye scan --ai-provider openai https://example.com

  # Scan an authenticated area through a proxy
  deepeye scan --cookie "session=abc123" --proxy socks5://127.0.0.1:9050 https://example.com

  # Write a Markdown report to a file
  deepeye scan --markdown -o report.md https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultDepth,
		"Maximum crawl recursion depth (1-10)")
	cmd.Flags().IntP("threads", "t", config.DefaultThreads,
		"Number of concurrent workers (1-50)")
	cmd.Flags().Duration("timeout", config.DefaultTimeout,
		"Per-request timeout")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch (0 = unlimited)")
	cmd.Flags().Float64("rate", config.DefaultRequestsPerSecond,
		"Maximum requests per second across all workers (0 = unlimited)")

	// Test set flags
	cmd.Flags().Bool("recon", false,
		"Run the reconnaissance check set only")
	cmd.Flags().Bool("quick-scan", false,
		"Run the quick header-level check set")
	cmd.Flags().Bool("full-scan", false,
		"Run the full check set (default)")
	cmd.MarkFlagsMutuallyExclusive("recon", "quick-scan", "full-scan")

	// Request shaping flags
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().String("proxy", "",
		"Proxy URL for all requests (http, https, or socks5)")
	cmd.Flags().Bool("insecure", false,
		"Skip TLS certificate verification")
	cmd.Flags().String("cookie", "",
		"Cookie string sent with every request (for authenticated scans)")
	cmd.Flags().StringToString("header", nil,
		"Additional request header (repeatable, key=value)")

	// AI annotation flags
	cmd.Flags().String("ai-provider", "",
		"AI provider for finding annotation (openai, claude, grok, ollama)")
	cmd.Flags().String("ai-annotate", config.DefaultAIAnnotate,
		"Annotation granularity: off, page, or finding")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .deepeye in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not save the session to the scan history database")
	cmd.Flags().String("db-dir", "",
		"Directory for the scan history database (default: XDG data directory)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential masking
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Warn("received shutdown signal, finalizing partial results...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
// Precedence: defaults < configuration file profile < explicit flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Target = args[0]

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the configuration file before applying flags so explicit flags
	// win over file settings. If the user explicitly specified a path,
	// error when it is missing; otherwise a missing file is fine.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyProfile(cfg.File.Scanner)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if cmd.Flags().Changed("depth") {
		if cfg.Depth, err = cmd.Flags().GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("threads") {
		if cfg.Threads, err = cmd.Flags().GetInt("threads"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("timeout") {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-pages") {
		if cfg.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("rate") {
		if cfg.RequestsPerSecond, err = cmd.Flags().GetFloat64("rate"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("user-agent") {
		if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("proxy") {
		if cfg.ProxyURL, err = cmd.Flags().GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("cookie") {
		if cfg.Cookie, err = cmd.Flags().GetString("cookie"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("header") {
		headers, err := cmd.Flags().GetStringToString("header")
		if err != nil {
			return nil, err
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			cfg.Headers[k] = v
		}
	}

	insecure, err := cmd.Flags().GetBool("insecure")
	if err != nil {
		return nil, err
	}
	if insecure {
		cfg.VerifySSL = false
	}

	if err := applyTestSetFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.AIProvider, err = cmd.Flags().GetString("ai-provider")
	if err != nil {
		return nil, err
	}
	cfg.AIAnnotate, err = cmd.Flags().GetString("ai-annotate")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	if cmd.Flags().Changed("db-dir") {
		if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyTestSetFlags maps the mode flags onto the test set name.
func applyTestSetFlags(cmd *cobra.Command, cfg *config.Config) error {
	recon, err := cmd.Flags().GetBool("recon")
	if err != nil {
		return err
	}
	quick, err := cmd.Flags().GetBool("quick-scan")
	if err != nil {
		return err
	}
	full, err := cmd.Flags().GetBool("full-scan")
	if err != nil {
		return err
	}

	switch {
	case recon:
		cfg.TestSet = checks.TestSetRecon
	case quick:
		cfg.TestSet = checks.TestSetQuick
	case full:
		cfg.TestSet = checks.TestSetFull
	}
	return nil
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting scan",
		"target", cfg.Target,
		"testSet", cfg.TestSet,
		"depth", cfg.Depth,
		"threads", cfg.Threads,
	)

	fetchOpts := []fetch.Option{
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithSSLVerification(cfg.VerifySSL),
	}
	if cfg.ProxyURL != "" {
		fetchOpts = append(fetchOpts, fetch.WithProxy(cfg.ProxyURL))
	}
	if cfg.Cookie != "" {
		fetchOpts = append(fetchOpts, fetch.WithCookie(cfg.Cookie))
	}
	if len(cfg.Headers) > 0 {
		fetchOpts = append(fetchOpts, fetch.WithHeaders(cfg.Headers))
	}

	client, err := fetch.NewClient(fetchOpts...)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	runnerOpts := []checks.RunnerOption{checks.WithLogger(logger)}
	if cfg.AIProvider != "" && cfg.AIAnnotate != checks.AnnotateOff {
		annotate, err := buildAnnotator(cfg, logger)
		if err != nil {
			return err
		}
		runnerOpts = append(runnerOpts, checks.WithAnnotator(annotate, cfg.AIAnnotate))
		logger.Info("AI annotation enabled",
			"provider", cfg.AIProvider,
			"granularity", cfg.AIAnnotate,
		)
	}

	runner, err := checks.NewRunner(cfg.TestSet, runnerOpts...)
	if err != nil {
		return err
	}

	fmt.Printf("Scanning %s (%s test set)...\n", cfg.Target, cfg.TestSet)
	startTime := time.Now()

	handle, err := engine.StartSession(ctx, engine.Options{
		Target:            cfg.Target,
		TestSet:           cfg.TestSet,
		Threads:           cfg.Threads,
		MaxDepth:          cfg.Depth,
		MaxPages:          cfg.MaxPages,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Fetcher:           client,
		Runner:            runner,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	session := handle.Wait()

	elapsed := time.Since(startTime)
	if session.Cancelled {
		fmt.Printf("Scan cancelled after %s; reporting partial results\n\n", elapsed.Round(time.Millisecond))
	} else {
		fmt.Printf("Scan completed in %s\n", elapsed.Round(time.Millisecond))
	}

	if err := outputReport(cfg, session); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.SaveToDB {
		if err := saveSession(ctx, cfg, session, logger); err != nil {
			logger.Error("failed to save session", "error", err)
		}
	}

	return nil
}

// buildAnnotator wires the configured AI provider behind a gateway and
// returns the annotation hook used by the check runner.
func buildAnnotator(cfg *config.Config, logger *slog.Logger) (checks.AnnotateFunc, error) {
	primary, err := ai.NewProvider(cfg.AIProvider, providerSettings(cfg, cfg.AIProvider))
	if err != nil {
		return nil, err
	}

	// Other providers with credentials in the config file become fallbacks.
	var fallbacks []ai.Provider
	if cfg.File != nil {
		for _, name := range ai.ProviderNames() {
			if name == cfg.AIProvider {
				continue
			}
			if _, ok := cfg.File.AIProviders[name]; !ok {
				continue
			}
			p, err := ai.NewProvider(name, providerSettings(cfg, name))
			if err != nil {
				continue
			}
			fallbacks = append(fallbacks, p)
		}
	}

	gateway, err := ai.NewGateway(primary,
		ai.WithFallbacks(fallbacks...),
		ai.WithCallTimeout(cfg.Timeout),
		ai.WithGatewayLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, prompt string) (string, error) {
		resp, err := gateway.Analyze(ctx, prompt)
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	}, nil
}

// providerSettings assembles provider settings from the config file with an
// environment variable fallback for the API key.
func providerSettings(cfg *config.Config, provider string) ai.ProviderSettings {
	var settings ai.ProviderSettings
	if cfg.File != nil {
		pc := cfg.File.ProviderFor(provider)
		settings = ai.ProviderSettings{
			APIKey:      pc.APIKey,
			Model:       pc.Model,
			BaseURL:     pc.BaseURL,
			Temperature: pc.Temperature,
		}
	}
	if settings.APIKey == "" {
		settings.APIKey = apiKeyFromEnv(provider)
	}
	return settings
}

// apiKeyFromEnv returns the conventional environment variable for a provider.
func apiKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "grok":
		return os.Getenv("XAI_API_KEY")
	default:
		// Ollama runs locally without credentials.
		return ""
	}
}

// outputReport outputs the session report in the requested format.
func outputReport(cfg *config.Config, session *model.ScanSession) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may contain sensitive information; owner-only permissions.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(session)
	return err
}

// saveSession persists the finalized session to the history database.
func saveSession(ctx context.Context, cfg *config.Config, session *model.ScanSession, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// A cancelled parent context must not block persistence of partial
	// results, so saving gets its own short deadline.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := db.SaveSession(saveCtx, session); err != nil {
		return err
	}

	logger.Info("session saved to history",
		"id", session.ID,
		"dir", cfg.DBDir,
	)
	return nil
}
