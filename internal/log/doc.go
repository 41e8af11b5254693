// Package log provides secure logging functionality with automatic
// sanitization of sensitive information, built on top of the standard slog
// package.
//
// The scanner handles AI provider API keys, scan cookies, custom
// authentication headers, and proxy credentials. The SecureHandler masks
// these before they reach the underlying handler, even in verbose mode, so
// logs can be shared or stored without leaking secrets.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("request sent",
//	    "cookie", "session=abc123",  // masked
//	    "url", "https://example.com",
//	)
//
//	slog.SetDefault(logger)
package log
