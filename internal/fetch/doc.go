// Package fetch provides the HTTP fetch collaborator used by scan workers.
// It wraps net/http with proxy support (HTTP and SOCKS5), an optional TLS
// verification toggle, body size limits, and header/cookie injection for
// authenticated scans.
package fetch
