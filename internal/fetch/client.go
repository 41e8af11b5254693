package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// ErrUnsupportedProxyScheme is returned when the proxy URL uses a scheme
// other than http, https, or socks5.
var ErrUnsupportedProxyScheme = errors.New("unsupported proxy scheme: use http, https, or socks5")

// Client fetches pages for the scan workers. It owns the underlying
// http.Client and converts responses into model.Page values.
//
// Design decision: Workers receive a pre-configured *Client rather than
// building their own because:
//  1. Proxy and TLS configuration is decided once, at session start
//  2. Connection pooling is shared across the worker pool
//  3. Tests can inject a client pointed at an httptest server
type Client struct {
	// httpClient is the configured HTTP client.
	httpClient *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// cookie is a raw cookie string injected into every request.
	cookie string

	// headers are additional headers injected into every request.
	headers map[string]string
}

// Option configures a Client.
type Option func(*settings)

// settings collects construction-time configuration.
type settings struct {
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	proxyURL    string
	verifySSL   bool
	cookie      string
	headers     map[string]string
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *settings) {
		s.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(s *settings) {
		s.maxBodySize = size
	}
}

// WithProxy routes all requests through the given proxy URL.
// Supported schemes: http, https, socks5.
func WithProxy(proxyURL string) Option {
	return func(s *settings) {
		s.proxyURL = proxyURL
	}
}

// WithSSLVerification toggles TLS certificate verification.
// Verification is on by default; disabling it is needed for targets with
// self-signed certificates.
func WithSSLVerification(verify bool) Option {
	return func(s *settings) {
		s.verifySSL = verify
	}
}

// WithCookie injects a raw cookie string into every request.
// Useful for scanning authenticated areas.
func WithCookie(cookie string) Option {
	return func(s *settings) {
		s.cookie = cookie
	}
}

// WithHeaders injects additional headers into every request.
func WithHeaders(headers map[string]string) Option {
	return func(s *settings) {
		s.headers = headers
	}
}

// NewClient creates a fetch client with the given options.
func NewClient(opts ...Option) (*Client, error) {
	s := &settings{
		timeout:     30 * time.Second,
		userAgent:   "DeepEye/1.0 (+https://github.com/deepeye-sec/deepeye)",
		maxBodySize: model.MaxPageSize,
		verifySSL:   true,
	}

	for _, opt := range opts {
		opt(s)
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !s.verifySSL, //nolint:gosec // User-controlled toggle for self-signed targets
		},
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}

	if s.proxyURL != "" {
		if err := configureProxy(transport, s.proxyURL); err != nil {
			return nil, err
		}
	}

	// Cookie jar for session continuity across redirects during a scan.
	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   s.timeout,
			Jar:       jar,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:   s.userAgent,
		maxBodySize: s.maxBodySize,
		cookie:      s.cookie,
		headers:     s.headers,
	}, nil
}

// configureProxy wires the proxy URL into the transport.
//
// Design decision: SOCKS5 proxies use a golang.org/x/net/proxy dialer while
// HTTP proxies use the transport's Proxy hook, because net/http has no
// native SOCKS5 CONNECT support for HTTPS targets.
func configureProxy(transport *http.Transport, proxyURL string) error {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			password, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: password}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	default:
		return ErrUnsupportedProxyScheme
	}

	return nil
}

// Fetch retrieves the page at the given URL. The returned Page has its
// body truncated to the configured limit and its hash computed. A non-2xx
// status is not an error; the caller decides how to treat it.
func (c *Client) Fetch(ctx context.Context, pageURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request for %s: %w", pageURL, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	if c.cookie != "" {
		if existing := req.Header.Get("Cookie"); existing != "" {
			req.Header.Set("Cookie", existing+"; "+c.cookie)
		} else {
			req.Header.Set("Cookie", c.cookie)
		}
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", pageURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	page := &model.Page{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: contentType,
		Body:        body,
	}
	page.TruncateBody()
	page.ComputeHash()

	return page, nil
}
