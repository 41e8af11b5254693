// Package engine drives a scan session: it runs a bounded worker pool over
// the URL frontier, fetching pages, executing checks, and feeding newly
// discovered links back into the crawl until the frontier drains, a page
// limit is reached, or the session is cancelled.
package engine
