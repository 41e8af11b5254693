// Package crawler provides URL frontier management and HTML parsing for
// the scan engine. The Frontier tracks discovered and visited URLs with
// depth and scope enforcement; the Parser extracts links, forms, and other
// elements from fetched pages.
package crawler
