// Package model defines the core data structures shared across the scanner:
// findings, crawled pages, severity levels, and the scan session aggregate.
package model
