// Package checks implements the passive security checks that run against
// each fetched page, and the Runner that selects and executes them.
//
// Every check is passive: it inspects only the already-fetched page and
// never sends additional requests to the target. The catalog is closed;
// test sets (recon, quick, full) select subsets of it by name.
package checks
