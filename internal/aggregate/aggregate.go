// Package aggregate collects findings from concurrent workers,
// deduplicates them by identity, and produces ordered snapshots for
// reporting.
package aggregate

import (
	"sort"
	"sync"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// SeverityCounts holds the number of findings per severity level.
type SeverityCounts struct {
	Critical int
	High     int
	Medium   int
	Low      int
	Info     int
}

// Total returns the sum across all severities.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Info
}

// record pairs a finding with its discovery sequence number.
type record struct {
	finding model.Finding
	seq     int
}

// Aggregator merges findings from all workers into a deduplicated set.
// Identity is the finding's (type, URL, evidence signature) triple: the
// same observation reported twice merges into one record with an
// incremented occurrence counter.
//
// Design decision: The aggregator counts occurrences instead of dropping
// duplicates silently because repeat counts distinguish a site-wide
// misconfiguration from a one-off.
type Aggregator struct {
	mu sync.Mutex

	// records maps finding identity to its merged record.
	records map[string]*record

	// nextSeq assigns discovery order to first occurrences.
	nextSeq int
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		records: make(map[string]*record),
	}
}

// Add merges a finding into the set. Safe for concurrent use; concurrent
// adds of the same identity yield exactly one record.
func (a *Aggregator) Add(f model.Finding) {
	identity := f.Identity()

	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.records[identity]; ok {
		existing.finding.Occurrences++
		// Keep the first annotation seen; a later duplicate may carry one
		// when the first occurrence was annotated after merging started.
		if existing.finding.AIAnnotation == "" && f.AIAnnotation != "" {
			existing.finding.AIAnnotation = f.AIAnnotation
			existing.finding.AIAnnotationError = ""
		}
		return
	}

	f.Occurrences = 1
	a.records[identity] = &record{finding: f, seq: a.nextSeq}
	a.nextSeq++
}

// Snapshot returns the current findings ordered by severity descending,
// then by discovery order. The returned slice is a copy; further Adds do
// not affect it.
func (a *Aggregator) Snapshot() []model.Finding {
	a.mu.Lock()
	defer a.mu.Unlock()

	records := make([]*record, 0, len(a.records))
	for _, r := range a.records {
		records = append(records, r)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].finding.Severity != records[j].finding.Severity {
			return records[i].finding.Severity > records[j].finding.Severity
		}
		return records[i].seq < records[j].seq
	})

	findings := make([]model.Finding, len(records))
	for i, r := range records {
		findings[i] = r.finding
	}
	return findings
}

// Counts returns per-severity totals over the deduplicated set.
func (a *Aggregator) Counts() SeverityCounts {
	a.mu.Lock()
	defer a.mu.Unlock()

	var counts SeverityCounts
	for _, r := range a.records {
		switch r.finding.Severity {
		case model.SeverityCritical:
			counts.Critical++
		case model.SeverityHigh:
			counts.High++
		case model.SeverityMedium:
			counts.Medium++
		case model.SeverityLow:
			counts.Low++
		case model.SeverityInfo:
			counts.Info++
		}
	}
	return counts
}

// Len returns the number of deduplicated findings.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}
