package model

import (
	"time"

	"github.com/google/uuid"
)

// ScanSession is the aggregate result of one scan run. It is assembled by
// the engine while workers are running and finalized exactly once when the
// frontier drains or the session is cancelled. After finalization it is
// read-only and safe to hand to report writers and the history database.
type ScanSession struct {
	// ID uniquely identifies the session.
	ID string `json:"id"`

	// Target is the seed URL the scan started from.
	Target string `json:"target"`

	// TestSet names the check set that was run (recon, quick, full).
	TestSet string `json:"test_set"`

	// StartedAt is when the session began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the session was finalized.
	FinishedAt time.Time `json:"finished_at"`

	// PagesVisited is the number of pages fetched (successfully or not).
	PagesVisited int `json:"pages_visited"`

	// URLsDiscovered is the number of unique URLs accepted by the frontier.
	URLsDiscovered int `json:"urls_discovered"`

	// ErrorCount is the number of fetch and internal check errors.
	ErrorCount int `json:"error_count"`

	// Cancelled is true if the session was stopped before the frontier drained.
	// Findings computed before cancellation are still present.
	Cancelled bool `json:"cancelled"`

	// Findings is the deduplicated, severity-ordered finding list.
	Findings []Finding `json:"findings,omitempty"`

	// === Severity Summary ===

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// HighCount is the number of high severity findings.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium severity findings.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low severity findings.
	LowCount int `json:"low_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`
}

// NewScanSession creates a session for the given seed URL.
func NewScanSession(target, testSet string) *ScanSession {
	return &ScanSession{
		ID:        uuid.NewString(),
		Target:    target,
		TestSet:   testSet,
		StartedAt: time.Now(),
	}
}

// SetFindings stores the final finding list and recomputes severity counts.
// Called once by the engine during finalization.
func (s *ScanSession) SetFindings(findings []Finding) {
	s.Findings = findings
	s.CriticalCount, s.HighCount, s.MediumCount, s.LowCount, s.InfoCount = 0, 0, 0, 0, 0
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			s.CriticalCount++
		case SeverityHigh:
			s.HighCount++
		case SeverityMedium:
			s.MediumCount++
		case SeverityLow:
			s.LowCount++
		case SeverityInfo:
			s.InfoCount++
		}
	}
}

// TotalFindings returns the total number of findings.
func (s *ScanSession) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings returns true if there are any findings.
func (s *ScanSession) HasFindings() bool {
	return len(s.Findings) > 0
}

// Duration returns how long the session ran.
// Returns 0 if the session has not been finalized.
func (s *ScanSession) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// FindingsBySeverity returns findings filtered by severity.
func (s *ScanSession) FindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range s.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}
