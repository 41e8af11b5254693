package model

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Finding represents a single reportable result of one check against one URL.
// Findings are immutable once created; the aggregator merges duplicates by
// identity rather than mutating existing records.
type Finding struct {
	// Type is the finding type identifier.
	// This maps to the findingInfoMapping in severity.go.
	Type string `json:"type"`

	// URL is the page the finding was discovered on.
	URL string `json:"url"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains the security implications of this finding.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// Evidence is the specific value that triggered the finding
	// (header value, reflected parameter, matched path, etc.).
	Evidence string `json:"evidence,omitempty"`

	// AIAnnotation is an optional AI-generated explanation of the finding.
	// Empty when AI analysis is disabled or unavailable.
	AIAnnotation string `json:"ai_annotation,omitempty"`

	// AIAnnotationError records why an annotation could not be produced
	// (provider timeout, auth failure, open circuit). An absent annotation
	// is a valid, reportable state.
	AIAnnotationError string `json:"ai_annotation_error,omitempty"`

	// Occurrences counts how many times this identical finding was observed.
	// Set by the aggregator; always >= 1 in a snapshot.
	Occurrences int `json:"occurrences,omitempty"`
}

// NewFinding creates a Finding of the given type, filling severity, impact,
// and recommendation from the central finding catalog.
func NewFinding(findingType, url, title, description, evidence string) Finding {
	info := GetFindingInfo(findingType)
	return Finding{
		Type:           findingType,
		URL:            url,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          title,
		Description:    description,
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Evidence:       evidence,
	}
}

// Identity returns the deduplication key for the finding:
// (type, URL, evidence signature). Two findings with the same identity are
// the same finding regardless of which worker produced them.
func (f Finding) Identity() string {
	return f.Type + "|" + f.URL + "|" + f.EvidenceSignature()
}

// EvidenceSignature returns a stable signature over the evidence payload.
// Hashing keeps identity keys bounded even for large evidence strings.
func (f Finding) EvidenceSignature() string {
	sum := sha3.Sum256([]byte(f.Evidence))
	return hex.EncodeToString(sum[:])
}
