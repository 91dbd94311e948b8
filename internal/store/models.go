package store

import (
	"encoding/json"
	"time"
)

// Document statuses.
const (
	StatusDraft    = "draft"
	StatusFinal    = "final"
	StatusArchived = "archived"
)

// Document type categories.
const (
	CategoryCoverLetter = "cover_letter"
	CategoryBrief       = "brief"
	CategoryMotion      = "motion"
	CategoryDeclaration = "declaration"
	CategoryOther       = "other"
)

// Exemplar outcomes.
const (
	OutcomeApproved = "approved"
	OutcomeDenied   = "denied"
	OutcomePending  = "pending"
	OutcomeUnknown  = "unknown"
)

const (
	DefaultDocumentTitle = "Untitled Document"
	MaxTitleLength       = 500
	MaxCaseTypeLength    = 100
)

type DocumentType struct {
	ID              string
	Name            string
	Slug            string
	Category        string
	TemplateContent json.RawMessage
	ExportFormat    string
	Description     string
	SortOrder       int
}

type Document struct {
	ID             string
	Title          string
	DocumentTypeID *string
	Content        json.RawMessage
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Exemplar struct {
	ID             string
	Title          string
	DocumentTypeID *string
	CaseType       string
	Outcome        string
	Tags           []string
	Metadata       map[string]any
	FileName       string
	ObjectKey      string
	MimeType       string
	SizeBytes      int64
	ExtractedText  string
	Embedding      []float32
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ExemplarFilter narrows ListExemplars. Empty fields match everything.
type ExemplarFilter struct {
	DocumentTypeID string
	CaseType       string
	Limit          int
}

func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusFinal, StatusArchived:
		return true
	}
	return false
}

func ValidOutcome(outcome string) bool {
	switch outcome {
	case OutcomeApproved, OutcomeDenied, OutcomePending, OutcomeUnknown:
		return true
	}
	return false
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
