package research

import "errors"

var (
	ErrCaseNotFound = errors.New("case not found")
	ErrEmptyQuery   = errors.New("text is required")
)

// Suggestion is one case matched against drafting text.
type Suggestion struct {
	DocumentID         int64   `json:"documentId"`
	LegalIssue         string  `json:"legalIssue"`
	Holding            string  `json:"holding"`
	IsPrimary          bool    `json:"isPrimary"`
	CaseName           string  `json:"caseName"`
	Citation           string  `json:"citation"`
	DecisionDate       *string `json:"decisionDate"`
	Court              string  `json:"court"`
	PrecedentialStatus string  `json:"precedentialStatus"`
	CitedByCount       int     `json:"citedByCount"`
	ValidityStatus     *string `json:"validityStatus"`
	Similarity         float64 `json:"similarity"`
	SemanticScore      float64 `json:"semanticScore"`
	KeywordScore       float64 `json:"keywordScore"`
	CombinedScore      float64 `json:"combinedScore"`
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type CaseSummary struct {
	DocumentID         int64   `json:"documentId"`
	CaseName           string  `json:"caseName"`
	Citation           string  `json:"citation"`
	DecisionDate       *string `json:"decisionDate"`
	Court              string  `json:"court"`
	PrecedentialStatus string  `json:"precedentialStatus"`
	CitedByCount       int     `json:"citedByCount"`
	Summary            string  `json:"summary"`
	ValidityStatus     *string `json:"validityStatus"`
}

type Validity struct {
	Status              *string `json:"status"`
	PositiveCitations   int     `json:"positiveCitations"`
	NegativeCitations   int     `json:"negativeCitations"`
	OverrulingCitations int     `json:"overrulingCitations"`
	StatusReason        string  `json:"statusReason"`
}

type Holding struct {
	LegalIssue string `json:"legalIssue"`
	Rule       string `json:"rule"`
	IsPrimary  bool   `json:"isPrimary"`
}

type Headnote struct {
	Title     string `json:"title"`
	Text      string `json:"text"`
	TopicCode string `json:"topicCode"`
	IsPrimary bool   `json:"isPrimary"`
}

type CaseDetail struct {
	ID                 int64      `json:"id"`
	CaseName           string     `json:"caseName"`
	Citation           string     `json:"citation"`
	DecisionDate       *string    `json:"decisionDate"`
	Court              string     `json:"court"`
	PrecedentialStatus string     `json:"precedentialStatus"`
	Summary            string     `json:"summary"`
	CitedByCount       int        `json:"citedByCount"`
	Validity           Validity   `json:"validity"`
	Holdings           []Holding  `json:"holdings"`
	Headnotes          []Headnote `json:"headnotes"`
	FullText           string     `json:"fullText"`
}

type SimilarCase struct {
	DocumentID   int64   `json:"documentId"`
	CaseName     string  `json:"caseName"`
	Citation     string  `json:"citation"`
	DecisionDate *string `json:"decisionDate"`
	LegalIssue   string  `json:"legalIssue"`
	Holding      string  `json:"holding"`
	Similarity   float64 `json:"similarity"`
}
