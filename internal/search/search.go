package search

import "context"

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultDocument ResultType = "document"
	ResultExemplar ResultType = "exemplar"
)

// ParseResultType maps the query parameter to a filter. Unknown values search
// every type.
func ParseResultType(raw string) ResultType {
	switch ResultType(raw) {
	case ResultDocument, ResultExemplar:
		return ResultType(raw)
	}
	return ""
}

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	Status  string     `json:"status,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexDocuments(docs []DocumentRecord) error
	IndexExemplars(items []ExemplarRecord) error
	DeleteDocument(id string) error
}

// DocumentRecord is the data we index for a document.
type DocumentRecord struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Status string `json:"status"`
	TypeID string `json:"documentTypeId"`
}

// ExemplarRecord is the data we index for an exemplar.
type ExemplarRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	CaseType string `json:"caseType"`
	Outcome  string `json:"outcome"`
	Text     string `json:"text"`
	TypeID   string `json:"documentTypeId"`
}
