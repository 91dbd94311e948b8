package search

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"github.com/rs/zerolog"
)

type fakeIndex struct {
	mu        sync.Mutex
	healthy   bool
	err       error
	results   []Result
	documents []DocumentRecord
	exemplars []ExemplarRecord
	deleted   []string
	indexed   chan struct{}
}

func (f *fakeIndex) Search(context.Context, Query) ([]Result, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.results, len(f.results), nil
}

func (f *fakeIndex) Healthy() bool { return f.healthy }

func (f *fakeIndex) IndexDocuments(docs []DocumentRecord) error {
	f.mu.Lock()
	f.documents = append(f.documents, docs...)
	f.mu.Unlock()
	f.signal()
	return nil
}

func (f *fakeIndex) IndexExemplars(items []ExemplarRecord) error {
	f.mu.Lock()
	f.exemplars = append(f.exemplars, items...)
	f.mu.Unlock()
	f.signal()
	return nil
}

func (f *fakeIndex) DeleteDocument(id string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	f.mu.Unlock()
	f.signal()
	return nil
}

func (f *fakeIndex) signal() {
	if f.indexed != nil {
		f.indexed <- struct{}{}
	}
}

type fakeLoader struct {
	documents []DocumentRecord
	exemplars []ExemplarRecord
}

func (f fakeLoader) LoadAllRecords(context.Context) ([]DocumentRecord, []ExemplarRecord, error) {
	return f.documents, f.exemplars, nil
}

func TestSearchPrefersHealthyPrimary(t *testing.T) {
	primary := &fakeIndex{healthy: true, results: []Result{{Type: ResultDocument, ID: "doc_1"}}}
	fallback := &fakeIndex{healthy: true, results: []Result{{Type: ResultDocument, ID: "doc_2"}}}
	s := &Service{primary: primary, fallback: fallback, log: zerolog.Nop()}

	resp := s.Search(context.Background(), Query{Text: "motion"})
	if len(resp.Results) != 1 || resp.Results[0].ID != "doc_1" {
		t.Fatalf("results = %+v, want primary hit", resp.Results)
	}
}

func TestSearchFallsBack(t *testing.T) {
	fallback := &fakeIndex{healthy: true, results: []Result{{Type: ResultExemplar, ID: "ex_1"}}}

	tests := []struct {
		name    string
		primary *fakeIndex
	}{
		{"unhealthy primary", &fakeIndex{healthy: false}},
		{"primary error", &fakeIndex{healthy: true, err: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Service{primary: tt.primary, fallback: fallback, log: zerolog.Nop()}
			resp := s.Search(context.Background(), Query{Text: "compel"})
			if len(resp.Results) != 1 || resp.Results[0].ID != "ex_1" {
				t.Fatalf("results = %+v, want fallback hit", resp.Results)
			}
			if resp.Query != "compel" {
				t.Errorf("Query = %q", resp.Query)
			}
		})
	}
}

func TestSearchFallbackErrorReturnsEmpty(t *testing.T) {
	s := &Service{fallback: &fakeIndex{err: errors.New("db down")}, log: zerolog.Nop()}
	resp := s.Search(context.Background(), Query{Text: "x"})
	if resp.Results == nil || len(resp.Results) != 0 || resp.Total != 0 {
		t.Fatalf("response = %+v, want empty non-nil results", resp)
	}
}

func TestIndexingIsAsyncAndSkippedWhenUnhealthy(t *testing.T) {
	primary := &fakeIndex{healthy: true, indexed: make(chan struct{}, 4)}
	s := &Service{primary: primary, log: zerolog.Nop()}

	s.IndexDocument(DocumentRecord{ID: "doc_1"})
	s.IndexExemplar(ExemplarRecord{ID: "ex_1"})
	s.DeleteDocument("doc_2")
	for i := 0; i < 3; i++ {
		select {
		case <-primary.indexed:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for background indexing")
		}
	}
	primary.mu.Lock()
	if len(primary.documents) != 1 || len(primary.exemplars) != 1 || len(primary.deleted) != 1 {
		t.Errorf("indexed = %d docs, %d exemplars, %d deletes", len(primary.documents), len(primary.exemplars), len(primary.deleted))
	}
	primary.mu.Unlock()

	down := &fakeIndex{healthy: false}
	(&Service{primary: down, log: zerolog.Nop()}).IndexDocument(DocumentRecord{ID: "doc_3"})
	if len(down.documents) != 0 {
		t.Error("unhealthy index should not receive documents")
	}
}

func TestReindexAllFromPG(t *testing.T) {
	primary := &fakeIndex{healthy: true}
	s := &Service{
		primary: primary,
		loader: fakeLoader{
			documents: []DocumentRecord{{ID: "doc_1"}, {ID: "doc_2"}},
			exemplars: []ExemplarRecord{{ID: "ex_1"}},
		},
		log: zerolog.Nop(),
	}
	s.ReindexAllFromPG(context.Background())
	if len(primary.documents) != 2 || len(primary.exemplars) != 1 {
		t.Errorf("reindexed %d docs, %d exemplars", len(primary.documents), len(primary.exemplars))
	}
}

func TestNewServiceWithoutMeili(t *testing.T) {
	s := NewService(nil, nil, zerolog.Nop())
	if s.primary != nil {
		t.Fatal("nil meili must leave primary unset")
	}
	resp := s.Search(context.Background(), Query{Text: "x"})
	if len(resp.Results) != 0 {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestHitToResult(t *testing.T) {
	hit := meili.Hit{
		"id":         json.RawMessage(`"doc_1"`),
		"title":      json.RawMessage(`"Motion to Dismiss"`),
		"body":       json.RawMessage(`"plain body"`),
		"status":     json.RawMessage(`"draft"`),
		"_formatted": json.RawMessage(`{"title":"<mark>Motion</mark> to Dismiss","body":"…<mark>body</mark>","size":3}`),
	}
	r := hitToResult(hit, ResultDocument)
	if r.ID != "doc_1" || r.Status != "draft" {
		t.Errorf("result = %+v", r)
	}
	if r.Title != "<mark>Motion</mark> to Dismiss" {
		t.Errorf("Title = %q, want highlighted", r.Title)
	}
	if !strings.Contains(r.Snippet, "<mark>body</mark>") {
		t.Errorf("Snippet = %q", r.Snippet)
	}

	bare := hitToResult(meili.Hit{"id": json.RawMessage(`"ex_1"`), "caseType": json.RawMessage(`"Civil"`)}, ResultExemplar)
	if bare.Snippet != "Civil" {
		t.Errorf("exemplar snippet fallback = %q", bare.Snippet)
	}
}

func TestParseResultType(t *testing.T) {
	if ParseResultType("exemplar") != ResultExemplar || ParseResultType("thread") != "" {
		t.Error("ParseResultType mismatch")
	}
}

func TestDocumentBody(t *testing.T) {
	body := DocumentBody([]byte(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Hello"}]}]}`))
	if body != "Hello" {
		t.Errorf("DocumentBody = %q", body)
	}
	if DocumentBody([]byte(`{bad`)) != "" {
		t.Error("invalid content should index as empty")
	}
	if got := ExemplarText(strings.Repeat("a", MaxIndexedText+10)); len(got) != MaxIndexedText {
		t.Errorf("ExemplarText length = %d", len(got))
	}
}
