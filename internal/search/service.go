package search

import (
	"context"

	"github.com/rs/zerolog"

	"lexdraft/api/internal/doctree"
)

// MaxIndexedText bounds the body text pushed to the index per record.
const MaxIndexedText = 20000

type primaryIndex interface {
	Searcher
	Indexer
}

type recordLoader interface {
	LoadAllRecords(ctx context.Context) ([]DocumentRecord, []ExemplarRecord, error)
}

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	primary  primaryIndex
	fallback Searcher
	loader   recordLoader
	log      zerolog.Logger
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS, log zerolog.Logger) *Service {
	s := &Service{log: log}
	if meili != nil {
		s.primary = meili
	}
	if pgfts != nil {
		s.fallback = pgfts
		s.loader = pgfts
	}
	return s
}

// Search tries the primary index if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.primary != nil && s.primary.Healthy() {
		results, total, err := s.primary.Search(ctx, q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		s.log.Warn().Err(err).Msg("meilisearch error, falling back to pgfts")
	}

	if s.fallback == nil {
		return Response{Results: []Result{}, Query: q.Text}
	}
	results, total, err := s.fallback.Search(ctx, q)
	if err != nil {
		s.log.Error().Err(err).Msg("pgfts search failed")
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

func (s *Service) primaryReady() bool {
	return s.primary != nil && s.primary.Healthy()
}

// IndexDocument indexes a document (fire-and-forget).
func (s *Service) IndexDocument(doc DocumentRecord) {
	if !s.primaryReady() {
		return
	}
	go func() {
		if err := s.primary.IndexDocuments([]DocumentRecord{doc}); err != nil {
			s.log.Warn().Err(err).Str("document_id", doc.ID).Msg("index document")
		}
	}()
}

// IndexExemplar indexes an exemplar (fire-and-forget).
func (s *Service) IndexExemplar(item ExemplarRecord) {
	if !s.primaryReady() {
		return
	}
	go func() {
		if err := s.primary.IndexExemplars([]ExemplarRecord{item}); err != nil {
			s.log.Warn().Err(err).Str("exemplar_id", item.ID).Msg("index exemplar")
		}
	}()
}

// DeleteDocument removes a document from the search index (fire-and-forget).
func (s *Service) DeleteDocument(id string) {
	if !s.primaryReady() {
		return
	}
	go func() {
		if err := s.primary.DeleteDocument(id); err != nil {
			s.log.Warn().Err(err).Str("document_id", id).Msg("delete document from index")
		}
	}()
}

// ReindexAllFromPG reads every searchable entity from PostgreSQL and pushes
// it to the primary index. Called at startup.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if !s.primaryReady() || s.loader == nil {
		return
	}
	documents, exemplars, err := s.loader.LoadAllRecords(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("reindex load failed")
		return
	}
	if err := s.primary.IndexDocuments(documents); err != nil {
		s.log.Warn().Err(err).Msg("reindex documents")
	}
	if err := s.primary.IndexExemplars(exemplars); err != nil {
		s.log.Warn().Err(err).Msg("reindex exemplars")
	}
}

// DocumentBody extracts the indexable plain text of a document tree.
func DocumentBody(content []byte) string {
	root, err := doctree.Parse(content)
	if err != nil {
		return ""
	}
	return truncate(doctree.PlainText(root), MaxIndexedText)
}

// ExemplarText bounds extracted exemplar text for indexing.
func ExemplarText(text string) string {
	return truncate(text, MaxIndexedText)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
