package research

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"lexdraft/api/internal/metrics"
)

const (
	semanticThreshold = 0.55
	similarThreshold  = 0.6
	matchLimit        = 15
	similarLimit      = 10
	CategoryPageSize  = 20
)

// Index is the query surface of the research database.
type Index interface {
	SemanticMatches(ctx context.Context, vector []float32, minSimilarity float64, limit int) ([]Suggestion, error)
	KeywordMatches(ctx context.Context, text string, limit int) ([]Suggestion, error)
	Categories(ctx context.Context) ([]Category, error)
	CategoryBySlug(ctx context.Context, slug string) (Category, error)
	CategoryCases(ctx context.Context, categoryID int64, limit, offset int) ([]CaseSummary, error)
	CaseDetail(ctx context.Context, id int64) (CaseDetail, error)
	SimilarCases(ctx context.Context, id int64, minSimilarity float64, limit int) ([]SimilarCase, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Service struct {
	index    Index
	embedder Embedder
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewService(index Index, embedder Embedder, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{index: index, embedder: embedder, metrics: m, log: log}
}

// Suggest finds cases relevant to drafting text by holding-embedding
// similarity and by full-text rank. Without an embedding only the keyword
// leg runs.
func (s *Service) Suggest(ctx context.Context, text string) ([]Suggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	s.metrics.RecordResearchQuery("suggest")

	var vector []float32
	if s.embedder != nil {
		var err error
		if vector, err = s.embedder.Embed(ctx, text); err != nil {
			return nil, err
		}
	}

	semantic := []Suggestion{}
	if len(vector) > 0 {
		var err error
		if semantic, err = s.index.SemanticMatches(ctx, vector, semanticThreshold, matchLimit); err != nil {
			return nil, err
		}
	} else {
		s.log.Debug().Msg("no query embedding, keyword matches only")
	}

	keyword, err := s.index.KeywordMatches(ctx, text, matchLimit)
	if err != nil {
		return nil, err
	}
	return Merge(semantic, keyword), nil
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	s.metrics.RecordResearchQuery("categories")
	return s.index.Categories(ctx)
}

// CategoryCases returns one page of a category's cases. Pages start at 1;
// smaller values are treated as 1.
func (s *Service) CategoryCases(ctx context.Context, categoryID int64, page int) ([]CaseSummary, error) {
	s.metrics.RecordResearchQuery("category")
	if page < 1 {
		page = 1
	}
	return s.index.CategoryCases(ctx, categoryID, CategoryPageSize, (page-1)*CategoryPageSize)
}

func (s *Service) CategoryBySlug(ctx context.Context, slug string) (Category, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Category{}, ErrCaseNotFound
	}
	return s.index.CategoryBySlug(ctx, slug)
}

func (s *Service) CaseDetail(ctx context.Context, id int64) (CaseDetail, error) {
	s.metrics.RecordResearchQuery("detail")
	return s.index.CaseDetail(ctx, id)
}

func (s *Service) SimilarCases(ctx context.Context, id int64) ([]SimilarCase, error) {
	s.metrics.RecordResearchQuery("similar")
	return s.index.SimilarCases(ctx, id, similarThreshold, similarLimit)
}
