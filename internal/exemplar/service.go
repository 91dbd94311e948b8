package exemplar

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lexdraft/api/internal/blob"
	"lexdraft/api/internal/doctree"
	"lexdraft/api/internal/search"
	"lexdraft/api/internal/store"
	"lexdraft/api/internal/util"
)

const (
	maxEmbeddedText  = 12000
	maxCandidates    = 200
	searchLimit      = 30
	suggestLimit     = 10
	suggestQueryText = 2000
	snippetLength    = 500
)

type Store interface {
	InsertExemplar(ctx context.Context, item store.Exemplar) (store.Exemplar, error)
	GetExemplar(ctx context.Context, id string) (store.Exemplar, error)
	ListExemplars(ctx context.Context, filter store.ExemplarFilter) ([]store.Exemplar, error)
	GetDocument(ctx context.Context, documentID string) (store.Document, error)
}

type Blobs interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Indexer interface {
	IndexExemplar(item search.ExemplarRecord)
}

type Options struct {
	Blobs    Blobs
	Embedder Embedder
	Indexer  Indexer
	Logger   zerolog.Logger
}

type Service struct {
	store    Store
	blobs    Blobs
	embedder Embedder
	indexer  Indexer
	log      zerolog.Logger
}

func NewService(s Store, opts Options) *Service {
	return &Service{
		store:    s,
		blobs:    opts.Blobs,
		embedder: opts.Embedder,
		indexer:  opts.Indexer,
		log:      opts.Logger,
	}
}

type UploadInput struct {
	FileName       string
	ContentType    string
	Data           []byte
	Title          string
	DocumentTypeID string
	CaseType       string
	Outcome        string
	Tags           []string
	Metadata       map[string]any
}

// Upload stores the original file, extracts and embeds its text, and
// persists the exemplar.
func (s *Service) Upload(ctx context.Context, in UploadInput) (store.Exemplar, error) {
	extracted, err := ExtractText(in.FileName, in.Data)
	if err != nil {
		return store.Exemplar{}, err
	}

	id := util.NewID("ex")
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSpace(in.FileName)
	}
	outcome := strings.TrimSpace(in.Outcome)
	if !store.ValidOutcome(outcome) {
		outcome = store.OutcomeUnknown
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(in.FileName)))
	}

	item := store.Exemplar{
		ID:            id,
		Title:         store.TruncateRunes(title, store.MaxTitleLength),
		CaseType:      store.TruncateRunes(strings.TrimSpace(in.CaseType), store.MaxCaseTypeLength),
		Outcome:       outcome,
		Tags:          cleanTags(in.Tags),
		Metadata:      in.Metadata,
		FileName:      in.FileName,
		MimeType:      contentType,
		SizeBytes:     int64(len(in.Data)),
		ExtractedText: extracted,
	}
	if typeID := strings.TrimSpace(in.DocumentTypeID); typeID != "" {
		item.DocumentTypeID = &typeID
	}

	if s.blobs != nil {
		item.ObjectKey = blob.ObjectKey(id, in.FileName)
		if err := s.blobs.Put(ctx, item.ObjectKey, contentType, in.Data); err != nil {
			return store.Exemplar{}, fmt.Errorf("store original: %w", err)
		}
	}

	if extracted != "" {
		item.Embedding = s.embed(ctx, store.TruncateRunes(extracted, maxEmbeddedText))
	}

	created, err := s.store.InsertExemplar(ctx, item)
	if err != nil {
		return store.Exemplar{}, err
	}

	if s.indexer != nil {
		s.indexer.IndexExemplar(RecordFor(created))
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (store.Exemplar, error) {
	return s.store.GetExemplar(ctx, id)
}

type SearchInput struct {
	Query          string
	DocumentTypeID string
	CaseType       string
}

// Search ranks up to 200 filtered candidates against the query.
func (s *Service) Search(ctx context.Context, in SearchInput) ([]Scored, error) {
	items, err := s.store.ListExemplars(ctx, store.ExemplarFilter{
		DocumentTypeID: strings.TrimSpace(in.DocumentTypeID),
		CaseType:       in.CaseType,
		Limit:          maxCandidates,
	})
	if err != nil {
		return nil, err
	}
	return limit(s.rank(ctx, in.Query, items), searchLimit), nil
}

// SuggestForDocument ranks exemplars of the document's type (or all
// exemplars when that type has none) against the document's title and text.
func (s *Service) SuggestForDocument(ctx context.Context, documentID string) ([]Scored, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	filter := store.ExemplarFilter{Limit: maxCandidates}
	if doc.DocumentTypeID != nil {
		filter.DocumentTypeID = *doc.DocumentTypeID
	}
	items, err := s.store.ListExemplars(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 && filter.DocumentTypeID != "" {
		filter.DocumentTypeID = ""
		if items, err = s.store.ListExemplars(ctx, filter); err != nil {
			return nil, err
		}
	}

	body := ""
	if root, err := doctree.Parse(doc.Content); err == nil {
		body = doctree.PlainText(root)
	}
	query := doc.Title + "\n" + store.TruncateRunes(body, suggestQueryText)
	return limit(s.rank(ctx, query, items), suggestLimit), nil
}

func (s *Service) rank(ctx context.Context, query string, items []store.Exemplar) []Scored {
	var queryEmbedding []float32
	if strings.TrimSpace(query) != "" {
		queryEmbedding = s.embed(ctx, query)
	}
	return Rank(query, queryEmbedding, items)
}

// embed degrades to no semantic signal when the embedder fails.
func (s *Service) embed(ctx context.Context, text string) []float32 {
	if s.embedder == nil {
		return nil
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.log.Warn().Err(err).Msg("embedding failed")
		return nil
	}
	return vec
}

func limit(items []Scored, n int) []Scored {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// ParseTags splits a comma-separated tag list.
func ParseTags(raw string) []string {
	return cleanTags(strings.Split(raw, ","))
}

// RecordFor builds the search index record of an exemplar.
func RecordFor(item store.Exemplar) search.ExemplarRecord {
	record := search.ExemplarRecord{
		ID:       item.ID,
		Title:    item.Title,
		CaseType: item.CaseType,
		Outcome:  item.Outcome,
		Text:     search.ExemplarText(item.ExtractedText),
	}
	if item.DocumentTypeID != nil {
		record.TypeID = *item.DocumentTypeID
	}
	return record
}

// Summary is the JSON shape of an exemplar in listings.
type Summary struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	DocumentTypeID *string        `json:"documentTypeId"`
	CaseType       string         `json:"caseType"`
	Outcome        string         `json:"outcome"`
	Tags           []string       `json:"tags"`
	Metadata       map[string]any `json:"metadata"`
	FileName       string         `json:"fileName"`
	Snippet        string         `json:"snippet"`
	Score          *float64       `json:"score,omitempty"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	ExtractedText  string         `json:"extractedText,omitempty"`
}

func Summarize(item store.Exemplar) Summary {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	metadata := item.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Summary{
		ID:             item.ID,
		Title:          item.Title,
		DocumentTypeID: item.DocumentTypeID,
		CaseType:       item.CaseType,
		Outcome:        item.Outcome,
		Tags:           tags,
		Metadata:       metadata,
		FileName:       item.FileName,
		Snippet:        store.TruncateRunes(item.ExtractedText, snippetLength),
		UpdatedAt:      item.UpdatedAt,
	}
}

func SummarizeScored(items []Scored) []Summary {
	out := make([]Summary, 0, len(items))
	for _, item := range items {
		summary := Summarize(item.Exemplar)
		score := item.Score
		summary.Score = &score
		out = append(out, summary)
	}
	return out
}
