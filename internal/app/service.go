package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"lexdraft/api/internal/doctree"
	"lexdraft/api/internal/exemplar"
	"lexdraft/api/internal/export"
	"lexdraft/api/internal/research"
	"lexdraft/api/internal/search"
	"lexdraft/api/internal/store"
	"lexdraft/api/internal/util"
	"lexdraft/api/internal/versions"
)

type dataStore interface {
	ListDocumentTypes(context.Context) ([]store.DocumentType, error)
	GetDocumentType(context.Context, string) (store.DocumentType, error)
	GetDocumentTypeBySlug(context.Context, string) (store.DocumentType, error)
	ListDocuments(context.Context, string) ([]store.Document, error)
	GetDocument(context.Context, string) (store.Document, error)
	InsertDocument(context.Context, store.Document) (store.Document, error)
	UpdateDocumentContent(context.Context, string, json.RawMessage) error
	UpdateDocumentTitle(context.Context, string, string) error
	UpdateDocumentStatus(context.Context, string, string) error
	DeleteDocument(context.Context, string) error
	Ping(ctx context.Context) error
}

type exporter interface {
	Export(context.Context, export.Request) (*export.Result, error)
}

type searchService interface {
	Search(context.Context, search.Query) search.Response
	IndexDocument(search.DocumentRecord)
	DeleteDocument(string)
}

// ReadyCheck reports the health of an optional backing service.
type ReadyCheck func(ctx context.Context) error

type Deps struct {
	Store     dataStore
	Versions  *versions.Engine
	Exporter  exporter
	Search    searchService
	Research  *research.Service
	Exemplars *exemplar.Service
	Checks    map[string]ReadyCheck
	Logger    zerolog.Logger
}

type Service struct {
	store     dataStore
	versions  *versions.Engine
	exporter  exporter
	search    searchService
	research  *research.Service
	exemplars *exemplar.Service
	checks    map[string]ReadyCheck
	log       zerolog.Logger

	lockMu sync.Mutex
	locks  map[string]*docLock
}

func New(deps Deps) *Service {
	return &Service{
		store:     deps.Store,
		versions:  deps.Versions,
		exporter:  deps.Exporter,
		search:    deps.Search,
		research:  deps.Research,
		exemplars: deps.Exemplars,
		checks:    deps.Checks,
		log:       deps.Logger,
		locks:     make(map[string]*docLock),
	}
}

type docLock struct {
	mu   sync.Mutex
	refs int
}

// lockDocument serializes content mutations of one document and returns the
// release func. An entry lives only while its lock is held or awaited.
func (s *Service) lockDocument(documentID string) (unlock func()) {
	s.lockMu.Lock()
	l, ok := s.locks[documentID]
	if !ok {
		l = &docLock{}
		s.locks[documentID] = l
	}
	l.refs++
	s.lockMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.lockMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, documentID)
		}
		s.lockMu.Unlock()
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Readiness runs the optional service checks. Failures are reported, not
// fatal; only the database decides readiness.
func (s *Service) Readiness(ctx context.Context) map[string]any {
	out := make(map[string]any, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			out[name] = map[string]any{"status": "error", "error": err.Error()}
			continue
		}
		out[name] = map[string]any{"status": "ok"}
	}
	return out
}

func (s *Service) DocumentTypes(ctx context.Context) ([]store.DocumentType, error) {
	return s.store.ListDocumentTypes(ctx)
}

func (s *Service) ListDocuments(ctx context.Context, status string) ([]store.Document, error) {
	status = strings.TrimSpace(status)
	if status != "" && !store.ValidStatus(status) {
		return nil, validationError("unknown status", map[string]any{"status": status})
	}
	return s.store.ListDocuments(ctx, status)
}

func (s *Service) GetDocument(ctx context.Context, documentID string) (store.Document, error) {
	return s.store.GetDocument(ctx, documentID)
}

type CreateDocumentInput struct {
	Title          string          `json:"title"`
	DocumentTypeID string          `json:"documentTypeId"`
	Content        json.RawMessage `json:"content"`
}

// CreateDocument stores a new draft. A typed document without content starts
// from its type's template.
func (s *Service) CreateDocument(ctx context.Context, in CreateDocumentInput) (store.Document, error) {
	item := store.Document{
		ID:     util.NewID("doc"),
		Title:  normalizeTitle(in.Title),
		Status: store.StatusDraft,
	}
	if len(in.Content) > 0 && string(in.Content) != "null" {
		if err := validateContent(in.Content); err != nil {
			return store.Document{}, err
		}
		item.Content = in.Content
	}

	if typeID := strings.TrimSpace(in.DocumentTypeID); typeID != "" {
		docType, err := s.store.GetDocumentType(ctx, typeID)
		if errors.Is(err, sql.ErrNoRows) {
			return store.Document{}, validationError("unknown document type", map[string]any{"documentTypeId": typeID})
		}
		if err != nil {
			return store.Document{}, err
		}
		item.DocumentTypeID = &docType.ID
		if len(item.Content) == 0 {
			item.Content = docType.TemplateContent
		}
	}
	return s.insertDocument(ctx, item)
}

// CreateFromType starts a document from the template of the type with slug.
func (s *Service) CreateFromType(ctx context.Context, slug string) (store.Document, error) {
	docType, err := s.store.GetDocumentTypeBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return store.Document{}, err
	}
	return s.insertDocument(ctx, store.Document{
		ID:             util.NewID("doc"),
		Title:          normalizeTitle("New " + docType.Name),
		DocumentTypeID: &docType.ID,
		Content:        docType.TemplateContent,
		Status:         store.StatusDraft,
	})
}

func (s *Service) insertDocument(ctx context.Context, item store.Document) (store.Document, error) {
	created, err := s.store.InsertDocument(ctx, item)
	if err != nil {
		return store.Document{}, err
	}
	s.index(created)
	return created, nil
}

// SaveContent persists new content and records an autosave version when one
// is due. The returned version is nil when no snapshot was taken.
func (s *Service) SaveContent(ctx context.Context, documentID string, content json.RawMessage) (*versions.Version, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	defer s.lockDocument(documentID)()

	if err := s.store.UpdateDocumentContent(ctx, documentID, content); err != nil {
		return nil, err
	}
	version, err := s.versions.MaybeSnapshot(ctx, documentID, content, false, "")
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, documentID)
	return version, nil
}

func (s *Service) UpdateTitle(ctx context.Context, documentID, title string) (store.Document, error) {
	if err := s.store.UpdateDocumentTitle(ctx, documentID, normalizeTitle(title)); err != nil {
		return store.Document{}, err
	}
	return s.reindex(ctx, documentID)
}

func (s *Service) UpdateStatus(ctx context.Context, documentID, status string) (store.Document, error) {
	status = strings.TrimSpace(status)
	if !store.ValidStatus(status) {
		return store.Document{}, validationError("unknown status", map[string]any{"status": status})
	}
	if err := s.store.UpdateDocumentStatus(ctx, documentID, status); err != nil {
		return store.Document{}, err
	}
	return s.reindex(ctx, documentID)
}

func (s *Service) DeleteDocument(ctx context.Context, documentID string) error {
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteDocument(documentID)
	}
	return nil
}

// Export renders the document in format using its type's preset, or the
// court brief preset for untyped documents.
func (s *Service) Export(ctx context.Context, documentID, format string) (*export.Result, error) {
	parsed, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(format)))
	if err != nil {
		return nil, validationError(err.Error(), nil)
	}
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	preset := export.DefaultPreset
	if doc.DocumentTypeID != nil {
		docType, err := s.store.GetDocumentType(ctx, *doc.DocumentTypeID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if docType.ExportFormat != "" {
			preset = docType.ExportFormat
		}
	}

	return s.exporter.Export(ctx, export.Request{
		Title:   doc.Title,
		Preset:  preset,
		Format:  parsed,
		Content: doc.Content,
	})
}

func (s *Service) ListVersions(ctx context.Context, documentID string) ([]versions.Version, error) {
	return s.versions.List(ctx, documentID)
}

func (s *Service) CreateSnapshot(ctx context.Context, documentID, label string) (*versions.Version, error) {
	defer s.lockDocument(documentID)()
	return s.versions.CreateManual(ctx, documentID, label)
}

func (s *Service) RenameVersion(ctx context.Context, documentID, versionID, label string) (versions.Version, error) {
	return s.versions.Rename(ctx, documentID, versionID, label)
}

func (s *Service) DeleteVersion(ctx context.Context, documentID, versionID string) error {
	return s.versions.Delete(ctx, documentID, versionID)
}

func (s *Service) RestoreVersion(ctx context.Context, documentID, versionID string) (json.RawMessage, error) {
	defer s.lockDocument(documentID)()

	content, err := s.versions.Restore(ctx, documentID, versionID)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, documentID)
	return content, nil
}

func (s *Service) Search(ctx context.Context, q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(ctx, q)
}

func (s *Service) Research() *research.Service {
	return s.research
}

func (s *Service) Exemplars() *exemplar.Service {
	return s.exemplars
}

func (s *Service) reindex(ctx context.Context, documentID string) (store.Document, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return store.Document{}, err
	}
	s.index(doc)
	return doc, nil
}

func (s *Service) index(doc store.Document) {
	if s.search == nil {
		return
	}
	s.search.IndexDocument(DocumentRecord(doc))
}

// DocumentRecord builds the search index record of a document.
func DocumentRecord(doc store.Document) search.DocumentRecord {
	record := search.DocumentRecord{
		ID:     doc.ID,
		Title:  doc.Title,
		Body:   search.DocumentBody(doc.Content),
		Status: doc.Status,
	}
	if doc.DocumentTypeID != nil {
		record.TypeID = *doc.DocumentTypeID
	}
	return record
}

func normalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return store.DefaultDocumentTitle
	}
	return store.TruncateRunes(title, store.MaxTitleLength)
}

// validateContent accepts any JSON object; the tree decoder tolerates odd
// shapes inside it.
func validateContent(content json.RawMessage) error {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return validationError("content is required", nil)
	}
	if trimmed[0] != '{' {
		return validationError("content must be a JSON object", nil)
	}
	if _, err := doctree.Parse(trimmed); err != nil {
		return validationError("content must be a JSON object", nil)
	}
	return nil
}
