package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lexdraft/api/internal/exemplar"
	"lexdraft/api/internal/export"
	"lexdraft/api/internal/search"
	"lexdraft/api/internal/store"
	"lexdraft/api/internal/versions"
)

const motionTemplate = `{"type":"doc","content":[{"type":"heading","attrs":{"level":1},"content":[{"type":"text","text":"MOTION"}]}]}`

// fakeStore keeps documents, versions and exemplars in memory. It satisfies
// the app, versions and exemplar store interfaces.
type fakeStore struct {
	mu        sync.Mutex
	types     []store.DocumentType
	documents map[string]store.Document
	versions  []versions.Version
	exemplars []store.Exemplar
	seq       map[string]int

	pingFn func(context.Context) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		types: []store.DocumentType{
			{ID: "dt_motion", Name: "Motion", Slug: "motion", Category: store.CategoryMotion, TemplateContent: json.RawMessage(motionTemplate), ExportFormat: "court_brief"},
			{ID: "dt_declaration", Name: "Declaration", Slug: "declaration", Category: store.CategoryDeclaration, TemplateContent: json.RawMessage(`{"type":"doc","content":[]}`), ExportFormat: "declaration"},
		},
		documents: map[string]store.Document{},
		seq:       map[string]int{},
	}
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func (f *fakeStore) ListDocumentTypes(context.Context) ([]store.DocumentType, error) {
	return f.types, nil
}

func (f *fakeStore) GetDocumentType(_ context.Context, id string) (store.DocumentType, error) {
	for _, item := range f.types {
		if item.ID == id {
			return item, nil
		}
	}
	return store.DocumentType{}, sql.ErrNoRows
}

func (f *fakeStore) GetDocumentTypeBySlug(_ context.Context, slug string) (store.DocumentType, error) {
	for _, item := range f.types {
		if item.Slug == slug {
			return item, nil
		}
	}
	return store.DocumentType{}, sql.ErrNoRows
}

func (f *fakeStore) ListDocuments(_ context.Context, status string) ([]store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Document, 0)
	for _, doc := range f.documents {
		if status == "" || doc.Status == status {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetDocument(_ context.Context, id string) (store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.documents[id]
	if !ok {
		return store.Document{}, sql.ErrNoRows
	}
	return doc, nil
}

func (f *fakeStore) InsertDocument(_ context.Context, item store.Document) (store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(item.Content) == 0 {
		item.Content = json.RawMessage(`{"type":"doc","content":[]}`)
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	f.documents[item.ID] = item
	return item, nil
}

func (f *fakeStore) update(id string, apply func(*store.Document)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.documents[id]
	if !ok {
		return sql.ErrNoRows
	}
	apply(&doc)
	f.documents[id] = doc
	return nil
}

func (f *fakeStore) UpdateDocumentContent(_ context.Context, id string, content json.RawMessage) error {
	return f.update(id, func(doc *store.Document) { doc.Content = content })
}

func (f *fakeStore) UpdateDocumentTitle(_ context.Context, id, title string) error {
	return f.update(id, func(doc *store.Document) { doc.Title = title })
}

func (f *fakeStore) UpdateDocumentStatus(_ context.Context, id, status string) error {
	return f.update(id, func(doc *store.Document) { doc.Status = status })
}

func (f *fakeStore) DeleteDocument(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.documents[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.documents, id)
	return nil
}

func (f *fakeStore) GetDocumentContent(ctx context.Context, id string) (json.RawMessage, error) {
	doc, err := f.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.Content, nil
}

func (f *fakeStore) LatestVersion(ctx context.Context, documentID string) (versions.Version, error) {
	items, _ := f.ListVersions(ctx, documentID)
	if len(items) == 0 {
		return versions.Version{}, sql.ErrNoRows
	}
	return items[0], nil
}

func (f *fakeStore) GetVersion(_ context.Context, documentID, versionID string) (versions.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.versions {
		if item.ID == versionID && item.DocumentID == documentID {
			return item, nil
		}
	}
	return versions.Version{}, sql.ErrNoRows
}

// ListVersions returns newest first; insertion order breaks timestamp ties.
func (f *fakeStore) ListVersions(_ context.Context, documentID string) ([]versions.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]versions.Version, 0)
	for i := len(f.versions) - 1; i >= 0; i-- {
		if f.versions[i].DocumentID == documentID {
			out = append(out, f.versions[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) InsertVersion(_ context.Context, item versions.Version) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versions = append(f.versions, item)
	return nil
}

func (f *fakeStore) RenameVersion(_ context.Context, documentID, versionID, label string) (versions.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.versions {
		if f.versions[i].ID == versionID && f.versions[i].DocumentID == documentID {
			f.versions[i].Label = label
			return f.versions[i], nil
		}
	}
	return versions.Version{}, sql.ErrNoRows
}

func (f *fakeStore) DeleteVersions(_ context.Context, documentID string, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.versions[:0]
	deleted := 0
	for _, item := range f.versions {
		if item.DocumentID == documentID && drop[item.ID] {
			deleted++
			continue
		}
		kept = append(kept, item)
	}
	f.versions = kept
	return deleted, nil
}

func (f *fakeStore) versionCount(documentID string) int {
	items, _ := f.ListVersions(context.Background(), documentID)
	return len(items)
}

func (f *fakeStore) InsertExemplar(_ context.Context, item store.Exemplar) (store.Exemplar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	f.exemplars = append(f.exemplars, item)
	return item, nil
}

func (f *fakeStore) GetExemplar(_ context.Context, id string) (store.Exemplar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.exemplars {
		if item.ID == id {
			return item, nil
		}
	}
	return store.Exemplar{}, sql.ErrNoRows
}

func (f *fakeStore) ListExemplars(_ context.Context, filter store.ExemplarFilter) ([]store.Exemplar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Exemplar, 0)
	for _, item := range f.exemplars {
		if filter.DocumentTypeID != "" && (item.DocumentTypeID == nil || *item.DocumentTypeID != filter.DocumentTypeID) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

type fakeExporter struct {
	requests []export.Request
	err      error
}

func (f *fakeExporter) Export(_ context.Context, req export.Request) (*export.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &export.Result{
		Data:     []byte("rendered"),
		Filename: export.Filename(req.Title, req.Format),
		MimeType: req.Format.MimeType(),
	}, nil
}

type fakeSearch struct {
	mu      sync.Mutex
	indexed []search.DocumentRecord
	deleted []string
	queries []search.Query
}

func (f *fakeSearch) Search(_ context.Context, q search.Query) search.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return search.Response{Results: []search.Result{{Type: search.ResultDocument, ID: "doc_1", Title: "Hit"}}, Total: 1, Query: q.Text}
}

func (f *fakeSearch) IndexDocument(doc search.DocumentRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, doc)
}

func (f *fakeSearch) DeleteDocument(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store    *fakeStore
	exporter *fakeExporter
	search   *fakeSearch
	clock    *testClock
	service  *Service
}

func newTestEnv(maxSnapshots int) *testEnv {
	fs := newFakeStore()
	clock := &testClock{now: time.Date(2024, 5, 6, 14, 0, 0, 0, time.UTC)}
	var idMu sync.Mutex
	nextID := 0
	engine := versions.NewEngine(fs, versions.Config{
		Interval:     10 * time.Minute,
		MaxSnapshots: maxSnapshots,
		Now:          clock.Now,
		NewID: func() string {
			idMu.Lock()
			defer idMu.Unlock()
			nextID++
			return fmt.Sprintf("ver_%03d", nextID)
		},
	})
	exp := &fakeExporter{}
	srch := &fakeSearch{}
	svc := New(Deps{
		Store:     fs,
		Versions:  engine,
		Exporter:  exp,
		Search:    srch,
		Exemplars: exemplar.NewService(fs, exemplar.Options{Logger: zerolog.Nop()}),
		Logger:    zerolog.Nop(),
	})
	return &testEnv{store: fs, exporter: exp, search: srch, clock: clock, service: svc}
}

func paragraphDoc(text string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":%q}]}]}`, text))
}

func TestCreateFromTypeUsesTemplate(t *testing.T) {
	env := newTestEnv(10)

	doc, err := env.service.CreateFromType(context.Background(), "motion")
	if err != nil {
		t.Fatalf("CreateFromType() error = %v", err)
	}
	if doc.Title != "New Motion" {
		t.Errorf("Title = %q, want %q", doc.Title, "New Motion")
	}
	if string(doc.Content) != motionTemplate {
		t.Errorf("Content = %s, want template", doc.Content)
	}
	if doc.Status != store.StatusDraft || doc.DocumentTypeID == nil || *doc.DocumentTypeID != "dt_motion" {
		t.Errorf("doc = %+v", doc)
	}
	if len(env.search.indexed) != 1 || env.search.indexed[0].Body != "MOTION" {
		t.Errorf("indexed = %+v", env.search.indexed)
	}

	if _, err := env.service.CreateFromType(context.Background(), "unknown"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("unknown slug err = %v", err)
	}
}

func TestCreateDocumentValidation(t *testing.T) {
	env := newTestEnv(10)
	ctx := context.Background()

	doc, err := env.service.CreateDocument(ctx, CreateDocumentInput{Title: "   "})
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	if doc.Title != store.DefaultDocumentTitle {
		t.Errorf("Title = %q, want default", doc.Title)
	}

	typed, err := env.service.CreateDocument(ctx, CreateDocumentInput{Title: "Decl", DocumentTypeID: "dt_declaration"})
	if err != nil {
		t.Fatalf("CreateDocument(typed) error = %v", err)
	}
	if string(typed.Content) != `{"type":"doc","content":[]}` {
		t.Errorf("typed content = %s", typed.Content)
	}

	_, err = env.service.CreateDocument(ctx, CreateDocumentInput{DocumentTypeID: "dt_missing"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("unknown type err = %v, want 422", err)
	}

	_, err = env.service.CreateDocument(ctx, CreateDocumentInput{Content: json.RawMessage(`{"type":`)})
	if !errors.As(err, &domainErr) || domainErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("bad content err = %v, want 422", err)
	}
}

func TestSaveContentSnapshots(t *testing.T) {
	env := newTestEnv(10)
	ctx := context.Background()
	doc, _ := env.service.CreateDocument(ctx, CreateDocumentInput{Title: "Brief"})

	first, err := env.service.SaveContent(ctx, doc.ID, paragraphDoc("one"))
	if err != nil {
		t.Fatalf("SaveContent() error = %v", err)
	}
	if first == nil || !strings.HasPrefix(first.Label, "Autosave 2024-05-06 14:00:00") {
		t.Fatalf("first save version = %+v, want autosave", first)
	}

	env.clock.Advance(time.Minute)
	if v, err := env.service.SaveContent(ctx, doc.ID, paragraphDoc("two")); err != nil || v != nil {
		t.Fatalf("save inside interval = %+v, %v; want no version", v, err)
	}

	env.clock.Advance(20 * time.Minute)
	if v, err := env.service.SaveContent(ctx, doc.ID, paragraphDoc("one")); err != nil || v != nil {
		t.Fatalf("save of unchanged content = %+v, %v; want no version", v, err)
	}
	if v, err := env.service.SaveContent(ctx, doc.ID, paragraphDoc("three")); err != nil || v == nil {
		t.Fatalf("save after interval = %+v, %v; want version", v, err)
	}

	stored, _ := env.store.GetDocument(ctx, doc.ID)
	if string(stored.Content) != string(paragraphDoc("three")) {
		t.Errorf("stored content = %s", stored.Content)
	}
	if got := env.store.versionCount(doc.ID); got != 2 {
		t.Errorf("versions = %d, want 2", got)
	}

	if _, err := env.service.SaveContent(ctx, "doc_missing", paragraphDoc("x")); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing doc err = %v", err)
	}
}

func TestConcurrentSavesRespectCap(t *testing.T) {
	env := newTestEnv(3)
	ctx := context.Background()
	doc, _ := env.service.CreateDocument(ctx, CreateDocumentInput{Title: "Brief"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				_, _ = env.service.CreateSnapshot(ctx, doc.ID, "")
				return
			}
			env.clock.Advance(11 * time.Minute)
			_, _ = env.service.SaveContent(ctx, doc.ID, paragraphDoc(fmt.Sprintf("draft %d", i)))
		}(i)
	}
	wg.Wait()

	if got := env.store.versionCount(doc.ID); got > 3 {
		t.Errorf("versions = %d, want at most 3", got)
	}
}

func lockEntries(s *Service) int {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	return len(s.locks)
}

func TestDocumentLocksAreReleased(t *testing.T) {
	env := newTestEnv(3)
	ctx := context.Background()

	if _, err := env.service.SaveContent(ctx, "doc_missing", paragraphDoc("x")); err == nil {
		t.Fatal("expected error for missing document")
	}
	if _, err := env.service.CreateSnapshot(ctx, "doc_missing", ""); err == nil {
		t.Fatal("expected snapshot error for missing document")
	}
	if n := lockEntries(env.service); n != 0 {
		t.Errorf("lock entries after missing document = %d, want 0", n)
	}

	doc, _ := env.service.CreateDocument(ctx, CreateDocumentInput{Title: "Brief"})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = env.service.SaveContent(ctx, doc.ID, paragraphDoc(fmt.Sprintf("draft %d", i)))
		}(i)
	}
	wg.Wait()
	if err := env.service.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if n := lockEntries(env.service); n != 0 {
		t.Errorf("lock entries after delete = %d, want 0", n)
	}
}

func TestRestoreVersion(t *testing.T) {
	env := newTestEnv(5)
	ctx := context.Background()
	doc, _ := env.service.CreateDocument(ctx, CreateDocumentInput{Title: "Brief"})

	original, err := env.service.SaveContent(ctx, doc.ID, paragraphDoc("original"))
	if err != nil || original == nil {
		t.Fatalf("SaveContent() = %+v, %v", original, err)
	}
	env.clock.Advance(time.Minute)
	if _, err := env.service.SaveContent(ctx, doc.ID, paragraphDoc("edited")); err != nil {
		t.Fatal(err)
	}

	content, err := env.service.RestoreVersion(ctx, doc.ID, original.ID)
	if err != nil {
		t.Fatalf("RestoreVersion() error = %v", err)
	}
	if string(content) != string(paragraphDoc("original")) {
		t.Errorf("restored content = %s", content)
	}

	items, _ := env.service.ListVersions(ctx, doc.ID)
	if len(items) != 2 || !strings.HasPrefix(items[0].Label, "Before restore") {
		t.Fatalf("versions = %+v", items)
	}
	if string(items[0].Content) != string(paragraphDoc("edited")) {
		t.Errorf("before-restore content = %s", items[0].Content)
	}

	if _, err := env.service.RestoreVersion(ctx, doc.ID, "ver_missing"); !errors.Is(err, versions.ErrSnapshotNotFound) {
		t.Errorf("missing version err = %v", err)
	}
	if _, err := env.service.RestoreVersion(ctx, "doc_missing", original.ID); !errors.Is(err, versions.ErrDocumentNotFound) {
		t.Errorf("missing document err = %v", err)
	}
}

func TestUpdateTitleAndStatus(t *testing.T) {
	env := newTestEnv(10)
	ctx := context.Background()
	doc, _ := env.service.CreateDocument(ctx, CreateDocumentInput{Title: "Brief"})

	updated, err := env.service.UpdateTitle(ctx, doc.ID, strings.Repeat("t", 600))
	if err != nil {
		t.Fatalf("UpdateTitle() error = %v", err)
	}
	if len(updated.Title) != store.MaxTitleLength {
		t.Errorf("title length = %d", len(updated.Title))
	}

	if updated, err = env.service.UpdateStatus(ctx, doc.ID, "final"); err != nil || updated.Status != "final" {
		t.Errorf("UpdateStatus() = %+v, %v", updated, err)
	}
	var domainErr *DomainError
	if _, err := env.service.UpdateStatus(ctx, doc.ID, "published"); !errors.As(err, &domainErr) {
		t.Errorf("invalid status err = %v", err)
	}
	if _, err := env.service.ListDocuments(ctx, "bogus"); !errors.As(err, &domainErr) {
		t.Errorf("invalid list filter err = %v", err)
	}
	if items, err := env.service.ListDocuments(ctx, "final"); err != nil || len(items) != 1 {
		t.Errorf("ListDocuments(final) = %d, %v", len(items), err)
	}
}

func TestExportChoosesPreset(t *testing.T) {
	env := newTestEnv(10)
	ctx := context.Background()

	typed, _ := env.service.CreateFromType(ctx, "declaration")
	untyped, _ := env.service.CreateDocument(ctx, CreateDocumentInput{Title: "Letter"})

	if _, err := env.service.Export(ctx, typed.ID, "DOCX"); err != nil {
		t.Fatalf("Export(typed) error = %v", err)
	}
	if _, err := env.service.Export(ctx, untyped.ID, "pdf"); err != nil {
		t.Fatalf("Export(untyped) error = %v", err)
	}

	reqs := env.exporter.requests
	if reqs[0].Preset != "declaration" || reqs[0].Format != export.FormatDOCX || reqs[0].Title != "New Declaration" {
		t.Errorf("typed request = %+v", reqs[0])
	}
	if reqs[1].Preset != export.DefaultPreset || reqs[1].Format != export.FormatPDF {
		t.Errorf("untyped request = %+v", reqs[1])
	}

	var domainErr *DomainError
	if _, err := env.service.Export(ctx, typed.ID, "rtf"); !errors.As(err, &domainErr) {
		t.Errorf("bad format err = %v", err)
	}
}

func TestDeleteDocumentRemovesFromIndex(t *testing.T) {
	env := newTestEnv(10)
	ctx := context.Background()
	doc, _ := env.service.CreateDocument(ctx, CreateDocumentInput{Title: "Brief"})

	if err := env.service.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if len(env.search.deleted) != 1 || env.search.deleted[0] != doc.ID {
		t.Errorf("deleted = %v", env.search.deleted)
	}
	if err := env.service.DeleteDocument(ctx, doc.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("second delete err = %v", err)
	}
}
