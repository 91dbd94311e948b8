package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lexdraft/api/internal/exemplar"
	"lexdraft/api/internal/export"
	"lexdraft/api/internal/logger"
	"lexdraft/api/internal/metrics"
	"lexdraft/api/internal/research"
	"lexdraft/api/internal/search"
	"lexdraft/api/internal/store"
	"lexdraft/api/internal/versions"
)

const maxUploadBytes = 25 << 20

type HTTPServer struct {
	service    *Service
	corsOrigin string
	log        *logger.Logger
	metrics    *metrics.Metrics
}

func NewHTTPServer(service *Service, corsOrigin string, log *logger.Logger, m *metrics.Metrics) *HTTPServer {
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPServer{service: service, corsOrigin: corsOrigin, log: log, metrics: m}
}

func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withMiddleware)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ready", s.handleReady)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Get("/api/document-types", s.handleDocumentTypes)

	r.Route("/api/documents", func(r chi.Router) {
		r.Get("/", s.handleListDocuments)
		r.Post("/", s.handleCreateDocument)
		r.Post("/from-type/{slug}", s.handleCreateFromType)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDocument)
			r.Delete("/", s.handleDeleteDocument)
			r.Put("/content", s.handleSaveContent)
			r.Put("/title", s.handleUpdateTitle)
			r.Put("/status", s.handleUpdateStatus)
			r.Post("/export", s.handleExport)
			r.Get("/exemplars", s.handleSuggestExemplars)

			r.Get("/versions", s.handleListVersions)
			r.Post("/versions", s.handleCreateVersion)
			r.Patch("/versions/{vid}", s.handleRenameVersion)
			r.Delete("/versions/{vid}", s.handleDeleteVersion)
			r.Post("/versions/{vid}/restore", s.handleRestoreVersion)
		})
	})

	r.Get("/api/search", s.handleSearch)

	r.Route("/api/research", func(r chi.Router) {
		r.Use(s.requireResearch)
		r.Post("/suggest", s.handleResearchSuggest)
		r.Get("/categories", s.handleResearchCategories)
		r.Get("/categories/{id}/cases", s.handleCategoryCases)
		r.Get("/categories/by-slug/{slug}/cases", s.handleCategoryCasesBySlug)
		r.Get("/cases/{id}", s.handleCaseDetail)
		r.Get("/cases/{id}/similar", s.handleSimilarCases)
	})

	r.Route("/api/exemplars", func(r chi.Router) {
		r.Get("/", s.handleListExemplars)
		r.Post("/", s.handleUploadExemplar)
		r.Get("/{id}", s.handleGetExemplar)
	})

	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := s.service.Readiness(ctx)
	checks["database"] = map[string]any{"status": "ok"}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleDocumentTypes(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.DocumentTypes(r.Context())
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, documentTypeJSON(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documentTypes": out})
}

func (s *HTTPServer) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListDocuments(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, documentSummaryJSON(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *HTTPServer) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var body CreateDocumentInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error(), nil)
		return
	}
	created, err := s.service.CreateDocument(r.Context(), body)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentJSON(created))
}

func (s *HTTPServer) handleCreateFromType(w http.ResponseWriter, r *http.Request) {
	created, err := s.service.CreateFromType(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentJSON(created))
}

func (s *HTTPServer) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentJSON(doc))
}

func (s *HTTPServer) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteDocument(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleSaveContent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content json.RawMessage `json:"content"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error(), nil)
		return
	}
	version, err := s.service.SaveContent(r.Context(), chi.URLParam(r, "id"), body.Content)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	response := map[string]any{"ok": true, "version": nil}
	if version != nil {
		response["version"] = versionJSON(*version)
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleUpdateTitle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error(), nil)
		return
	}
	doc, err := s.service.UpdateTitle(r.Context(), chi.URLParam(r, "id"), body.Title)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentSummaryJSON(doc))
}

func (s *HTTPServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error(), nil)
		return
	}
	doc, err := s.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentSummaryJSON(doc))
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Format string `json:"format"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error(), nil)
		return
	}
	if strings.TrimSpace(body.Format) == "" {
		body.Format = string(export.FormatDOCX)
	}
	result, err := s.service.Export(r.Context(), chi.URLParam(r, "id"), body.Format)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) handleListVersions(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListVersions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, versionJSON(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": out})
}

func (s *HTTPServer) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Label string `json:"label"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error(), nil)
		return
	}
	version, err := s.service.CreateSnapshot(r.Context(), chi.URLParam(r, "id"), body.Label)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, versionJSON(*version))
}

func (s *HTTPServer) handleRenameVersion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Label string `json:"label"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error(), nil)
		return
	}
	version, err := s.service.RenameVersion(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "vid"), body.Label)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versionJSON(version))
}

func (s *HTTPServer) handleDeleteVersion(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteVersion(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "vid")); err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleRestoreVersion(w http.ResponseWriter, r *http.Request) {
	content, err := s.service.RestoreVersion(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "vid"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "content": content})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	text := strings.TrimSpace(query.Get("q"))
	if text == "" {
		writeJSON(w, http.StatusOK, search.Response{Results: []search.Result{}})
		return
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(query.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	writeJSON(w, http.StatusOK, s.service.Search(r.Context(), search.Query{
		Text:       text,
		FilterType: search.ParseResultType(query.Get("type")),
		Limit:      limit,
		Offset:     offset,
	}))
}

func (s *HTTPServer) requireResearch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.service.Research() == nil {
			writeError(w, http.StatusServiceUnavailable, "RESEARCH_UNAVAILABLE", "Research database not configured", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handleResearchSuggest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error(), nil)
		return
	}
	results, err := s.service.Research().Suggest(r.Context(), body.Text)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *HTTPServer) handleResearchCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.Research().Categories(r.Context())
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": items})
}

func (s *HTTPServer) handleCategoryCases(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "Category not found", nil)
		return
	}
	page := pageParam(r)
	results, err := s.service.Research().CategoryCases(r.Context(), categoryID, page)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "page": page})
}

func (s *HTTPServer) handleCategoryCasesBySlug(w http.ResponseWriter, r *http.Request) {
	svc := s.service.Research()
	category, err := svc.CategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, research.ErrCaseNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "Category not found", nil)
		return
	}
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	page := pageParam(r)
	results, err := svc.CategoryCases(r.Context(), category.ID, page)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": category, "results": results, "page": page})
}

func (s *HTTPServer) handleCaseDetail(w http.ResponseWriter, r *http.Request) {
	caseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "Case not found", nil)
		return
	}
	detail, err := s.service.Research().CaseDetail(r.Context(), caseID)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *HTTPServer) handleSimilarCases(w http.ResponseWriter, r *http.Request) {
	caseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "Case not found", nil)
		return
	}
	results, err := s.service.Research().SimilarCases(r.Context(), caseID)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *HTTPServer) handleListExemplars(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	results, err := s.service.Exemplars().Search(r.Context(), exemplar.SearchInput{
		Query:          query.Get("q"),
		DocumentTypeID: query.Get("documentTypeId"),
		CaseType:       query.Get("caseType"),
	})
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": exemplar.SummarizeScored(results)})
}

func (s *HTTPServer) handleUploadExemplar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, "multipart form with a file is required", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, "file is required", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, "could not read file", nil)
		return
	}

	var metadata map[string]any
	if raw := strings.TrimSpace(r.FormValue("metadata")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			writeError(w, http.StatusUnprocessableEntity, codeValidation, "metadata must be a JSON object", nil)
			return
		}
	}

	created, err := s.service.Exemplars().Upload(r.Context(), exemplar.UploadInput{
		FileName:       header.Filename,
		ContentType:    header.Header.Get("Content-Type"),
		Data:           data,
		Title:          r.FormValue("title"),
		DocumentTypeID: r.FormValue("documentTypeId"),
		CaseType:       r.FormValue("caseType"),
		Outcome:        r.FormValue("outcome"),
		Tags:           exemplar.ParseTags(r.FormValue("tags")),
		Metadata:       metadata,
	})
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exemplar.Summarize(created))
}

func (s *HTTPServer) handleGetExemplar(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.Exemplars().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	summary := exemplar.Summarize(item)
	summary.ExtractedText = item.ExtractedText
	writeJSON(w, http.StatusOK, summary)
}

func (s *HTTPServer) handleSuggestExemplars(w http.ResponseWriter, r *http.Request) {
	results, err := s.service.Exemplars().SuggestForDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": exemplar.SummarizeScored(results)})
}

func (s *HTTPServer) writeMappedError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		zl := s.log.Component("http")
		zl.Error().Err(err).Str("code", code).Msg("request failed")
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		if r.Method == http.MethodOptions {
			writer.WriteHeader(http.StatusNoContent)
		} else {
			next.ServeHTTP(writer, r)
		}

		s.log.LogRequest(requestID, r.Method, r.URL.Path, writer.status, time.Since(started))
		s.metrics.RecordHTTPRequest(r.Method, writer.status)
	})
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request by the middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	header.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, versions.ErrDocumentNotFound):
		return http.StatusNotFound, "DOCUMENT_NOT_FOUND", "Document not found", nil
	case errors.Is(err, versions.ErrSnapshotNotFound):
		return http.StatusNotFound, "SNAPSHOT_NOT_FOUND", "Version not found", nil
	case errors.Is(err, research.ErrCaseNotFound):
		return http.StatusNotFound, codeNotFound, "Case not found", nil
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, codeNotFound, "Not found", nil
	case errors.Is(err, research.ErrEmptyQuery):
		return http.StatusBadRequest, codeValidation, "text is required", nil
	case errors.Is(err, exemplar.ErrUnsupportedFile):
		return http.StatusBadRequest, "UNSUPPORTED_FILE", err.Error(), nil
	case errors.Is(err, export.ErrRenderingUnavailable):
		return http.StatusServiceUnavailable, "RENDERING_UNAVAILABLE", "PDF rendering is unavailable", map[string]any{"hint": export.RenderingHint}
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

func documentTypeJSON(item store.DocumentType) map[string]any {
	return map[string]any{
		"id":              item.ID,
		"name":            item.Name,
		"slug":            item.Slug,
		"category":        item.Category,
		"templateContent": item.TemplateContent,
		"exportFormat":    item.ExportFormat,
		"description":     item.Description,
		"sortOrder":       item.SortOrder,
	}
}

func documentSummaryJSON(doc store.Document) map[string]any {
	return map[string]any{
		"id":             doc.ID,
		"title":          doc.Title,
		"documentTypeId": doc.DocumentTypeID,
		"status":         doc.Status,
		"createdAt":      doc.CreatedAt,
		"updatedAt":      doc.UpdatedAt,
	}
}

func documentJSON(doc store.Document) map[string]any {
	out := documentSummaryJSON(doc)
	out["content"] = doc.Content
	return out
}

func versionJSON(item versions.Version) map[string]any {
	return map[string]any{
		"id":         item.ID,
		"documentId": item.DocumentID,
		"label":      item.Label,
		"createdAt":  item.CreatedAt,
	}
}
