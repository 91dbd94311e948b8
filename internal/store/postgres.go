package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"lexdraft/api/internal/versions"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

const documentTypeColumns = `id, name, slug, category, template_content, export_format, description, sort_order`

func scanDocumentType(row interface{ Scan(...any) error }) (DocumentType, error) {
	var item DocumentType
	var template []byte
	if err := row.Scan(&item.ID, &item.Name, &item.Slug, &item.Category, &template, &item.ExportFormat, &item.Description, &item.SortOrder); err != nil {
		return DocumentType{}, err
	}
	item.TemplateContent = json.RawMessage(template)
	return item, nil
}

func (s *PostgresStore) ListDocumentTypes(ctx context.Context) ([]DocumentType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentTypeColumns+`
		FROM document_types
		ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	defer rows.Close()

	items := make([]DocumentType, 0)
	for rows.Next() {
		item, err := scanDocumentType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document type: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document types: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetDocumentType(ctx context.Context, id string) (DocumentType, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentTypeColumns+` FROM document_types WHERE id=$1`, id)
	return scanDocumentType(row)
}

func (s *PostgresStore) GetDocumentTypeBySlug(ctx context.Context, slug string) (DocumentType, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentTypeColumns+` FROM document_types WHERE slug=$1`, slug)
	return scanDocumentType(row)
}

const documentColumns = `id, title, document_type_id, content, status, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (Document, error) {
	var item Document
	var typeID sql.NullString
	var content []byte
	if err := row.Scan(&item.ID, &item.Title, &typeID, &content, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return Document{}, err
	}
	if typeID.Valid {
		item.DocumentTypeID = &typeID.String
	}
	item.Content = json.RawMessage(content)
	return item, nil
}

// ListDocuments returns documents by most recent update. An empty status
// lists every document.
func (s *PostgresStore) ListDocuments(ctx context.Context, status string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE ($1 = '' OR status = $1)
		ORDER BY updated_at DESC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0)
	for rows.Next() {
		item, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, documentID string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=$1`, documentID)
	return scanDocument(row)
}

func (s *PostgresStore) InsertDocument(ctx context.Context, item Document) (Document, error) {
	content := item.Content
	if len(content) == 0 {
		content = json.RawMessage(`{"type":"doc","content":[]}`)
	}
	status := item.Status
	if status == "" {
		status = StatusDraft
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (id, title, document_type_id, content, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+documentColumns,
		item.ID, item.Title, item.DocumentTypeID, []byte(content), status)
	created, err := scanDocument(row)
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetDocumentContent(ctx context.Context, documentID string) (json.RawMessage, error) {
	var content []byte
	if err := s.db.QueryRowContext(ctx, `SELECT content FROM documents WHERE id=$1`, documentID).Scan(&content); err != nil {
		return nil, err
	}
	return json.RawMessage(content), nil
}

func (s *PostgresStore) UpdateDocumentContent(ctx context.Context, documentID string, content json.RawMessage) error {
	return s.updateDocument(ctx, "content", documentID, []byte(content))
}

func (s *PostgresStore) UpdateDocumentTitle(ctx context.Context, documentID, title string) error {
	return s.updateDocument(ctx, "title", documentID, title)
}

func (s *PostgresStore) UpdateDocumentStatus(ctx context.Context, documentID, status string) error {
	return s.updateDocument(ctx, "status", documentID, status)
}

func (s *PostgresStore) updateDocument(ctx context.Context, column, documentID string, value any) error {
	result, err := s.db.ExecContext(ctx, `UPDATE documents SET `+column+`=$2, updated_at=NOW() WHERE id=$1`, documentID, value)
	if err != nil {
		return fmt.Errorf("update document %s: %w", column, err)
	}
	return requireAffected(result)
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, documentID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id=$1`, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const versionColumns = `id, document_id, content, label, created_at`

func scanVersion(row interface{ Scan(...any) error }) (versions.Version, error) {
	var item versions.Version
	var content []byte
	if err := row.Scan(&item.ID, &item.DocumentID, &content, &item.Label, &item.CreatedAt); err != nil {
		return versions.Version{}, err
	}
	item.Content = json.RawMessage(content)
	return item, nil
}

func (s *PostgresStore) LatestVersion(ctx context.Context, documentID string) (versions.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		FROM document_versions
		WHERE document_id=$1
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`, documentID)
	return scanVersion(row)
}

func (s *PostgresStore) GetVersion(ctx context.Context, documentID, versionID string) (versions.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		FROM document_versions
		WHERE id=$1 AND document_id=$2
	`, versionID, documentID)
	return scanVersion(row)
}

func (s *PostgresStore) ListVersions(ctx context.Context, documentID string) ([]versions.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+`
		FROM document_versions
		WHERE document_id=$1
		ORDER BY created_at DESC, seq DESC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	items := make([]versions.Version, 0)
	for rows.Next() {
		item, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertVersion(ctx context.Context, version versions.Version) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_versions (id, document_id, content, label, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, version.ID, version.DocumentID, []byte(version.Content), version.Label, version.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

func (s *PostgresStore) RenameVersion(ctx context.Context, documentID, versionID, label string) (versions.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE document_versions
		SET label=$3
		WHERE id=$1 AND document_id=$2
		RETURNING `+versionColumns,
		versionID, documentID, label)
	return scanVersion(row)
}

func (s *PostgresStore) DeleteVersions(ctx context.Context, documentID string, versionIDs []string) (int, error) {
	if len(versionIDs) == 0 {
		return 0, nil
	}
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM document_versions
		WHERE document_id=$1 AND id = ANY($2)
	`, documentID, versionIDs)
	if err != nil {
		return 0, fmt.Errorf("delete versions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

const exemplarColumns = `id, title, document_type_id, case_type, outcome, tags, metadata,
	file_name, object_key, mime_type, size_bytes, extracted_text, embedding, created_at, updated_at`

func scanExemplar(row interface{ Scan(...any) error }) (Exemplar, error) {
	var item Exemplar
	var typeID sql.NullString
	var tags, metadata, embedding []byte
	err := row.Scan(&item.ID, &item.Title, &typeID, &item.CaseType, &item.Outcome, &tags, &metadata,
		&item.FileName, &item.ObjectKey, &item.MimeType, &item.SizeBytes, &item.ExtractedText, &embedding,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Exemplar{}, err
	}
	if typeID.Valid {
		item.DocumentTypeID = &typeID.String
	}
	if err := decodeJSONColumn(tags, &item.Tags); err != nil {
		return Exemplar{}, fmt.Errorf("decode tags: %w", err)
	}
	if err := decodeJSONColumn(metadata, &item.Metadata); err != nil {
		return Exemplar{}, fmt.Errorf("decode metadata: %w", err)
	}
	if err := decodeJSONColumn(embedding, &item.Embedding); err != nil {
		return Exemplar{}, fmt.Errorf("decode embedding: %w", err)
	}
	return item, nil
}

func decodeJSONColumn(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func (s *PostgresStore) InsertExemplar(ctx context.Context, item Exemplar) (Exemplar, error) {
	if item.Tags == nil {
		item.Tags = []string{}
	}
	if item.Metadata == nil {
		item.Metadata = map[string]any{}
	}
	if item.Embedding == nil {
		item.Embedding = []float32{}
	}
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return Exemplar{}, fmt.Errorf("encode tags: %w", err)
	}
	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return Exemplar{}, fmt.Errorf("encode metadata: %w", err)
	}
	embedding, err := json.Marshal(item.Embedding)
	if err != nil {
		return Exemplar{}, fmt.Errorf("encode embedding: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO exemplars (id, title, document_type_id, case_type, outcome, tags, metadata,
			file_name, object_key, mime_type, size_bytes, extracted_text, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+exemplarColumns,
		item.ID, item.Title, item.DocumentTypeID, item.CaseType, item.Outcome, tags, metadata,
		item.FileName, item.ObjectKey, item.MimeType, item.SizeBytes, item.ExtractedText, embedding)
	created, err := scanExemplar(row)
	if err != nil {
		return Exemplar{}, fmt.Errorf("insert exemplar: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetExemplar(ctx context.Context, id string) (Exemplar, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+exemplarColumns+` FROM exemplars WHERE id=$1`, id)
	return scanExemplar(row)
}

// ListExemplars returns exemplars by most recent update, filtered by
// document type and a case-insensitive case type substring.
func (s *PostgresStore) ListExemplars(ctx context.Context, filter ExemplarFilter) ([]Exemplar, error) {
	var where []string
	var args []any
	if filter.DocumentTypeID != "" {
		args = append(args, filter.DocumentTypeID)
		where = append(where, fmt.Sprintf("document_type_id = $%d", len(args)))
	}
	if caseType := strings.TrimSpace(filter.CaseType); caseType != "" {
		args = append(args, "%"+escapeLike(caseType)+"%")
		where = append(where, fmt.Sprintf("case_type ILIKE $%d", len(args)))
	}
	query := `SELECT ` + exemplarColumns + ` FROM exemplars`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exemplars: %w", err)
	}
	defer rows.Close()

	items := make([]Exemplar, 0)
	for rows.Next() {
		item, err := scanExemplar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exemplar: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exemplars: %w", err)
	}
	return items, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
