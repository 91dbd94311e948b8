package research

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CaseIndex reads the case-law research database: decisions, their holdings
// with pgvector embeddings, headnotes, full texts and curated categories.
type CaseIndex struct {
	db *sql.DB
}

func NewCaseIndex(db *sql.DB) *CaseIndex {
	return &CaseIndex{db: db}
}

func (c *CaseIndex) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// SemanticMatches returns holdings whose embedding is closer than
// minSimilarity to vector, most similar first.
func (c *CaseIndex) SemanticMatches(ctx context.Context, vector []float32, minSimilarity float64, limit int) ([]Suggestion, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT h.document_id, coalesce(h.legal_issue, ''), coalesce(h.rule, ''), h.is_primary,
			coalesce(d.case_name, ''), coalesce(d.citation, ''), d.decision_date, coalesce(d.court, ''),
			coalesce(d.precedential_status, ''), coalesce(d.cited_by_count, 0),
			cv.status,
			1 - (he.embedding <=> $1::vector) AS similarity
		FROM holding_embeddings he
		JOIN holdings h ON h.id = he.holding_id
		JOIN documents d ON d.id = h.document_id
		LEFT JOIN citation_validity cv ON cv.document_id = d.id
		WHERE 1 - (he.embedding <=> $1::vector) > $2
		ORDER BY similarity DESC
		LIMIT $3
	`, vectorLiteral(vector), minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("semantic matches: %w", err)
	}
	defer rows.Close()

	items := make([]Suggestion, 0)
	for rows.Next() {
		var item Suggestion
		var decided sql.NullTime
		var validity sql.NullString
		var similarity sql.NullFloat64
		if err := rows.Scan(
			&item.DocumentID, &item.LegalIssue, &item.Holding, &item.IsPrimary,
			&item.CaseName, &item.Citation, &decided, &item.Court,
			&item.PrecedentialStatus, &item.CitedByCount,
			&validity, &similarity,
		); err != nil {
			return nil, fmt.Errorf("scan semantic match: %w", err)
		}
		item.DecisionDate = dateString(decided)
		item.ValidityStatus = nullString(validity)
		item.Similarity = similarity.Float64
		items = append(items, item)
	}
	return items, rows.Err()
}

// KeywordMatches ranks decisions by full-text relevance to text.
func (c *CaseIndex) KeywordMatches(ctx context.Context, text string, limit int) ([]Suggestion, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT d.id, coalesce(d.case_name, ''), coalesce(d.citation, ''), d.decision_date, coalesce(d.court, ''),
			coalesce(d.precedential_status, ''), coalesce(d.cited_by_count, 0),
			cv.status,
			ts_rank(dt.search_vector, plainto_tsquery('english', $1)) AS rank
		FROM document_texts dt
		JOIN documents d ON d.id = dt.document_id
		LEFT JOIN citation_validity cv ON cv.document_id = d.id
		WHERE dt.search_vector @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC
		LIMIT $2
	`, text, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword matches: %w", err)
	}
	defer rows.Close()

	items := make([]Suggestion, 0)
	for rows.Next() {
		var item Suggestion
		var decided sql.NullTime
		var validity sql.NullString
		var rank sql.NullFloat64
		if err := rows.Scan(
			&item.DocumentID, &item.CaseName, &item.Citation, &decided, &item.Court,
			&item.PrecedentialStatus, &item.CitedByCount,
			&validity, &rank,
		); err != nil {
			return nil, fmt.Errorf("scan keyword match: %w", err)
		}
		item.DecisionDate = dateString(decided)
		item.ValidityStatus = nullString(validity)
		item.KeywordScore = rank.Float64
		items = append(items, item)
	}
	return items, rows.Err()
}

// Categories lists enabled categories in display order.
func (c *CaseIndex) Categories(ctx context.Context) ([]Category, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, slug, coalesce(description, '')
		FROM categories
		WHERE enabled = true
		ORDER BY display_order ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := make([]Category, 0)
	for rows.Next() {
		var item Category
		if err := rows.Scan(&item.ID, &item.Name, &item.Slug, &item.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (c *CaseIndex) CategoryBySlug(ctx context.Context, slug string) (Category, error) {
	var item Category
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, slug, coalesce(description, '')
		FROM categories
		WHERE slug = $1 AND enabled = true
	`, slug).Scan(&item.ID, &item.Name, &item.Slug, &item.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrCaseNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("get category: %w", err)
	}
	return item, nil
}

// CategoryCases pages through a category's decisions, most cited first.
func (c *CaseIndex) CategoryCases(ctx context.Context, categoryID int64, limit, offset int) ([]CaseSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT d.id, coalesce(d.case_name, ''), coalesce(d.citation, ''), d.decision_date, coalesce(d.court, ''),
			coalesce(d.precedential_status, ''), coalesce(d.cited_by_count, 0), coalesce(d.summary, ''),
			cv.status
		FROM document_categories dc
		JOIN documents d ON d.id = dc.document_id
		LEFT JOIN citation_validity cv ON cv.document_id = d.id
		WHERE dc.category_id = $1
		ORDER BY d.cited_by_count DESC NULLS LAST, d.id ASC
		LIMIT $2 OFFSET $3
	`, categoryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("category cases: %w", err)
	}
	defer rows.Close()

	items := make([]CaseSummary, 0)
	for rows.Next() {
		var item CaseSummary
		var decided sql.NullTime
		var validity sql.NullString
		if err := rows.Scan(
			&item.DocumentID, &item.CaseName, &item.Citation, &decided, &item.Court,
			&item.PrecedentialStatus, &item.CitedByCount, &item.Summary,
			&validity,
		); err != nil {
			return nil, fmt.Errorf("scan category case: %w", err)
		}
		item.DecisionDate = dateString(decided)
		item.ValidityStatus = nullString(validity)
		items = append(items, item)
	}
	return items, rows.Err()
}

// CaseDetail loads a decision with its validity, holdings, headnotes and
// full text.
func (c *CaseIndex) CaseDetail(ctx context.Context, id int64) (CaseDetail, error) {
	var detail CaseDetail
	var decided sql.NullTime
	err := c.db.QueryRowContext(ctx, `
		SELECT d.id, coalesce(d.case_name, ''), coalesce(d.citation, ''), d.decision_date, coalesce(d.court, ''),
			coalesce(d.precedential_status, ''), coalesce(d.summary, ''), coalesce(d.cited_by_count, 0)
		FROM documents d
		WHERE d.id = $1
	`, id).Scan(
		&detail.ID, &detail.CaseName, &detail.Citation, &decided, &detail.Court,
		&detail.PrecedentialStatus, &detail.Summary, &detail.CitedByCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return CaseDetail{}, ErrCaseNotFound
	}
	if err != nil {
		return CaseDetail{}, fmt.Errorf("get case: %w", err)
	}
	detail.DecisionDate = dateString(decided)

	var status sql.NullString
	err = c.db.QueryRowContext(ctx, `
		SELECT status, coalesce(positive_citations, 0), coalesce(negative_citations, 0),
			coalesce(overruling_citations, 0), coalesce(status_reason, '')
		FROM citation_validity
		WHERE document_id = $1
	`, id).Scan(
		&status, &detail.Validity.PositiveCitations, &detail.Validity.NegativeCitations,
		&detail.Validity.OverrulingCitations, &detail.Validity.StatusReason,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return CaseDetail{}, fmt.Errorf("get validity: %w", err)
	}
	detail.Validity.Status = nullString(status)

	if detail.Holdings, err = c.holdings(ctx, id); err != nil {
		return CaseDetail{}, err
	}
	if detail.Headnotes, err = c.headnotes(ctx, id); err != nil {
		return CaseDetail{}, err
	}

	err = c.db.QueryRowContext(ctx, `
		SELECT coalesce(full_text, '') FROM document_texts WHERE document_id = $1
	`, id).Scan(&detail.FullText)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return CaseDetail{}, fmt.Errorf("get full text: %w", err)
	}
	return detail, nil
}

func (c *CaseIndex) holdings(ctx context.Context, id int64) ([]Holding, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT coalesce(legal_issue, ''), coalesce(rule, ''), is_primary
		FROM holdings
		WHERE document_id = $1
		ORDER BY is_primary DESC, sequence ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	defer rows.Close()

	items := make([]Holding, 0)
	for rows.Next() {
		var item Holding
		if err := rows.Scan(&item.LegalIssue, &item.Rule, &item.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (c *CaseIndex) headnotes(ctx context.Context, id int64) ([]Headnote, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT coalesce(title, ''), coalesce(text, ''), coalesce(topic_code, ''), is_primary
		FROM headnotes
		WHERE document_id = $1
		ORDER BY sequence ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list headnotes: %w", err)
	}
	defer rows.Close()

	items := make([]Headnote, 0)
	for rows.Next() {
		var item Headnote
		if err := rows.Scan(&item.Title, &item.Text, &item.TopicCode, &item.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan headnote: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SimilarCases finds other decisions whose holdings sit near the primary
// holding of id, one row per decision.
func (c *CaseIndex) SimilarCases(ctx context.Context, id int64, minSimilarity float64, limit int) ([]SimilarCase, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT document_id, case_name, citation, decision_date, legal_issue, rule, similarity
		FROM (
			SELECT DISTINCT ON (h2.document_id)
				h2.document_id, coalesce(d.case_name, '') AS case_name, coalesce(d.citation, '') AS citation,
				d.decision_date, coalesce(h2.legal_issue, '') AS legal_issue, coalesce(h2.rule, '') AS rule,
				1 - (he2.embedding <=> he1.embedding) AS similarity
			FROM holding_embeddings he1
			JOIN holdings h1 ON h1.id = he1.holding_id
			JOIN holding_embeddings he2 ON he2.id != he1.id
			JOIN holdings h2 ON h2.id = he2.holding_id
			JOIN documents d ON d.id = h2.document_id
			WHERE h1.document_id = $1
				AND h1.is_primary = true
				AND h2.document_id != $1
				AND 1 - (he2.embedding <=> he1.embedding) > $2
			ORDER BY h2.document_id, similarity DESC
		) best
		ORDER BY similarity DESC
		LIMIT $3
	`, id, minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("similar cases: %w", err)
	}
	defer rows.Close()

	items := make([]SimilarCase, 0)
	for rows.Next() {
		var item SimilarCase
		var decided sql.NullTime
		var similarity sql.NullFloat64
		if err := rows.Scan(
			&item.DocumentID, &item.CaseName, &item.Citation, &decided,
			&item.LegalIssue, &item.Holding, &similarity,
		); err != nil {
			return nil, fmt.Errorf("scan similar case: %w", err)
		}
		item.DecisionDate = dateString(decided)
		item.Similarity = similarity.Float64
		items = append(items, item)
	}
	return items, rows.Err()
}

// vectorLiteral formats an embedding as a pgvector text literal.
func vectorLiteral(vector []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func dateString(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.Format("2006-01-02")
	return &s
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
