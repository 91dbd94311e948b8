package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs a UNION ALL over the documents and exemplars fts columns using
// plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	const tsQuery = "plainto_tsquery('english', $1)"
	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultDocument {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'document'::text AS type, d.id, d.title,
				ts_headline('english', coalesce(d.title, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				d.status,
				ts_rank(d.fts, %s) AS rank
			FROM documents d
			WHERE d.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultExemplar {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'exemplar'::text AS type, e.id, e.title,
				ts_headline('english', coalesce(e.extracted_text, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				''::text AS status,
				ts_rank(e.fts, %s) AS rank
			FROM exemplars e
			WHERE e.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}
	union := strings.Join(subQueries, " UNION ALL ")

	var total int
	if err := p.db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM (%s) sub", union), q.Text).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`SELECT type, id, title, snippet, status
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`, union, limit, offset), q.Text)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]DocumentRecord, []ExemplarRecord, error) {
	docRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, content, status, coalesce(document_type_id, '')
		FROM documents
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load documents: %w", err)
	}
	defer docRows.Close()

	documents := make([]DocumentRecord, 0)
	for docRows.Next() {
		var d DocumentRecord
		var content []byte
		if err := docRows.Scan(&d.ID, &d.Title, &content, &d.Status, &d.TypeID); err != nil {
			return nil, nil, fmt.Errorf("scan document: %w", err)
		}
		d.Body = DocumentBody(content)
		documents = append(documents, d)
	}
	if err := docRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate documents: %w", err)
	}

	exemplarRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, case_type, outcome, extracted_text, coalesce(document_type_id, '')
		FROM exemplars
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load exemplars: %w", err)
	}
	defer exemplarRows.Close()

	exemplars := make([]ExemplarRecord, 0)
	for exemplarRows.Next() {
		var e ExemplarRecord
		if err := exemplarRows.Scan(&e.ID, &e.Title, &e.CaseType, &e.Outcome, &e.Text, &e.TypeID); err != nil {
			return nil, nil, fmt.Errorf("scan exemplar: %w", err)
		}
		e.Text = ExemplarText(e.Text)
		exemplars = append(exemplars, e)
	}
	if err := exemplarRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate exemplars: %w", err)
	}

	return documents, exemplars, nil
}
