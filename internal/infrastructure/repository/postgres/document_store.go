package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

// DocumentStore reads the Lovdata corpus persisted by the ingestion
// pipeline: one row per archive member with full-text (tsvector) and vector
// (pgvector) indexes plus metadata columns already populated.
type DocumentStore struct {
	db *sql.DB
}

func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// candidatePoolSize bounds each ranked list feeding the RRF fusion.
const candidatePoolSize = 200

// Search runs the hybrid query. With a query embedding, full-text and
// vector rankings are fused in SQL with Reciprocal Rank Fusion: each list
// contributes 1/(rrfK+rank) with 1-based ranks. Without an embedding the
// ranking degenerates to full-text relevance. Errors propagate uncaught;
// callers own the fallback policy.
func (s *DocumentStore) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.RRFK <= 0 {
		opts.RRFK = domain.DefaultRRFK
	}

	if len(opts.QueryEmbedding) > 0 {
		return s.searchHybrid(ctx, query, opts)
	}
	return s.searchFullText(ctx, query, opts)
}

func (s *DocumentStore) searchFullText(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	where, args := filterClauses(opts.Filters, 2)
	args = append([]any{query}, args...)
	args = append(args, opts.Limit, opts.Offset)

	sqlQuery := fmt.Sprintf(`
WITH q AS (SELECT plainto_tsquery('norwegian', $1) AS tsq)
SELECT d.filename, d.member, d.title, d.published, d.law_type, d.ministry, d.year,
	ts_headline('norwegian', d.content, q.tsq, 'MaxWords=40, MinWords=15') AS snippet,
	ts_rank(d.tsv, q.tsq) AS score,
	COUNT(*) OVER() AS total
FROM lovdata_documents d, q
WHERE d.tsv @@ q.tsq%s
ORDER BY score DESC, d.filename, d.member
LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	return s.queryHits(ctx, sqlQuery, args)
}

// searchHybrid fuses both ranked lists. The reported total counts the fused
// pool, so it saturates at 2*candidatePoolSize for very broad queries; only
// the pool is pageable anyway, deeper rows never get an RRF score.
func (s *DocumentStore) searchHybrid(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	where, filterArgs := filterClauses(opts.Filters, 4)
	args := []any{query, pgvector.NewVector(opts.QueryEmbedding), opts.RRFK}
	args = append(args, filterArgs...)
	args = append(args, opts.Limit, opts.Offset)

	sqlQuery := fmt.Sprintf(`
WITH q AS (SELECT plainto_tsquery('norwegian', $1) AS tsq),
fts AS (
	SELECT d.filename, d.member,
		ROW_NUMBER() OVER (ORDER BY ts_rank(d.tsv, q.tsq) DESC, d.filename, d.member) AS rank
	FROM lovdata_documents d, q
	WHERE d.tsv @@ q.tsq%[1]s
	ORDER BY rank
	LIMIT %[2]d
),
vec AS (
	SELECT d.filename, d.member,
		ROW_NUMBER() OVER (ORDER BY d.embedding <=> $2, d.filename, d.member) AS rank
	FROM lovdata_documents d
	WHERE d.embedding IS NOT NULL%[1]s
	ORDER BY d.embedding <=> $2
	LIMIT %[2]d
),
fused AS (
	SELECT COALESCE(f.filename, v.filename) AS filename,
		COALESCE(f.member, v.member) AS member,
		COALESCE(1.0 / ($3 + f.rank), 0) + COALESCE(1.0 / ($3 + v.rank), 0) AS score
	FROM fts f
	FULL OUTER JOIN vec v ON f.filename = v.filename AND f.member = v.member
)
SELECT d.filename, d.member, d.title, d.published, d.law_type, d.ministry, d.year,
	ts_headline('norwegian', d.content, q.tsq, 'MaxWords=40, MinWords=15') AS snippet,
	fused.score,
	COUNT(*) OVER() AS total
FROM fused
JOIN lovdata_documents d ON d.filename = fused.filename AND d.member = fused.member
CROSS JOIN q
ORDER BY fused.score DESC, d.filename, d.member
LIMIT $%[3]d OFFSET $%[4]d`, where, candidatePoolSize, len(args)-1, len(args))

	return s.queryHits(ctx, sqlQuery, args)
}

// filterClauses builds exact-match conjunctions for the optional filters.
// nextArg is the first free positional-parameter index.
func filterClauses(filters domain.SearchFilters, nextArg int) (string, []any) {
	var clauses []string
	var args []any
	if filters.Year != 0 {
		clauses = append(clauses, fmt.Sprintf(" AND d.year = $%d", nextArg))
		args = append(args, filters.Year)
		nextArg++
	}
	if filters.LawType != "" {
		clauses = append(clauses, fmt.Sprintf(" AND d.law_type = $%d", nextArg))
		args = append(args, filters.LawType)
		nextArg++
	}
	if filters.Ministry != "" {
		clauses = append(clauses, fmt.Sprintf(" AND d.ministry = $%d", nextArg))
		args = append(args, filters.Ministry)
		nextArg++
	}
	return strings.Join(clauses, ""), args
}

func (s *DocumentStore) queryHits(ctx context.Context, sqlQuery string, args []any) (*domain.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	result := &domain.SearchResult{Hits: make([]domain.SearchHit, 0, 16)}
	for rows.Next() {
		var hit domain.SearchHit
		var title, published, lawType, ministry, snippet sql.NullString
		var year sql.NullInt64
		if err := rows.Scan(
			&hit.Filename, &hit.Member, &title, &published, &lawType, &ministry, &year,
			&snippet, &hit.Score, &result.Total,
		); err != nil {
			return nil, fmt.Errorf("scan document hit: %w", err)
		}
		hit.Title = title.String
		hit.Date = published.String
		hit.LawType = lawType.String
		hit.Ministry = ministry.String
		hit.Year = int(year.Int64)
		hit.Snippet = snippet.String
		result.Hits = append(result.Hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document hits: %w", err)
	}
	return result, nil
}

// FetchFullText returns the stored content of one archive member. A .html
// member falls back to its underlying .xml twin, which is what the archive
// actually contains.
func (s *DocumentStore) FetchFullText(ctx context.Context, filename, member string) (string, error) {
	content, err := s.fetchContent(ctx, filename, member)
	if err == nil {
		return content, nil
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		return "", err
	}
	if strings.HasSuffix(strings.ToLower(member), ".html") {
		twin := member[:len(member)-len(".html")] + ".xml"
		return s.fetchContent(ctx, filename, twin)
	}
	return "", err
}

func (s *DocumentStore) fetchContent(ctx context.Context, filename, member string) (string, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT content FROM lovdata_documents WHERE filename = $1 AND member = $2
`, filename, member)

	var content string
	if err := row.Scan(&content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.WrapError(domain.ErrDocumentNotFound, "fetch full text", fmt.Errorf("%s/%s", filename, member))
		}
		return "", fmt.Errorf("scan document content: %w", err)
	}
	return content, nil
}
