package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"PaperScout/internal/domain"
	"PaperScout/internal/ports"
)

const (
	papersTable     = "papers"
	termsSeparator  = ", "
	matchRankClause = "CASE WHEN match_type LIKE '%Author%' THEN 1 WHEN match_type LIKE '%Affiliation%' THEN 2 ELSE 3 END"
)

var (
	psql        = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	paperFields = []string{
		"id", "title", "authors", "link", "pdf_link", "match_type",
		"matched_terms", "publication_date", "scraped_date", "created_at",
	}
)

// PostgresRepository persists matched papers into the papers table.
type PostgresRepository struct {
	db *sql.DB
}

var (
	_ ports.PaperRepository = (*PostgresRepository)(nil)
	_ ports.PaperCatalog    = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ExistingLinks returns the subset of links already stored.
func (r *PostgresRepository) ExistingLinks(ctx context.Context, links []string) (map[string]bool, error) {
	if r.db == nil || len(links) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := existingLinksQuery(links).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build existing links query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing links: %w", err)
	}
	defer rows.Close()

	result := make(map[string]bool)
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		result[link] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// SavePapers inserts the batch in one transaction. Rows skipped by the
// link conflict are not reported as inserted. Without a database every link
// counts as inserted and nothing is written.
func (r *PostgresRepository) SavePapers(ctx context.Context, results []domain.MatchResult, scrapedDate string) (map[string]bool, error) {
	inserted := make(map[string]bool, len(results))
	if r.db == nil {
		for _, result := range results {
			inserted[result.Link] = true
		}
		return inserted, nil
	}
	if len(results) == 0 {
		return inserted, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, result := range results {
		query, args, err := insertPaperQuery(result, scrapedDate).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build insert: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("insert paper %s: %w", result.Link, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if n == 1 {
			inserted[result.Link] = true
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit papers: %w", err)
	}
	return inserted, nil
}

// ListPapers returns stored papers, newest scrape first, then by match rank.
func (r *PostgresRepository) ListPapers(ctx context.Context, filter domain.PaperFilter) ([]domain.StoredPaper, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := listPapersQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query papers: %w", err)
	}
	defer rows.Close()

	var papers []domain.StoredPaper
	for rows.Next() {
		var (
			p         domain.StoredPaper
			terms     string
			published sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Authors, &p.Link, &p.PDFLink, &p.MatchType,
			&terms, &published, &p.ScrapedDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		p.MatchedTerms = splitTerms(terms)
		p.PublicationDate = published.String
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return papers, nil
}

// ScrapedDates lists distinct scrape dates, newest first.
func (r *PostgresRepository) ScrapedDates(ctx context.Context) ([]string, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := scrapedDatesQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build dates query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scraped dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return dates, nil
}

func existingLinksQuery(links []string) sq.SelectBuilder {
	return psql.Select("link").
		From(papersTable).
		Where(sq.Expr("link = ANY(?)", pq.Array(links)))
}

func insertPaperQuery(result domain.MatchResult, scrapedDate string) sq.InsertBuilder {
	return psql.Insert(papersTable).
		Columns("title", "authors", "link", "pdf_link", "match_type", "matched_terms", "publication_date", "scraped_date").
		Values(
			result.Title,
			result.Authors,
			result.Link,
			result.PDFLink,
			result.MatchType,
			strings.Join(result.MatchedTerms, termsSeparator),
			result.PublicationDate,
			scrapedDate,
		).
		Suffix("ON CONFLICT (link) DO NOTHING")
}

func listPapersQuery(filter domain.PaperFilter) sq.SelectBuilder {
	q := psql.Select(paperFields...).From(papersTable)

	if filter.MatchType != "" {
		q = q.Where(sq.Like{"match_type": "%" + filter.MatchType + "%"})
	}
	if filter.ScrapedDate != "" {
		q = q.Where(sq.Eq{"scraped_date": filter.ScrapedDate})
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + search + "%"
		q = q.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"authors": pattern},
			sq.ILike{"matched_terms": pattern},
		})
	}

	if filter.Recent {
		q = q.OrderBy("scraped_date DESC", "id DESC")
	} else {
		q = q.OrderBy("scraped_date DESC", matchRankClause, "id DESC")
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	return q
}

func scrapedDatesQuery() sq.SelectBuilder {
	return psql.Select("DISTINCT scraped_date").
		From(papersTable).
		OrderBy("scraped_date DESC")
}

func splitTerms(stored string) []string {
	if stored == "" {
		return []string{}
	}
	return strings.Split(stored, termsSeparator)
}
