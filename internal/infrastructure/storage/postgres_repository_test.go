package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"PaperScout/internal/domain"
)

func TestExistingLinksQuery(t *testing.T) {
	t.Parallel()

	query, args, err := existingLinksQuery([]string{"a", "b"}).ToSql()
	require.NoError(t, err)
	require.Equal(t, "SELECT link FROM papers WHERE link = ANY($1)", query)
	require.Len(t, args, 1)
	require.IsType(t, (*pq.StringArray)(nil), args[0])
}

func TestInsertPaperQuery(t *testing.T) {
	t.Parallel()

	query, args, err := insertPaperQuery(domain.MatchResult{
		Title:           "T",
		Authors:         "A",
		Link:            "https://arxiv.org/abs/1",
		PDFLink:         "https://arxiv.org/pdf/1",
		MatchType:       "Author + Title",
		MatchedTerms:    []string{"Hinton", "Capsule"},
		PublicationDate: "2025-10-20",
	}, "2025-10-21").ToSql()
	require.NoError(t, err)
	require.Equal(t,
		"INSERT INTO papers (title,authors,link,pdf_link,match_type,matched_terms,publication_date,scraped_date) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8) ON CONFLICT (link) DO NOTHING",
		query)
	require.Equal(t, "Hinton, Capsule", args[5])
	require.Equal(t, "2025-10-21", args[7])
}

func TestListPapersQuery(t *testing.T) {
	t.Parallel()

	query, args, err := listPapersQuery(domain.PaperFilter{}).ToSql()
	require.NoError(t, err)
	require.Empty(t, args)
	require.Contains(t, query, "FROM papers ORDER BY scraped_date DESC, CASE WHEN")
	require.NotContains(t, query, "WHERE")
	require.NotContains(t, query, "LIMIT")

	query, args, err = listPapersQuery(domain.PaperFilter{
		MatchType:   "Author",
		ScrapedDate: "2025-10-21",
		Query:       " diffusion ",
		Limit:       5,
	}).ToSql()
	require.NoError(t, err)
	require.Contains(t, query, "WHERE match_type LIKE $1 AND scraped_date = $2 AND (title ILIKE $3 OR authors ILIKE $4 OR matched_terms ILIKE $5)")
	require.Contains(t, query, "LIMIT 5")
	require.Equal(t, []any{"%Author%", "2025-10-21", "%diffusion%", "%diffusion%", "%diffusion%"}, args)
}

func TestListRecentPapersQuery(t *testing.T) {
	t.Parallel()

	query, _, err := listPapersQuery(domain.PaperFilter{Recent: true, Limit: 3}).ToSql()
	require.NoError(t, err)
	require.Contains(t, query, "ORDER BY scraped_date DESC, id DESC LIMIT 3")
	require.NotContains(t, query, "CASE WHEN")
}

func TestScrapedDatesQuery(t *testing.T) {
	t.Parallel()

	query, _, err := scrapedDatesQuery().ToSql()
	require.NoError(t, err)
	require.Equal(t, "SELECT DISTINCT scraped_date FROM papers ORDER BY scraped_date DESC", query)
}

func TestNilDatabaseIsNoop(t *testing.T) {
	t.Parallel()

	repo := NewPostgresRepository(nil)
	existing, err := repo.ExistingLinks(context.Background(), []string{"x"})
	require.NoError(t, err)
	require.Empty(t, existing)

	inserted, err := repo.SavePapers(context.Background(), []domain.MatchResult{{Link: "x"}}, "2025-10-21")
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"x": true}, inserted)
}

func TestSavePapersCommitsBatch(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO papers")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO papers")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	batch := []domain.MatchResult{{Link: "new"}, {Link: "stored-meanwhile"}}
	inserted, err := NewPostgresRepository(db).SavePapers(context.Background(), batch, "2025-10-21")
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"new": true}, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSavePapersRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO papers")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO papers")).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	batch := []domain.MatchResult{{Link: "first"}, {Link: "second"}}
	inserted, err := NewPostgresRepository(db).SavePapers(context.Background(), batch, "2025-10-21")
	require.ErrorContains(t, err, "insert paper second")
	require.Nil(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSplitTerms(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{}, splitTerms(""))
	require.Equal(t, []string{"MIT", "Zero Shot"}, splitTerms("MIT, Zero Shot"))
}
