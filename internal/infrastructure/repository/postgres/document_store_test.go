package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/paragraf-ai/lovdata-assistant/internal/core/domain"
)

func newStoreWithMock(t *testing.T) (*DocumentStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentStore{db: db}, mock, func() { _ = db.Close() }
}

func hitColumns() []string {
	return []string{"filename", "member", "title", "published", "law_type", "ministry", "year", "snippet", "score", "total"}
}

func TestSearchFullTextScansHitsAndTotal(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	rows := sqlmock.NewRows(hitColumns()).
		AddRow("lover.tar.gz", "nl-2005.xml", "Arbeidsmiljøloven", "2005-06-17", "Lov", "Arbeids- og inkluderingsdepartementet", 2005, "...arbeidsmiljø...", 0.71, 42).
		AddRow("lover.tar.gz", "nl-1814.xml", nil, nil, nil, nil, nil, nil, 0.33, 42)

	mock.ExpectQuery("WITH q AS \\(SELECT plainto_tsquery").
		WithArgs("arbeidsmiljø", 10, 0).
		WillReturnRows(rows)

	result, err := store.Search(context.Background(), "arbeidsmiljø", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(result.Hits))
	}
	if result.Total != 42 {
		t.Fatalf("expected total 42 from window count, got %d", result.Total)
	}
	if result.Hits[0].Title != "Arbeidsmiljøloven" || result.Hits[0].Year != 2005 {
		t.Fatalf("unexpected first hit %+v", result.Hits[0])
	}
	if result.Hits[1].Title != "" {
		t.Fatalf("expected null title scanned as empty, got %q", result.Hits[1].Title)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchFullTextAppliesFilters(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("AND d\\.year = \\$2 AND d\\.law_type = \\$3 AND d\\.ministry = \\$4").
		WithArgs("brannvern", 2002, "Forskrift", "Justis- og beredskapsdepartementet", 5, 10).
		WillReturnRows(sqlmock.NewRows(hitColumns()))

	_, err := store.Search(context.Background(), "brannvern", domain.SearchOptions{
		Limit:  5,
		Offset: 10,
		Filters: domain.SearchFilters{
			Year:     2002,
			LawType:  "Forskrift",
			Ministry: "Justis- og beredskapsdepartementet",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchWithEmbeddingUsesFusedQuery(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	rows := sqlmock.NewRows(hitColumns()).
		AddRow("lover.tar.gz", "nl-2005.xml", "Arbeidsmiljøloven", "2005-06-17", "Lov", nil, 2005, "...", 0.0321, 7)

	mock.ExpectQuery("FULL OUTER JOIN vec").
		WithArgs("arbeidsmiljø", sqlmock.AnyArg(), 60, 10, 0).
		WillReturnRows(rows)

	result, err := store.Search(context.Background(), "arbeidsmiljø", domain.SearchOptions{
		Limit:          10,
		QueryEmbedding: []float32{0.1, 0.2, 0.3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 7 || len(result.Hits) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchHybridOrdersFullTextPoolBeforeLimiting(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	// Without the ORDER BY the planner may keep an arbitrary subset of
	// matching rows, so the fused pool could miss the best-ranked documents.
	mock.ExpectQuery(`(?s)fts AS \(.*?ORDER BY rank\s+LIMIT 200`).
		WithArgs("arbeidsmiljø", sqlmock.AnyArg(), 60, 10, 0).
		WillReturnRows(sqlmock.NewRows(hitColumns()))

	_, err := store.Search(context.Background(), "arbeidsmiljø", domain.SearchOptions{
		Limit:          10,
		QueryEmbedding: []float32{0.1, 0.2, 0.3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchPropagatesQueryError(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("WITH q AS").WillReturnError(errors.New("connection refused"))

	_, err := store.Search(context.Background(), "arbeidsmiljø", domain.SearchOptions{Limit: 10})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestFetchFullTextFallsBackToXMLTwin(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT content FROM lovdata_documents").
		WithArgs("lover.tar.gz", "nl-2005.html").
		WillReturnRows(sqlmock.NewRows([]string{"content"}))
	mock.ExpectQuery("SELECT content FROM lovdata_documents").
		WithArgs("lover.tar.gz", "nl-2005.xml").
		WillReturnRows(sqlmock.NewRows([]string{"content"}).AddRow("<lov>...</lov>"))

	content, err := store.FetchFullText(context.Background(), "lover.tar.gz", "nl-2005.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "<lov>...</lov>" {
		t.Fatalf("unexpected content %q", content)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFetchFullTextReturnsDomainNotFound(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT content FROM lovdata_documents").
		WithArgs("lover.tar.gz", "missing.xml").
		WillReturnRows(sqlmock.NewRows([]string{"content"}))

	_, err := store.FetchFullText(context.Background(), "lover.tar.gz", "missing.xml")
	if err == nil {
		t.Fatal("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
