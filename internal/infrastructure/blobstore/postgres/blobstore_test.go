package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

func TestReadReturnsBlob(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	store := New(db)
	mock.ExpectQuery("SELECT blob FROM collections").
		WithArgs("clothing_items").
		WillReturnRows(sqlmock.NewRows([]string{"blob"}).AddRow([]byte(`[{"id":"a"}]`)))

	blob, err := store.Read(context.Background(), "clothing_items")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(blob) != `[{"id":"a"}]` {
		t.Fatalf("blob = %s", blob)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReadMissingKeyIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	store := New(db)
	mock.ExpectQuery("SELECT blob FROM collections").
		WithArgs("outfits").
		WillReturnRows(sqlmock.NewRows([]string{"blob"}))

	if _, err := store.Read(context.Background(), "outfits"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestWriteUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	store := New(db)
	mock.ExpectExec("INSERT INTO collections").
		WithArgs("tryon_history", []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Write(context.Background(), "tryon_history", []byte(`[]`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	store := New(db)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS collections").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
