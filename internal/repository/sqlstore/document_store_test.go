package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"ktpapi/internal/database"
	"ktpapi/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "document_type", "unique_identifier", "image_hash", "data", "created_at"}

func TestDocumentStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentStore(db, database.DialectPostgres)
	ctx := context.Background()

	now := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	rec := &model.DocumentRecord{
		DocumentType:     "ktp",
		UniqueIdentifier: "3171234567890001",
		ImageHash:        "abc123",
		Data:             map[string]any{"NIK": "3171234567890001"},
		CreatedAt:        now,
	}

	mock.ExpectQuery(`INSERT INTO ktp_records \(document_type, unique_identifier, image_hash, data, created_at\)\s+VALUES \(\$1, \$2, \$3, \$4, \$5\)`).
		WithArgs("ktp", "3171234567890001", "abc123", `{"NIK":"3171234567890001"}`, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	result, err := repo.Create(ctx, rec)

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(42), result.ID)
	assert.Equal(t, now, result.CreatedAt)
	assert.Zero(t, rec.ID, "input record must not be mutated")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStore_FindByHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentStore(db, database.DialectPostgres)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow(int64(1), "ktp", "3171234567890001", "hash-1", []byte(`{"NIK":"3171234567890001","rt":5}`), time.Now())

		mock.ExpectQuery(`SELECT (.+) FROM ktp_records WHERE image_hash = \$1`).
			WithArgs("hash-1").
			WillReturnRows(rows)

		rec, err := repo.FindByHash(ctx, "hash-1")

		assert.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, int64(1), rec.ID)
		assert.Equal(t, "3171234567890001", rec.Data["NIK"])
		assert.Equal(t, json.Number("5"), rec.Data["rt"])
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM ktp_records WHERE image_hash = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		rec, err := repo.FindByHash(ctx, "missing")

		assert.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow(int64(2), "ktp", "3171234567890001", "hash-2", []byte(`{not json`), time.Now())
		mock.ExpectQuery(`SELECT (.+) FROM ktp_records WHERE image_hash = \$1`).
			WithArgs("hash-2").
			WillReturnRows(rows)

		rec, err := repo.FindByHash(ctx, "hash-2")

		assert.Error(t, err)
		assert.Nil(t, rec)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStore_FindByIdentifier(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentStore(db, database.DialectPostgres)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	rows := sqlmock.NewRows(columns).
		AddRow(int64(3), "ktp", "3171234567890001", "hash-3", []byte(`{"nama":"BUDI"}`), now.AddDate(0, 0, -2))

	mock.ExpectQuery(`SELECT (.+) FROM ktp_records WHERE unique_identifier = \$1 AND document_type = \$2 AND created_at >= \$3`).
		WithArgs("3171234567890001", "ktp", now.AddDate(0, 0, -30)).
		WillReturnRows(rows)

	rec, err := repo.FindByIdentifier(context.Background(), "3171234567890001", "ktp", 30)

	assert.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "BUDI", rec.Data["nama"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStore_UpdateHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentStore(db, database.DialectPostgres)
	ctx := context.Background()

	t.Run("updated", func(t *testing.T) {
		rec := &model.DocumentRecord{ID: 7, ImageHash: "old"}
		mock.ExpectExec(`UPDATE ktp_records SET image_hash = \$1 WHERE id = \$2`).
			WithArgs("new", int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateHash(ctx, rec, "new")

		assert.NoError(t, err)
		assert.Equal(t, "new", rec.ImageHash)
	})

	t.Run("missing row", func(t *testing.T) {
		rec := &model.DocumentRecord{ID: 8, ImageHash: "old"}
		mock.ExpectExec(`UPDATE ktp_records SET image_hash = \$1 WHERE id = \$2`).
			WithArgs("new", int64(8)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateHash(ctx, rec, "new")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Equal(t, "old", rec.ImageHash)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
