package sqlstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ktpapi/internal/database"
	"ktpapi/internal/model"
	"ktpapi/internal/repository"
)

const recordColumns = `id, document_type, unique_identifier, image_hash, data, created_at`

// DocumentStore is a database/sql implementation of repository.DocumentRepository
// for PostgreSQL and SQLite. It uses parameterized queries and contains no business logic.
type DocumentStore struct {
	db      *sql.DB
	dialect database.Dialect
	now     func() time.Time
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db *sql.DB, dialect database.Dialect) *DocumentStore {
	return &DocumentStore{db: db, dialect: dialect, now: time.Now}
}

var _ repository.DocumentRepository = (*DocumentStore)(nil)

// FindByHash returns the oldest record carrying the given image hash.
func (s *DocumentStore) FindByHash(ctx context.Context, hash string) (*model.DocumentRecord, error) {
	q := s.dialect.Rebind(`
		SELECT ` + recordColumns + `
		FROM ktp_records
		WHERE image_hash = ?
		ORDER BY id
		LIMIT 1
	`)
	return s.queryOne(ctx, q, hash)
}

// FindByIdentifier returns the oldest record for identifier and documentType
// whose created_at falls inside the last maxAgeDays days.
func (s *DocumentStore) FindByIdentifier(ctx context.Context, identifier, documentType string, maxAgeDays int) (*model.DocumentRecord, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -maxAgeDays)
	q := s.dialect.Rebind(`
		SELECT ` + recordColumns + `
		FROM ktp_records
		WHERE unique_identifier = ? AND document_type = ? AND created_at >= ?
		ORDER BY id
		LIMIT 1
	`)
	return s.queryOne(ctx, q, identifier, documentType, cutoff)
}

// Create inserts a record. CreatedAt defaults to the current UTC time when zero.
func (s *DocumentStore) Create(ctx context.Context, rec *model.DocumentRecord) (*model.DocumentRecord, error) {
	payload, err := json.Marshal(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("encode record data: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	createdAt = createdAt.UTC()

	q := s.dialect.Rebind(`
		INSERT INTO ktp_records (document_type, unique_identifier, image_hash, data, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	var id int64
	if err := s.db.QueryRowContext(ctx, q,
		rec.DocumentType,
		rec.UniqueIdentifier,
		rec.ImageHash,
		string(payload),
		createdAt,
	).Scan(&id); err != nil {
		return nil, err
	}

	out := *rec
	out.ID = id
	out.CreatedAt = createdAt
	return &out, nil
}

// UpdateHash rewrites image_hash for rec and mirrors the change on rec.
func (s *DocumentStore) UpdateHash(ctx context.Context, rec *model.DocumentRecord, newHash string) error {
	q := s.dialect.Rebind(`UPDATE ktp_records SET image_hash = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, newHash, rec.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update hash: record %d: %w", rec.ID, sql.ErrNoRows)
	}
	rec.ImageHash = newHash
	return nil
}

func (s *DocumentStore) queryOne(ctx context.Context, q string, args ...any) (*model.DocumentRecord, error) {
	var (
		rec        model.DocumentRecord
		identifier sql.NullString
		hash       sql.NullString
		payload    []byte
	)
	err := s.db.QueryRowContext(ctx, q, args...).Scan(
		&rec.ID,
		&rec.DocumentType,
		&identifier,
		&hash,
		&payload,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.UniqueIdentifier = identifier.String
	rec.ImageHash = hash.String
	if len(payload) > 0 {
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.UseNumber()
		if err := dec.Decode(&rec.Data); err != nil {
			return nil, fmt.Errorf("decode record %d data: %w", rec.ID, err)
		}
	}
	return &rec, nil
}
