package repository

import (
	"context"

	"ktpapi/internal/model"
)

// DocumentRepository defines data access for extraction records.
// No business logic here, strictly persistence operations.
// Finders return (nil, nil) when no row matches.
type DocumentRepository interface {
	// FindByHash returns the first record whose image_hash equals hash.
	FindByHash(ctx context.Context, hash string) (*model.DocumentRecord, error)

	// FindByIdentifier returns the first record for (identifier, documentType)
	// created within the last maxAgeDays days.
	FindByIdentifier(ctx context.Context, identifier, documentType string, maxAgeDays int) (*model.DocumentRecord, error)

	// Create inserts a new record and returns it with ID and CreatedAt populated.
	Create(ctx context.Context, rec *model.DocumentRecord) (*model.DocumentRecord, error)

	// UpdateHash points an existing record at newHash and commits immediately.
	UpdateHash(ctx context.Context, rec *model.DocumentRecord, newHash string) error
}
