package model

import "time"

// DocumentRecord is one stored extraction result.
// It is a pure domain model with no database-specific dependencies or tags.
type DocumentRecord struct {
	ID               int64          `json:"id"`
	DocumentType     string         `json:"document_type"`
	UniqueIdentifier string         `json:"unique_identifier"`
	ImageHash        string         `json:"image_hash"`
	Data             map[string]any `json:"data"`
	CreatedAt        time.Time      `json:"created_at"`
}
