// Package ocr wraps hosted vision models that turn a document image into text.
package ocr

import "context"

// Provider sends an image and an extraction prompt to an OCR model and returns
// the raw text of its reply.
type Provider interface {
	// Name identifies the provider in responses, e.g. "gemini".
	Name() string
	ExtractText(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}
