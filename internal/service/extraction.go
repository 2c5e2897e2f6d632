package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ktpapi/internal/apperror"
	"ktpapi/internal/extractor"
	"ktpapi/internal/model"
	"ktpapi/internal/ocr"
	"ktpapi/internal/repository"
	"ktpapi/internal/storage"
)

// Outcome tells which path of the workflow produced a result.
type Outcome string

const (
	OutcomeHashMatch       Outcome = "hash_match"
	OutcomeIdentifierMatch Outcome = "identifier_match"
	OutcomeFresh           Outcome = "fresh"
)

// Source labels reported to clients for cache hits. Fresh results carry the provider name.
const (
	SourceHashCache       = "cache (hash matching)"
	SourceIdentifierCache = "cache (identifier matching)"
)

// StatusSuccess is the status of every successful result.
const StatusSuccess = "success"

// DefaultMimeType is used when the caller does not know the image type.
const DefaultMimeType = "image/jpeg"

// DefaultCacheTTLDays is the identifier freshness window used when none is configured.
const DefaultCacheTTLDays = 30

// Result is the service-level DTO returned by Extract.
type Result struct {
	Status  string         `json:"status"`
	Source  string         `json:"source"`
	Data    map[string]any `json:"data"`
	Outcome Outcome        `json:"-"`
}

// ExtractionService runs the two-tier cached extraction workflow.
type ExtractionService interface {
	// Extract returns structured data for image, served from the hash cache, the
	// identifier cache, or a fresh OCR call, in that order.
	Extract(ctx context.Context, documentType string, image []byte, mimeType string) (*Result, error)
}

// Options carries the optional collaborators of the extraction service.
type Options struct {
	// CacheTTLDays bounds the age of records matched by identifier.
	CacheTTLDays int
	// Archive receives a copy of every novel image. Nil disables archiving.
	Archive storage.Storage
	Metrics *Metrics
	Logger  *slog.Logger
}

type extractionService struct {
	repo     repository.DocumentRepository
	provider ocr.Provider
	registry *extractor.Registry
	archive  storage.Storage
	metrics  *Metrics
	ttlDays  int
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewExtractionService constructs a new ExtractionService.
func NewExtractionService(repo repository.DocumentRepository, provider ocr.Provider, registry *extractor.Registry, opts Options) ExtractionService {
	if opts.CacheTTLDays <= 0 {
		opts.CacheTTLDays = DefaultCacheTTLDays
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &extractionService{
		repo:     repo,
		provider: provider,
		registry: registry,
		archive:  opts.Archive,
		metrics:  opts.Metrics,
		ttlDays:  opts.CacheTTLDays,
		logger:   opts.Logger,
		tracer:   otel.Tracer("ktpapi/internal/service"),
	}
}

// HashImage returns the lowercase hex SHA-256 digest of image.
func HashImage(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

func (s *extractionService) Extract(ctx context.Context, documentType string, image []byte, mimeType string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "extraction.extract", trace.WithAttributes(
		attribute.String("document.type", documentType),
		attribute.Int("document.image_bytes", len(image)),
	))
	defer span.End()

	label := strings.ToLower(strings.TrimSpace(documentType))
	res, err := s.extract(ctx, documentType, image, mimeType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.Code(err))
		if errors.Is(err, apperror.ErrUnsupportedDocumentType) {
			label = "unknown"
		}
		s.metrics.observe(label, outcomeLabel(err))
		return nil, err
	}
	span.SetAttributes(attribute.String("extraction.outcome", string(res.Outcome)))
	s.metrics.observe(label, string(res.Outcome))
	return res, nil
}

func (s *extractionService) extract(ctx context.Context, documentType string, image []byte, mimeType string) (*Result, error) {
	ext, ok := s.registry.Get(documentType)
	if !ok {
		s.logger.WarnContext(ctx, "extraction.unsupported_type", slog.String("document_type", documentType))
		return nil, apperror.New(apperror.CodeUnsupportedDocumentType,
			fmt.Sprintf("unsupported document type: %s", documentType), nil)
	}
	docType := ext.DocumentType()
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	hash := HashImage(image)
	log := s.logger.With(slog.String("document_type", docType), slog.String("image_hash", hash))

	cached, err := s.repo.FindByHash(ctx, hash)
	if err != nil {
		log.ErrorContext(ctx, "extraction.hash_lookup_failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("find by hash: %w", err)
	}
	if cached != nil {
		log.InfoContext(ctx, "extraction.cache_hit", slog.String("tier", "hash"), slog.Int64("record_id", cached.ID))
		return &Result{Status: StatusSuccess, Source: SourceHashCache, Data: cached.Data, Outcome: OutcomeHashMatch}, nil
	}

	text, err := s.provider.ExtractText(ctx, image, mimeType, ext.Prompt())
	if err != nil {
		log.ErrorContext(ctx, "extraction.provider_failed", slog.String("provider", s.provider.Name()), slog.String("error", err.Error()))
		if apperror.Code(err) == "" {
			err = apperror.New(apperror.CodeExtractionFailed, apperror.ErrExtraction.Message, err)
		}
		return nil, err
	}

	parsed, err := ParseModelJSON(text)
	if err != nil {
		log.ErrorContext(ctx, "extraction.parse_failed", slog.String("error", err.Error()), slog.Int("response_chars", len(text)))
		return nil, apperror.New(apperror.CodeParseFailed, apperror.ErrParse.Message, err)
	}

	data, isObject := parsed.(map[string]any)
	if !isObject || !ext.Validate(parsed) {
		log.WarnContext(ctx, "extraction.validation_failed", slog.Any("keys", keysOf(parsed)))
		return nil, apperror.New(apperror.CodeValidationFailed, apperror.ErrValidation.Message, nil)
	}
	identifier := ext.UniqueIdentifier(data)

	existing, err := s.repo.FindByIdentifier(ctx, identifier, docType, s.ttlDays)
	if err != nil {
		log.ErrorContext(ctx, "extraction.identifier_lookup_failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("find by identifier: %w", err)
	}
	if existing != nil {
		if err := s.repo.UpdateHash(ctx, existing, hash); err != nil {
			log.ErrorContext(ctx, "extraction.update_hash_failed", slog.Int64("record_id", existing.ID), slog.String("error", err.Error()))
			return nil, fmt.Errorf("update hash: %w", err)
		}
		log.InfoContext(ctx, "extraction.cache_hit", slog.String("tier", "identifier"), slog.Int64("record_id", existing.ID))
		return &Result{Status: StatusSuccess, Source: SourceIdentifierCache, Data: existing.Data, Outcome: OutcomeIdentifierMatch}, nil
	}

	created, err := s.repo.Create(ctx, &model.DocumentRecord{
		DocumentType:     docType,
		UniqueIdentifier: identifier,
		ImageHash:        hash,
		Data:             data,
	})
	if err != nil {
		log.ErrorContext(ctx, "extraction.store_failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("create record: %w", err)
	}
	log.InfoContext(ctx, "extraction.stored", slog.Int64("record_id", created.ID), slog.String("provider", s.provider.Name()))

	s.archiveImage(ctx, log, hash, image, mimeType, docType)

	return &Result{Status: StatusSuccess, Source: s.provider.Name(), Data: data, Outcome: OutcomeFresh}, nil
}

func (s *extractionService) archiveImage(ctx context.Context, log *slog.Logger, hash string, image []byte, mimeType, docType string) {
	if s.archive == nil {
		return
	}
	key := storage.ImageKey(hash)
	exists, err := s.archive.Exists(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "extraction.archive_failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if exists {
		return
	}
	_, err = s.archive.Put(ctx, key, bytes.NewReader(image), storage.PutObjectOptions{
		Size:        int64(len(image)),
		ContentType: mimeType,
		Metadata:    map[string]string{"document-type": docType},
	})
	if err != nil {
		log.WarnContext(ctx, "extraction.archive_failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// ParseModelJSON removes markdown code fences from a model reply and decodes
// the remainder as JSON. Numbers are kept as json.Number.
func ParseModelJSON(text string) (any, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

func keysOf(v any) []string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func outcomeLabel(err error) string {
	if code := apperror.Code(err); code != "" {
		return strings.ToLower(code)
	}
	return "error"
}
