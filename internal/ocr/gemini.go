package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"ktpapi/internal/apperror"
	"ktpapi/internal/config"
)

// GeminiName is reported as the source of fresh extractions.
const GeminiName = "gemini"

// ErrEmptyResponse is the cause reported when the model replies without any content.
var ErrEmptyResponse = errors.New("empty model response")

// Gemini is a Provider backed by Google's Gemini models through langchaingo.
// It is safe for concurrent use.
type Gemini struct {
	model     llms.Model
	modelName string
	limiter   *rate.Limiter
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewGemini creates a Gemini provider from configuration.
func NewGemini(ctx context.Context, cfg config.GeminiConfig, logger *slog.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	m, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return NewGeminiWithModel(m, cfg, logger), nil
}

// NewGeminiWithModel wraps an existing llms.Model. A positive cfg.RateLimit
// paces outgoing calls.
func NewGeminiWithModel(m llms.Model, cfg config.GeminiConfig, logger *slog.Logger) *Gemini {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gemini{
		model:     m,
		modelName: cfg.Model,
		tracer:    otel.Tracer("ktpapi/internal/ocr"),
		logger:    logger,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return g
}

var _ Provider = (*Gemini)(nil)

func (g *Gemini) Name() string { return GeminiName }

// ExtractText sends the image and prompt as a single user turn and returns the
// concatenated text of the first choice.
func (g *Gemini) ExtractText(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	ctx, span := g.tracer.Start(ctx, "ocr.gemini.extract_text", trace.WithAttributes(
		attribute.String("ocr.model", g.modelName),
		attribute.String("ocr.mime_type", mimeType),
		attribute.Int("ocr.image_bytes", len(image)),
	))
	defer span.End()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rate limit wait")
			return "", extractionFailed(fmt.Errorf("ocr rate limit: %w", err))
		}
	}

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mimeType, image),
				llms.TextContent{Text: prompt},
			},
		},
	})
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate content")
		g.logger.ErrorContext(ctx, "ocr_request_failed",
			slog.String("provider", GeminiName),
			slog.String("model", g.modelName),
			slog.Int64("latency_ms", elapsed.Milliseconds()),
			slog.String("error", err.Error()),
		)
		return "", extractionFailed(err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		span.SetStatus(codes.Error, "empty response")
		return "", extractionFailed(ErrEmptyResponse)
	}
	var b strings.Builder
	for _, c := range resp.Choices[:1] {
		if c != nil {
			b.WriteString(c.Content)
		}
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		span.SetStatus(codes.Error, "empty response")
		return "", extractionFailed(ErrEmptyResponse)
	}

	g.logger.DebugContext(ctx, "ocr_request_completed",
		slog.String("provider", GeminiName),
		slog.String("model", g.modelName),
		slog.Int64("latency_ms", elapsed.Milliseconds()),
		slog.Int("response_chars", len(text)),
	)
	return text, nil
}

func extractionFailed(cause error) error {
	return apperror.New(apperror.CodeExtractionFailed, apperror.ErrExtraction.Message, cause)
}
