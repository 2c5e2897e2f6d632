package handler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"ktpapi/internal/apperror"
	"ktpapi/internal/extractor"
	"ktpapi/internal/http/middleware"
	"ktpapi/internal/service"
)

// RootMessage is returned by GET /.
const RootMessage = "KTP Extraction API is running"

// Deps are the collaborators needed by the HTTP routes.
type Deps struct {
	DB      *sql.DB
	Service service.ExtractionService
	APIKey  string
	Logger  *slog.Logger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app.Get("/", Root())
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())
	app.Post("/extract", middleware.APIKey(deps.APIKey), Extract(deps.Service, logger))
}

// Root godoc
// @Summary Service banner
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func Root() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": RootMessage})
	}
}

// HealthCheck godoc
// @Summary Database readiness
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return writeError(c, fiber.StatusServiceUnavailable, "dependency unavailable")
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags system
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Extract godoc
// @Summary Extract identity card data from an image
// @Tags extraction
// @Accept multipart/form-data
// @Produce json
// @Param X-API-Key header string true "API key"
// @Param file formData file true "Document image"
// @Param document_type formData string false "Document type" default(ktp)
// @Success 200 {object} service.Result
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /extract [post]
func Extract(svc service.ExtractionService, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "cannot open uploaded file")
		}
		defer f.Close()

		image, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "cannot read uploaded file")
		}

		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" || mimeType == fiber.MIMEOctetStream {
			mimeType = service.DefaultMimeType
		}
		// FormValue aliases the request buffer, which fasthttp reuses after the handler returns.
		docType := utils.CopyString(c.FormValue("document_type", extractor.DocumentTypeKTP))

		res, err := svc.Extract(c.UserContext(), docType, image, mimeType)
		if err != nil {
			logger.ErrorContext(c.UserContext(), "extract_request_failed",
				slog.String("request_id", requestIDFromCtx(c)),
				slog.String("document_type", docType),
				slog.String("code", apperror.Code(err)),
				slog.String("error", err.Error()),
			)
			return writeError(c, fiber.StatusOK, err.Error())
		}
		return c.JSON(res)
	}
}
