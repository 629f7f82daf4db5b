package http

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/scanlens/backend/internal/domain"
	"github.com/scanlens/backend/internal/infrastructure/imageops"
	"github.com/scanlens/backend/internal/usecase"
)

// Scanner is the scan pipeline the handlers drive
type Scanner interface {
	ScanImage(ctx context.Context, img image.Image, providerID string) (*domain.ScanReport, error)
	LookupBarcode(ctx context.Context, raw, providerID string) (*domain.ScanReport, error)
	Detect(ctx context.Context, img image.Image) ([]domain.Detection, error)
	Providers() []domain.ProviderInfo
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scanner        Scanner
	maxUploadBytes int64
}

// NewHandler creates a new HTTP handler. A nil scanner makes the scan
// endpoints answer 503.
func NewHandler(scanner Scanner, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handler{
		scanner:        scanner,
		maxUploadBytes: maxUploadBytes,
	}
}

// LookupRequest is the body of POST /api/v1/barcodes/lookup
type LookupRequest struct {
	Barcode  string `json:"barcode" binding:"required"`
	Provider string `json:"provider"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "scanlens-backend",
		"version": "1.0.0",
	})
}

// ListProviders reports every configured provider and whether it can be queried
func (h *Handler) ListProviders(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": h.scanner.Providers()})
}

// ValidateBarcode checks a typed barcode without resolving it. Failed
// validation is still a 200; the verdict is in the body.
func (h *Handler) ValidateBarcode(c *gin.Context) {
	c.JSON(http.StatusOK, usecase.ValidateBarcode(c.Param("code")))
}

// Lookup validates a typed barcode and resolves it against the providers
func (h *Handler) Lookup(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "barcode is required")
		return
	}

	report, err := h.scanner.LookupBarcode(c.Request.Context(), req.Barcode, strings.TrimSpace(req.Provider))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(statusCode(report.Status), report)
}

// Scan decodes the uploaded image and resolves the first valid barcode
func (h *Handler) Scan(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	img, ok := h.readImage(c)
	if !ok {
		return
	}

	report, err := h.scanner.ScanImage(c.Request.Context(), img, strings.TrimSpace(c.PostForm("provider")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(statusCode(report.Status), report)
}

// Detect locates barcodes in the uploaded image. With ?annotated=true the
// response is the image as PNG with every detection outlined.
func (h *Handler) Detect(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	img, ok := h.readImage(c)
	if !ok {
		return
	}

	detections, err := h.scanner.Detect(c.Request.Context(), img)
	if err != nil {
		h.fail(c, err)
		return
	}

	if c.Query("annotated") == "true" {
		var buf bytes.Buffer
		if err := imageops.EncodePNG(&buf, usecase.Annotate(img, detections)); err != nil {
			h.fail(c, err)
			return
		}
		c.Data(http.StatusOK, "image/png", buf.Bytes())
		return
	}

	if detections == nil {
		detections = []domain.Detection{}
	}
	c.JSON(http.StatusOK, gin.H{"detections": detections})
}

// readImage decodes the "image" multipart field, writing a 400 on failure
func (h *Handler) readImage(c *gin.Context) (image.Image, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":      "image exceeds upload limit",
				"request_id": requestID(c),
			})
			return nil, false
		}
		h.badRequest(c, "image file is required")
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		h.badRequest(c, "image file could not be read")
		return nil, false
	}
	defer f.Close()

	img, err := imageops.Decode(f)
	if err != nil {
		log.Printf("[Handler] Rejected upload %q: %v", fh.Filename, err)
		h.badRequest(c, "unsupported or corrupt image")
		return nil, false
	}
	return img, true
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.scanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":      "scan service not configured",
			"request_id": requestID(c),
		})
		return false
	}
	return true
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      msg,
		"request_id": requestID(c),
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := errorStatusCode(err)
	if code >= http.StatusInternalServerError {
		log.Printf("[Handler] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(code, gin.H{
		"error":      err.Error(),
		"request_id": requestID(c),
	})
}

// statusCode maps a pipeline outcome to an HTTP status
func statusCode(status domain.ScanStatus) int {
	switch status {
	case domain.ScanResolved:
		return http.StatusOK
	case domain.ScanNotFound:
		return http.StatusNotFound
	case domain.ScanInvalidBarcode, domain.ScanDecodeMiss:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorStatusCode maps a pipeline error to an HTTP status
func errorStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownProvider), errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAborted):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
