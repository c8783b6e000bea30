package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/card-number-reader/internal/config"
	apperrors "github.com/anime-shed/card-number-reader/internal/errors"
	"github.com/anime-shed/card-number-reader/internal/logger"
	"github.com/anime-shed/card-number-reader/internal/service"
	"github.com/anime-shed/card-number-reader/internal/storage"
	"github.com/anime-shed/card-number-reader/pkg/models"
)

const Version = "1.0.0"

// MetricsProvider exposes counters for the metrics endpoint
type MetricsProvider interface {
	GetMetrics() map[string]interface{}
}

// HealthInfo describes the OCR backend on the health endpoint
type HealthInfo struct {
	OCREngine  string
	OCRWorkers int
}

type handler struct {
	svc     service.CardNumberService
	metrics MetricsProvider
	cfg     *config.Config
	info    HealthInfo
}

func NewHandler(svc service.CardNumberService, metrics MetricsProvider, cfg *config.Config, info HealthInfo) http.Handler {
	h := &handler{svc: svc, metrics: metrics, cfg: cfg, info: info}

	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		cors(cfg.AllowedOrigins),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/health", h.healthCheck)
	r.GET("/metrics", h.getMetrics)
	r.POST("/predict", h.predictUpload)
	r.POST("/predict/url", h.predictURL)
	r.POST("/predict/blob", h.predictBlob)
	r.GET("/predictions/:id", h.getPrediction)

	return r
}

func (h *handler) predictUpload(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, apperrors.NewValidationError("file exceeds maximum request size", err))
			return
		}
		respondError(c, apperrors.NewValidationError("multipart field \"file\" is required", err))
		return
	}
	defer file.Close()

	logger.WithFields(logrus.Fields{
		"request_id": requestIDFrom(c),
		"filename":   header.Filename,
		"size":       header.Size,
	}).Debug("Processing uploaded card image")

	resp, err := h.svc.ExtractFromReader(ctx, file, service.ExtractOptions{
		RequestID:      requestIDFrom(c),
		ExpectedNumber: c.PostForm("expected_number"),
		Source:         service.SourceUpload,
		SourceRef:      header.Filename,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) predictURL(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var req models.URLPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("invalid request format", err))
		return
	}

	resp, err := h.svc.ExtractFromURL(ctx, req.URL, service.ExtractOptions{
		RequestID:      requestIDFrom(c),
		ExpectedNumber: req.ExpectedNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) predictBlob(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var req models.BlobPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("invalid request format", err))
		return
	}

	if req.URL != "" {
		containerName, blobName, err := storage.ParseBlobURL(req.URL)
		if err != nil {
			respondError(c, apperrors.NewValidationError("invalid blob URL", err))
			return
		}
		req.Container, req.Blob = containerName, blobName
	}

	resp, err := h.svc.ExtractFromBlob(ctx, req.Container, req.Blob, service.ExtractOptions{
		RequestID:      requestIDFrom(c),
		ExpectedNumber: req.ExpectedNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) getPrediction(c *gin.Context) {
	rec, err := h.svc.GetPrediction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handler) getMetrics(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.metrics.GetMetrics())
}

func (h *handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:     "available",
		Version:    Version,
		Time:       time.Now().UTC().Format(time.RFC3339),
		OCREngine:  h.info.OCREngine,
		OCRWorkers: h.info.OCRWorkers,
	})
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)
	body := models.ErrorResponse{Error: http.StatusText(code), Message: "request processing failed"}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Error = string(appErr.Type)
		body.Message = appErr.Message
		body.Details = appErr.Details
	}

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"request_id":  requestIDFrom(c),
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, body)
}
