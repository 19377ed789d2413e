package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-entropy-forensics/internal/config"
	apperrors "go-entropy-forensics/internal/errors"
	"go-entropy-forensics/internal/logger"
	"go-entropy-forensics/internal/observer"
	"go-entropy-forensics/internal/service"
	"go-entropy-forensics/internal/store"
	"go-entropy-forensics/pkg/models"
)

// NewHandler builds the HTTP surface: POST /scan fetches the media by
// URL, runs the pipeline and returns the ScanResult; GET /health,
// GET /scans (recent history) and GET /metrics round it out.
func NewHandler(svc service.ScanService, history *store.Store, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.Server.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/scan", scanMedia(svc, cfg))
	r.GET("/scans", listScans(history))
	r.GET("/metrics", scanMetrics(metrics))

	return r
}

func scanMedia(svc service.ScanService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Server.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing media scan request")

		var req models.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		result, err := svc.ScanURL(ctx, req.URL)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"url": req.URL,
				"ip":  c.ClientIP(),
			}).Error("Scan failed")
			respondError(c, apperrors.GetStatusCode(err), "scan failed", err)
			return
		}

		duration := time.Since(startTime)
		logger.WithFields(logrus.Fields{
			"url":                req.URL,
			"kind":               result.Kind,
			"score":              result.Score,
			"detector":           result.DetectorTag,
			"processing_time_ms": duration.Milliseconds(),
		}).Info("Media scan completed successfully")

		c.JSON(http.StatusOK, result)
	}
}

func listScans(history *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			respondError(c, http.StatusNotFound, "scan history disabled", nil)
			return
		}
		records, err := history.ListRecent(20)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to list scans", err)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

func scanMetrics(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			respondError(c, http.StatusNotFound, "metrics disabled", nil)
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "available",
		Version: "1.0.0",
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	if scanErr, ok := err.(*apperrors.ScanError); ok {
		return scanErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
