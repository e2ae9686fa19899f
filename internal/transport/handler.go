package transport

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-receipt-recognizer/internal/config"
	apperrors "go-receipt-recognizer/internal/errors"
	"go-receipt-recognizer/internal/logger"
	"go-receipt-recognizer/internal/recognizer"
	"go-receipt-recognizer/internal/service"
	"go-receipt-recognizer/pkg/models"
)

// ErrorResponse is the wire shape of a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler builds the HTTP surface: a health check and the receipt
// analysis endpoint accepting either a multipart upload or a JSON body with
// an image URL.
func NewHandler(svc service.ReceiptRecognitionService, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(requestSizeLimiter(cfg.MaxRequestBodySize))

	r.GET("/health", healthCheck)
	r.POST("/api/receipts/analyze", analyzeReceipt(svc, cfg))

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func analyzeReceipt(svc service.ReceiptRecognitionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing receipt analysis request")

		ref, bodyMode, cleanup, err := resolveReference(c, cfg)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid request", err)
			return
		}
		if cleanup != nil {
			defer cleanup()
		}

		mode := recognizer.ModeFromString(firstNonEmpty(
			c.Query("mode"), c.PostForm("mode"), bodyMode, cfg.RecognitionMode))

		resp, err := svc.AnalyzeReference(ctx, ref, mode)
		if err != nil {
			logger.WithError(err).Error("Receipt analysis failed")
			status := apperrors.GetStatusCode(err)
			if apperrors.IsAllPassesFailed(err) {
				respondError(c, status, "receipt could not be analyzed, manual entry required", err)
				return
			}
			respondError(c, status, "receipt analysis failed", err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// resolveReference extracts the image reference from the request: a
// multipart "receipt" file saved into the upload directory, or a JSON body
// carrying a URL and optional mode. The saved upload is removed after
// analysis; persisting uploads is the caller's concern.
func resolveReference(c *gin.Context, cfg *config.Config) (ref, mode string, cleanup func(), err error) {
	file, ferr := c.FormFile("receipt")
	if ferr == nil {
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			return "", "", nil, apperrors.NewInternalError("failed to prepare upload directory", err)
		}
		dst := filepath.Join(cfg.UploadDir,
			fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(file.Filename)))
		if err := c.SaveUploadedFile(file, dst); err != nil {
			return "", "", nil, apperrors.NewInternalError("failed to store upload", err)
		}
		return dst, "", func() { _ = os.Remove(dst) }, nil
	}

	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", "", nil, apperrors.NewValidationError("expected a receipt upload or a JSON body with url", err)
	}
	return req.URL, req.Mode, nil, nil
}

func respondError(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Message = err.Error()
	}
	c.JSON(status, resp)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
