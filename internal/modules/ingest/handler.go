package ingest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"formrelay/internal/pkg/response"
	"formrelay/internal/storage"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/submit/:apiKey", h.Submit)
}

// Submit is the public ingestion endpoint. The JSON success flag is the
// outcome contract for integrators; delivery status is intentionally not
// part of the response.
func (h *Handler) Submit(c *gin.Context) {
	form, err := c.Request.MultipartReader()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request must be multipart/form-data")
		return
	}

	sub, err := h.service.Submit(
		c.Request.Context(),
		c.Param("apiKey"),
		c.ClientIP(),
		c.Request.UserAgent(),
		form,
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrKeyNotFound) || errors.Is(err, ErrKeyInactive):
			// One message for both, deliberately.
			response.Error(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid or inactive API key")
		case errors.Is(err, ErrEmptySubmission):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "No form data provided")
		case errors.Is(err, ErrMalformedForm):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed multipart body")
		case errors.Is(err, storage.ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File too large: "+rejectedFilename(err))
		case errors.Is(err, storage.ErrFileTypeNotAllowed):
			response.Error(c, http.StatusBadRequest, "FILE_TYPE_NOT_ALLOWED", "File type not allowed: "+rejectedFilename(err))
		default:
			c.Error(err) //nolint:errcheck // collected by the logging middleware
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process form submission")
		}
		return
	}

	response.Success(c, http.StatusCreated, "Form submitted successfully", gin.H{
		"submission_id": sub.ID,
	})
}

func rejectedFilename(err error) string {
	var fileErr *FileRejectedError
	if errors.As(err, &fileErr) {
		return fileErr.Filename
	}
	return ""
}
