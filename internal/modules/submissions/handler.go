package submissions

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"formrelay/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/submissions", h.List)
	rg.GET("/submissions/:id", h.Get)
	rg.DELETE("/submissions/:id", h.Delete)
	rg.GET("/files/:id/download", h.DownloadFile)
	rg.GET("/stats", h.Stats)
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	apiKeyID, _ := strconv.ParseInt(c.DefaultQuery("api_key_id", "0"), 10, 64)

	result, err := h.service.List(c.Request.Context(), apiKeyID, page, perPage)
	if err != nil {
		c.Error(err) //nolint:errcheck
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get submissions")
		return
	}
	response.Success(c, http.StatusOK, "", result)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c, "Invalid submission ID")
	if !ok {
		return
	}

	sub, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Submission not found")
			return
		}
		c.Error(err) //nolint:errcheck
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get submission")
		return
	}
	response.Success(c, http.StatusOK, "", sub)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c, "Invalid submission ID")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Submission not found")
			return
		}
		c.Error(err) //nolint:errcheck
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete submission")
		return
	}
	response.Success(c, http.StatusOK, "Submission deleted successfully", nil)
}

func (h *Handler) DownloadFile(c *gin.Context) {
	id, ok := parseID(c, "Invalid file ID")
	if !ok {
		return
	}

	f, err := h.service.GetFile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "File not found")
			return
		}
		c.Error(err) //nolint:errcheck
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to download file")
		return
	}

	c.FileAttachment(f.FilePath, f.OriginalFilename)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.Error(err) //nolint:errcheck
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get statistics")
		return
	}
	response.Success(c, http.StatusOK, "", stats)
}

func parseID(c *gin.Context, msg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", msg)
		return 0, false
	}
	return id, true
}
