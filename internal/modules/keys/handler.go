package keys

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
	rg.GET("/keys", h.List)
	rg.POST("/keys", h.Create)
	rg.PUT("/keys/:id", h.Update)
	rg.DELETE("/keys/:id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	keys, err := h.service.List(c.Request.Context())
	if err != nil {
		c.Error(err) //nolint:errcheck
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get API keys")
		return
	}
	response.Success(c, http.StatusOK, "", keys)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Name and recipient email are required")
		return
	}

	key, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		c.Error(err) //nolint:errcheck
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create API key")
		return
	}
	response.Success(c, http.StatusCreated, "API key created successfully", key)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	key, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "API key not found")
			return
		}
		c.Error(err) //nolint:errcheck
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update API key")
		return
	}
	response.Success(c, http.StatusOK, "API key updated successfully", key)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "API key not found")
			return
		}
		c.Error(err) //nolint:errcheck
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete API key")
		return
	}
	response.Success(c, http.StatusOK, "API key deleted successfully", nil)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid API key ID")
		return 0, false
	}
	return id, true
}
