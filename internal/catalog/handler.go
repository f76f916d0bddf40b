package catalog

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"anktest-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the catalog service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches catalog routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/files", h.list)
	rg.GET("/file", h.download)
}

func (h *Handler) list(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "user_id is required", nil)
		return
	}
	c.Set("userId", userID)

	entries, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list files", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"user_id": userID,
		"records": entries,
	})
}

func (h *Handler) download(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	relPath := strings.TrimSpace(c.Query("path"))
	if userID == "" || relPath == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "user_id and path are required", nil)
		return
	}
	c.Set("userId", userID)

	rc, err := h.Svc.Open(c.Request.Context(), userID, relPath)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open file", nil)
		}
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(relPath)))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
