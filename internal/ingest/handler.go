package ingest

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"anktest-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the pipeline service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches ingestion routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/qa_build", h.build)
}

func (h *Handler) build(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	userID := strings.TrimSpace(c.PostForm("user_id"))
	if userID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "user_id is required", nil)
		return
	}
	c.Set("userId", userID)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	out, err := h.Svc.Ingest(c.Request.Context(), userID, fileHeader.Filename, content)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "storage_error", err.Error(), nil)
		}
		return
	}

	respond.OK(c, toResponse(out))
}

func toResponse(out Outcome) gin.H {
	resp := gin.H{
		"status":      out.Status,
		"upload_file": out.UploadFile,
		"object_key":  out.ObjectKey,
	}
	switch out.Status {
	case StatusSaved:
		resp["qa"] = out.QA
		resp["qa_id"] = out.QAID
		resp["qa_count"] = out.QACount
	case StatusFailed:
		resp["error"] = out.Err
	case StatusSkipped:
		resp["reason"] = out.Reason
	}
	return resp
}
