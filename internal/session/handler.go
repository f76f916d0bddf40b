package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"anktest-backend/internal/qaindex"
	"anktest-backend/internal/shared/server/respond"
	"anktest-backend/internal/shared/storage/blob"
)

// Handler ensures a user's namespace is ready before first ingestion.
type Handler struct {
	Store blob.Store
}

// NewHandler constructs a Handler.
func NewHandler(store blob.Store) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/session", h.create)
}

type createRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "user_id is required", nil)
		return
	}
	c.Set("userId", req.UserID)

	if _, err := qaindex.Ensure(c.Request.Context(), h.Store, req.UserID); err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to initialize session", nil)
		return
	}

	respond.OK(c, gin.H{
		"user_id": req.UserID,
		"status":  "session ok",
	})
}
