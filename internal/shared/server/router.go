package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"anktest-backend/internal/catalog"
	"anktest-backend/internal/ingest"
	"anktest-backend/internal/session"
	"anktest-backend/internal/shared/config"
	"anktest-backend/internal/shared/metrics"
	"anktest-backend/internal/shared/server/middleware"
	"anktest-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config         config.Config
	SessionHandler *session.Handler
	IngestHandler  *ingest.Handler
	CatalogHandler *catalog.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/", func(c *gin.Context) {
		respond.OK(c, gin.H{"message": "anktest-api is running"})
	})
	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	v1 := r.Group("/v1")
	deps.SessionHandler.RegisterRoutes(v1)
	deps.CatalogHandler.RegisterRoutes(v1)

	// Extraction calls are slow and metered; keep bursts per client in check.
	build := v1.Group("")
	build.Use(middleware.RateLimit(middleware.RateLimitRule{Rate: 1, Burst: 5}, nil))
	deps.IngestHandler.RegisterRoutes(build)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
