package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"anktest-backend/internal/catalog"
	"anktest-backend/internal/extract"
	openaiextract "anktest-backend/internal/extract/openai"
	"anktest-backend/internal/ingest"
	"anktest-backend/internal/session"
	"anktest-backend/internal/shared/config"
	"anktest-backend/internal/shared/server"
	"anktest-backend/internal/shared/storage/blob"
	gcsstore "anktest-backend/internal/shared/storage/blob/gcs"
	localstore "anktest-backend/internal/shared/storage/blob/local"
	memorystore "anktest-backend/internal/shared/storage/blob/memory"
	s3store "anktest-backend/internal/shared/storage/blob/s3"
)

// App holds shared dependencies.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	Store          blob.Store
	Extractor      extract.Client
	IngestService  *ingest.Service
	CatalogService *catalog.Service
	SessionHandler *session.Handler
	IngestHandler  *ingest.Handler
	CatalogHandler *catalog.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.BlobStoreType) == "" {
		cfg.BlobStoreType = "local"
	}
	ctx := context.Background()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	extractor, err := buildExtractor(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		Store:     store,
		Extractor: extractor,
	}

	app.IngestService = &ingest.Service{Store: store, Extractor: extractor}
	app.CatalogService = &catalog.Service{Store: store, PublicBaseURL: cfg.PublicBaseURL}
	app.SessionHandler = session.NewHandler(store)
	app.IngestHandler = ingest.NewHandler(app.IngestService)
	app.CatalogHandler = catalog.NewHandler(app.CatalogService)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		SessionHandler: app.SessionHandler,
		IngestHandler:  app.IngestHandler,
		CatalogHandler: app.CatalogHandler,
	})

	return app, nil
}

func buildStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	switch cfg.BlobStoreType {
	case "gcs":
		if strings.TrimSpace(cfg.GCSBucket) == "" {
			return nil, fmt.Errorf("BLOB_STORE=gcs requires GCS_BUCKET")
		}
		return gcsstore.New(ctx, cfg.GCSBucket)
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("BLOB_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	case "memory":
		return memorystore.New(), nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildExtractor(cfg config.Config) (extract.Client, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		// The ingestion pipeline reports uploads as qa-skipped in this mode.
		log.Printf("bootstrap: OPENAI_API_KEY empty; QA extraction disabled")
		return nil, nil
	}
	return openaiextract.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
}
