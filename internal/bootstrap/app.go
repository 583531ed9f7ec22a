package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"docsummary-backend/internal/documents"
	"docsummary-backend/internal/extract"
	"docsummary-backend/internal/ingest"
	"docsummary-backend/internal/llm"
	"docsummary-backend/internal/llm/local"
	"docsummary-backend/internal/llm/openai"
	"docsummary-backend/internal/shared/config"
	"docsummary-backend/internal/shared/server"
	"docsummary-backend/internal/shared/server/middleware"
	"docsummary-backend/internal/shared/storage/db"
	"docsummary-backend/internal/shared/storage/object"
	localstore "docsummary-backend/internal/shared/storage/object/local"
	miniostore "docsummary-backend/internal/shared/storage/object/minio"
	s3store "docsummary-backend/internal/shared/storage/object/s3"
	"docsummary-backend/internal/shared/telemetry"
	"docsummary-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Summarizer       llm.Summarizer
	UsersRepo        users.Repo
	DocumentsRepo    documents.DocumentsRepo
	UsersService     *users.Service
	DocumentsService *documents.Service
	IngestService    *ingest.Service
	UsersHandler     *users.Handler
	IngestHandler    *ingest.Handler
}

// Build connects dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := BuildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	summarizer, provider, err := BuildSummarizer(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		DB:         sqlDB,
		Store:      store,
		Summarizer: summarizer,
	}
	if err := buildServices(app, provider); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		DB:          sqlDB,
		RateLimiter: middleware.NewRateLimiter(nil),
		Handlers:    []server.RouteRegistrar{app.UsersHandler, app.IngestHandler},
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

// BuildStore returns the configured object store, or nil when archiving is off.
func BuildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	oc := cfg.ObjectStore
	switch oc.Type {
	case "local":
		return localstore.New(oc.LocalDir), nil
	case "s3":
		if strings.TrimSpace(oc.AWSRegion) == "" || strings.TrimSpace(oc.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, oc.AWSRegion, oc.S3Bucket, oc.S3Prefix, oc.SSEKMSKeyID)
	case "minio":
		m := oc.MinIO
		return miniostore.New(ctx, m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.UseSSL)
	default:
		return nil, nil
	}
}

// BuildSummarizer returns the configured summarizer and its provider label.
// Outside production a missing OpenAI key falls back to the local summarizer.
func BuildSummarizer(cfg config.Config) (llm.Summarizer, string, error) {
	if cfg.LLM.Provider == "local" {
		return local.NewFrequencySummarizer(cfg.LLM.MaxSentences), "local", nil
	}
	if strings.TrimSpace(cfg.LLM.APIKey) == "" && cfg.Env != "production" {
		telemetry.Warn("bootstrap.summarizer_fallback", map[string]any{
			"provider": "local",
			"reason":   "OPENAI_API_KEY empty",
		})
		return local.NewFrequencySummarizer(cfg.LLM.MaxSentences), "local", nil
	}
	client, err := openai.NewClient(openai.Options{
		APIKey:        cfg.LLM.APIKey,
		Model:         cfg.LLM.Model,
		BaseURL:       cfg.LLM.BaseURL,
		PromptVersion: cfg.LLM.PromptVersion,
		Timeout:       cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, "", err
	}
	return client, "openai", nil
}

func buildServices(app *App, provider string) error {
	policy, err := ingest.ParsePolicy(app.Config.Ingest.FailurePolicy)
	if err != nil {
		return err
	}

	var userRepo users.Repo
	var docRepo documents.DocumentsRepo
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		docRepo = &documents.PGRepo{DB: app.DB}
	} else {
		memUsers := users.NewMemoryRepo()
		memDocs := documents.NewMemoryRepo(memUsers)
		memUsers.Docs = memDocs
		userRepo = memUsers
		docRepo = memDocs
	}

	userSvc := users.NewService(userRepo, app.Config.BcryptCost)
	docSvc := &documents.Service{Store: app.Store, Repo: docRepo}
	ingestSvc := &ingest.Service{
		Users:            userSvc,
		Docs:             docSvc,
		Summarizer:       app.Summarizer,
		Extract:          extract.ExtractText,
		Provider:         provider,
		Policy:           policy,
		Concurrency:      app.Config.Ingest.Concurrency,
		SummarizeTimeout: app.Config.LLM.Timeout,
	}

	app.UsersRepo = userRepo
	app.DocumentsRepo = docRepo
	app.UsersService = userSvc
	app.DocumentsService = docSvc
	app.IngestService = ingestSvc
	app.UsersHandler = users.NewHandler(userSvc)
	app.IngestHandler = ingest.NewHandler(ingestSvc, app.Config.Upload.MaxBytes, app.Config.Upload.MaxFiles)
	return nil
}
