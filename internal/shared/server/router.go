package server

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"docsummary-backend/internal/services/health"
	"docsummary-backend/internal/shared/config"
	"docsummary-backend/internal/shared/metrics"
	"docsummary-backend/internal/shared/server/middleware"
	"docsummary-backend/internal/shared/server/respond"
)

const (
	rateGroupDefault = "DEFAULT"
	rateGroupUpload  = "UPLOAD"
	rateGroupNone    = "NONE"
)

// RouteRegistrar attaches a feature's routes.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries everything the HTTP layer needs.
type RouterDeps struct {
	Config      config.Config
	DB          *sql.DB // nil when running on in-memory repositories
	RateLimiter *middleware.RateLimiter
	Handlers    []RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20

	rl := deps.Config.RateLimit
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault: {Rate: rl.RPS, Burst: rl.Burst},
				rateGroupUpload:  {Rate: rl.UploadRPS, Burst: rl.UploadBurst},
			},
		}),
	)

	r.GET("/health", healthHandler(health.NewService(deps.DB)))
	r.GET("/metrics", metrics.Handler())

	root := r.Group("")
	for _, h := range deps.Handlers {
		if h != nil {
			h.RegisterRoutes(root)
		}
	}
	return r
}

func rateGroupFor(c *gin.Context) string {
	switch c.FullPath() {
	case "/upload":
		return rateGroupUpload
	case "/health", "/metrics":
		return rateGroupNone
	default:
		return rateGroupDefault
	}
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := svc.Check(c.Request.Context())
		if err != nil {
			respond.Error(c, http.StatusServiceUnavailable, "db_unavailable", "database ping failed", nil)
			return
		}
		respond.OK(c, status)
	}
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
