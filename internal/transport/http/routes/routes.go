package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/infra/config"
	"github.com/ssuresh1228/finapp/internal/transport/http/handlers"
	"github.com/ssuresh1228/finapp/internal/transport/http/middleware"
	"github.com/ssuresh1228/finapp/internal/usecase"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config         *config.AppConfig
	Logger         *zap.Logger
	Accounts       *usecase.AccountService
	Guard          *usecase.SessionGuard
	Metrics        *middleware.HTTPMetrics
	Gatherer       prometheus.Gatherer
	TracerProvider trace.TracerProvider
	Database       DatabaseChecker
	Cache          CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(deps.Config.Telemetry.ServiceName, otelgin.WithTracerProvider(deps.TracerProvider)))
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(deps.Metrics.Handler())
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("postgres", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if deps.Accounts == nil {
		return r
	}

	guard := deps.Guard
	if guard == nil {
		panic("routes: session guard is required when accounts are served")
	}

	cookie := handlers.SessionCookie{
		Name:   deps.Config.Session.CookieName,
		Domain: deps.Config.Session.Domain,
		Path:   deps.Config.Session.Path,
		Secure: deps.Config.Session.Secure,
	}

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RequireSession(guard, cookie.Name, logger))
	{
		authHandler := handlers.NewAuthHandler(deps.Accounts, handlers.AuthHandlerOptions{
			Cookie:              cookie,
			VerifiedRedirectURL: deps.Config.Verification.RedirectURL,
			IsDev:               deps.Config.App.IsDevelopment(),
			Logger:              logger,
		})
		authHandler.RegisterRoutes(authGroup)

		accountHandler := handlers.NewAccountHandler(deps.Accounts, cookie, logger)
		accountHandler.RegisterRoutes(authGroup)
	}

	return r
}
