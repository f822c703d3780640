package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/ssuresh1228/finapp/internal/core/port"
	"github.com/ssuresh1228/finapp/internal/infra/config"
	"github.com/ssuresh1228/finapp/internal/infra/database"
	kafkainfra "github.com/ssuresh1228/finapp/internal/infra/kafka"
	"github.com/ssuresh1228/finapp/internal/infra/logger"
	"github.com/ssuresh1228/finapp/internal/infra/mail"
	redisinfra "github.com/ssuresh1228/finapp/internal/infra/redis"
	"github.com/ssuresh1228/finapp/internal/infra/security"
	"github.com/ssuresh1228/finapp/internal/infra/telemetry"
	postgresrepo "github.com/ssuresh1228/finapp/internal/repository/postgres"
	redisrepo "github.com/ssuresh1228/finapp/internal/repository/redis"
	transportgrpc "github.com/ssuresh1228/finapp/internal/transport/grpc"
	grpcinterceptors "github.com/ssuresh1228/finapp/internal/transport/grpc/interceptors"
	"github.com/ssuresh1228/finapp/internal/transport/http/middleware"
	"github.com/ssuresh1228/finapp/internal/transport/http/routes"
	"github.com/ssuresh1228/finapp/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

type Application struct {
	cfg        *config.AppConfig
	engine     *gin.Engine
	logger     *zap.Logger
	pool       *pgxpool.Pool
	redis      *redisinfra.Client
	producer   *kafkainfra.Producer
	tracer     *telemetry.TracerProvider
	accounts   *usecase.AccountService
	grpcServer *transportgrpc.Server
	grpcAddr   string
}

func New(ctx context.Context, cfg *config.AppConfig) (_ *Application, err error) {
	log, err := logger.New(cfg.App.Env, cfg.Telemetry.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log, grpcAddr: cfg.GRPC.Addr}
	defer func() {
		if err != nil {
			a.release(context.Background())
		}
	}()

	a.tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if cfg.Postgres.MigrateOnStart {
		if err := database.Migrate(database.DSN(cfg.Postgres), log); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
	}

	a.redis, err = redisinfra.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	hasher, err := security.NewArgon2Hasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	var mailer port.Mailer
	switch {
	case cfg.Mail.SMTPHost != "":
		mailer = mail.NewSMTPMailer(cfg.Mail, log)
	case cfg.App.IsProduction():
		return nil, fmt.Errorf("init mailer: smtp host is required in production")
	default:
		log.Info("smtp host not configured, mail will be logged")
		mailer = mail.NewLoggingMailer(log)
	}

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			a.producer = producer
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	lifecycleMetrics, err := usecase.NewLifecycleMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("init lifecycle metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}
	grpcMetrics, err := grpcinterceptors.NewGRPCMetrics(grpcinterceptors.GRPCMetricsOptions{Registerer: registry})
	if err != nil {
		return nil, fmt.Errorf("init grpc metrics: %w", err)
	}

	tokens := redisrepo.NewTokenStore(a.redis.Client(), cfg.Redis.KeyPrefix)
	var sessionPrefix string
	if cfg.Redis.KeyPrefix != "" {
		sessionPrefix = cfg.Redis.KeyPrefix + ":sessions"
	}
	sessions := redisrepo.NewSessionIndex(a.redis.Client(), sessionPrefix)
	clock := func() time.Time { return time.Now().UTC() }

	a.accounts = usecase.NewAccountService(
		postgresrepo.NewAccountRepository(a.pool),
		tokens,
		hasher,
		security.NewAccountPasswordPolicy(cfg.Password.MinStrengthScore),
		mailer,
		mail.NewLinks(cfg.Mail.FrontendURL),
		usecase.WithTokenTTLs(usecase.TokenTTLs{
			Verification: cfg.Tokens.VerificationTTL,
			Session:      cfg.Tokens.SessionTTL,
			Reset:        cfg.Tokens.ResetTTL,
		}),
		usecase.WithLogger(log),
		usecase.WithClock(clock),
		usecase.WithMetrics(lifecycleMetrics),
		usecase.WithSessionIndex(sessions),
		usecase.WithTracerProvider(a.tracer.Provider()),
	)
	usecase.PublishLifecycleEvents(a.accounts.Hooks(), eventPublisher, clock)

	a.engine = routes.Register(routes.Dependencies{
		Config:         cfg,
		Logger:         log,
		Accounts:       a.accounts,
		Guard:          usecase.NewSessionGuard(tokens, usecase.DefaultExemptPaths),
		Metrics:        httpMetrics,
		Gatherer:       registry,
		TracerProvider: a.tracer.Provider(),
		Database:       a.pool,
		Cache:          a.redis,
	})

	if a.grpcAddr != "" {
		a.grpcServer = transportgrpc.NewServer(transportgrpc.ServerDependencies{
			Logger:         log,
			Metrics:        grpcMetrics,
			TracerProvider: a.tracer.Provider(),
			Checks: map[string]transportgrpc.ReadinessCheck{
				"postgres": a.pool.Ping,
				"redis":    a.redis.HealthCheck,
			},
		})
	}

	return a, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	grpcErrCh := make(chan error, 1)
	if a.grpcServer != nil {
		lis, err := net.Listen("tcp", a.grpcAddr)
		if err != nil {
			a.release(context.Background())
			return fmt.Errorf("listen grpc: %w", err)
		}
		a.logger.Info("starting gRPC admin server", zap.String("address", a.grpcAddr))
		go a.grpcServer.WatchReadiness(runCtx, a.cfg.GRPC.CheckInterval)
		go func() {
			if err := a.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				a.logger.Error("gRPC server error", zap.Error(err))
				grpcErrCh <- fmt.Errorf("run grpc server: %w", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting finapp API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-serverErrCh:
	case runErr = <-grpcErrCh:
	}
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("shutdown server: %w", err))
	}
	a.release(shutdownCtx)
	return runErr
}

// release drains background lifecycle work and closes every backing client
// in reverse order of construction. Components that were never built are
// skipped.
func (a *Application) release(ctx context.Context) {
	if a.grpcServer != nil {
		a.grpcServer.Stop()
	}
	if a.accounts != nil {
		if err := a.accounts.Wait(ctx); err != nil {
			a.logger.Warn("background lifecycle work did not finish", zap.Error(err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("close kafka producer", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("shutdown tracer provider", zap.Error(err))
		}
	}
}
