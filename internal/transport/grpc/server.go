package transportgrpc

import (
	"context"
	"net"
	"sort"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcinterceptors "github.com/ssuresh1228/finapp/internal/transport/grpc/interceptors"
)

// ServiceName is the health service name reporting overall readiness.
const ServiceName = "finapp.account"

// ReadinessCheck reports whether a backing dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// ServerDependencies encapsulates what the admin gRPC listener needs.
type ServerDependencies struct {
	Logger         *zap.Logger
	Metrics        *grpcinterceptors.GRPCMetrics
	TracerProvider trace.TracerProvider
	// Checks are keyed by component name, e.g. "postgres". Each component is
	// exposed as "finapp.account.<name>" next to the aggregate ServiceName.
	Checks map[string]ReadinessCheck
}

// Server is the admin gRPC listener. It serves the standard health protocol
// so orchestrators and peer services can check readiness without HTTP.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	checks map[string]ReadinessCheck
	logger *zap.Logger
}

// NewServer wires the health and reflection services behind the logging,
// metrics and tracing interceptors. Every service starts NOT_SERVING until
// the first readiness check passes.
func NewServer(deps ServerDependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	server := grpc.NewServer(
		grpcinterceptors.TracingServerOption(grpcinterceptors.TracingOptions{TracerProvider: deps.TracerProvider}),
		grpc.ChainUnaryInterceptor(
			grpcinterceptors.UnaryLogging(logger),
			deps.Metrics.UnaryServerInterceptor(),
		),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	s := &Server{
		grpc:   server,
		health: healthServer,
		checks: deps.Checks,
		logger: logger,
	}
	for _, name := range s.serviceNames() {
		healthServer.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return s
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("grpc admin listener started", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// Check runs every readiness check once and publishes the result. The
// aggregate service is SERVING only when all components are.
func (s *Server) Check(ctx context.Context) bool {
	ready := true
	for _, name := range sortedKeys(s.checks) {
		status := healthpb.HealthCheckResponse_SERVING
		if err := s.checks[name](ctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			ready = false
			s.logger.Warn("readiness check failed", zap.String("component", name), zap.Error(err))
		}
		s.health.SetServingStatus(ServiceName+"."+name, status)
	}

	overall := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		overall = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, overall)
	s.health.SetServingStatus("", overall)
	return ready
}

// WatchReadiness checks immediately and then every interval until ctx is done.
func (s *Server) WatchReadiness(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		s.Check(checkCtx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop flips every service to NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) serviceNames() []string {
	names := []string{"", ServiceName}
	for _, name := range sortedKeys(s.checks) {
		names = append(names, ServiceName+"."+name)
	}
	return names
}

func sortedKeys(m map[string]ReadinessCheck) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
