// Package server provides gRPC server lifecycle management.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/solatis/predicates/internal/core/api"
	"github.com/solatis/predicates/internal/core/config"
	"github.com/solatis/predicates/internal/core/logging"
)

// shutdownTimeout bounds GracefulStop before in-flight calls are cut off.
const shutdownTimeout = 30 * time.Second

// messageOverhead is headroom above MaxDocumentSize for the request envelope
// (rule name, inline definition).
const messageOverhead = 64 * 1024

// GRPCServer manages gRPC server lifecycle.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	config   *config.ServerConfig
	logger   *slog.Logger
}

// NewGRPCServer creates gRPC server with logging and timeout interceptors and
// service registration. A nil logger uses slog.Default().
func NewGRPCServer(cfg *config.ServerConfig, service *api.RuleService, logger *slog.Logger) (*GRPCServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(cfg.MaxDocumentSize + messageOverhead),
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(logger),
			timeoutInterceptor(cfg.RequestTimeout),
		),
	}

	server := grpc.NewServer(opts...)
	api.RegisterRuleServiceServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}, nil
}

// Start binds listener and serves gRPC requests.
// Context is provided for API consistency but Serve blocks until Shutdown is called.
func (s *GRPCServer) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve serves gRPC requests on an existing listener.
func (s *GRPCServer) Serve(listener net.Listener) error {
	s.listener = listener
	s.logger.Info("grpc server listening", slog.String("addr", listener.Addr().String()))
	return s.server.Serve(listener)
}

// Shutdown gracefully stops server with 30-second timeout.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(shutdownTimeout):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}

// loggingInterceptor attaches a per-call logger to the context and logs
// method, status code and duration of every unary call.
func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		callLogger := logger.With(slog.String("method", info.FullMethod))

		resp, err := handler(logging.NewContext(ctx, callLogger), req)

		code := status.Code(err)
		attrs := []any{
			slog.String("code", code.String()),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			callLogger.Warn("grpc call failed", append(attrs, slog.Any("error", err))...)
		} else {
			callLogger.Debug("grpc call", attrs...)
		}
		return resp, err
	}
}

// timeoutInterceptor bounds every unary call by timeout.
func timeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if timeout <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}
