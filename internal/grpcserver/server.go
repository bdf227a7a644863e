// Package grpcserver exposes the standard gRPC health service for the
// matching service. The ingestion pipeline reports under its own service
// name so orchestrators can tell a live process from a stale catalog.
package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"jobmate/matching-service/internal/scraper"
)

// IngestionService is the health service name tracking feed sync outcomes.
const IngestionService = "matching.Ingestion"

// Server wraps a grpc.Server carrying the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

// New returns a Server. The process reports SERVING; ingestion reports
// UNKNOWN until the first sync completes.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		health: health.NewServer(),
		logger: logger.With("component", "grpc"),
	}
	s.grpc = grpc.NewServer(grpc.UnaryInterceptor(s.logUnary))
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(IngestionService, healthpb.HealthCheckResponse_UNKNOWN)
	return s
}

// ObserveSync is a scraper.SyncObserver. Skipped runs leave the status as is.
func (s *Server) ObserveSync(res scraper.SyncResult, err error) {
	switch {
	case err != nil:
		s.health.SetServingStatus(IngestionService, healthpb.HealthCheckResponse_NOT_SERVING)
	case res.Status == scraper.StatusOK:
		s.health.SetServingStatus(IngestionService, healthpb.HealthCheckResponse_SERVING)
	}
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug("rpc", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}
