// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/common"
	"github.com/AccelByte/extend-mission-factory/pkg/handler"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// DefaultHealthInterval is how often the dependency probe runs.
const DefaultHealthInterval = 10 * time.Second

// HealthProbe reports whether a dependency the service needs is reachable.
type HealthProbe interface {
	Check(ctx context.Context) error
}

// GRPCServer manages the gRPC server lifecycle.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	port     int
	service  handler.MissionServiceServer
	probe    HealthProbe
	interval time.Duration
	stop     chan struct{}
}

// NewGRPCServer creates a new gRPC server instance. probe may be nil, in
// which case the service always reports SERVING.
func NewGRPCServer(port int, service handler.MissionServiceServer, probe HealthProbe) *GRPCServer {
	return &GRPCServer{
		port:     port,
		service:  service,
		probe:    probe,
		interval: DefaultHealthInterval,
		stop:     make(chan struct{}),
	}
}

// Setup configures the gRPC server with interceptors and registers handlers.
//
// ============================================================
// DEVELOPER: gRPC server configuration
// ============================================================
// This method sets up:
// 1. Interceptors (logging)
// 2. The MissionService handler
// 3. Server features (reflection, health checks)
// ============================================================
func (s *GRPCServer) Setup() error {
	unaryInterceptors := []grpc.UnaryServerInterceptor{
		logging.UnaryServerInterceptor(common.InterceptorLogger(logrus.StandardLogger())),
	}
	streamInterceptors := []grpc.StreamServerInterceptor{
		logging.StreamServerInterceptor(common.InterceptorLogger(logrus.StandardLogger())),
	}

	// Create server with OpenTelemetry instrumentation
	s.server = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unaryInterceptors...),
		grpc.ChainStreamInterceptor(streamInterceptors...),
	)

	handler.RegisterMissionServiceServer(s.server, s.service)
	logrus.Infof("registered %s", handler.ServiceName)

	// ============================================================
	// Enable gRPC server features
	// ============================================================
	// - Reflection: allows tools like grpcurl to inspect services
	// - Health check: for Kubernetes liveness/readiness probes,
	//   NOT_SERVING while Redis is unreachable
	// ============================================================
	reflection.Register(s.server)
	s.health = health.NewServer()
	grpc_health_v1.RegisterHealthServer(s.server, s.health)

	logrus.Infof("gRPC reflection and health check enabled")

	return nil
}

// Start begins listening and serving gRPC requests.
func (s *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	s.updateHealth(ctx)
	go s.watchHealth(ctx)

	go func() {
		logrus.Infof("gRPC server listening on port %d", s.port)
		if err := s.server.Serve(lis); err != nil {
			logrus.Fatalf("gRPC server failed: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully stops the gRPC server.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down gRPC server...")
	close(s.stop)
	s.health.Shutdown()
	s.server.GracefulStop()
	logrus.Info("gRPC server stopped")
	return nil
}

func (s *GRPCServer) watchHealth(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.updateHealth(ctx)
		}
	}
}

// updateHealth sets both the overall and the MissionService status.
func (s *GRPCServer) updateHealth(ctx context.Context) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if s.probe != nil {
		if err := s.probe.Check(ctx); err != nil {
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(handler.ServiceName, status)
}
