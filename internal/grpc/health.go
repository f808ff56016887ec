package grpc

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "cart.CartStore"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker keeps the gRPC health status in line with the storage backend.
type HealthChecker struct {
	storage  Pinger
	server   *health.Server
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewHealthChecker(storage Pinger, interval time.Duration, logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthChecker{
		storage:  storage,
		server:   hs,
		interval: interval,
		timeout:  interval,
		logger:   logger,
	}
}

func (h *HealthChecker) Server() *health.Server {
	return h.server
}

// Check pings storage once and publishes the result.
func (h *HealthChecker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("storage ping failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run checks on every interval until ctx is done, then reports NOT_SERVING for good.
func (h *HealthChecker) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// NewServer returns a gRPC server exposing the health service, traced with otelgrpc.
func NewServer(h *HealthChecker, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	srv := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(srv, h.server)
	return srv
}
