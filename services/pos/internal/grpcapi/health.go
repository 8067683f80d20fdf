// Package grpcapi exposes the gRPC surface of the POS service.
package grpcapi

import (
	"context"

	"github.com/appetiteclub/apt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	ServiceOrders  = "pos.orders"
	ServiceKitchen = "pos.kitchen"
	ServiceBilling = "pos.billing"
)

var Components = []string{ServiceOrders, ServiceKitchen, ServiceBilling}

// Health serves grpc.health.v1 with one status per POS component plus the
// overall "" entry. Everything reports NOT_SERVING until Start runs.
type Health struct {
	server     *health.Server
	components []string
	logger     apt.Logger
}

func NewHealth(logger apt.Logger, components ...string) *Health {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if len(components) == 0 {
		components = Components
	}

	h := &Health{
		server:     health.NewServer(),
		components: components,
		logger:     logger,
	}
	h.setAll(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// RegisterGRPCService satisfies apt.GRPCServiceRegistrar.
func (h *Health) RegisterGRPCService(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

func (h *Health) Start(ctx context.Context) error {
	h.setAll(healthpb.HealthCheckResponse_SERVING)
	h.logger.Info("grpc health serving", "components", len(h.components))
	return nil
}

func (h *Health) Stop(ctx context.Context) error {
	h.server.Shutdown()
	return nil
}

// SetServing flips a single component, e.g. when its backing store drops.
func (h *Health) SetServing(component string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus(component, status)
}

func (h *Health) Check(ctx context.Context, component string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.server.Check(ctx, &healthpb.HealthCheckRequest{Service: component})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.Status, nil
}

func (h *Health) setAll(status healthpb.HealthCheckResponse_ServingStatus) {
	h.server.SetServingStatus("", status)
	for _, c := range h.components {
		h.server.SetServingStatus(c, status)
	}
}
