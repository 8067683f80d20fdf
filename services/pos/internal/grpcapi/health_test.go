package grpcapi

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthLifecycle(t *testing.T) {
	ctx := context.Background()
	h := NewHealth(apt.NewNoopLogger())

	tests := []struct {
		name      string
		step      func()
		component string
		want      healthpb.HealthCheckResponse_ServingStatus
	}{
		{name: "notServingBeforeStart", step: func() {}, component: ServiceOrders, want: healthpb.HealthCheckResponse_NOT_SERVING},
		{name: "servingAfterStart", step: func() { _ = h.Start(ctx) }, component: ServiceKitchen, want: healthpb.HealthCheckResponse_SERVING},
		{name: "overallServing", step: func() {}, component: "", want: healthpb.HealthCheckResponse_SERVING},
		{name: "singleComponentDown", step: func() { h.SetServing(ServiceBilling, false) }, component: ServiceBilling, want: healthpb.HealthCheckResponse_NOT_SERVING},
		{name: "othersUnaffected", step: func() {}, component: ServiceOrders, want: healthpb.HealthCheckResponse_SERVING},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.step()
			got, err := h.Check(ctx, tt.component)
			if err != nil {
				t.Fatalf("Check(%q) error: %v", tt.component, err)
			}
			if got != tt.want {
				t.Errorf("Check(%q) = %v, want %v", tt.component, got, tt.want)
			}
		})
	}

	if _, err := h.Check(ctx, "pos.unknown"); err == nil {
		t.Error("Check() on an unknown component should fail")
	}
}

func TestHealthOverGRPC(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := grpc.NewServer()
	h := NewHealth(nil)
	h.RegisterGRPCService(s)
	_ = h.Start(context.Background())
	go func() { _ = s.Serve(lis) }()
	defer s.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceOrders})
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.Status)
	}
}
