package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AccelByte/extend-mission-factory/pkg/handler"
	"github.com/AccelByte/extend-mission-factory/pkg/metrics"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type stubProbe struct {
	err error
}

func (p *stubProbe) Check(context.Context) error { return p.err }

func TestMetricsServer_ExposesMissionMetrics(t *testing.T) {
	m := NewMetricsServer(0, "/metrics")
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	metrics.EnrollmentsTotal.WithLabelValues("accepted").Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"mission_factory_enrollments_total", "go_goroutines"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestGRPCServer_HealthFollowsProbe(t *testing.T) {
	probe := &stubProbe{}
	s := NewGRPCServer(0, nil, probe)
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	ctx := context.Background()

	check := func(service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
		t.Helper()
		resp, err := s.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("Check(%q) error = %v", service, err)
		}
		return resp.GetStatus()
	}

	s.updateHealth(ctx)
	if got := check(handler.ServiceName); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("status = %s, expected SERVING", got)
	}

	probe.err = errors.New("redis down")
	s.updateHealth(ctx)
	if got := check(""); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %s, expected NOT_SERVING", got)
	}
}
