package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// TestHealthEndpoints tests liveness, readiness and metrics routing
func TestHealthEndpoints(t *testing.T) {
	dbErr := errors.New("connection refused")
	failing := true
	srv := NewServer(Config{
		ServiceName: "parlay-engine",
		Version:     "1.2.3",
		Logger:      testLogger(),
		MetricsPath: "/metrics",
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "clever_parlay_up 1\n")
		}),
		Checks: map[string]Checker{
			"database": CheckerFunc(func(ctx context.Context) error {
				if failing {
					return dbErr
				}
				return nil
			}),
		},
	})
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "1.2.3", health.Version)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var ready ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	assert.Equal(t, "not_ready", ready.Checks["service"])
	assert.Equal(t, "error: connection refused", ready.Checks["database"])

	srv.SetReady(true)
	failing = false
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "clever_parlay_up")
}

// TestGRPCHealthFollowsReadiness tests the grpc.health.v1 status
func TestGRPCHealthFollowsReadiness(t *testing.T) {
	httpSrv := NewServer(Config{ServiceName: "parlay-engine", Logger: testLogger()})
	grpcSrv := NewGRPCServer("127.0.0.1:0", "parlay-engine", httpSrv, testLogger())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, grpcSrv.Serve(ctx, lis))

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		callCtx, callCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer callCancel()
		resp, err := client.Check(callCtx, &healthpb.HealthCheckRequest{Service: "parlay-engine"})
		require.NoError(t, err)
		return resp.GetStatus()
	}

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check())
	httpSrv.SetReady(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check())
}
