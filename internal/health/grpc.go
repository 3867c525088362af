package health

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer exposes the standard grpc.health.v1 service. Serving status
// follows the HTTP server's readiness.
type GRPCServer struct {
	serviceName string
	addr        string
	server      *grpc.Server
	health      *grpchealth.Server
	logger      *logrus.Logger
}

// NewGRPCServer creates a gRPC health server bound to the readiness of httpServer.
func NewGRPCServer(addr, serviceName string, httpServer *Server, logger *logrus.Logger) *GRPCServer {
	hs := grpchealth.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	g := &GRPCServer{
		serviceName: serviceName,
		addr:        addr,
		server:      srv,
		health:      hs,
		logger:      logger,
	}
	g.SetServing(httpServer.IsReady())
	httpServer.OnReadyChange(g.SetServing)
	return g
}

// SetServing updates the reported status for the overall server and the
// named service.
func (g *GRPCServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(g.serviceName, status)
}

// Start listens on the configured address and serves until ctx is done.
func (g *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.addr, err)
	}
	return g.Serve(ctx, lis)
}

// Serve serves on lis in the background until ctx is done.
func (g *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		g.logger.WithField("addr", lis.Addr().String()).Info("gRPC health server starting")
		if err := g.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
			g.logger.WithError(err).Error("gRPC health server error")
		}
	}()

	go func() {
		<-ctx.Done()
		g.Shutdown()
	}()

	return nil
}

// Shutdown marks every service NOT_SERVING and stops the server, forcing it
// after five seconds.
func (g *GRPCServer) Shutdown() {
	g.health.Shutdown()

	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		g.server.Stop()
	}
}
