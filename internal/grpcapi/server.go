// Package grpcapi exposes a minimal gRPC surface: standard health checking
// and server reflection, bound to GRPC_PORT. It carries no custom
// dispatch RPCs.
package grpcapi

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"dispatchsvc/internal/logx"
)

// Server wraps a *grpc.Server bound to a fixed address.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	addr       string
	logger     logx.Logger
}

// New builds a Server listening on addr (host:port). The health service
// starts in NOT_SERVING status for every registered service name until
// SetServing is called.
func New(addr string, logger logx.Logger) *Server {
	gs := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	return &Server{grpcServer: gs, health: hs, addr: addr, logger: logger}
}

// SetServing marks the overall server (and the empty service name) as
// serving; called once dependencies (store, queue, engine) are wired up.
func (s *Server) SetServing() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

// ListenAndServe blocks serving gRPC until the listener errors or Stop is
// called from another goroutine.
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.logger.Info("grpc server listening", logx.String("addr", s.addr))
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the gRPC server, marking the health status
// NOT_SERVING first so clients stop routing new requests.
func (s *Server) Stop() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.grpcServer.GracefulStop()
}
