// Package grpc is the gRPC boundary. It serves myplanner.v1.Auth and the
// standard health service, and guards every non-public method with the
// access token interceptor.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/dmitrijs2005/myplanner/internal/logging"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// SubjectResolver turns an access token into the subject it was issued to.
type SubjectResolver interface {
	CurrentSubject(ctx context.Context, accessToken string) (string, error)
}

type GRPCServer struct {
	address  string
	logger   logging.Logger
	resolver SubjectResolver
	health   *health.Server
	srv      *grpc.Server
}

func NewGRPCServer(a string, l logging.Logger, auth AuthAPI) *GRPCServer {
	s := &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		resolver: auth,
		health:   health.NewServer(),
	}

	s.srv = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(s.requestIDInterceptor, s.accessTokenInterceptor),
	)
	RegisterAuthServer(s.srv, NewAuthHandler(auth, s.logger))
	grpc_health_v1.RegisterHealthServer(s.srv, s.health)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(AuthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return s
}

// Server exposes the underlying grpc.Server so callers can register more
// services before Run.
func (s *GRPCServer) Server() *grpc.Server {
	return s.srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.srv.Serve(listen)
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		s.srv.GracefulStop()
		err = <-serveErr
	case err = <-serveErr:
	}

	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return fmt.Errorf("serve gRPC: %w", err)
}
