// Package grpc exposes the hierarchy and upload services over gRPC.
package grpc

import (
	"context"
	"net"

	api "github.com/dmitrijs2005/gophdrive/internal/api/hierarchy"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Hierarchy is the part of services.HierarchyService the transport needs.
type Hierarchy interface {
	CreateFolder(ctx context.Context, ownerID, name string, parentID *string) (*models.Entry, error)
	CreateFile(ctx context.Context, ownerID, name string, parentID *string, loc models.Location, size int64, kind string) (*models.Entry, error)
	Move(ctx context.Context, ownerID, entryID string, newParentID *string) (*models.Entry, error)
	Rename(ctx context.Context, ownerID, entryID, newName string) (*models.Entry, error)
	SetStarred(ctx context.Context, ownerID, entryID string, value bool) (*models.Entry, error)
	SetTrashed(ctx context.Context, ownerID, entryID string, value bool) (*models.Entry, error)
	ReplaceContent(ctx context.Context, ownerID, entryID string, loc models.Location, size int64, kind string) (*models.Entry, error)
	Delete(ctx context.Context, ownerID, entryID string, cascade bool) error
	ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*models.Entry, error)
	GetAncestorPath(ctx context.Context, ownerID, entryID string) ([]*models.Entry, error)
}

type Uploads interface {
	UploadParams(ctx context.Context, ownerID string) (*models.UploadTicket, error)
}

type GRPCServer struct {
	address   string
	hierarchy Hierarchy
	uploads   Uploads
	logger    logging.Logger
	jwtSecret []byte
	health    *health.Server
}

func NewGRPCServer(a string, l logging.Logger, h Hierarchy, u Uploads, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		hierarchy: h,
		uploads:   u,
		jwtSecret: []byte(secretKey),
		health:    newHealthServer(),
	}
}

func newHealthServer() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return hs
}

// SetServing publishes the hierarchy service's status on the health endpoint.
func (s *GRPCServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(api.ServiceName, status)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	api.RegisterHierarchyServiceServer(srv, s)

	hs := s.health
	healthpb.RegisterHealthServer(srv, hs)

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
