package grpc_control

import (
	"fmt"
	"net"
	"sync"

	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// DefaultPort is used when grpc_port is not set.
const DefaultPort = 50051

// HealthService serves grpc.health.v1 with one service name per data source.
// The empty service name reflects the whole pipeline: SERVING while at least
// one source is healthy.
type HealthService struct {
	Config *models.MConfig
	Logger *logger.Logger

	server  *grpc.Server
	health  *health.Server
	sources map[string]bool
	mu      sync.Mutex
}

// -----------------------------------------------------------------------------

// NewHealthService registers health and reflection. Every source starts SERVING.
func NewHealthService(cfg *models.MConfig, sourceNames []string, log *logger.Logger) *HealthService {
	s := &HealthService{
		Config:  cfg,
		Logger:  log,
		server:  grpc.NewServer(),
		health:  health.NewServer(),
		sources: make(map[string]bool),
	}

	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	for _, name := range sourceNames {
		s.sources[name] = true
		s.health.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return s
}

// -----------------------------------------------------------------------------

// ReportSource records the outcome of the last fetch from a source.
func (s *HealthService) ReportSource(name string, healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, known := s.sources[name]
	s.sources[name] = healthy
	if known && previous == healthy {
		return
	}

	s.health.SetServingStatus(name, servingStatus(healthy))
	if healthy {
		s.Logger.Info("Source %s is serving", name)
	} else {
		s.Logger.Warning("Source %s is not serving", name)
	}

	serving := false
	for _, ok := range s.sources {
		serving = serving || ok
	}
	s.health.SetServingStatus("", servingStatus(serving))
}

// -----------------------------------------------------------------------------

// Serve blocks on lis until Stop.
func (s *HealthService) Serve(lis net.Listener) error {
	s.Logger.Info("Starting gRPC health server on %s", lis.Addr())
	return s.server.Serve(lis)
}

// -----------------------------------------------------------------------------

// Start listens on grpc_host:grpc_port and serves.
func (s *HealthService) Start() error {
	port := s.Config.GrpcPort
	if port == 0 {
		port = DefaultPort
	}
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.Config.GrpcHost, port))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}
	return s.Serve(lis)
}

// -----------------------------------------------------------------------------

// Stop flips every status to NOT_SERVING and drains in-flight calls.
func (s *HealthService) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

func servingStatus(healthy bool) healthpb.HealthCheckResponse_ServingStatus {
	if healthy {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
