package alarm

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/window-alarm/internal/domain/alarm"
	"github.com/oshokin/window-alarm/internal/logger"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Snapshot() domain.Snapshot
	SetEnabled(ctx context.Context, enabled bool) (domain.Snapshot, error)
	SetWindow(ctx context.Context, start, end int) (domain.Snapshot, error)
	SetInterval(ctx context.Context, minutes int) (domain.Snapshot, error)
	Acknowledge(ctx context.Context) domain.Snapshot
}

// Server implements the AlarmService gRPC API.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetAlarm returns the configuration and runtime state.
func (s *Server) GetAlarm(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return ToStruct(s.service.Snapshot()), nil
}

// SetEnabled switches the alarm on or off.
func (s *Server) SetEnabled(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	snapshot, err := s.service.SetEnabled(ctx, req.GetValue())
	if err != nil {
		return nil, persistError(ctx, err)
	}

	return ToStruct(snapshot), nil
}

// SetWindow changes the window bounds.
func (s *Server) SetWindow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	window, err := windowFromRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	snapshot, err := s.service.SetWindow(ctx, window.Start, window.End)
	if err != nil {
		return nil, persistError(ctx, err)
	}

	return ToStruct(snapshot), nil
}

// SetInterval changes the firing interval; out-of-range values are clamped.
func (s *Server) SetInterval(ctx context.Context, req *wrapperspb.UInt32Value) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	minutes := int(min(req.GetValue(), uint32(domain.MinutesPerDay)))

	snapshot, err := s.service.SetInterval(ctx, minutes)
	if err != nil {
		return nil, persistError(ctx, err)
	}

	return ToStruct(snapshot), nil
}

// Acknowledge silences a ringing alarm.
func (s *Server) Acknowledge(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return ToStruct(s.service.Acknowledge(ctx)), nil
}

func persistError(ctx context.Context, err error) error {
	logger.ErrorKV(ctx, "Failed to persist alarm configuration", "error", err)

	return status.Error(codes.Internal, "unable to persist configuration")
}
