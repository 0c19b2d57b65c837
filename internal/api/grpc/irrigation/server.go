package irrigation

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/irrigation/internal/domain/irrigation"
)

// Controller abstracts the business operations the transport layer depends on.
type Controller interface {
	Snapshot() domain.Snapshot
	ToggleDevice(ctx context.Context, name string) error
	UpdateSchedule(ctx context.Context, name string, startOffsetSeconds, durationSeconds uint32) error
	ToggleManualMode(ctx context.Context) bool
	SyncClock(ctx context.Context, clientEpochSeconds int64) int64
}

var _ ControllerServer = (*Server)(nil)

// Server implements ControllerServer on top of a Controller.
type Server struct {
	// controller provides the business logic.
	controller Controller
}

// NewServer wires the provided controller into a gRPC handler.
func NewServer(controller Controller) *Server {
	return &Server{
		controller: controller,
	}
}

// GetSnapshot returns the controller state.
func (s *Server) GetSnapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return SnapshotToStruct(s.controller.Snapshot()), nil
}

// ToggleDevice inverts the named valve.
func (s *Server) ToggleDevice(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "device name is required")
	}

	if err := s.controller.ToggleDevice(ctx, req.GetValue()); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// UpdateSchedule replaces the window of the named valve.
func (s *Server) UpdateSchedule(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	name, start, duration, err := parseScheduleRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err = s.controller.UpdateSchedule(ctx, name, start, duration); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// ToggleManualMode flips the operating mode and reports whether manual mode is now on.
func (s *Server) ToggleManualMode(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.controller.ToggleManualMode(ctx)), nil
}

// SyncClock sets the clock from a client epoch and returns the new offset.
func (s *Server) SyncClock(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int64Value, error) {
	return wrapperspb.Int64(s.controller.SyncClock(ctx, req.GetValue())), nil
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}

	return status.Error(codes.Internal, err.Error())
}
