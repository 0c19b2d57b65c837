package irrigation

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "irrigation.v1.ControllerService"

// Full method names.
const (
	GetSnapshotMethod      = "/" + ServiceName + "/GetSnapshot"
	ToggleDeviceMethod     = "/" + ServiceName + "/ToggleDevice"
	UpdateScheduleMethod   = "/" + ServiceName + "/UpdateSchedule"
	ToggleManualModeMethod = "/" + ServiceName + "/ToggleManualMode"
	SyncClockMethod        = "/" + ServiceName + "/SyncClock"
)

// ControllerServer is the server API of the controller service.
type ControllerServer interface {
	GetSnapshot(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ToggleDevice(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
	UpdateSchedule(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	ToggleManualMode(ctx context.Context, req *emptypb.Empty) (*wrapperspb.BoolValue, error)
	SyncClock(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int64Value, error)
}

// ServiceDesc describes the controller service for grpc.Server registration.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControllerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSnapshot",
			Handler: unaryHandler(GetSnapshotMethod, newEmpty,
				func(s ControllerServer, ctx context.Context, req *emptypb.Empty) (proto.Message, error) {
					return s.GetSnapshot(ctx, req)
				}),
		},
		{
			MethodName: "ToggleDevice",
			Handler: unaryHandler(ToggleDeviceMethod, newStringValue,
				func(s ControllerServer, ctx context.Context, req *wrapperspb.StringValue) (proto.Message, error) {
					return s.ToggleDevice(ctx, req)
				}),
		},
		{
			MethodName: "UpdateSchedule",
			Handler: unaryHandler(UpdateScheduleMethod, newStruct,
				func(s ControllerServer, ctx context.Context, req *structpb.Struct) (proto.Message, error) {
					return s.UpdateSchedule(ctx, req)
				}),
		},
		{
			MethodName: "ToggleManualMode",
			Handler: unaryHandler(ToggleManualModeMethod, newEmpty,
				func(s ControllerServer, ctx context.Context, req *emptypb.Empty) (proto.Message, error) {
					return s.ToggleManualMode(ctx, req)
				}),
		},
		{
			MethodName: "SyncClock",
			Handler: unaryHandler(SyncClockMethod, newInt64Value,
				func(s ControllerServer, ctx context.Context, req *wrapperspb.Int64Value) (proto.Message, error) {
					return s.SyncClock(ctx, req)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "irrigation/v1/controller.proto",
}

// RegisterControllerServer registers srv on registrar.
func RegisterControllerServer(registrar grpc.ServiceRegistrar, srv ControllerServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

func newEmpty() *emptypb.Empty                 { return new(emptypb.Empty) }
func newStringValue() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }
func newStruct() *structpb.Struct             { return new(structpb.Struct) }
func newInt64Value() *wrapperspb.Int64Value   { return new(wrapperspb.Int64Value) }

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Req proto.Message](
	fullMethod string,
	newRequest func() Req,
	call func(ControllerServer, context.Context, Req) (proto.Message, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newRequest()
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(ControllerServer)

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(Req)
			return call(server, ctx, typed)
		}

		return interceptor(ctx, in, info, handler)
	}
}

// ControllerClient is the client API of the controller service.
type ControllerClient interface {
	GetSnapshot(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	ToggleDevice(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	UpdateSchedule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ToggleManualMode(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	SyncClock(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
}

type controllerClient struct {
	cc grpc.ClientConnInterface
}

// NewControllerClient returns a client stub over cc.
func NewControllerClient(cc grpc.ClientConnInterface) ControllerClient {
	return &controllerClient{cc: cc}
}

func (c *controllerClient) GetSnapshot(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetSnapshotMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *controllerClient) ToggleDevice(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, ToggleDeviceMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *controllerClient) UpdateSchedule(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, UpdateScheduleMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *controllerClient) ToggleManualMode(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, ToggleManualModeMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *controllerClient) SyncClock(
	ctx context.Context,
	in *wrapperspb.Int64Value,
	opts ...grpc.CallOption,
) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, SyncClockMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
