package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "windowalarm.v1.AlarmService"

// Full method names.
const (
	MethodGetAlarm    = "/" + ServiceName + "/GetAlarm"
	MethodSetEnabled  = "/" + ServiceName + "/SetEnabled"
	MethodSetWindow   = "/" + ServiceName + "/SetWindow"
	MethodSetInterval = "/" + ServiceName + "/SetInterval"
	MethodAcknowledge = "/" + ServiceName + "/Acknowledge"
)

// AlarmServiceServer is the server API of the alarm control service.
type AlarmServiceServer interface {
	GetAlarm(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	SetEnabled(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error)
	SetWindow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetInterval(ctx context.Context, req *wrapperspb.UInt32Value) (*structpb.Struct, error)
	Acknowledge(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterAlarmServiceServer registers srv on registrar.
func RegisterAlarmServiceServer(registrar grpc.ServiceRegistrar, srv AlarmServiceServer) {
	registrar.RegisterService(&serviceDesc, srv)
}

//nolint:gochecknoglobals // gRPC requires a descriptor value for registration.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetAlarm", Handler: unaryHandler(MethodGetAlarm, AlarmServiceServer.GetAlarm)},
		{MethodName: "SetEnabled", Handler: unaryHandler(MethodSetEnabled, AlarmServiceServer.SetEnabled)},
		{MethodName: "SetWindow", Handler: unaryHandler(MethodSetWindow, AlarmServiceServer.SetWindow)},
		{MethodName: "SetInterval", Handler: unaryHandler(MethodSetInterval, AlarmServiceServer.SetInterval)},
		{MethodName: "Acknowledge", Handler: unaryHandler(MethodAcknowledge, AlarmServiceServer.Acknowledge)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "windowalarm/v1/alarm.proto",
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Req any, PReq interface{ *Req }](
	fullMethod string,
	call func(AlarmServiceServer, context.Context, PReq) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(AlarmServiceServer)

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(PReq)

			return call(server, ctx, typed)
		}

		return interceptor(ctx, in, info, handler)
	}
}
