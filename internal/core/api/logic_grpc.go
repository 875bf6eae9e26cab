package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service descriptor for surveylogic.v1.LogicService.
//
// Messages are protobuf well-known types (Struct, Empty), so the service needs no
// generated code: any gRPC client can call it with google.protobuf.Struct payloads.

const (
	logicServiceName       = "surveylogic.v1.LogicService"
	LogicServiceUpdate     = "/" + logicServiceName + "/Update"
	LogicServiceGetState   = "/" + logicServiceName + "/GetState"
	LogicServiceSetMode    = "/" + logicServiceName + "/SetMode"
	LogicServiceLookupType = "/" + logicServiceName + "/LookupType"
)

// LogicServiceServer is the server API for the logic host bridge.
type LogicServiceServer interface {
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SetMode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LookupType(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterLogicServiceServer registers srv on s.
func RegisterLogicServiceServer(s grpc.ServiceRegistrar, srv LogicServiceServer) {
	s.RegisterService(&logicServiceDesc, srv)
}

var logicServiceDesc = grpc.ServiceDesc{
	ServiceName: logicServiceName,
	HandlerType: (*LogicServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Update", Handler: structHandler(LogicServiceUpdate, LogicServiceServer.Update)},
		{MethodName: "GetState", Handler: getStateHandler},
		{MethodName: "SetMode", Handler: structHandler(LogicServiceSetMode, LogicServiceServer.SetMode)},
		{MethodName: "LookupType", Handler: structHandler(LogicServiceLookupType, LogicServiceServer.LookupType)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "surveylogic/v1/logic.proto",
}

type structMethod func(LogicServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// structHandler adapts a Struct-in/Struct-out method to a grpc.MethodDesc handler.
func structHandler(fullMethod string, method structMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(LogicServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return method(srv.(LogicServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func getStateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LogicServiceServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LogicServiceGetState}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LogicServiceServer).GetState(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
