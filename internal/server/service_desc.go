package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// TriageServiceName is the fully qualified gRPC service name.
const TriageServiceName = "fnol.v1.TriageService"

const (
	TriageService_Triage_FullMethodName      = "/fnol.v1.TriageService/Triage"
	TriageService_TriageFile_FullMethodName  = "/fnol.v1.TriageService/TriageFile"
	TriageService_GetResult_FullMethodName   = "/fnol.v1.TriageService/GetResult"
	TriageService_ListResults_FullMethodName = "/fnol.v1.TriageService/ListResults"
)

// TriageServiceServer is the server API. Requests and responses are free-form
// structs so no generated message code is needed.
type TriageServiceServer interface {
	Triage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TriageFile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetResult(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListResults(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterTriageServiceServer(s grpc.ServiceRegistrar, srv TriageServiceServer) {
	s.RegisterService(&TriageService_ServiceDesc, srv)
}

type unaryCall func(TriageServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TriageServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TriageServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var TriageService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: TriageServiceName,
	HandlerType: (*TriageServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Triage", Handler: unaryHandler(TriageService_Triage_FullMethodName, TriageServiceServer.Triage)},
		{MethodName: "TriageFile", Handler: unaryHandler(TriageService_TriageFile_FullMethodName, TriageServiceServer.TriageFile)},
		{MethodName: "GetResult", Handler: unaryHandler(TriageService_GetResult_FullMethodName, TriageServiceServer.GetResult)},
		{MethodName: "ListResults", Handler: unaryHandler(TriageService_ListResults_FullMethodName, TriageServiceServer.ListResults)},
	},
	Streams: []grpc.StreamDesc{},
}

// TriageServiceClient is the client API for TriageService.
type TriageServiceClient interface {
	Triage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	TriageFile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetResult(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListResults(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type triageServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTriageServiceClient(cc grpc.ClientConnInterface) TriageServiceClient {
	return &triageServiceClient{cc}
}

func (c *triageServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *triageServiceClient) Triage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, TriageService_Triage_FullMethodName, in, opts...)
}

func (c *triageServiceClient) TriageFile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, TriageService_TriageFile_FullMethodName, in, opts...)
}

func (c *triageServiceClient) GetResult(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, TriageService_GetResult_FullMethodName, in, opts...)
}

func (c *triageServiceClient) ListResults(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, TriageService_ListResults_FullMethodName, in, opts...)
}
