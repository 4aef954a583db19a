package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "capture.v1.CaptureService"

const (
	MethodProcessCapture  = "ProcessCapture"
	MethodGetContent      = "GetContent"
	MethodListContent     = "ListContent"
	MethodSearchContent   = "SearchContent"
	MethodToggleFavorite  = "ToggleFavorite"
	MethodEditContent     = "EditContent"
	MethodDeleteContent   = "DeleteContent"
	MethodReprocess       = "Reprocess"
	MethodListTasks       = "ListTasks"
	MethodToggleTask      = "ToggleTask"
	MethodIngestFile      = "IngestFile"
	MethodIngestDirectory = "IngestDirectory"
	MethodExportXLSX      = "ExportXLSX"
	MethodHealth          = "Health"
)

// CaptureServiceServer is the server API. Every method exchanges google.protobuf.Struct
// messages so no generated stubs are needed.
type CaptureServiceServer interface {
	ProcessCapture(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleFavorite(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reprocess(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTasks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestFile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestDirectory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportXLSX(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Health(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(CaptureServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func handler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CaptureServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(CaptureServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes CaptureService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CaptureServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		handler(MethodProcessCapture, CaptureServiceServer.ProcessCapture),
		handler(MethodGetContent, CaptureServiceServer.GetContent),
		handler(MethodListContent, CaptureServiceServer.ListContent),
		handler(MethodSearchContent, CaptureServiceServer.SearchContent),
		handler(MethodToggleFavorite, CaptureServiceServer.ToggleFavorite),
		handler(MethodEditContent, CaptureServiceServer.EditContent),
		handler(MethodDeleteContent, CaptureServiceServer.DeleteContent),
		handler(MethodReprocess, CaptureServiceServer.Reprocess),
		handler(MethodListTasks, CaptureServiceServer.ListTasks),
		handler(MethodToggleTask, CaptureServiceServer.ToggleTask),
		handler(MethodIngestFile, CaptureServiceServer.IngestFile),
		handler(MethodIngestDirectory, CaptureServiceServer.IngestDirectory),
		handler(MethodExportXLSX, CaptureServiceServer.ExportXLSX),
		handler(MethodHealth, CaptureServiceServer.Health),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "capture/v1/capture.proto",
}

func RegisterCaptureServiceServer(s grpc.ServiceRegistrar, srv CaptureServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls CaptureService over any connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req. A nil req sends an empty struct.
func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Caller is satisfied by both Client and LocalClient.
type Caller interface {
	Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// LocalClient dispatches calls to an in-process server through the same
// method table and interceptor a grpc.Server would use.
type LocalClient struct {
	srv         CaptureServiceServer
	interceptor grpc.UnaryServerInterceptor
	methods     map[string]grpc.MethodDesc
}

func NewLocalClient(srv CaptureServiceServer, interceptor grpc.UnaryServerInterceptor) *LocalClient {
	m := make(map[string]grpc.MethodDesc, len(ServiceDesc.Methods))
	for _, md := range ServiceDesc.Methods {
		m[md.MethodName] = md
	}
	return &LocalClient{srv: srv, interceptor: interceptor, methods: m}
}

func (c *LocalClient) Call(ctx context.Context, method string, req map[string]any, _ ...grpc.CallOption) (*structpb.Struct, error) {
	md, ok := c.methods[method]
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "unknown method %s", method)
	}
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode request: %v", err)
	}
	dec := func(v any) error {
		proto.Merge(v.(*structpb.Struct), in)
		return nil
	}
	out, err := md.Handler(c.srv, ctx, dec, c.interceptor)
	if err != nil {
		return nil, err
	}
	return out.(*structpb.Struct), nil
}
