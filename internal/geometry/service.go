package geometry

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region server
// GeometryServer is the server side of the geometry service.
type GeometryServer interface {
	AlignableFromLabel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resolve(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type sourceServer struct {
	src Source
}

// NewServer exposes a Source (usually a Static table) as a GeometryServer.
func NewServer(src Source) GeometryServer {
	return &sourceServer{src: src}
}

func (s *sourceServer) AlignableFromLabel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	label := uint64(req.GetFields()["label"].GetNumberValue())
	a, ok, err := s.src.AlignableFromLabel(ctx, label)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "label %d: %v", label, err)
	}
	if !ok {
		return nil, status.Errorf(codes.NotFound, "label %d not in geometry", label)
	}
	return structpb.NewStruct(map[string]any{"id": a.ID, "type": a.Type.String()})
}

func (s *sourceServer) Resolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := uint32(req.GetFields()["id"].GetNumberValue())
	attrs, err := s.src.Resolve(ctx, id)
	if errors.Is(err, ErrUnknownElement) {
		return nil, status.Errorf(codes.NotFound, "id %d not in geometry", id)
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "id %d: %v", id, err)
	}
	return structpb.NewStruct(attributesToFields(attrs))
}

// #endregion server

// #region registration
func unaryHandler(call func(GeometryServer, context.Context, *structpb.Struct) (*structpb.Struct, error), fullMethod string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := &structpb.Struct{}
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GeometryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GeometryServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the geometry service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*GeometryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AlignableFromLabel",
			Handler:    unaryHandler(GeometryServer.AlignableFromLabel, methodAlignableFromLabel),
		},
		{
			MethodName: "Resolve",
			Handler:    unaryHandler(GeometryServer.Resolve, methodResolve),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pclgate/geometry/v1/geometry.proto",
}

// RegisterServer attaches srv to s.
func RegisterServer(s grpc.ServiceRegistrar, srv GeometryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// #endregion registration
