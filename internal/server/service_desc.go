package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Messages are well-known types, so the service needs no generated code.
// The descriptor below follows what protoc-gen-go-grpc emits.

const (
	ReviewServiceName = "rxintake.v1.ReviewService"

	ReviewService_Enqueue_FullMethodName       = "/rxintake.v1.ReviewService/Enqueue"
	ReviewService_ListPending_FullMethodName   = "/rxintake.v1.ReviewService/ListPending"
	ReviewService_Approve_FullMethodName       = "/rxintake.v1.ReviewService/Approve"
	ReviewService_ProcessIntake_FullMethodName = "/rxintake.v1.ReviewService/ProcessIntake"
	ReviewService_ExportPending_FullMethodName = "/rxintake.v1.ReviewService/ExportPending"
)

// ReviewServiceServer is the server API for the review service.
type ReviewServiceServer interface {
	// Enqueue takes {"record": ValidatedRecord} and returns {"review_id"}.
	Enqueue(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListPending returns {"items": [ReviewItem]} in enqueue order.
	ListPending(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Approve takes {"review_id", "corrections"} and returns {"item": ReviewItem}.
	Approve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ProcessIntake takes {"path"} and returns the record and where it was routed.
	ProcessIntake(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ExportPending returns the pending queue as an XLSX workbook.
	ExportPending(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
}

func RegisterReviewServiceServer(s grpc.ServiceRegistrar, srv ReviewServiceServer) {
	s.RegisterService(&ReviewService_ServiceDesc, srv)
}

func _ReviewService_Enqueue_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReviewServiceServer).Enqueue(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ReviewService_Enqueue_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReviewServiceServer).Enqueue(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ReviewService_ListPending_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReviewServiceServer).ListPending(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ReviewService_ListPending_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReviewServiceServer).ListPending(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ReviewService_Approve_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReviewServiceServer).Approve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ReviewService_Approve_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReviewServiceServer).Approve(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ReviewService_ProcessIntake_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReviewServiceServer).ProcessIntake(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ReviewService_ProcessIntake_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReviewServiceServer).ProcessIntake(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ReviewService_ExportPending_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReviewServiceServer).ExportPending(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ReviewService_ExportPending_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReviewServiceServer).ExportPending(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var ReviewService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ReviewServiceName,
	HandlerType: (*ReviewServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Enqueue", Handler: _ReviewService_Enqueue_Handler},
		{MethodName: "ListPending", Handler: _ReviewService_ListPending_Handler},
		{MethodName: "Approve", Handler: _ReviewService_Approve_Handler},
		{MethodName: "ProcessIntake", Handler: _ReviewService_ProcessIntake_Handler},
		{MethodName: "ExportPending", Handler: _ReviewService_ExportPending_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rxintake/v1/review.proto",
}

// ReviewServiceClient is the client API for the review service.
type ReviewServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewReviewServiceClient(cc grpc.ClientConnInterface) *ReviewServiceClient {
	return &ReviewServiceClient{cc: cc}
}

func (c *ReviewServiceClient) Enqueue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ReviewService_Enqueue_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReviewServiceClient) ListPending(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ReviewService_ListPending_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReviewServiceClient) Approve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ReviewService_Approve_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReviewServiceClient) ProcessIntake(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ReviewService_ProcessIntake_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReviewServiceClient) ExportPending(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, ReviewService_ExportPending_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
