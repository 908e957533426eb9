package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "matchbook.v1.OrderService"

// OrderServiceServer is the server side of matchbook.v1.OrderService.
type OrderServiceServer interface {
	PlaceOrder(context.Context, *PlaceOrderRequest) (*ExecutionReply, error)
	CancelOrder(context.Context, *CancelOrderRequest) (*ExecutionReply, error)
	ModifyOrder(context.Context, *ModifyOrderRequest) (*ExecutionReply, error)
	GetOrder(context.Context, *GetOrderRequest) (*OrderReply, error)
	GetBook(context.Context, *GetBookRequest) (*BookReply, error)
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: unary("PlaceOrder", OrderServiceServer.PlaceOrder)},
		{MethodName: "CancelOrder", Handler: unary("CancelOrder", OrderServiceServer.CancelOrder)},
		{MethodName: "ModifyOrder", Handler: unary("ModifyOrder", OrderServiceServer.ModifyOrder)},
		{MethodName: "GetOrder", Handler: unary("GetOrder", OrderServiceServer.GetOrder)},
		{MethodName: "GetBook", Handler: unary("GetBook", OrderServiceServer.GetBook)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "matchbook/v1/order_service",
}

// unary builds the method handler protoc-gen-go-grpc would generate
// for one RPC.
func unary[Req, Resp any](
	method string,
	call func(OrderServiceServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrderServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
