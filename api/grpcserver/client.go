package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls matchbook.v1.OrderService with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *Client) PlaceOrder(ctx context.Context, in *PlaceOrderRequest, opts ...grpc.CallOption) (*ExecutionReply, error) {
	out := new(ExecutionReply)
	if err := c.invoke(ctx, "PlaceOrder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CancelOrder(ctx context.Context, in *CancelOrderRequest, opts ...grpc.CallOption) (*ExecutionReply, error) {
	out := new(ExecutionReply)
	if err := c.invoke(ctx, "CancelOrder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ModifyOrder(ctx context.Context, in *ModifyOrderRequest, opts ...grpc.CallOption) (*ExecutionReply, error) {
	out := new(ExecutionReply)
	if err := c.invoke(ctx, "ModifyOrder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*OrderReply, error) {
	out := new(OrderReply)
	if err := c.invoke(ctx, "GetOrder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBook(ctx context.Context, in *GetBookRequest, opts ...grpc.CallOption) (*BookReply, error) {
	out := new(BookReply)
	if err := c.invoke(ctx, "GetBook", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
