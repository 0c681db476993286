package searchd

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
)

// unary builds a method descriptor the way generated service code does: decode into a
// fresh request, then run the handler directly or through the server's interceptor.
func unary[Req proto.Message](service, name string, newReq func() Req, call func(ctx context.Context, srv any, req Req) (proto.Message, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, srv, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(ctx, srv, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
