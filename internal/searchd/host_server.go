package searchd

import (
	"context"
	"errors"

	"github.com/GoSim-25-26J-441/replay-search/internal/engine"
	"github.com/GoSim-25-26J-441/replay-search/internal/hostsim"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// hostServer serves the SimulationHost service on top of any engine.Host
type hostServer struct {
	host engine.Host
}

func newEmpty() *emptypb.Empty           { return &emptypb.Empty{} }
func newStruct() *structpb.Struct        { return &structpb.Struct{} }
func newInt64() *wrapperspb.Int64Value   { return &wrapperspb.Int64Value{} }
func newString() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }

func asHost(srv any) *hostServer { return srv.(*hostServer) }

var hostServiceDesc = grpc.ServiceDesc{
	ServiceName: hostServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		unary(hostServiceName, "RemoveStateValidation", newEmpty, func(ctx context.Context, srv any, _ *emptypb.Empty) (proto.Message, error) {
			return emptyResult(asHost(srv).host.RemoveStateValidation(ctx))
		}),
		unary(hostServiceName, "GetEventBuffer", newEmpty, func(ctx context.Context, srv any, _ *emptypb.Empty) (proto.Message, error) {
			buf, err := asHost(srv).host.EventBuffer(ctx)
			if err != nil {
				return nil, hostStatus(err)
			}
			out, err := bufferToStruct(buf)
			if err != nil {
				return nil, status.Errorf(codes.Internal, "encode event buffer: %v", err)
			}
			return out, nil
		}),
		unary(hostServiceName, "SetEventBuffer", newStruct, func(ctx context.Context, srv any, in *structpb.Struct) (proto.Message, error) {
			buf, err := structToBuffer(in)
			if err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			return emptyResult(asHost(srv).host.SetEventBuffer(ctx, buf))
		}),
		unary(hostServiceName, "GetSimulationState", newEmpty, func(ctx context.Context, srv any, _ *emptypb.Empty) (proto.Message, error) {
			state, err := asHost(srv).host.SimulationState(ctx)
			if err != nil {
				return nil, hostStatus(err)
			}
			out, err := stateToStruct(state)
			if err != nil {
				return nil, status.Errorf(codes.Internal, "encode state: %v", err)
			}
			return out, nil
		}),
		unary(hostServiceName, "SetSimulationTimeLimit", newInt64, func(ctx context.Context, srv any, in *wrapperspb.Int64Value) (proto.Message, error) {
			return emptyResult(asHost(srv).host.SetSimulationTimeLimit(ctx, in.GetValue()))
		}),
		unary(hostServiceName, "RewindToState", newStruct, func(ctx context.Context, srv any, in *structpb.Struct) (proto.Message, error) {
			state, err := structToState(in)
			if err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			return emptyResult(asHost(srv).host.RewindToState(ctx, state))
		}),
		unary(hostServiceName, "PreventSimulationFinish", newEmpty, func(ctx context.Context, srv any, _ *emptypb.Empty) (proto.Message, error) {
			return emptyResult(asHost(srv).host.PreventSimulationFinish(ctx))
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "replaysearch/v1/host.proto",
}

// RegisterSimulationHostServer exposes host as the SimulationHost service
func RegisterSimulationHostServer(s grpc.ServiceRegistrar, host engine.Host) {
	s.RegisterService(&hostServiceDesc, &hostServer{host: host})
}

func emptyResult(err error) (proto.Message, error) {
	if err != nil {
		return nil, hostStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func hostStatus(err error) error {
	switch {
	case errors.Is(err, hostsim.ErrInvalidSnapshot), errors.Is(err, ErrMalformed):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, hostsim.ErrStateValidation):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, hostsim.ErrFinished):
		return status.Error(codes.OutOfRange, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
