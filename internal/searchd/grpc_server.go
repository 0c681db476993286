package searchd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoSim-25-26J-441/replay-search/internal/engine"
	"github.com/GoSim-25-26J-441/replay-search/internal/predicate"
	"github.com/GoSim-25-26J-441/replay-search/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Callbacks is what the SearchClient service drives. *engine.Controller implements it.
type Callbacks interface {
	OnRegistered(ctx context.Context, serverName string) error
	OnSimulationBegin(ctx context.Context) error
	OnSimulationStep(ctx context.Context, t int64) error
	OnCheckpointCountChanged(ctx context.Context, current, target int) error
	Status() engine.Status
}

var _ Callbacks = (*engine.Controller)(nil)

// SearchGRPCServer serves the host's callbacks. The first fatal error is published on
// Fatal so the process can terminate.
type SearchGRPCServer struct {
	cb  Callbacks
	log *slog.Logger

	once  sync.Once
	fatal chan error
}

// NewSearchGRPCServer wraps cb
func NewSearchGRPCServer(cb Callbacks, log *slog.Logger) *SearchGRPCServer {
	if log == nil {
		log = logger.Default
	}
	return &SearchGRPCServer{cb: cb, log: log, fatal: make(chan error, 1)}
}

// Fatal yields the first error that ended the search
func (s *SearchGRPCServer) Fatal() <-chan error {
	return s.fatal
}

func (s *SearchGRPCServer) OnRegistered(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return s.result("on registered", s.cb.OnRegistered(ctx, in.GetValue()))
}

func (s *SearchGRPCServer) OnSimulationBegin(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	return s.result("on simulation begin", s.cb.OnSimulationBegin(ctx))
}

func (s *SearchGRPCServer) OnSimulationStep(ctx context.Context, in *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	return s.result("on simulation step", s.cb.OnSimulationStep(ctx, in.GetValue()))
}

func (s *SearchGRPCServer) OnCheckpointCountChanged(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	current, target, err := structToCheckpoint(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return s.result("on checkpoint count changed", s.cb.OnCheckpointCountChanged(ctx, current, target))
}

func (s *SearchGRPCServer) GetStatus(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := statusToStruct(s.cb.Status())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return out, nil
}

func (s *SearchGRPCServer) result(op string, err error) (*emptypb.Empty, error) {
	if err == nil {
		return &emptypb.Empty{}, nil
	}
	if errors.Is(err, engine.ErrNotStarted) {
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	s.log.Error("search failed", "op", op, "error", err)
	s.once.Do(func() {
		s.fatal <- fmt.Errorf("%s: %w", op, err)
	})
	code := codes.Internal
	switch {
	case errors.Is(err, engine.ErrHost):
		code = codes.Unavailable
	case errors.Is(err, predicate.ErrPredicate):
		code = codes.InvalidArgument
	}
	return nil, status.Error(code, err.Error())
}

type searchService interface {
	OnRegistered(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	OnSimulationBegin(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	OnSimulationStep(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
	OnCheckpointCountChanged(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func asSearch(srv any) searchService { return srv.(searchService) }

var searchServiceDesc = grpc.ServiceDesc{
	ServiceName: clientServiceName,
	HandlerType: (*searchService)(nil),
	Methods: []grpc.MethodDesc{
		unary(clientServiceName, "OnRegistered", newString, func(ctx context.Context, srv any, in *wrapperspb.StringValue) (proto.Message, error) {
			return asSearch(srv).OnRegistered(ctx, in)
		}),
		unary(clientServiceName, "OnSimulationBegin", newEmpty, func(ctx context.Context, srv any, in *emptypb.Empty) (proto.Message, error) {
			return asSearch(srv).OnSimulationBegin(ctx, in)
		}),
		unary(clientServiceName, "OnSimulationStep", newInt64, func(ctx context.Context, srv any, in *wrapperspb.Int64Value) (proto.Message, error) {
			return asSearch(srv).OnSimulationStep(ctx, in)
		}),
		unary(clientServiceName, "OnCheckpointCountChanged", newStruct, func(ctx context.Context, srv any, in *structpb.Struct) (proto.Message, error) {
			return asSearch(srv).OnCheckpointCountChanged(ctx, in)
		}),
		unary(clientServiceName, "GetStatus", newEmpty, func(ctx context.Context, srv any, in *emptypb.Empty) (proto.Message, error) {
			return asSearch(srv).GetStatus(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "replaysearch/v1/search.proto",
}

// RegisterSearchClientServer exposes srv as the SearchClient service
func RegisterSearchClientServer(s grpc.ServiceRegistrar, srv *SearchGRPCServer) {
	s.RegisterService(&searchServiceDesc, srv)
}

// CallbackClient delivers host callbacks to a remote SearchClient service
type CallbackClient struct {
	conn grpc.ClientConnInterface
}

// NewCallbackClient creates a callback client over conn
func NewCallbackClient(conn grpc.ClientConnInterface) *CallbackClient {
	return &CallbackClient{conn: conn}
}

func (c *CallbackClient) OnRegistered(ctx context.Context, serverName string) error {
	return c.conn.Invoke(ctx, clientMethod("OnRegistered"), wrapperspb.String(serverName), &emptypb.Empty{})
}

func (c *CallbackClient) OnSimulationBegin(ctx context.Context) error {
	return c.conn.Invoke(ctx, clientMethod("OnSimulationBegin"), &emptypb.Empty{}, &emptypb.Empty{})
}

func (c *CallbackClient) OnSimulationStep(ctx context.Context, t int64) error {
	return c.conn.Invoke(ctx, clientMethod("OnSimulationStep"), wrapperspb.Int64(t), &emptypb.Empty{})
}

func (c *CallbackClient) OnCheckpointCountChanged(ctx context.Context, current, target int) error {
	in, err := checkpointToStruct(current, target)
	if err != nil {
		return err
	}
	return c.conn.Invoke(ctx, clientMethod("OnCheckpointCountChanged"), in, &emptypb.Empty{})
}

// Status fetches the remote controller's progress
func (c *CallbackClient) Status(ctx context.Context) (engine.Status, error) {
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, clientMethod("GetStatus"), &emptypb.Empty{}, out); err != nil {
		return engine.Status{}, err
	}
	return structToStatus(out)
}

// The status crosses the wire as a JSON-shaped struct. encoding/json re-renders the
// float64 numbers in plain notation so integer fields decode back.

func statusToStruct(st engine.Status) (*structpb.Struct, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func structToStatus(s *structpb.Struct) (engine.Status, error) {
	var st engine.Status
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("%w: status: %v", ErrMalformed, err)
	}
	return st, nil
}
