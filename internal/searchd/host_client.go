// Package searchd exposes the search controller over gRPC and HTTP. The simulation
// host is reached through the SimulationHost service and calls back into the
// SearchClient service.
package searchd

import (
	"context"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/replay-search/internal/engine"
	"github.com/GoSim-25-26J-441/replay-search/internal/policy"
	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	hostServiceName   = "replaysearch.v1.SimulationHost"
	clientServiceName = "replaysearch.v1.SearchClient"
)

// DefaultCallTimeout bounds a single host call when HostClient.Timeout is unset
const DefaultCallTimeout = 5 * time.Second

func hostMethod(name string) string {
	return "/" + hostServiceName + "/" + name
}

func clientMethod(name string) string {
	return "/" + clientServiceName + "/" + name
}

// HostClient implements engine.Host against a remote SimulationHost service. Every
// host operation is idempotent, so a call that found the host unavailable may be
// retried under Retry.
type HostClient struct {
	conn    grpc.ClientConnInterface
	Timeout time.Duration
	Retry   policy.RetryPolicy
}

var _ engine.Host = (*HostClient)(nil)

// NewHostClient creates a host client over conn
func NewHostClient(conn grpc.ClientConnInterface) *HostClient {
	return &HostClient{conn: conn, Timeout: DefaultCallTimeout}
}

// Unavailable reports whether err means the host could not be reached
func Unavailable(err error) bool {
	return status.Code(err) == codes.Unavailable
}

func (c *HostClient) invoke(ctx context.Context, method string, in, out any) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return policy.Do(ctx, c.Retry, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return c.conn.Invoke(ctx, hostMethod(method), in, out)
	})
}

func (c *HostClient) RemoveStateValidation(ctx context.Context) error {
	return c.invoke(ctx, "RemoveStateValidation", &emptypb.Empty{}, &emptypb.Empty{})
}

func (c *HostClient) EventBuffer(ctx context.Context) (*models.EventBuffer, error) {
	out := &structpb.Struct{}
	if err := c.invoke(ctx, "GetEventBuffer", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return structToBuffer(out)
}

func (c *HostClient) SetEventBuffer(ctx context.Context, buf *models.EventBuffer) error {
	in, err := bufferToStruct(buf)
	if err != nil {
		return fmt.Errorf("encode event buffer: %w", err)
	}
	return c.invoke(ctx, "SetEventBuffer", in, &emptypb.Empty{})
}

func (c *HostClient) SimulationState(ctx context.Context) (*models.SimulationState, error) {
	out := &structpb.Struct{}
	if err := c.invoke(ctx, "GetSimulationState", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return structToState(out)
}

func (c *HostClient) SetSimulationTimeLimit(ctx context.Context, t int64) error {
	return c.invoke(ctx, "SetSimulationTimeLimit", wrapperspb.Int64(t), &emptypb.Empty{})
}

func (c *HostClient) RewindToState(ctx context.Context, state *models.SimulationState) error {
	if state == nil {
		return fmt.Errorf("%w: rewind state is nil", ErrMalformed)
	}
	in, err := stateToStruct(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return c.invoke(ctx, "RewindToState", in, &emptypb.Empty{})
}

func (c *HostClient) PreventSimulationFinish(ctx context.Context) error {
	return c.invoke(ctx, "PreventSimulationFinish", &emptypb.Empty{}, &emptypb.Empty{})
}
