//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/window-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/window-alarm/internal/config"
	domain "github.com/oshokin/window-alarm/internal/domain/alarm"
)

// Client wraps the gRPC connection to the alarm control API.
type Client struct {
	// conn is the underlying gRPC connection to the alarm clock.
	conn *grpc.ClientConn

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// dialOptions are extra options passed to grpc.NewClient.
	dialOptions []grpc.DialOption
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithDialOptions appends gRPC dial options, e.g. a custom dialer.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) {
		c.dialOptions = append(c.dialOptions, opts...)
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial creates a client for the alarm clock at address.
// Note: this uses insecure transport credentials; the control API is meant
// for the local machine or a trusted network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	client := &Client{
		callTimeout: config.DefaultTimeout,
		dialOptions: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	conn, err := grpc.NewClient(address, client.dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial alarm clock: %w", err)
	}

	client.conn = conn

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetAlarm retrieves the configuration and runtime state.
func (c *Client) GetAlarm(ctx context.Context) (domain.Snapshot, error) {
	return c.call(ctx, "get alarm", api.MethodGetAlarm, new(emptypb.Empty))
}

// SetEnabled switches the alarm on or off.
func (c *Client) SetEnabled(ctx context.Context, enabled bool) (domain.Snapshot, error) {
	return c.call(ctx, "set enabled", api.MethodSetEnabled, wrapperspb.Bool(enabled))
}

// SetWindow changes the window bounds, in minutes after midnight.
func (c *Client) SetWindow(ctx context.Context, start, end int) (domain.Snapshot, error) {
	return c.call(ctx, "set window", api.MethodSetWindow, api.WindowRequest(start, end))
}

// SetInterval changes the firing interval in minutes.
func (c *Client) SetInterval(ctx context.Context, minutes uint32) (domain.Snapshot, error) {
	return c.call(ctx, "set interval", api.MethodSetInterval, wrapperspb.UInt32(minutes))
}

// Acknowledge silences a ringing alarm.
func (c *Client) Acknowledge(ctx context.Context) (domain.Snapshot, error) {
	return c.call(ctx, "acknowledge", api.MethodAcknowledge, new(emptypb.Empty))
}

func (c *Client) call(ctx context.Context, name, method string, in proto.Message) (domain.Snapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	out := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, method, in, out); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", name, err)
	}

	snapshot, err := api.FromStruct(out)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: decode response: %w", name, err)
	}

	return snapshot, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
