//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/irrigation/internal/api/grpc/irrigation"
	"github.com/oshokin/irrigation/internal/config"
	domain "github.com/oshokin/irrigation/internal/domain/irrigation"
)

// Client wraps the irrigation gRPC client with timeouts and actor metadata.
type Client struct {
	// conn is the underlying gRPC connection to the irrigation server.
	conn *grpc.ClientConn
	// api is the ControllerService client.
	api api.ControllerClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor is attached to every call when set.
	actor Actor
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

// WithActor identifies the caller to the server.
func WithActor(actor Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial creates a client for the irrigation server. The connection is lazy.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial irrigation server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewControllerClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Snapshot retrieves the controller state.
func (c *Client) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetSnapshot(callCtx, new(emptypb.Empty))
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	snapshot, err := api.SnapshotFromStruct(resp)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	return snapshot, nil
}

// ToggleDevice inverts the named valve.
func (c *Client) ToggleDevice(ctx context.Context, name string) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.ToggleDevice(callCtx, wrapperspb.String(name)); err != nil {
		return fmt.Errorf("toggle device %q: %w", name, err)
	}

	return nil
}

// UpdateSchedule replaces the daily window of the named valve.
func (c *Client) UpdateSchedule(ctx context.Context, name string, startOffsetSeconds, durationSeconds uint32) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request := api.ScheduleRequest(name, startOffsetSeconds, durationSeconds)
	if _, err := c.api.UpdateSchedule(callCtx, request); err != nil {
		return fmt.Errorf("update schedule of %q: %w", name, err)
	}

	return nil
}

// ToggleManualMode flips the operating mode and returns the new manual flag.
func (c *Client) ToggleManualMode(ctx context.Context) (bool, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ToggleManualMode(callCtx, new(emptypb.Empty))
	if err != nil {
		return false, fmt.Errorf("toggle manual mode: %w", err)
	}

	return resp.GetValue(), nil
}

// SyncClock aligns the server clock with epochSeconds and returns the stored offset.
func (c *Client) SyncClock(ctx context.Context, epochSeconds int64) (int64, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SyncClock(callCtx, wrapperspb.Int64(epochSeconds))
	if err != nil {
		return 0, fmt.Errorf("sync clock: %w", err)
	}

	return resp.GetValue(), nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline. The actor is
// attached as outgoing metadata.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = c.actor.OutgoingContext(ctx)

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
