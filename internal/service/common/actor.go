//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/irrigation/internal/logger"
	"github.com/oshokin/irrigation/internal/telemetry"
)

const (
	// MetadataHostname carries the caller host name.
	MetadataHostname = "x-irrigation-hostname"
	// MetadataUsername carries the caller user name.
	MetadataUsername = "x-irrigation-username"

	unknownActor = "unknown"
)

// Actor identifies the machine and user behind a command.
type Actor struct {
	Hostname string
	Username string
}

// DetectActor gathers host and user information for the audit trail.
func DetectActor() (Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Actor{}, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return Actor{}, fmt.Errorf("current user: %w", err)
	}

	return Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}

// String renders the actor as user@host.
func (a Actor) String() string {
	username, hostname := a.Username, a.Hostname
	if username == "" {
		username = unknownActor
	}

	if hostname == "" {
		hostname = unknownActor
	}

	return username + "@" + hostname
}

// IsZero reports whether no field is set.
func (a Actor) IsZero() bool {
	return a.Hostname == "" && a.Username == ""
}

// OutgoingContext attaches the actor to outgoing gRPC metadata.
func (a Actor) OutgoingContext(ctx context.Context) context.Context {
	if a.IsZero() {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx,
		MetadataHostname, a.Hostname,
		MetadataUsername, a.Username)
}

// ActorFromIncomingContext extracts the actor sent by a client.
func ActorFromIncomingContext(ctx context.Context) (Actor, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Actor{}, false
	}

	actor := Actor{
		Hostname: first(md.Get(MetadataHostname)),
		Username: first(md.Get(MetadataUsername)),
	}

	return actor, !actor.IsZero()
}

// AuditInterceptor logs every unary call with its actor and outcome and counts it.
// The handler context carries a logger annotated with the method and actor.
func AuditInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		actor, _ := ActorFromIncomingContext(ctx)
		ctx = logger.WithKV(ctx, "method", info.FullMethod, "actor", actor.String())

		started := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		telemetry.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()

		if err != nil {
			logger.WarnKV(ctx, "RPC failed", "code", code.String(), "error", err, "duration", time.Since(started))
		} else {
			logger.DebugKV(ctx, "RPC handled", "duration", time.Since(started))
		}

		return resp, err
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return values[0]
}
