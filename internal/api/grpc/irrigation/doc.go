// Package irrigation implements the gRPC transport for the irrigation controller.
//
// The service is described by a hand-written grpc.ServiceDesc whose messages
// are protobuf well-known types: a snapshot travels as a structpb.Struct,
// device names as wrapperspb.StringValue and so on. The package provides the
// server side, a typed client stub and the converters between domain
// snapshots and their Struct encoding.
package irrigation
