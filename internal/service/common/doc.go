// Package common holds helpers shared by the irrigation server and its control client.
//
// It provides a gRPC client wrapper with per-call timeouts and the actor
// metadata (hostname/username) that clients attach to every call so the server
// can log who changed what.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
