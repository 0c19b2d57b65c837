// Package client implements the irrigation-ctl commands.
//
// A Session connects to the irrigation server over gRPC, identifies the local
// user and host, and runs status, toggle, mode, schedule and clock sync
// commands. RunShell offers the same commands in an interactive prompt.
package client
