// Package integration runs the irrigation server end to end over real sockets.
package integration
