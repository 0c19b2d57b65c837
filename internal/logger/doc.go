// Package logger wraps zap with a process-wide sugared logger and context
// helpers (ToContext/FromContext/WithName/WithKV), so the controller, its
// control loop and every request handler log through a logger carried in ctx.
package logger
