package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/irrigation/internal/config"
	"github.com/oshokin/irrigation/internal/logger"
	"github.com/oshokin/irrigation/internal/version"
)

// Options controls the irrigation-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// GRPCAddress overrides the gRPC listen address.
	GRPCAddress string
	// HTTPAddress overrides the HTTP listen address.
	HTTPAddress string
	// StateFile overrides the path of the file settings backend.
	StateFile string
	// AllowMultiple skips the single-instance check.
	AllowMultiple bool
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the irrigation server and blocks until context is canceled or a server stops.
// Loads configuration first, then determines listen addresses from config or overrides.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "irrigation-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	logger.InfoKV(ctx, "Starting irrigation server", "version", version.Short(), "config", opts.ConfigPath)

	// Use StateFile from config unless overridden by command line option.
	if opts.StateFile != "" {
		settings.Store.Path = opts.StateFile
	}

	if !opts.AllowMultiple {
		if err = ensureSingleInstance(ps.Processes); err != nil {
			return err
		}
	}

	grpcAddress, err := resolveListenAddress(settings.GRPCAddress, opts.GRPCAddress)
	if err != nil {
		return fmt.Errorf("resolve gRPC listen address: %w", err)
	}

	httpAddress, err := resolveListenAddress(settings.HTTPAddress, opts.HTTPAddress)
	if err != nil {
		return fmt.Errorf("resolve HTTP listen address: %w", err)
	}

	srv, err := New(ctx, settings)
	if err != nil {
		return fmt.Errorf("initialise server: %w", err)
	}

	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to release resources", "error", closeErr)
		}
	}()

	lc := net.ListenConfig{}

	grpcListener, err := lc.Listen(ctx, "tcp", grpcAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", grpcAddress, err)
	}

	httpListener, err := lc.Listen(ctx, "tcp", httpAddress)
	if err != nil {
		_ = grpcListener.Close()

		return fmt.Errorf("listen on %s: %w", httpAddress, err)
	}

	return srv.Serve(ctx, grpcListener, httpListener)
}

// resolveListenAddress determines a listen address.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
