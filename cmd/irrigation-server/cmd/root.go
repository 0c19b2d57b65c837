package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/irrigation/internal/config"
	"github.com/oshokin/irrigation/internal/service/server"
	"github.com/oshokin/irrigation/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile path where settings are persisted by the file backend.
	stateFile string
	// httpAddress overrides the HTTP listen address.
	httpAddress string
	// allowMultiple skips the single-instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the irrigation server.
	rootCmd = &cobra.Command{
		Use:   "irrigation-server [grpc-listen-address]",
		Short: "Run the irrigation controller with its HTTP and gRPC surfaces.",
		Long: `Starts the irrigation controller: it evaluates every valve's daily window once
per tick and drives the output lines, serves the HTTP command surface and the
dashboard, and serves the gRPC API used by irrigation-ctl.

Only the port from grpc_addr and http_addr config values is used for listening.
The gRPC listen address can be provided as argument to override config (e.g., :50052).
Schedules, manual mode and the clock offset are persisted and restored on restart.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var grpcAddress string
			if len(args) > 0 {
				grpcAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				GRPCAddress:   grpcAddress,
				HTTPAddress:   httpAddress,
				StateFile:     stateFile,
				AllowMultiple: allowMultiple,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the irrigation-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&stateFile, "state-file", "s", "", "override the settings file of the file backend")
	rootCmd.Flags().StringVar(&httpAddress, "http", "", "override the HTTP listen address")
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single-instance check")
}
