package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/irrigation/internal/config"
	"github.com/oshokin/irrigation/internal/service/client"
	"github.com/oshokin/irrigation/internal/version"
)

// app carries flag values and, inside the shell, the shared session.
type app struct {
	// configPath to the configuration YAML file.
	configPath string
	// serverAddress overrides the gRPC address from config.
	serverAddress string
	// session is reused by every command run from the shell.
	session *client.Session
}

// withSession runs fn with the shell session or a short-lived one.
func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *client.Session) error) error {
	ctx := cmd.Context()

	if a.session != nil {
		return fn(ctx, a.session)
	}

	session, err := client.Connect(ctx, &client.Options{
		ConfigPath:    a.configPath,
		ServerAddress: a.serverAddress,
		Output:        cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	defer func() {
		_ = session.Close()
	}()

	return fn(ctx, session)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "irrigation-ctl",
		Short: "Inspect and command a running irrigation server.",
		Long: `Connects to the irrigation server over gRPC to show valve state, toggle valves,
switch between automatic and manual mode, change daily windows and synchronize
the controller clock with this machine.

The server address is read from the configuration file and can be overridden
with --server. Every command is logged by the server with the local user and host.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().
		StringVarP(&a.configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	root.PersistentFlags().StringVarP(&a.serverAddress, "server", "s", "", "override the server gRPC address")

	root.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show clock, mode and valves.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withSession(cmd, func(ctx context.Context, s *client.Session) error {
					return s.Status(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "toggle <device>",
			Short: "Invert one valve.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withSession(cmd, func(ctx context.Context, s *client.Session) error {
					return s.ToggleDevice(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "mode",
			Short: "Switch between automatic and manual mode.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withSession(cmd, func(ctx context.Context, s *client.Session) error {
					return s.ToggleMode(ctx)
				})
			},
		},
		&cobra.Command{
			Use:     "schedule <device> <HH:MM> <duration>",
			Short:   "Set the daily window of one valve.",
			Example: "  irrigation-ctl schedule goteros 16:00 5h",
			Args:    cobra.ExactArgs(3), //nolint:mnd // Device, start and duration.
			RunE: func(cmd *cobra.Command, args []string) error {
				duration, err := time.ParseDuration(args[2])
				if err != nil {
					return err
				}

				return a.withSession(cmd, func(ctx context.Context, s *client.Session) error {
					return s.SetSchedule(ctx, args[0], args[1], duration)
				})
			},
		},
		newSyncTimeCmd(a),
	)

	return root
}

func newSyncTimeCmd(a *app) *cobra.Command {
	var retry bool

	cmd := &cobra.Command{
		Use:   "sync-time",
		Short: "Send this machine's time to the server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *client.Session) error {
				return s.SyncTime(ctx, retry)
			})
		},
	}

	cmd.Flags().BoolVarP(&retry, "retry", "r", false, "keep retrying until the server answers")

	return cmd
}

func newShellCmd(a *app) *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively over one connection.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			session, err := client.Connect(ctx, &client.Options{
				ConfigPath:    a.configPath,
				ServerAddress: a.serverAddress,
				Output:        cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}

			defer func() {
				_ = session.Close()
			}()

			return client.RunShell(ctx, prompt, func(ctx context.Context, args []string) error {
				nested := &app{session: session}
				root := newRootCmd(nested)
				root.SetArgs(args)
				root.SetOut(cmd.OutOrStdout())
				root.SilenceErrors = true

				return root.ExecuteContext(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "irrigation> ", "shell prompt")

	return cmd
}

// Execute runs the irrigation-ctl CLI and exits with non-zero status on error.
func Execute() {
	a := new(app)
	root := newRootCmd(a)
	root.AddCommand(newShellCmd(a))
	version.AttachCobraVersionCommand(root)

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
