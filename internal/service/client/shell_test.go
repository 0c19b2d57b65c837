package client

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTestCommand = errors.New("test command error")

// TestHandleLine dispatches, splits quoted arguments and handles built-ins.
func TestHandleLine(t *testing.T) {
	t.Parallel()

	var calls [][]string

	execute := func(_ context.Context, args []string) error {
		calls = append(calls, args)
		if args[0] == "fail" {
			return errTestCommand
		}

		return nil
	}

	ctx := context.Background()
	out := new(bytes.Buffer)

	require.False(t, handleLine(ctx, out, "   ", execute))
	require.False(t, handleLine(ctx, out, `schedule "riego jardin" 06:00 45m`, execute))
	require.False(t, handleLine(ctx, out, "help", execute))
	require.Contains(t, out.String(), "Available commands")

	require.False(t, handleLine(ctx, out, `toggle "unterminated`, execute))
	require.Contains(t, out.String(), "parse error")

	require.False(t, handleLine(ctx, out, "shell", execute))
	require.Contains(t, out.String(), "Already in the shell.")

	require.False(t, handleLine(ctx, out, "fail now", execute))
	require.Contains(t, out.String(), "error: test command error")

	require.False(t, handleLine(ctx, out, "log verbose", execute))
	require.Contains(t, out.String(), `log: unknown level "verbose"`)

	require.False(t, handleLine(ctx, out, "log", execute))
	require.Contains(t, out.String(), "log level: ")

	require.True(t, handleLine(ctx, out, "exit", execute))
	require.True(t, handleLine(ctx, out, " quit ", execute))

	require.Equal(t, [][]string{
		{"schedule", "riego jardin", "06:00", "45m"},
		{"fail", "now"},
	}, calls)
}
