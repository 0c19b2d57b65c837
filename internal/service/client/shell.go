package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"

	"github.com/oshokin/irrigation/internal/logger"
)

// Executor runs one shell command split into arguments.
type Executor func(ctx context.Context, args []string) error

const shellHelp = `Available commands:
  status                          show clock, mode and valves
  toggle <device>                 invert one valve
  mode                            switch between auto and manual
  schedule <device> <HH:MM> <dur> set a daily window, e.g. schedule goteros 16:00 5h
  sync-time                       send this machine's time to the server
  log [debug|info|warn|error]     show or change the local log level
  help                            show this text
  exit / quit                     leave the shell`

// RunShell reads commands interactively until EOF, exit or ctx cancellation.
func RunShell(ctx context.Context, prompt string, execute Executor) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), "irrigation-ctl.history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("status"),
			readline.PcItem("toggle"),
			readline.PcItem("mode"),
			readline.PcItem("schedule"),
			readline.PcItem("sync-time"),
			readline.PcItem("log",
				readline.PcItem("debug"),
				readline.PcItem("info"),
				readline.PcItem("warn"),
				readline.PcItem("error"),
			),
			readline.PcItem("help"),
			readline.PcItem("exit"),
		),
	})
	if err != nil {
		return fmt.Errorf("create readline: %w", err)
	}

	defer func() {
		_ = rl.Close()
	}()

	fmt.Fprintln(rl.Stdout(), "Interactive shell. Type 'help' for commands, 'exit' to leave.")

	for ctx.Err() == nil {
		line, readErr := rl.Readline()

		switch {
		case errors.Is(readErr, readline.ErrInterrupt):
			continue
		case errors.Is(readErr, io.EOF):
			return nil
		case readErr != nil:
			return fmt.Errorf("read line: %w", readErr)
		}

		if handleLine(ctx, rl.Stdout(), line, execute) {
			return nil
		}
	}

	return nil
}

// handleLine runs one input line and reports whether the shell should exit.
func handleLine(ctx context.Context, out io.Writer, line string, execute Executor) bool {
	line = strings.TrimSpace(line)

	switch line {
	case "":
		return false
	case "exit", "quit":
		fmt.Fprintln(out, "Bye!")
		return true
	case "help", "?":
		fmt.Fprintln(out, shellHelp)
		return false
	}

	tokens, err := shlex.Split(line)
	if err != nil {
		fmt.Fprintf(out, "parse error: %v\n", err)
		return false
	}

	if len(tokens) == 0 {
		return false
	}

	switch tokens[0] {
	case "shell":
		fmt.Fprintln(out, "Already in the shell.")
		return false
	case "log":
		handleLog(out, tokens[1:])
		return false
	}

	if err = execute(ctx, tokens); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
	}

	return false
}

// handleLog prints or changes the level of the local logger.
func handleLog(out io.Writer, args []string) {
	if len(args) == 0 {
		fmt.Fprintf(out, "log level: %s\n", logger.Level())
		return
	}

	level, ok := logger.ParseLogLevel(args[0])
	if !ok {
		fmt.Fprintf(out, "log: unknown level %q\n", args[0])
		return
	}

	logger.SetLevel(level)
	fmt.Fprintf(out, "log level set to %s\n", level)
}
