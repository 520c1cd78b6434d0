package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	args := os.Args[1:]
	if len(args) == 0 {
		// No subcommand opens the dashboard.
		args = []string{"tui"}
	}
	if err := run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cmd := args[0]
	switch cmd {
	case "tui":
		return handleTUI(ctx, args[1:])
	case "list":
		return handleList(ctx, args[1:])
	case "search":
		return handleSearch(ctx, args[1:])
	case "version":
		fmt.Println(version)
		return nil
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func usage() {
	fmt.Println(strings.TrimSpace(`modeldash - terminal dashboard for a local model runtime

Usage:
  modeldash [command] [flags]

Commands:
  tui               Open the interactive dashboard (default)
  list              List installed models (--wide adds per-model details)
  search TERM       Search the remote registry
  version           Print version
  help              Show this help

Flags:
  --config PATH     Path to YAML config file (or MODELDASH_CONFIG env var; default: ~/.config/modeldash/config.yml)
  --host URL        Model runtime endpoint (overrides config and OLLAMA_HOST)
  --log-level L     Log level: debug|info|warn|error (per command)
`))
}
