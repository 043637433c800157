// coursedb - student, course and enrollment store
//
// This is the main entry point for the coursedb command. It wraps the
// enrollment data-access layer with a few commands for setting up,
// inspecting and demonstrating a course store, and for watching the
// optional MQTT change feed.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the command line in args, writing results to out.
// It is separated from main for testability.
func run(ctx context.Context, args []string, out io.Writer) error {
	root := newRootCmd(out)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// getConfigPath returns the configuration file path.
// Uses COURSEDB_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("COURSEDB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
