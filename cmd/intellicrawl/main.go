// Package main is the entry point for the intellicrawl binary.
//
// main stays minimal: set up signal handling and hand off to the command
// tree. Everything else lives in internal/.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/intellicrawl/internal/cli"
)

func main() {
	// Ctrl+C or SIGTERM cancels ctx; `serve` turns that into a graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
