package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	// Register connector implementations.
	_ "github.com/crimson-sun/slackline/internal/connector/file"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
