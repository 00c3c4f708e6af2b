package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mamchain/mamio/internal/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-waitForInterrupt():
			logger.Info("interrupt received, stopping")
			cancel()
		case <-ctx.Done():
		}
	}()

	rootCmd, a := newRootCmd()
	err := a.execute(ctx, rootCmd)
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "imitator: %v\n", err)
		os.Exit(1)
	}
}

func waitForInterrupt() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	return sigCh
}
