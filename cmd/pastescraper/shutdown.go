package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pastescraper/pkg/logger"
)

// shutdownContext returns a context cancelled on SIGINT or SIGTERM
func shutdownContext(log logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.WithField("signal", sig.String()).Warn("Shutdown signal received, stopping")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
