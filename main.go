package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/hoyocodeworker/cmd"
	"sjsage522/hoyocodeworker/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		logger.Default.Error().Err(err).Msg("run failed")
		stop()
		os.Exit(1)
	}
}
