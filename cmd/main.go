package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"ambient-assistant/internal/app"
	"ambient-assistant/internal/config"
)

func main() {
	loader := &config.Loader{Files: config.DefaultFiles()}
	cfg := loader.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, loader)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create application")
	}

	if err := application.Run(ctx); err != nil {
		log.Error().Err(err).Msg("ambient assistant stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("ambient assistant stopped")
}
