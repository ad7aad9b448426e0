package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/blutspende/logrelay"
	"github.com/blutspende/logrelay/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	configureLogger()

	configuration, err := config.ReadConfiguration()
	if err != nil {
		log.Fatal().Err(err).Msg("Reading configuration failed")
	}
	zerolog.SetGlobalLevel(configuration.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay, err := logrelay.New(&configuration)
	if err != nil {
		log.Fatal().Err(err).Msg("Creating log relay failed")
	}
	relay.Log("Log relay starting")

	if err = relay.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Log relay stopped with error")
		os.Exit(1)
	}
}

func configureLogger() {
	consoleWriter := zerolog.NewConsoleWriter()
	consoleWriter.TimeFormat = "2006-01-02T15:04:05Z07:00"
	log.Logger = zerolog.New(consoleWriter).With().Caller().Stack().Timestamp().Logger()
}
