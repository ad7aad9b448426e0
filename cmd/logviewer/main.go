package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/blutspende/logrelay"
	"github.com/blutspende/logrelay/config"
	"github.com/blutspende/logrelay/consolelog/model"
	"github.com/blutspende/logrelay/consolelog/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// printer writes received entries with their own level, diagnostics of the viewer go to stderr
type printer struct {
	entries zerolog.Logger
}

func (p *printer) OnLogEntry(entry model.LogEntry) {
	p.entries.WithLevel(service.ToZerologLevel(entry.Level)).
		Str("published", entry.Timestamp).
		Msg(entry.Message)
}

func (p *printer) OnStateChanged(state logrelay.ConnectionState) {
	log.Debug().Str("state", string(state)).Msg("Log stream state changed")
}

func main() {
	_ = godotenv.Load()
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	configuration, err := config.ReadConfiguration()
	if err != nil {
		log.Fatal().Err(err).Msg("Reading configuration failed")
	}
	log.Logger = log.Logger.Level(configuration.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	entryWriter := zerolog.NewConsoleWriter()
	entryWriter.TimeFormat = "15:04:05"
	listener := &printer{
		entries: zerolog.New(entryWriter).With().Timestamp().Logger().Level(zerolog.TraceLevel),
	}

	client := logrelay.NewLogStreamClient(&configuration, logrelay.NewRestyClient(ctx, &configuration), listener)
	log.Info().Str("url", configuration.ConsumerSettings.StreamURL).Str("transport", configuration.ConsumerSettings.Transport).
		Msg("Watching log stream")

	err = client.Start(ctx)
	client.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Log stream ended")
		os.Exit(1)
	}
}
