package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/blutspende/logrelay/consolelog/model"
	"github.com/rs/zerolog"
)

const consoleLogHookBufferSize = 1024

// ConsoleLogHook forwards the process's own zerolog output into the log stream.
// Lines are handed to a background sender; when its buffer is full they are dropped.
// Anything logged while the sender is publishing is not forwarded, so failures on the
// publish path cannot feed themselves back into the stream.
type ConsoleLogHook struct {
	consoleLogService ConsoleLogService
	minLevel          zerolog.Level
	records           chan model.LogRecord
	publishing        atomic.Bool
}

func NewConsoleLogHook(consoleLogService ConsoleLogService, minLevel zerolog.Level) *ConsoleLogHook {
	return &ConsoleLogHook{
		consoleLogService: consoleLogService,
		minLevel:          minLevel,
		records:           make(chan model.LogRecord, consoleLogHookBufferSize),
	}
}

func (h *ConsoleLogHook) Run(e *zerolog.Event, level zerolog.Level, message string) {
	if level == zerolog.NoLevel || level == zerolog.Disabled || level < h.minLevel || message == "" {
		return
	}
	if h.publishing.Load() {
		return
	}
	select {
	case h.records <- model.NewLogRecord(ToLogLevel(level), message, time.Now()):
	default:
	}
}

func (h *ConsoleLogHook) StartForwarding(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case record := <-h.records:
			h.publishing.Store(true)
			_ = h.consoleLogService.PublishRecord(ctx, record)
			h.publishing.Store(false)
		}
	}
}

func ToLogLevel(level zerolog.Level) model.LogLevel {
	switch level {
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return model.Error
	case zerolog.WarnLevel:
		return model.Warning
	case zerolog.DebugLevel, zerolog.TraceLevel:
		return model.Debug
	default:
		return model.Info
	}
}

func ToZerologLevel(level model.LogLevel) zerolog.Level {
	switch level {
	case model.Error:
		return zerolog.ErrorLevel
	case model.Warning:
		return zerolog.WarnLevel
	case model.Debug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
