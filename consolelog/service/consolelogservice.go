package service

import (
	"context"
	"time"

	"github.com/blutspende/logrelay/consolelog/model"
	"github.com/blutspende/logrelay/server"

	"github.com/rs/zerolog/log"
)

// ConsoleLogService publishes log lines from inside the serving process to every log viewer
type ConsoleLogService interface {
	Debug(message string)
	Info(message string)
	Warning(message string)
	Error(message string)
	Publish(ctx context.Context, level model.LogLevel, message string) error
	PublishRecord(ctx context.Context, record model.LogRecord) error
}

type consoleLogService struct {
	publisher server.LogPublisher
}

func NewConsoleLogService(publisher server.LogPublisher) ConsoleLogService {
	log.Trace().Msg("Creating new console log service")
	return &consoleLogService{
		publisher: publisher,
	}
}

func (s *consoleLogService) createConsoleLog(level model.LogLevel, message string) {
	if err := s.Publish(context.Background(), level, message); err != nil {
		log.Debug().Err(err).Interface("level", level).Msg("Publishing console log failed")
	}
}

func (s *consoleLogService) Debug(message string) {
	s.createConsoleLog(model.Debug, message)
}

func (s *consoleLogService) Info(message string) {
	s.createConsoleLog(model.Info, message)
}

func (s *consoleLogService) Warning(message string) {
	s.createConsoleLog(model.Warning, message)
}

func (s *consoleLogService) Error(message string) {
	s.createConsoleLog(model.Error, message)
}

func (s *consoleLogService) Publish(ctx context.Context, level model.LogLevel, message string) error {
	return s.PublishRecord(ctx, model.NewLogRecord(level, message, time.Now()))
}

func (s *consoleLogService) PublishRecord(ctx context.Context, record model.LogRecord) error {
	log.Trace().Interface("level", record.Level).Str("message", record.Message).Msg("Publishing console log")
	return s.publisher.Publish(ctx, record)
}
