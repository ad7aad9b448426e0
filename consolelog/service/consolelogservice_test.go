package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blutspende/logrelay/consolelog/model"
	"github.com/blutspende/logrelay/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publisherMock struct {
	mutex   sync.Mutex
	records []model.LogRecord
	err     error
}

func (p *publisherMock) Publish(ctx context.Context, record model.LogRecord) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.records = append(p.records, record)
	return p.err
}

func (p *publisherMock) published() []model.LogRecord {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	records := make([]model.LogRecord, len(p.records))
	copy(records, p.records)
	return records
}

func TestMessages(t *testing.T) {
	publisher := &publisherMock{}
	consoleLogService := NewConsoleLogService(publisher)

	consoleLogService.Info("Info message")
	consoleLogService.Debug("Debug message")
	consoleLogService.Warning("Warning message")
	consoleLogService.Error("Error message")

	messages := publisher.published()
	require.Equal(t, 4, len(messages))

	assert.Equal(t, model.Info, messages[0].Level)
	assert.Equal(t, "Info message", messages[0].Message)
	assert.Equal(t, model.Debug, messages[1].Level)
	assert.Equal(t, "Debug message", messages[1].Message)
	assert.Equal(t, model.Warning, messages[2].Level)
	assert.Equal(t, "Warning message", messages[2].Message)
	assert.Equal(t, model.Error, messages[3].Level)
	assert.Equal(t, "Error message", messages[3].Message)

	for _, message := range messages {
		_, err := time.Parse(time.RFC3339Nano, message.Timestamp)
		assert.Nil(t, err)
	}
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	publisher := &publisherMock{err: errors.New("redis down")}
	consoleLogService := NewConsoleLogService(publisher)

	consoleLogService.Error("lost")

	assert.Equal(t, 1, len(publisher.published()))
	assert.NotNil(t, consoleLogService.Publish(context.Background(), model.Info, "returned"))
}

func TestMessagesReachSubscribers(t *testing.T) {
	consoleLogSSEServer := server.NewConsoleLogSSEServer(nil)
	client := server.NewSSEClient("127.0.0.1")
	require.Nil(t, consoleLogSSEServer.Register(client))

	consoleLogService := NewConsoleLogService(consoleLogSSEServer)
	consoleLogService.Warning("session device error")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, ok := client.Next(ctx)
	require.True(t, ok)
	frame, ok := client.Next(ctx)
	require.True(t, ok)
	assert.Contains(t, string(frame), `"level":"WARNING"`)
	assert.Contains(t, string(frame), `"message":"session device error"`)
}

func TestConsoleLogHookForwardsFromMinLevel(t *testing.T) {
	publisher := &publisherMock{}
	hook := NewConsoleLogHook(NewConsoleLogService(publisher), zerolog.InfoLevel)
	logger := zerolog.New(&bytes.Buffer{}).Hook(hook)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hook.StartForwarding(ctx)

	logger.Debug().Msg("not forwarded")
	logger.Info().Msg("agent connected")
	logger.Warn().Msg("slow response")
	logger.Error().Msg("device error")

	assert.Eventually(t, func() bool {
		return len(publisher.published()) == 3
	}, time.Second, 5*time.Millisecond)

	records := publisher.published()
	assert.Equal(t, model.Info, records[0].Level)
	assert.Equal(t, "agent connected", records[0].Message)
	assert.Equal(t, model.Warning, records[1].Level)
	assert.Equal(t, model.Error, records[2].Level)
}

func TestConsoleLogHookSkipsWhilePublishing(t *testing.T) {
	publisher := &publisherMock{}
	hook := NewConsoleLogHook(NewConsoleLogService(publisher), zerolog.InfoLevel)
	logger := zerolog.New(&bytes.Buffer{}).Hook(hook)

	hook.publishing.Store(true)
	logger.Error().Msg("emitted on the publish path")
	hook.publishing.Store(false)

	assert.Equal(t, 0, len(hook.records))
}

func TestLevelMapping(t *testing.T) {
	assert.Equal(t, model.Error, ToLogLevel(zerolog.FatalLevel))
	assert.Equal(t, model.Warning, ToLogLevel(zerolog.WarnLevel))
	assert.Equal(t, model.Info, ToLogLevel(zerolog.InfoLevel))
	assert.Equal(t, model.Debug, ToLogLevel(zerolog.TraceLevel))

	assert.Equal(t, zerolog.ErrorLevel, ToZerologLevel(model.Error))
	assert.Equal(t, zerolog.WarnLevel, ToZerologLevel(model.Warning))
	assert.Equal(t, zerolog.InfoLevel, ToZerologLevel(model.Info))
	assert.Equal(t, zerolog.DebugLevel, ToZerologLevel(model.Debug))
}
