package logrelay

import (
	"context"
	"fmt"
	"sync"

	"github.com/blutspende/logrelay/config"
	"github.com/blutspende/logrelay/consolelog/service"
	"github.com/blutspende/logrelay/server"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type LogRelay interface {
	// Start serves the stream and publish endpoints until ctx is cancelled
	Start(ctx context.Context) error
	Log(msg string)
	LogWarning(msg string)
	LogError(err error)
	LogDebug(msg string)
	GetSubscriberCount() int
}

type logRelay struct {
	config            *config.Configuration
	api               GinApi
	sseServer         *server.ConsoleLogSSEServer
	longPollBridge    *server.LongPollBridge
	redisRelay        *server.RedisLogRelay
	consoleLogService service.ConsoleLogService
	consoleLogHook    *service.ConsoleLogHook
	logger            zerolog.Logger
}

func New(config *config.Configuration) (LogRelay, error) {
	relay := &logRelay{
		config: config,
		logger: log.Logger,
	}

	if config.EnableLongPolling {
		longPollBridge, err := server.NewLongPollBridge(server.LongPollOptions{
			TimeoutSeconds:    config.LongPollingTimeoutSeconds,
			EventTTLSeconds:   config.LongPollingEventTTLSeconds,
			MaxEventBufferLen: config.LongPollingBufferSize,
		})
		if err != nil {
			return nil, err
		}
		relay.longPollBridge = longPollBridge
		relay.sseServer = server.NewConsoleLogSSEServer(longPollBridge)
	} else {
		relay.sseServer = server.NewConsoleLogSSEServer(nil)
	}

	var publisher server.LogPublisher = relay.sseServer
	if config.RedisUrl != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", config.RedisUrl, config.RedisPort),
		})
		relay.redisRelay = server.NewRedisLogRelay(redisClient, config.RedisChannel, relay.sseServer)
		publisher = relay.redisRelay
	}

	relay.consoleLogService = service.NewConsoleLogService(publisher)
	if config.ForwardServerLogs {
		relay.consoleLogHook = service.NewConsoleLogHook(relay.consoleLogService, config.ForwardLogLevel)
		log.Logger = log.Logger.Hook(relay.consoleLogHook)
	}

	relay.api = NewAPI(config, relay.sseServer, relay.longPollBridge, publisher)
	return relay, nil
}

func (r *logRelay) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if r.redisRelay != nil {
		if err := r.pingRedis(ctx); err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.redisRelay.Listen(ctx); err != nil {
				log.Error().Err(err).Msg("Redis log relay stopped")
				cancel()
			}
		}()
	}
	if r.consoleLogHook != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.consoleLogHook.StartForwarding(ctx)
		}()
	}

	err := r.api.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start API")
	}

	cancel()
	wg.Wait()
	if r.redisRelay != nil {
		if closeErr := r.redisRelay.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Closing redis client failed")
		}
	}
	return err
}

func (r *logRelay) pingRedis(ctx context.Context) error {
	if err := r.redisRelay.Ping(ctx); err != nil {
		return errors.Wrap(err, MsgConnectRedisFailed)
	}
	log.Info().Str("address", fmt.Sprintf("%s:%d", r.config.RedisUrl, r.config.RedisPort)).Msg("Connected to redis")
	return nil
}

// Log writes through the logger captured before the forwarding hook was installed, so the line reaches the stream once
func (r *logRelay) Log(msg string) {
	r.logger.Info().Msg(msg)
	r.consoleLogService.Info(msg)
}

func (r *logRelay) LogWarning(msg string) {
	r.logger.Warn().Msg(msg)
	r.consoleLogService.Warning(msg)
}

func (r *logRelay) LogError(err error) {
	r.logger.Error().Err(err).Msg("")
	r.consoleLogService.Error(err.Error())
}

func (r *logRelay) LogDebug(msg string) {
	r.logger.Debug().Msg(msg)
	r.consoleLogService.Debug(msg)
}

func (r *logRelay) GetSubscriberCount() int {
	return r.sseServer.ClientCount()
}
