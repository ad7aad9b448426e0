package config

import (
	"github.com/blutspende/logrelay/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

const MsgFailedToReadConfiguration = "failed to read configuration"

var ErrFailedToReadConfiguration = errors.New(MsgFailedToReadConfiguration)

const (
	TransportSSE      = "sse"
	TransportLongPoll = "longpoll"
)

var SupportedTransports = []string{TransportSSE, TransportLongPoll}

type Configuration struct {
	ConsumerSettings struct {
		StreamURL               string `envconfig:"LOG_STREAM_URL" default:"http://localhost:8080/api/logs"`
		PollURL                 string `envconfig:"LOG_POLL_URL" default:"http://localhost:8080/api/logs/poll"`
		Transport               string `envconfig:"LOG_STREAM_TRANSPORT" default:"sse"`
		BufferSize              int    `envconfig:"LOG_BUFFER_SIZE" default:"100"`
		ReconnectEnabled        bool   `envconfig:"LOG_STREAM_RECONNECT" default:"false"`
		ReconnectInitialDelayMs int    `envconfig:"LOG_STREAM_RECONNECT_INITIAL_DELAY_MS" default:"1000"`
		ReconnectMaxDelayMs     int    `envconfig:"LOG_STREAM_RECONNECT_MAX_DELAY_MS" default:"30000"`
		PollTimeoutSeconds      uint   `envconfig:"LOG_POLL_TIMEOUT_SECONDS" default:"45"`
	}
	APIPort                    uint16        `envconfig:"API_PORT" default:"8080"`
	Development                bool          `envconfig:"DEVELOPMENT" default:"false"`
	PermittedOrigin            string        `envconfig:"PERMITTED_ORIGIN_URL" default:"*"`
	LogLevel                   zerolog.Level `envconfig:"LOG_LEVEL" default:"1"`
	ApplicationName            string        `envconfig:"APPLICATION_NAME" default:"logrelay"`
	PublishTimeoutSeconds      int           `envconfig:"PUBLISH_TIMEOUT_SECONDS" default:"5"`
	ShutdownTimeoutSeconds     int           `envconfig:"SHUTDOWN_TIMEOUT_SECONDS" default:"10"`
	ForwardServerLogs          bool          `envconfig:"FORWARD_SERVER_LOGS" default:"false"`
	ForwardLogLevel            zerolog.Level `envconfig:"FORWARD_LOG_LEVEL" default:"1"`
	EnableLongPolling          bool          `envconfig:"ENABLE_LONG_POLLING" default:"false"`
	LongPollingTimeoutSeconds  int           `envconfig:"LONG_POLLING_TIMEOUT_SECONDS" default:"60"`
	LongPollingEventTTLSeconds int           `envconfig:"LONG_POLLING_EVENT_TTL_SECONDS" default:"30"`
	LongPollingBufferSize      int           `envconfig:"LONG_POLLING_BUFFER_SIZE" default:"100"`
	RedisUrl                   string        `envconfig:"REDIS_URL" default:""`
	RedisPort                  int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisChannel               string        `envconfig:"REDIS_CHANNEL" default:"logrelay:logs"`
}

func ReadConfiguration() (Configuration, error) {
	var config Configuration
	err := envconfig.Process("", &config)
	if err != nil {
		err = errors.Wrap(err, MsgFailedToReadConfiguration)
		log.Error().Err(err).Msgf("%s\n", ErrFailedToReadConfiguration)
		return config, err
	}
	if !utils.SliceContains(config.ConsumerSettings.Transport, SupportedTransports) {
		err = errors.Wrapf(ErrFailedToReadConfiguration, "unsupported log stream transport %q, expected one of %s",
			config.ConsumerSettings.Transport, utils.JoinEnumsAsString(SupportedTransports, ", "))
		log.Error().Err(err).Msg("")
		return config, err
	}
	// forwarding below info would feed the relay's own debug output back into the stream
	if config.ForwardLogLevel < zerolog.InfoLevel {
		config.ForwardLogLevel = zerolog.InfoLevel
	}
	return config, nil
}
