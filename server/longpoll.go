package server

import (
	"github.com/blutspende/logrelay/consolelog/model"
	"github.com/gin-gonic/gin"
	"github.com/jcuga/golongpoll"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const LongPollCategory = "logs"

const MsgStartLongPollFailed = "start long-poll manager failed"

type LongPollOptions struct {
	TimeoutSeconds    int
	EventTTLSeconds   int
	MaxEventBufferLen int
}

// LongPollBridge mirrors every broadcast into a long-poll category for clients that
// cannot keep an event-stream open. Events live only for the configured TTL.
type LongPollBridge struct {
	manager *golongpoll.LongpollManager
}

func NewLongPollBridge(options LongPollOptions) (*LongPollBridge, error) {
	manager, err := golongpoll.StartLongpoll(golongpoll.Options{
		LoggingEnabled:                 false,
		MaxLongpollTimeoutSeconds:      options.TimeoutSeconds,
		MaxEventBufferSize:             options.MaxEventBufferLen,
		EventTimeToLiveSeconds:         options.EventTTLSeconds,
		DeleteEventAfterFirstRetrieval: false,
	})
	if err != nil {
		return nil, errors.Wrap(err, MsgStartLongPollFailed)
	}
	return &LongPollBridge{manager: manager}, nil
}

func (b *LongPollBridge) OnSSENewClient(client *SSEClient) {
}

func (b *LongPollBridge) OnSSEClientClosed(client *SSEClient) {
}

func (b *LongPollBridge) OnSSEBroadcast(record model.LogRecord, result BroadcastResult) {
	if err := b.manager.Publish(LongPollCategory, record); err != nil {
		log.Error().Err(err).Msg("Publishing log record to long-poll subscribers failed")
	}
}

func (b *LongPollBridge) ServeHTTP() gin.HandlerFunc {
	return gin.WrapF(b.manager.SubscriptionHandler)
}

func (b *LongPollBridge) Shutdown() {
	b.manager.Shutdown()
}
