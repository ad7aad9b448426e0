package server

import (
	"context"
	"encoding/json"

	"github.com/blutspende/logrelay/consolelog/model"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	MsgRedisPublishFailed   = "publish log record to redis failed"
	MsgRedisSubscribeFailed = "subscribe to redis log channel failed"
)

// RedisLogRelay lets several relay instances share one stream: records are published to a
// redis channel and every instance broadcasts what it receives to its own subscribers.
type RedisLogRelay struct {
	client      *redis.Client
	channel     string
	broadcaster Broadcaster
}

func NewRedisLogRelay(client *redis.Client, channel string, broadcaster Broadcaster) *RedisLogRelay {
	return &RedisLogRelay{
		client:      client,
		channel:     channel,
		broadcaster: broadcaster,
	}
}

func (r *RedisLogRelay) Publish(ctx context.Context, record model.LogRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, MsgRedisPublishFailed)
	}
	if err = r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return errors.Wrap(err, MsgRedisPublishFailed)
	}
	return nil
}

// Listen blocks until ctx is done or the subscription channel is closed
func (r *RedisLogRelay) Listen(ctx context.Context) error {
	subscription := r.client.Subscribe(ctx, r.channel)
	defer func() {
		if err := subscription.Close(); err != nil {
			log.Error().Err(err).Msg("Closing redis subscription failed")
		}
	}()

	if _, err := subscription.Receive(ctx); err != nil {
		return errors.Wrap(err, MsgRedisSubscribeFailed)
	}
	log.Info().Str("channel", r.channel).Msg("Listening for log records on redis")

	messages := subscription.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-messages:
			if !ok {
				log.Warn().Str("channel", r.channel).Msg("Redis subscription channel closed")
				return nil
			}
			r.handleMessage(message.Payload)
		}
	}
}

func (r *RedisLogRelay) handleMessage(payload string) {
	var record model.LogRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		log.Error().Err(err).Str("payload", payload).Msg("Dropping malformed log record from redis")
		return
	}
	record.Level = model.ParseLogLevel(string(record.Level))

	if _, err := r.broadcaster.Broadcast(record); err != nil {
		log.Error().Err(err).Msg("Broadcasting log record from redis failed")
	}
}

func (r *RedisLogRelay) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisLogRelay) Close() error {
	return r.client.Close()
}
