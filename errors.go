package logrelay

import (
	"github.com/pkg/errors"
)

const (
	MsgApiStarted              = "Log relay API server has been started"
	MsgApiEndedGracefully      = "Log relay API server ended gracefully"
	MsgApiFailedToStart        = "Failed to start log relay API server"
	MsgApiShutdownFailed       = "shutting down log relay API server failed"
	MsgInvalidPublishBody      = "can not read publish log request body"
	MsgPublishLogFailed        = "publish log record failed"
	MsgParseLogFrameFailed     = "parse log frame failed"
	MsgLogStreamTransport      = "log stream transport failed"
	MsgUnexpectedStreamStatus  = "unexpected log stream response status"
	MsgLogStreamAlreadyStarted = "log stream client already started"
	MsgLogStreamClosed         = "log stream client is closed"
	MsgInvalidStreamURL        = "invalid log stream url"
	MsgConnectRedisFailed      = "connect to redis failed"
)

var (
	ErrParseLogFrameFailed      = errors.New(MsgParseLogFrameFailed)
	ErrLogStreamTransportFailed = errors.New(MsgLogStreamTransport)
	ErrUnexpectedStreamStatus   = errors.New(MsgUnexpectedStreamStatus)
	ErrLogStreamAlreadyStarted  = errors.New(MsgLogStreamAlreadyStarted)
	ErrLogStreamClosed          = errors.New(MsgLogStreamClosed)
	ErrInvalidStreamURL         = errors.New(MsgInvalidStreamURL)
)
