package server

import (
	"context"
	"errors"
	"time"

	"github.com/blutspende/logrelay/consolelog/model"
	"github.com/blutspende/logrelay/utils"
	"github.com/google/uuid"
)

const (
	MsgClientClosed       = "subscriber connection closed"
	MsgServerShuttingDown = "log stream server is shutting down"
	MsgEncodeFrameFailed  = "encode log frame failed"
)

var (
	ErrClientClosed       = errors.New(MsgClientClosed)
	ErrServerShuttingDown = errors.New(MsgServerShuttingDown)
)

// LogPublisher accepts a stamped record for delivery to all current subscribers
type LogPublisher interface {
	Publish(ctx context.Context, record model.LogRecord) error
}

type Broadcaster interface {
	Broadcast(record model.LogRecord) (BroadcastResult, error)
}

type BroadcastResult struct {
	Delivered int
	Pruned    int
}

// SSEClient is the handle of one open event-stream connection. Frames are queued
// without blocking the broadcaster and written by the connection's own goroutine.
type SSEClient struct {
	ID          uuid.UUID
	RemoteAddr  string
	ConnectedAt time.Time
	frames      *utils.ConcurrentQueue[[]byte]
}

func NewSSEClient(remoteAddr string) *SSEClient {
	return &SSEClient{
		ID:          uuid.New(),
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now().UTC(),
		frames:      utils.NewConcurrentQueue[[]byte](),
	}
}

// Enqueue fails with ErrClientClosed once the connection is gone
func (c *SSEClient) Enqueue(frame []byte) error {
	if err := c.frames.Enqueue(frame); err != nil {
		return ErrClientClosed
	}
	return nil
}

func (c *SSEClient) Next(ctx context.Context) ([]byte, bool) {
	return c.frames.Dequeue(ctx)
}

// Close reports true only for the call that actually closed the handle
func (c *SSEClient) Close() bool {
	return c.frames.Close()
}

func (c *SSEClient) IsClosed() bool {
	return c.frames.IsClosed()
}

func (c *SSEClient) Pending() int {
	return c.frames.Len()
}
