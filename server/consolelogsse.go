package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/blutspende/logrelay/consolelog/model"
	"github.com/blutspende/logrelay/middleware"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type ConsoleLogSSEClientListener interface {
	OnSSENewClient(client *SSEClient)
	OnSSEClientClosed(client *SSEClient)
	OnSSEBroadcast(record model.LogRecord, result BroadcastResult)
}

type ConsoleLogSSEServer struct {
	clientListener  ConsoleLogSSEClientListener
	registry        *ConnectionRegistry[*SSEClient]
	broadcastMutex  sync.Mutex
	lifecycleMutex  sync.Mutex
	isShuttingDown  bool
	handshakeRecord model.LogRecord
}

func NewConsoleLogSSEServer(listener ConsoleLogSSEClientListener) *ConsoleLogSSEServer {
	return &ConsoleLogSSEServer{
		clientListener:  listener,
		registry:        NewConnectionRegistry[*SSEClient](),
		handshakeRecord: model.HandshakeRecord(),
	}
}

// ServeHTTP keeps the connection open until the client leaves, a write fails or the server shuts down
func (e *ConsoleLogSSEServer) ServeHTTP() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := NewSSEClient(c.ClientIP())
		if err := e.Register(client); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, middleware.ErrStreamUnavailable)
			return
		}
		defer e.Disconnect(client)

		setStreamHeaders(c.Writer.Header())
		c.Status(http.StatusOK)

		e.stream(c.Request.Context(), c.Writer, client)
	}
}

func (e *ConsoleLogSSEServer) stream(ctx context.Context, w gin.ResponseWriter, client *SSEClient) {
	for {
		frame, ok := client.Next(ctx)
		if !ok {
			return
		}
		if _, err := w.Write(frame); err != nil {
			log.Debug().Err(err).Str("clientId", client.ID.String()).Msg("Writing log frame failed, closing stream")
			return
		}
		w.Flush()
	}
}

func setStreamHeaders(header http.Header) {
	header.Set("Content-Type", sse.ContentType)
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "GET")
	header.Set("Access-Control-Allow-Headers", "Cache-Control")
}

// Register queues the handshake frame ahead of anything else and makes the client a broadcast target
func (e *ConsoleLogSSEServer) Register(client *SSEClient) error {
	e.lifecycleMutex.Lock()
	defer e.lifecycleMutex.Unlock()
	if e.isShuttingDown {
		client.Close()
		return ErrServerShuttingDown
	}

	frame, err := model.EncodeFrame(e.handshakeRecord)
	if err != nil {
		return errors.Wrap(err, MsgEncodeFrameFailed)
	}
	if err = client.Enqueue(frame); err != nil {
		return err
	}

	e.registry.Add(client)
	if e.clientListener != nil {
		e.clientListener.OnSSENewClient(client)
	}
	log.Debug().Str("clientId", client.ID.String()).Str("remoteAddr", client.RemoteAddr).
		Msgf("Client added... %d registered clients", e.registry.Count())
	return nil
}

// Disconnect is safe to call from several paths, the client is deregistered exactly once
func (e *ConsoleLogSSEServer) Disconnect(client *SSEClient) {
	e.registry.Remove(client)
	if !client.Close() {
		return
	}
	if e.clientListener != nil {
		e.clientListener.OnSSEClientClosed(client)
	}
	log.Debug().Str("clientId", client.ID.String()).
		Msgf("Removed client... %d registered clients", e.registry.Count())
}

// Broadcast encodes the record once and queues the same frame on every subscriber.
// Subscribers that can no longer accept frames are pruned; that is never reported as an error.
func (e *ConsoleLogSSEServer) Broadcast(record model.LogRecord) (BroadcastResult, error) {
	frame, err := model.EncodeFrame(record)
	if err != nil {
		return BroadcastResult{}, errors.Wrap(err, MsgEncodeFrameFailed)
	}

	e.broadcastMutex.Lock()
	result := BroadcastResult{}
	result.Pruned = e.registry.ForEach(func(client *SSEClient) error {
		if err := client.Enqueue(frame); err != nil {
			return err
		}
		result.Delivered++
		return nil
	})
	e.broadcastMutex.Unlock()

	if result.Pruned > 0 {
		log.Debug().Int("pruned", result.Pruned).Msg("Removed dead clients during broadcast")
	}
	if e.clientListener != nil {
		e.clientListener.OnSSEBroadcast(record, result)
	}
	return result, nil
}

func (e *ConsoleLogSSEServer) Publish(ctx context.Context, record model.LogRecord) error {
	_, err := e.Broadcast(record)
	return err
}

func (e *ConsoleLogSSEServer) ClientCount() int {
	return e.registry.Count()
}

// QueuedFrames is the number of frames written to subscribers but not yet sent. Closed handles still
// registered are pruned on the way.
func (e *ConsoleLogSSEServer) QueuedFrames() int {
	queued := 0
	e.registry.ForEach(func(client *SSEClient) error {
		if client.IsClosed() {
			return ErrClientClosed
		}
		queued += client.Pending()
		return nil
	})
	return queued
}

// Shutdown closes every open stream and refuses new ones
func (e *ConsoleLogSSEServer) Shutdown() {
	e.lifecycleMutex.Lock()
	e.isShuttingDown = true
	e.lifecycleMutex.Unlock()

	closed := 0
	e.registry.ForEach(func(client *SSEClient) error {
		client.Close()
		closed++
		return ErrServerShuttingDown
	})
	log.Info().Int("clients", closed).Msg("Log stream server shut down")
}
