package logrelay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/blutspende/logrelay/config"
	"github.com/blutspende/logrelay/consolelog/model"
	"github.com/blutspende/logrelay/consolelog/repository"
	"github.com/blutspende/logrelay/server"
	"github.com/gin-contrib/sse"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	longpollclient "github.com/jcuga/golongpoll/client"
	"github.com/rs/zerolog/log"
)

type ConnectionState string

const (
	StateDisconnected ConnectionState = "DISCONNECTED"
	StateConnecting   ConnectionState = "CONNECTING"
	StateConnected    ConnectionState = "CONNECTED"
	StateError        ConnectionState = "ERROR"
)

const maxFrameSize = 1024 * 1024

// LogStreamListener callbacks run on the stream goroutine and must not block
type LogStreamListener interface {
	OnLogEntry(entry model.LogEntry)
	OnStateChanged(state ConnectionState)
}

type LogStreamClient interface {
	// Start opens the stream and blocks until Close, ctx cancellation or, with reconnecting disabled, a transport failure.
	// It returns ErrLogStreamClosed at once when Close was called before.
	Start(ctx context.Context) error
	Close()
	GetState() ConnectionState
	GetLogs() []model.LogEntry
	Clear()
	ToggleExpanded() bool
	IsExpanded() bool
	IsVisible() bool
}

type logStreamClient struct {
	configuration *config.Configuration
	restyClient   *resty.Client
	repository    repository.ConsoleLogRepository
	listener      LogStreamListener

	mutex    sync.Mutex
	state    ConnectionState
	cancel   context.CancelFunc
	closed   bool
	expanded bool
	visible  bool
}

func NewLogStreamClient(configuration *config.Configuration, restyClient *resty.Client, listener LogStreamListener) LogStreamClient {
	return &logStreamClient{
		configuration: configuration,
		restyClient:   restyClient,
		repository:    repository.NewConsoleLogRepository(configuration.ConsumerSettings.BufferSize),
		listener:      listener,
		state:         StateDisconnected,
	}
}

func (c *logStreamClient) Start(ctx context.Context) error {
	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return ErrLogStreamClosed
	}
	if c.cancel != nil {
		c.mutex.Unlock()
		return ErrLogStreamAlreadyStarted
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mutex.Unlock()

	defer func() {
		cancel()
		c.mutex.Lock()
		c.cancel = nil
		c.mutex.Unlock()
		c.setState(StateDisconnected)
	}()

	settings := c.configuration.ConsumerSettings
	delay := time.Duration(settings.ReconnectInitialDelayMs) * time.Millisecond
	maxDelay := time.Duration(settings.ReconnectMaxDelayMs) * time.Millisecond

	for {
		c.setState(StateConnecting)
		err := c.connect(sessionCtx)
		if sessionCtx.Err() != nil {
			return nil
		}

		wasConnected := c.GetState() == StateConnected
		log.Error().Err(err).Str("transport", settings.Transport).Msg(MsgLogStreamTransport)
		c.setState(StateError)
		c.setState(StateDisconnected)

		if !settings.ReconnectEnabled {
			return err
		}
		if wasConnected {
			delay = time.Duration(settings.ReconnectInitialDelayMs) * time.Millisecond
		}
		log.Debug().Dur("delay", delay).Msg("Reconnecting to log stream")
		select {
		case <-sessionCtx.Done():
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if maxDelay > 0 && delay > maxDelay {
			delay = maxDelay
		}
	}
}

func (c *logStreamClient) connect(ctx context.Context) error {
	if c.configuration.ConsumerSettings.Transport == config.TransportLongPoll {
		return c.poll(ctx)
	}
	return c.stream(ctx)
}

func transportError(err error) error {
	return fmt.Errorf("%w: %w", ErrLogStreamTransportFailed, err)
}

func (c *logStreamClient) stream(ctx context.Context) error {
	response, err := c.restyClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", sse.ContentType).
		SetHeader("Cache-Control", "no-cache").
		Get(c.configuration.ConsumerSettings.StreamURL)
	if err != nil {
		return transportError(err)
	}
	body := response.RawBody()
	defer body.Close()

	if response.StatusCode() != http.StatusOK {
		return transportError(fmt.Errorf("%w: %d", ErrUnexpectedStreamStatus, response.StatusCode()))
	}

	if err = c.readFrames(ctx, body); err != nil {
		return transportError(err)
	}
	return transportError(io.EOF)
}

// readFrames joins the data lines of each event and dispatches it on the blank line ending the event.
// Comments and fields other than data are ignored.
func (c *logStreamClient) readFrames(ctx context.Context, body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(data) > 0 {
				c.handleFrame(ctx, strings.Join(data, "\n"))
				data = data[:0]
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		if field == "data" {
			data = append(data, strings.TrimPrefix(value, " "))
		}
	}
	return scanner.Err()
}

func (c *logStreamClient) poll(ctx context.Context) error {
	settings := c.configuration.ConsumerSettings
	u, err := url.Parse(settings.PollURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStreamURL, err)
	}

	httpClient := &http.Client{
		Transport: &RestyRoundTripper{restyClient: c.restyClient},
	}

	longPoll, err := longpollclient.NewClient(longpollclient.ClientOptions{
		SubscribeUrl:       *u,
		Category:           server.LongPollCategory,
		PollTimeoutSeconds: settings.PollTimeoutSeconds,
		HttpClient:         httpClient,
	})
	if err != nil {
		return transportError(err)
	}
	defer longPoll.Stop()

	events := longPoll.Start(time.Now())
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Long poll gracefully stopped")
			return nil
		case event, ok := <-events:
			if !ok {
				return transportError(io.EOF)
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				log.Error().Err(err).Msg("marshal long poll event data failed")
				continue
			}
			c.handleFrame(ctx, string(data))
		}
	}
}

func (c *logStreamClient) handleFrame(ctx context.Context, data string) {
	if ctx.Err() != nil {
		return
	}
	c.setState(StateConnected)

	record, err := model.ParseLogFrame(data)
	if err != nil {
		log.Error().Err(fmt.Errorf("%w: %w", ErrParseLogFrameFailed, err)).Str("data", data).Msg("Dropping log frame")
		return
	}

	entry := model.LogEntry{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now(),
		Level:      record.Level,
		Message:    record.Message,
		Timestamp:  record.Timestamp,
	}
	if entry.Message == "" {
		entry.Message = data
	}

	c.repository.CreateConsoleLog(entry)
	c.mutex.Lock()
	c.visible = true
	c.mutex.Unlock()

	if c.listener != nil {
		c.listener.OnLogEntry(entry)
	}
}

func (c *logStreamClient) setState(state ConnectionState) {
	c.mutex.Lock()
	if c.state == state || (c.closed && state != StateDisconnected) {
		c.mutex.Unlock()
		return
	}
	c.state = state
	c.mutex.Unlock()

	log.Trace().Str("state", string(state)).Msg("Log stream state changed")
	if c.listener != nil {
		c.listener.OnStateChanged(state)
	}
}

// Close ends the stream from any state and is final, a closed client can not be started again
func (c *logStreamClient) Close() {
	c.mutex.Lock()
	c.closed = true
	cancel := c.cancel
	c.mutex.Unlock()

	if cancel != nil {
		cancel()
	}
	c.setState(StateDisconnected)
}

func (c *logStreamClient) GetState() ConnectionState {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

func (c *logStreamClient) GetLogs() []model.LogEntry {
	return c.repository.LoadConsoleLogs()
}

func (c *logStreamClient) Clear() {
	c.repository.Clear()
}

func (c *logStreamClient) ToggleExpanded() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.expanded = !c.expanded
	return c.expanded
}

func (c *logStreamClient) IsExpanded() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.expanded
}

func (c *logStreamClient) IsVisible() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.visible
}
