package logrelay

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/blutspende/logrelay/config"
	"github.com/blutspende/logrelay/middleware"
	"github.com/blutspende/logrelay/server"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	timeout "github.com/vearne/gin-timeout"
)

type GinApi interface {
	Run(ctx context.Context) error
}

type api struct {
	config         *config.Configuration
	engine         *gin.Engine
	sseServer      *server.ConsoleLogSSEServer
	longPollBridge *server.LongPollBridge
	publisher      server.LogPublisher
}

// Run serves until ctx is cancelled. Open log streams are closed before the listener so shutdown does not wait on them.
func (api *api) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", api.config.APIPort),
		Handler: api.engine,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Uint16("port", api.config.APIPort).Msg(MsgApiStarted)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- errors.Wrap(err, MsgApiFailedToStart)
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		api.shutdownStreams()
		return err
	case <-ctx.Done():
	}

	api.shutdownStreams()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(api.config.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, MsgApiShutdownFailed)
	}
	if err := <-serveErr; err != nil {
		return err
	}
	log.Info().Msg(MsgApiEndedGracefully)
	return nil
}

func (api *api) shutdownStreams() {
	api.sseServer.Shutdown()
	if api.longPollBridge != nil {
		api.longPollBridge.Shutdown()
	}
}

func NewAPI(config *config.Configuration, sseServer *server.ConsoleLogSSEServer, longPollBridge *server.LongPollBridge, publisher server.LogPublisher) GinApi {
	return newAPI(gin.New(), config, sseServer, longPollBridge, publisher)
}

func newAPI(engine *gin.Engine, config *config.Configuration, sseServer *server.ConsoleLogSSEServer,
	longPollBridge *server.LongPollBridge, publisher server.LogPublisher) *api {

	if config.LogLevel <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine.Use(gin.Recovery())

	api := api{
		config:         config,
		engine:         engine,
		sseServer:      sseServer,
		longPollBridge: longPollBridge,
		publisher:      publisher,
	}

	engine.Use(middleware.CreateCorsMiddleware(config))

	root := engine.Group("")
	root.GET("/health", api.GetHealth)

	logsGroup := root.Group("/api/logs")
	{
		logsGroup.GET("", sseServer.ServeHTTP())
		logsGroup.POST("", publishTimeout(config), api.PublishLog)
		if longPollBridge != nil {
			logsGroup.GET("/poll", longPollBridge.ServeHTTP())
		}
	}

	// Development-option enables debugger, this can have side-effects
	if api.config.Development {
		debug := root.Group("/debug/pprof")
		{
			debug.GET("/", gin.WrapF(pprof.Index))
			debug.GET("/cmdline", gin.WrapF(pprof.Cmdline))
			debug.GET("/profile", gin.WrapF(pprof.Profile))
			debug.GET("/symbol", gin.WrapF(pprof.Symbol))
			debug.GET("/trace", gin.WrapF(pprof.Trace))
			debug.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
			debug.GET("/heap", gin.WrapH(pprof.Handler("heap")))
			debug.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
			debug.POST("/symbol", gin.WrapF(pprof.Symbol))
		}
	}

	return &api
}

// The stream route must stay unbounded, only publishing gets a deadline
func publishTimeout(config *config.Configuration) gin.HandlerFunc {
	seconds := config.PublishTimeoutSeconds
	if seconds <= 0 {
		seconds = 5
	}
	return timeout.Timeout(
		timeout.WithTimeout(time.Duration(seconds)*time.Second),
		timeout.WithErrorHttpCode(http.StatusRequestTimeout),
		timeout.WithDefaultMsg(middleware.ErrRequestTimeout),
	)
}
