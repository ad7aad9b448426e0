package logrelay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blutspende/logrelay/server"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHealthReportsSubscribers(t *testing.T) {
	relay := setupTestRelay(t, testConfiguration(), nil, nil)
	subscribeToStream(t, relay.httpServer.URL).nextRecord(t)
	waitForSubscribers(t, relay, 1)

	response, err := http.Get(relay.httpServer.URL + "/health")
	require.Nil(t, err)
	defer response.Body.Close()

	var health healthCheck
	require.Nil(t, json.NewDecoder(response.Body).Decode(&health))
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "running", health.Status)
	assert.Equal(t, 1, health.Subscribers)
	assert.Equal(t, 0, health.QueuedFrames)
	assert.False(t, health.LongPolling)
}

func TestStreamResponseHeaders(t *testing.T) {
	relay := setupTestRelay(t, testConfiguration(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, relay.httpServer.URL+"/api/logs", nil)
	require.Nil(t, err)
	response, err := http.DefaultClient.Do(request)
	require.Nil(t, err)
	defer response.Body.Close()

	assert.Contains(t, response.Header.Get("Content-Type"), "text/event-stream")
	assert.Equal(t, "no-cache", response.Header.Get("Cache-Control"))
	assert.Equal(t, "*", response.Header.Get("Access-Control-Allow-Origin"))
}

func TestDebugRoutesOnlyInDevelopment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	configuration := testConfiguration()
	sseServer := server.NewConsoleLogSSEServer(nil)

	engine := newAPI(gin.New(), configuration, sseServer, nil, sseServer).engine
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	configuration.Development = true
	engine = newAPI(gin.New(), configuration, sseServer, nil, sseServer).engine
	recorder = httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestPollRouteOnlyWithLongPolling(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sseServer := server.NewConsoleLogSSEServer(nil)
	engine := newAPI(gin.New(), testConfiguration(), sseServer, nil, sseServer).engine

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/logs/poll?category=logs&timeout=1", nil))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	configuration := testConfiguration()
	configuration.APIPort = 0
	sseServer := server.NewConsoleLogSSEServer(nil)
	api := newAPI(gin.New(), configuration, sseServer, nil, sseServer)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- api.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-result:
		assert.Nil(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("api did not shut down")
	}
	assert.ErrorIs(t, sseServer.Register(server.NewSSEClient("127.0.0.1")), server.ErrServerShuttingDown)
}
