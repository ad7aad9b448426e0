package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blutspende/logrelay/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCorsMiddlewareAllowsAllOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CreateCorsMiddleware(&config.Configuration{PermittedOrigin: "*"}))
	engine.GET("/api/logs", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	responseRecorder := httptest.NewRecorder()
	request, _ := http.NewRequest(http.MethodGet, "/api/logs", nil)
	request.Header.Set("Origin", "http://voice.example.com")
	engine.ServeHTTP(responseRecorder, request)

	assert.Equal(t, http.StatusOK, responseRecorder.Code)
	assert.Equal(t, "*", responseRecorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsMiddlewarePreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CreateCorsMiddleware(&config.Configuration{PermittedOrigin: "http://a.example.com, http://b.example.com"}))
	engine.POST("/api/logs", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	responseRecorder := httptest.NewRecorder()
	request, _ := http.NewRequest(http.MethodOptions, "/api/logs", nil)
	request.Header.Set("Origin", "http://b.example.com")
	request.Header.Set("Access-Control-Request-Method", "POST")
	engine.ServeHTTP(responseRecorder, request)

	assert.Equal(t, http.StatusNoContent, responseRecorder.Code)
	assert.Equal(t, "http://b.example.com", responseRecorder.Header().Get("Access-Control-Allow-Origin"))

	responseRecorder = httptest.NewRecorder()
	request, _ = http.NewRequest(http.MethodPost, "/api/logs", nil)
	request.Header.Set("Origin", "http://evil.example.com")
	engine.ServeHTTP(responseRecorder, request)

	assert.Equal(t, http.StatusForbidden, responseRecorder.Code)
}
