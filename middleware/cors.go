package middleware

import (
	"strings"

	"github.com/blutspende/logrelay/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func CreateCorsMiddleware(config *config.Configuration) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	if config.PermittedOrigin == "" || config.PermittedOrigin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		origins := strings.Split(config.PermittedOrigin, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		corsConfig.AllowOrigins = origins
	}

	corsConfig.AllowHeaders = []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"accept",
		"origin",
		"Cache-Control",
		"Last-Event-ID",
		"X-Requested-With",
	}

	corsConfig.AllowMethods = []string{
		"GET",
		"POST",
		"OPTIONS",
	}

	return cors.New(corsConfig)
}
