package logrelay

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
)

// BuildVersion - will be filled at build process in pipeline
var BuildVersion string

// ServiceName - will be filled at build process in pipeline
var ServiceName = "logrelay"

type healthCheck struct {
	Service      string   `json:"service"`
	Status       string   `json:"status"`
	BuildVersion string   `json:"buildVersion"`
	Subscribers  int      `json:"subscribers"`
	QueuedFrames int      `json:"queuedFrames"`
	LongPolling  bool     `json:"longPolling"`
	MemStats     memStats `json:"memStats"`
}

type memStats struct {
	Alloc              string `json:"alloc"`
	Sys                string `json:"sys"`
	HeapInUse          string `json:"heapInUse"`
	NumberOfGoRoutines int    `json:"numberOfGoRoutines"`
}

func (api *api) GetHealth(c *gin.Context) {
	info := healthCheck{
		Service:      ServiceName,
		Status:       "running",
		BuildVersion: BuildVersion,
		Subscribers:  api.sseServer.ClientCount(),
		QueuedFrames: api.sseServer.QueuedFrames(),
		LongPolling:  api.longPollBridge != nil,
	}

	var memStat runtime.MemStats
	runtime.ReadMemStats(&memStat)

	info.MemStats.Alloc = fmt.Sprintf("%v MiB", memStat.Alloc/1024/1024)
	info.MemStats.Sys = fmt.Sprintf("%v MiB", memStat.Sys/1024/1024)
	info.MemStats.HeapInUse = fmt.Sprintf("%v MiB", memStat.HeapInuse/1024/1024)
	info.MemStats.NumberOfGoRoutines = runtime.NumGoroutine()

	c.JSON(http.StatusOK, info)
}
