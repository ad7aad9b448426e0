package logrelay

import (
	"net/http"
	"time"

	"github.com/blutspende/logrelay/consolelog/model"
	"github.com/blutspende/logrelay/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// PublishLog godoc
// @Summary Publish a log record
// @Description Broadcasts the record to every connected log stream. Level defaults to INFO. Any JSON value except null is accepted.
// @Tags Logs
// @Accept json
// @Produce json
// @Param request body model.PublishLogRequestTO true "Log record"
// @Success 200 {object} model.PublishLogResponseTO
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 408 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /api/logs [POST]
func (api *api) PublishLog(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		log.Debug().Err(err).Msg(MsgInvalidPublishBody)
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrInvalidRequest)
		return
	}
	request, err := model.ParsePublishLogRequest(body)
	if err != nil {
		log.Debug().Err(err).Str("body", string(body)).Msg(MsgInvalidPublishBody)
		c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrInvalidRequest)
		return
	}

	record := request.ToLogRecord(time.Now())
	if err = api.publisher.Publish(c.Request.Context(), record); err != nil {
		log.Error().Err(err).Interface("level", record.Level).Msg(MsgPublishLogFailed)
		c.AbortWithStatusJSON(http.StatusInternalServerError, middleware.ErrPublishFailed)
		return
	}

	c.JSON(http.StatusOK, model.PublishLogResponseTO{Success: true})
}
