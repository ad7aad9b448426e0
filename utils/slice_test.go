package utils_test

import (
	"testing"

	"github.com/blutspende/logrelay/utils"
	"github.com/stretchr/testify/assert"
)

type level string

func TestSliceContains(t *testing.T) {
	transports := []string{"sse", "longpoll"}

	assert.True(t, utils.SliceContains("longpoll", transports))
	assert.False(t, utils.SliceContains("websocket", transports))
	assert.False(t, utils.SliceContains("sse", nil))
}

func TestJoinEnumsAsString(t *testing.T) {
	assert.Equal(t, "INFO, ERROR", utils.JoinEnumsAsString([]level{"INFO", "ERROR"}, ", "))
	assert.Equal(t, "", utils.JoinEnumsAsString([]level{}, ", "))
}
