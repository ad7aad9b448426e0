package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type LogLevel string // @Name LogLevel

const (
	Debug   LogLevel = "DEBUG"
	Info    LogLevel = "INFO"
	Warning LogLevel = "WARNING"
	Error   LogLevel = "ERROR"
)

const HandshakeMessage = "Log stream connected"

// TimestampFormat is ISO-8601 in UTC with millisecond precision
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

var frameDataPrefix = []byte("data: ")
var frameTerminator = []byte("\n\n")

func (l LogLevel) IsValid() bool {
	switch l {
	case Debug, Info, Warning, Error:
		return true
	}
	return false
}

// ParseLogLevel falls back to Info for empty or unknown levels
func ParseLogLevel(raw string) LogLevel {
	level := LogLevel(strings.ToUpper(strings.TrimSpace(raw)))
	if level == "WARN" {
		return Warning
	}
	if !level.IsValid() {
		return Info
	}
	return level
}

type LogRecord struct {
	Level     LogLevel `json:"level"`               // The log level
	Message   string   `json:"message"`             // The log message
	Timestamp string   `json:"timestamp,omitempty"` // Server side publish time
} // @Name LogRecord

func NewLogRecord(level LogLevel, message string, publishedAt time.Time) LogRecord {
	return LogRecord{
		Level:     level,
		Message:   message,
		Timestamp: FormatTimestamp(publishedAt),
	}
}

func HandshakeRecord() LogRecord {
	return LogRecord{
		Level:   Info,
		Message: HandshakeMessage,
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// EncodeFrame renders a record as a single event-stream frame: "data: <json>\n\n"
func EncodeFrame(record LogRecord) ([]byte, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(frameDataPrefix)+len(payload)+len(frameTerminator))
	frame = append(frame, frameDataPrefix...)
	frame = append(frame, payload...)
	frame = append(frame, frameTerminator...)
	return frame, nil
}

var ErrInvalidLogBody = errors.New("log body is not a JSON value")

var jsonNull = []byte("null")

type PublishLogRequestTO struct {
	Level   json.RawMessage `json:"level" swaggertype:"string"`
	Message json.RawMessage `json:"message" swaggertype:"string"`
}

// ParsePublishLogRequest accepts any JSON value except null; only objects carry level and message
func ParsePublishLogRequest(body []byte) (PublishLogRequestTO, error) {
	var request PublishLogRequestTO
	if err := unmarshalLogFields(body, &request); err != nil {
		return PublishLogRequestTO{}, err
	}
	return request, nil
}

func unmarshalLogFields(body []byte, target any) error {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) || !json.Valid(raw) {
		return ErrInvalidLogBody
	}
	if raw[0] != '{' {
		return nil
	}
	return json.Unmarshal(raw, target)
}

// jsonText renders a JSON value as text; strings are taken verbatim, null and absent become empty
func jsonText(value json.RawMessage) string {
	raw := bytes.TrimSpace(value)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

// LevelText is empty unless level was sent as a string
func (to PublishLogRequestTO) LevelText() string {
	var text string
	if err := json.Unmarshal(bytes.TrimSpace(to.Level), &text); err != nil {
		return ""
	}
	return text
}

func (to PublishLogRequestTO) MessageText() string {
	return jsonText(to.Message)
}

func (to PublishLogRequestTO) ToLogRecord(publishedAt time.Time) LogRecord {
	return NewLogRecord(ParseLogLevel(to.LevelText()), to.MessageText(), publishedAt)
}

type logFrameTO struct {
	PublishLogRequestTO
	Timestamp json.RawMessage `json:"timestamp"`
}

// ParseLogFrame reads the data of one stream event. Non-object values yield an INFO record with
// an empty message; null and invalid JSON are rejected.
func ParseLogFrame(data string) (LogRecord, error) {
	var frame logFrameTO
	if err := unmarshalLogFields([]byte(data), &frame); err != nil {
		return LogRecord{}, err
	}
	return LogRecord{
		Level:     ParseLogLevel(frame.LevelText()),
		Message:   frame.MessageText(),
		Timestamp: jsonText(frame.Timestamp),
	}, nil
}

type PublishLogResponseTO struct {
	Success bool `json:"success"`
}

// LogEntry is a record as held by a consumer, stamped with a local id and receipt time
type LogEntry struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"receivedAt"`
	Level      LogLevel  `json:"level"`
	Message    string    `json:"message"`
	Timestamp  string    `json:"timestamp,omitempty"`
}
