package projectlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimestampFormat = time.RFC3339Nano

	ServiceName = "ai_impression"

	// 以下 entry.Data 中的字段提升为顶层字段，其余字段放入 fields
	FieldKeyRequestID = "request_id"
	FieldKeyUserID    = "user_id"
	FieldKeyMessageID = "message_id"
	FieldKeyOutcome   = "outcome"
	FieldKeyError     = "error"
)

// LogFormat 一行 JSON 日志
type LogFormat struct {
	Time      string                 `json:"time,omitempty"`
	Level     string                 `json:"level"`
	Service   string                 `json:"service"`
	Msg       string                 `json:"msg"`
	RequestID interface{}            `json:"request_id,omitempty"`
	UserID    interface{}            `json:"user_id,omitempty"`
	MessageID interface{}            `json:"message_id,omitempty"`
	Outcome   interface{}            `json:"outcome,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

type JSONFormatter struct {
	TimestampFormat  string
	DisableTimestamp bool
	PrettyPrint      bool
}

func (f *JSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	line := &LogFormat{
		Level:   entry.Level.String(),
		Service: ServiceName,
		Msg:     entry.Message,
	}
	if !f.DisableTimestamp {
		format := f.TimestampFormat
		if format == "" {
			format = defaultTimestampFormat
		}
		line.Time = entry.Time.Format(format)
	}
	if entry.HasCaller() {
		line.Caller = fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
	}

	for k, v := range entry.Data {
		switch k {
		case FieldKeyRequestID:
			line.RequestID = v
		case FieldKeyUserID:
			line.UserID = v
		case FieldKeyMessageID:
			line.MessageID = v
		case FieldKeyOutcome:
			line.Outcome = v
		case FieldKeyError:
			line.Error = errorString(v)
		default:
			if line.Fields == nil {
				line.Fields = make(map[string]interface{}, len(entry.Data))
			}
			// encoding/json 会把 error 编码成 {}
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			line.Fields[k] = v
		}
	}

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}
	encoder := json.NewEncoder(b)
	if f.PrettyPrint {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(line); err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}
	return b.Bytes(), nil
}

func errorString(v interface{}) string {
	switch e := v.(type) {
	case nil:
		return ""
	case error:
		return e.Error()
	default:
		return fmt.Sprint(e)
	}
}
