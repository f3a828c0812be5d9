package projectlog

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter(t *testing.T) {
	entry := logrus.NewEntry(logrus.New()).WithFields(logrus.Fields{
		FieldKeyUserID:    "u1",
		FieldKeyMessageID: "m1",
		FieldKeyOutcome:   "updated",
		FieldKeyRequestID: "req-1",
		"attempt":         2,
		"cause":           errors.New("timeout"),
	}).WithError(errors.New("oracle unavailable"))
	entry.Time = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	entry.Level = logrus.WarnLevel
	entry.Message = "pipeline failed"

	raw, err := (&JSONFormatter{}).Format(entry)
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &line))
	assert.Equal(t, "2024-05-01T08:00:00Z", line["time"])
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, ServiceName, line["service"])
	assert.Equal(t, "pipeline failed", line["msg"])
	assert.Equal(t, "u1", line["user_id"])
	assert.Equal(t, "m1", line["message_id"])
	assert.Equal(t, "updated", line["outcome"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "oracle unavailable", line["error"])
	assert.Equal(t, map[string]interface{}{"attempt": float64(2), "cause": "timeout"}, line["fields"])
	assert.NotContains(t, line, "caller")
}

func TestJSONFormatter_NoTimestamp(t *testing.T) {
	entry := logrus.NewEntry(logrus.New())
	entry.Message = "hello"

	raw, err := (&JSONFormatter{DisableTimestamp: true}).Format(entry)
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &line))
	assert.NotContains(t, line, "time")
	assert.NotContains(t, line, "fields")
	assert.Equal(t, "hello", line["msg"])
}
