package eventsvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
)

type recordingLogger struct {
	msgs []string
	args [][]interface{}
}

func (l *recordingLogger) Debug(msg string, args ...interface{}) {
	l.msgs = append(l.msgs, msg)
	l.args = append(l.args, args)
}
func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Warn(string, ...interface{})  {}
func (l *recordingLogger) Error(string, ...interface{}) {}
func (l *recordingLogger) Fatal(string, ...interface{}) {}

func TestLogPublisher(t *testing.T) {
	logger := &recordingLogger{}
	pub := NewLogPublisher(logger)

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	err := pub.Publish(context.Background(), core.Event{Name: core.EventResultRecorded, OccurredAt: at, Payload: 42})
	require.NoError(t, err)

	require.Len(t, logger.msgs, 1)
	assert.Equal(t, "event result.recorded", logger.msgs[0])
	assert.Equal(t, map[string]interface{}{"occurred_at": "2024-01-01T12:00:00Z", "payload": 42}, logger.args[0][0])
}
