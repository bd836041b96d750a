package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf)

	child := base.WithField("a", 1)
	child.WithField("b", 2).Info("child")
	base.Info("base")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "a")
	assert.Contains(t, lines[0], "b")
	assert.NotContains(t, lines[1], "a")
	assert.Equal(t, "base", lines[1]["message"])
}

func TestWriterIsTheOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	_, err := l.Writer().Write([]byte("panic recovered\n"))
	require.NoError(t, err)
	assert.Equal(t, "panic recovered\n", buf.String())
}

func TestLogReservationEvent(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).LogReservationEvent("r1", "cancelled", map[string]interface{}{"trip_id": "t1"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "r1", lines[0]["reservation_id"])
	assert.Equal(t, "cancelled", lines[0]["event"])
	assert.Equal(t, "t1", lines[0]["trip_id"])
	assert.Equal(t, "reservation_event", lines[0]["type"])
}

func TestLogAPIRequestLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.LogAPIRequest("GET", "/a", 200, time.Millisecond, "")
	log.LogAPIRequest("GET", "/b", 404, time.Millisecond, "u1")
	log.LogAPIRequest("GET", "/c", 502, time.Millisecond, "")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "info", lines[0]["level"])
	assert.NotContains(t, lines[0], "user_id")
	assert.Equal(t, "warning", lines[1]["level"])
	assert.Equal(t, "u1", lines[1]["user_id"])
	assert.Equal(t, "error", lines[2]["level"])
}

func TestWithContextAndError(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, "u1")

	New(&buf).WithContext(ctx).WithError(errors.New("boom")).Error("failed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-1", lines[0]["request_id"])
	assert.Equal(t, "u1", lines[0]["user_id"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}

func TestLogDataIssuesSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.LogDataIssues("r1", nil)
	assert.Empty(t, buf.String())

	log.LogDataIssues("r1", []string{"trip_missing"})
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "data_quality", lines[0]["type"])
}
