package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogrusTestLogger(t *testing.T) (*LogrusLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.JSONFormatter{})
	return NewLogrusLogger(l), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogrusLogger_Levels(t *testing.T) {
	log, buf := newLogrusTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", "two")
	log.Warn(ctx, "wrn")
	log.Error(ctx, "err", "err", errors.New("boom"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 4)

	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "dbg", lines[0]["msg"])
	assert.EqualValues(t, 1, lines[0]["a"])

	assert.Equal(t, "info", lines[1]["level"])
	assert.Equal(t, "two", lines[1]["b"])

	assert.Equal(t, "warning", lines[2]["level"])

	assert.Equal(t, "error", lines[3]["level"])
	assert.Equal(t, "boom", lines[3]["err"])
}

func TestLogrusLogger_With(t *testing.T) {
	log, buf := newLogrusTestLogger(t)

	child := log.With("request_id", "r-1")
	child.Info(context.Background(), "hello", "k", "v")
	log.Info(context.Background(), "parent")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "r-1", lines[0]["request_id"])
	assert.Equal(t, "v", lines[0]["k"])
	_, ok := lines[1]["request_id"]
	assert.False(t, ok, "parent logger must not inherit child fields")
}

func Test_toFields_OddArgs(t *testing.T) {
	f := toFields([]any{"a", 1, 42, "x", "dangling"})
	assert.Equal(t, 1, f["a"])
	assert.Equal(t, "x", f["42"])
	assert.Equal(t, "dangling", f["!BADKEY"])
}
