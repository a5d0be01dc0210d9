package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "debug", Format: "json"}, &buf)

	l.WithComponent("editor").WithField("index", 2).Info().Msg("Segment edit committed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "editor", entry["component"])
	assert.Equal(t, float64(2), entry["index"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Segment edit committed", entry["message"])
}

func TestConsoleLoggerWithoutTerminalIsPlain(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Format: "console"}, &buf)

	l.Warn().Msg("hello")
	out := buf.String()
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "hello")
	assert.NotContains(t, out, "\x1b[", "no colour codes when the writer is not a terminal")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))

	f, err := os.Create(filepath.Join(t.TempDir(), "out.log"))
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}

func TestWithErrorNil(t *testing.T) {
	l := Nop()
	assert.Same(t, l, l.WithError(nil))
}

func TestInitializeFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "videocaps.log")
	require.NoError(t, Initialize(&Config{Level: "info", Format: "json", Output: path}))
	t.Cleanup(func() { _ = Initialize(DefaultConfig()) })

	WithComponent("test").Info().Msg("written")
	Debug().Msg("filtered")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written")
	assert.NotContains(t, string(data), "filtered")
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Format: "json"}, &buf)

	ctx := WithLogger(context.Background(), l.WithField("request_id", "abc"))
	InfoCtx(ctx).Msg("scoped")
	assert.Contains(t, buf.String(), `"request_id":"abc"`)

	assert.NotNil(t, FromContext(context.Background()))
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Format: "json"}, &buf)

	l.WithFields(map[string]interface{}{"session_id": "s1", "index": 3}).Info().Msg("fields")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "s1", entry["session_id"])
	assert.Equal(t, float64(3), entry["index"])
}

func TestContextHelpersUseScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Format: "json"}, &buf)
	ctx := WithLogger(context.Background(), l.WithField("request_id", "r-1"))

	ErrorCtx(ctx).Msg("failed")
	Ctx(ctx).Info().Msg("ran")

	out := buf.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"message":"failed"`)
	assert.Contains(t, out, `"message":"ran"`)
	assert.Equal(t, 2, strings.Count(out, `"request_id":"r-1"`))
}
