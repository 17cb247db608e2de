package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelDebug).WithComponent("orders").With("order_id", "ORD-1")
	l.Info("status changed", "to", "cooking")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "status changed", entry["msg"])
	assert.Equal(t, "orders", entry["component"])
	assert.Equal(t, "ORD-1", entry["order_id"])
	assert.Equal(t, "cooking", entry["to"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelWarn)
	l.Info("hidden")
	assert.Zero(t, buf.Len())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sushikoi.log")
	l, err := New(path, "info")
	require.NoError(t, err)
	l.Error("boom", "err", "x")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"boom"`)
}
