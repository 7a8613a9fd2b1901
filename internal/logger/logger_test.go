package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARN"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
	assert.Equal(t, "WARN", WARN.String())
}

func TestLogger_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	require.NoError(t, Init(Config{Level: INFO, FilePath: path, JSON: true}))

	Debug("dropped")
	WithFields(F("request_id", "r1")).Info("task approved", F("task_id", "t1"), Err(errors.New("boom")))
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "task approved", entry["msg"])
	assert.Equal(t, "r1", entry["request_id"])
	assert.Equal(t, "t1", entry["task_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestGlobalBeforeInit(t *testing.T) {
	require.NoError(t, Close())
	assert.NotPanics(t, func() {
		Info("nobody listens")
		WithFields(F("k", "v")).Warn("still fine")
	})
	assert.Equal(t, DefaultConfig(), GetConfig())
}
