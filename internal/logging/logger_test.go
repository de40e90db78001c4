package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "": LevelInfo, "warning": LevelWarn, " error ": LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, "WARN", LevelWarn.String())
}

func TestTextLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Writer: &buf, Service: "mixclust"})
	l.Info("hidden")
	l.Warn("shown", "column", "age")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "column=age")
	assert.Contains(t, out, "service=mixclust")
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, JSON: true, Writer: &buf})
	l.Debug("fit done", "blocks", 4)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "fit done", rec["msg"])
	assert.Equal(t, float64(4), rec["blocks"])
}

func TestLogDirWritesFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Writer: &buf, LogDir: dir, Service: "svc"})
	l.Info("to both")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "svc_"))
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to both"`)
	assert.Contains(t, buf.String(), "to both")
}

func TestDiscardAndQuiet(t *testing.T) {
	Discard().Error("nothing")
	OrDiscard(nil).Info("nothing")
	l := New(Config{Quiet: true})
	l.Error("nothing")
	assert.NoError(t, l.Close())
}
