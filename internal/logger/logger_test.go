package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Out: &buf, NoColor: true})
	require.NoError(t, err)

	l.Debug("APP", "debug line")
	l.Info("APP", "info line")
	l.Warn("APP", "warn line")
	l.Error("db", "error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "WARN  [APP       ] warn line")
	assert.Contains(t, out, "ERROR [DB        ] error line")
	assert.Contains(t, out, "logger_test.go:")
}

func TestHelpers(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "debug", Out: &buf, NoColor: true})
	require.NoError(t, err)

	l.LogAPI("GET", "/users", 200, 1500*time.Microsecond)
	l.LogDatabase("SELECT", "users", "listing")
	l.LogSecurity("PASSWORDS", "plaintext storage enabled")

	out := buf.String()
	assert.Contains(t, out, "[API       ] GET /users - 200 (1.5ms)")
	assert.Contains(t, out, "[DATABASE  ] [SELECT] users - listing")
	assert.Contains(t, out, "WARN  [SECURITY  ] [PASSWORDS] plaintext storage enabled")
}

func TestFileMirrorWritesJSON(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l, err := New(Options{Service: "users-test", Dir: dir, Out: &buf, NoColor: true})
	require.NoError(t, err)

	l.Info("users", "created 1")
	l.Close()

	name := filepath.Join(dir, "users-test-"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(name)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "USERS", entry.Category)
	assert.Equal(t, "created 1", entry.Message)
	assert.Equal(t, "logger_test.go", entry.File)
}

func TestFatalExits(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Out: &buf, NoColor: true})
	require.NoError(t, err)

	code := -1
	l.exit = func(c int) { code = c }
	l.Fatal("CONFIG", "bad config")

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "FATAL [CONFIG    ] bad config")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" Warning "))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel(""))
}

func TestNopDiscards(t *testing.T) {
	l := NewNop()
	l.Error("APP", "nothing")
	l.Close()
}
