package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), DefaultFile)

	log, err := New(Option{Level: "debug", LogFilePath: logPath, Console: &console})
	require.NoError(t, err)

	log.WithField("path", "Account/WOW1/Stormrage").Debug("directory migrated")
	log.Warn("merge conflict")
	require.NoError(t, Close(log))

	assert.Contains(t, console.String(), "directory migrated")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `msg="directory migrated" path=Account/WOW1/Stormrage`)
	assert.Contains(t, string(data), "level=warning")
}

func TestNewLevelFiltersEntries(t *testing.T) {
	var console bytes.Buffer
	log, err := New(Option{Level: "WARN", Console: &console})
	require.NoError(t, err)

	log.Info("hidden")
	log.Error("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestNewJSONFormatter(t *testing.T) {
	var console bytes.Buffer
	log, err := New(Option{Formatter: "JSON", Console: &console})
	require.NoError(t, err)

	log.Info("hello")

	assert.True(t, strings.HasPrefix(console.String(), "{"))
	assert.Contains(t, console.String(), `"msg":"hello"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Option{Level: "chatty"})
	assert.Error(t, err)
}
