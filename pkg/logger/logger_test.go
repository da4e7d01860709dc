package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConsoleLoggerWritesJSONToConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&Config{Level: "info", Output: OutputConsole, Format: "json", Writer: &buf})
	require.NoError(t, err)

	log.WithFields(Component("provisioner"), Username("alice")).Info("user created")
	log.Debug("suppressed below info")
	require.NoError(t, log.Close())

	out := buf.String()
	assert.Contains(t, out, `"message":"user created"`)
	assert.Contains(t, out, `"component":"provisioner"`)
	assert.Contains(t, out, `"username":"alice"`)
	assert.NotContains(t, out, "suppressed")
}

func TestFileLoggerCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.log")
	log, err := New(&Config{Level: "debug", Output: OutputFile, Format: "json", FilePath: path})
	require.NoError(t, err)

	log.Debug("setup complete", Plugin("sqlite"))
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"plugin":"sqlite"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense"))
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&Config{Level: "info", Format: "json", Writer: &buf})
	require.NoError(t, err)

	SetGlobal(log)
	t.Cleanup(func() { SetGlobal(nil) })

	Get().WithError(errors.New("disk full")).Warn("retrying", Operation("setup"), Bool("created", false))
	assert.Contains(t, buf.String(), `"error":"disk full"`)
	assert.Contains(t, buf.String(), `"created":false`)

	SetGlobal(nil)
	assert.NotNil(t, Get())
}
