package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	out, level := Logger.Out, Logger.GetLevel()
	Logger.SetOutput(buf)
	t.Cleanup(func() {
		Logger.SetOutput(out)
		Logger.SetLevel(level)
	})
	return buf
}

func TestConfigureLogger(t *testing.T) {
	captureLogs(t)

	ConfigureLogger("debug")
	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())

	ConfigureLogger("bavard")
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
}

func TestLogErrorWithUser(t *testing.T) {
	buf := captureLogs(t)
	Logger.SetLevel(logrus.InfoLevel)

	LogErrorWithUser("u1", errors.New("boom"), "échec du like")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "échec du like", entry["message"])
	assert.Equal(t, "error", entry["status"])
}
