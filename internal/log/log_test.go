package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveypulse/internal/config"
)

func TestInitWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	Init(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1})
	t.Cleanup(func() { Init(config.LogConfig{Level: "info"}) })

	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())
	WithFields(Fields{"surveyId": "abc"}).Info("response stored")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "response stored")
	assert.Contains(t, string(data), "surveyId=abc")
}

func TestInitFallsBackToInfo(t *testing.T) {
	Init(config.LogConfig{Level: "chatty"})
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
}
