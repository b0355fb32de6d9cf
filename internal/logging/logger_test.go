package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vasu1712/sceneitem-widget/internal/config"
)

func TestNewLoggerIsCachedPerComponent(t *testing.T) {
	a := NewLogger("test-cache")
	b := NewLogger("test-cache")
	c := NewLogger("test-cache-other")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "test-cache", a.Data["component"])
}

func TestConfigureReappliesToExistingLoggers(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		Configure(config.LoggingConfig{Level: "info", Format: "text"})
	})

	logger := NewLogger("test-configure")
	Configure(config.LoggingConfig{Level: "debug", Format: "json"})

	assert.Equal(t, logrus.DebugLevel, logger.Logger.GetLevel())

	logger.Debug("rendered")
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "rendered", line["msg"])
	assert.Equal(t, "test-configure", line["component"])
}
