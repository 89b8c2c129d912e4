package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/manageitwa/payg-tax/internal/logging"
)

func TestUse_RoutesGlobalHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logging.Use(zap.New(core))

	logging.Info("calculated", zap.String("scale", "nat1004.scale2"))
	logging.Debug("dropped below level")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "calculated", entries[0].Message)
	assert.Equal(t, "nat1004.scale2", entries[0].ContextMap()["scale"])
}

func TestInitialize_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payg.log")

	require.NoError(t, logging.Initialize(logging.Config{Level: "debug", Format: "json", Output: path}))
	logging.Debug("hello", zap.String("calculation_id", "abc"))
	logging.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"calculation_id":"abc"`)
	assert.Contains(t, string(data), `"msg":"hello"`)

	// restore the default for other tests
	require.NoError(t, logging.Initialize(logging.DefaultConfig()))
}

func TestInitialize_BadLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, logging.Initialize(logging.Config{Level: "loud", Format: "json", Output: "stderr"}))
	assert.False(t, logging.Logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logging.Logger.Core().Enabled(zapcore.InfoLevel))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, logging.DefaultConfig().Validate())
	assert.NoError(t, logging.Config{Level: "warn", Format: "json"}.Validate())
	assert.ErrorContains(t, logging.Config{Level: "loud", Format: "json"}.Validate(), "logging level")
	assert.ErrorContains(t, logging.Config{Level: "info", Format: "xml"}.Validate(), "logging format")
}

func TestComponent_TagsEntries(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logging.Use(zap.New(core))

	logging.Component("api").Info("calculation recorded")

	require.Len(t, logs.All(), 1)
	assert.Equal(t, "api", logs.All()[0].ContextMap()["component"])
}
