package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInit_Levels(t *testing.T) {
	t.Cleanup(func() { UseLogger(zap.NewNop().Sugar()) })

	require.NoError(t, Init("production", ""))
	assert.False(t, GetLogger().Desugar().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("development", ""))
	assert.True(t, GetLogger().Desugar().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("development", "warn"))
	assert.False(t, GetLogger().Desugar().Core().Enabled(zapcore.InfoLevel))

	assert.Error(t, Init("production", "loud"))
}
