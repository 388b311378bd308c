package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{level: "debug", want: zapcore.DebugLevel},
		{level: "warn", want: zapcore.WarnLevel},
		{level: "nonsense", want: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := Init("json", tt.level)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			assert.False(t, l.Core().Enabled(tt.want-1))
		})
	}
}

func TestSetup_ReplacesGlobals(t *testing.T) {
	restore, err := Setup("console", "error")
	require.NoError(t, err)

	assert.False(t, zap.L().Core().Enabled(zapcore.WarnLevel))
	assert.True(t, zap.L().Core().Enabled(zapcore.ErrorLevel))

	restore()

	// back to the default no-op logger
	assert.False(t, zap.L().Core().Enabled(zapcore.ErrorLevel))
}
