package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		development bool
		enabled     zap.AtomicLevel
	}{
		{name: "production info", level: "info", development: false, enabled: zap.NewAtomicLevelAt(zap.InfoLevel)},
		{name: "development debug", level: "debug", development: true, enabled: zap.NewAtomicLevelAt(zap.DebugLevel)},
		{name: "production warn", level: "WARN", development: false, enabled: zap.NewAtomicLevelAt(zap.WarnLevel)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level, tt.development)
			require.NoError(t, err)
			require.NotNil(t, logger)

			assert.True(t, logger.Core().Enabled(tt.enabled.Level()))
			assert.False(t, logger.Core().Enabled(tt.enabled.Level()-1))
		})
	}
}

func TestNewInvalidLevel(t *testing.T) {
	logger, err := New("loud", false)
	assert.Nil(t, logger)
	assert.Error(t, err)
}

func TestMust(t *testing.T) {
	assert.NotPanics(t, func() { Must("info", false) })
	assert.Panics(t, func() { Must("nope", false) })
}
