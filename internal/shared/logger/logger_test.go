package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New("bet-service", "prod", "")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("bet-service", "local", "")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("bet-service", "local", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = New("bet-service", "prod", "loud")
	assert.Error(t, err)
}

func TestWithFile(t *testing.T) {
	l, err := New("custody-service", "prod", "")
	require.NoError(t, err)
	assert.Same(t, l, WithFile(l, ""))

	// core em memória: Sync não toca stdout/stderr
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core).With(zap.String("service", "custody-service"))

	path := filepath.Join(t.TempDir(), "custody.log")
	fl := WithFile(base, path)
	fl.Info("charge recorded", zap.String("tx_id", "chg_b1_abc"))
	fl.Debug("dropped")
	require.NoError(t, fl.Sync())

	assert.Equal(t, 1, logs.Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tx_id":"chg_b1_abc"`)
	assert.Contains(t, string(data), `"msg":"charge recorded"`)
	assert.NotContains(t, string(data), "dropped")
}
