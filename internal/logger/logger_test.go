package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type dbSection struct {
	Host     string
	Password string `masked:"true"`
	Timeout  time.Duration
}

type sampleConfig struct {
	Name   string
	Token  string `masked:"true"`
	DB     dbSection
	hidden string
}

func TestNew(t *testing.T) {
	l, err := New("debug", false)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = New("warn", true)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))

	_, err = New("loud", false)
	require.Error(t, err)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****", Mask(""))
	assert.Equal(t, "****", Mask("ab"))
	assert.Equal(t, "s****t", Mask("secret"))
}

func TestLogConfig_MasksTaggedFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := &sampleConfig{
		Name:   "repairs",
		Token:  "supersecret",
		DB:     dbSection{Host: "db", Password: "hunter22", Timeout: time.Second},
		hidden: "x",
	}
	require.NoError(t, LogConfig(zap.New(core), cfg))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	got, ok := fields["sampleConfig"].(map[string]any)
	require.True(t, ok, "unexpected field shape %#v", fields)
	assert.Equal(t, "repairs", got["Name"])
	assert.Equal(t, "s****t", got["Token"])
	assert.NotContains(t, got, "hidden")
	db := got["DB"].(map[string]any)
	assert.Equal(t, "h****2", db["Password"])
	assert.Equal(t, "db", db["Host"])
}

func TestLogConfig_RequiresPointer(t *testing.T) {
	err := LogConfig(zap.NewNop(), sampleConfig{})
	require.ErrorIs(t, err, ErrConfigNotPointer)
}
