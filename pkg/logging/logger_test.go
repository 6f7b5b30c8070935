package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{" WARN ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComponentPrefix(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := Wrap(zap.New(core))

	logger.ComponentInfo(ComponentRoot, "Custom params:", zap.Uint16("root port", 30335))
	logger.ComponentWarn(ComponentRouter, "router unreachable")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "[ROOT] Custom params:", entries[0].Message)
	assert.Equal(t, uint16(30335), entries[0].ContextMap()["root port"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "[ROUTER] router unreachable", entries[1].Message)
}

func TestColoredPrefix(t *testing.T) {
	l := &ColoredLogger{Logger: zap.NewNop(), enableColors: true}
	msg := l.prefix(ComponentLifecycle, "stop")
	assert.True(t, strings.HasPrefix(msg, BrightRed+"[LIFECYCLE]"+Reset))
	assert.True(t, l.Colored())
}

func TestNewWithOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.log")

	logger, err := New(Options{Level: "info", OutputFile: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.ComponentInfo(ComponentNode, "starting")
	logger.ComponentDebug(ComponentNode, "hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[NODE] starting")
	assert.NotContains(t, string(data), "hidden")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "verbose"})
	assert.Error(t, err)
}
