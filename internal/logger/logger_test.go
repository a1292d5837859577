package logger

import (
	"context"
	"testing"

	"github.com/akio/rosgo/ros"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got, s)
	}

	_, ok := ParseLogLevel("verbose")
	require.False(t, ok)
}

func TestRosSeverity(t *testing.T) {
	t.Parallel()

	require.Equal(t, ros.LogLevelDebug, RosSeverity(zapcore.DebugLevel))
	require.Equal(t, ros.LogLevelInfo, RosSeverity(zapcore.InfoLevel))
	require.Equal(t, ros.LogLevelWarn, RosSeverity(zapcore.WarnLevel))
	require.Equal(t, ros.LogLevelError, RosSeverity(zapcore.ErrorLevel))
	require.Equal(t, ros.LogLevelFatal, RosSeverity(zapcore.FatalLevel))
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))

	l := zap.NewNop().Sugar()
	ctx := ToContext(context.Background(), l)
	require.Same(t, l, FromContext(ctx))

	named := WithName(ctx, "markers")
	require.NotSame(t, l, FromContext(named))
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	ctx = WithKV(WithName(ctx, "scanner"), "model", "G2")

	Debugf(ctx, "ros arguments %v", []string{"__name:=lidar"})
	DebugKV(ctx, "published scan", "seq", 3)
	Infof(ctx, "stopped")
	InfoKV(ctx, "scanning", "topic", "/scan")
	Warnf(ctx, "failed to read device info: %v", "timeout")
	WarnKV(ctx, "lidar health check failed", "error", "code 2")
	ErrorKV(ctx, "ydlidar-scan failed", "error", "unplugged")

	entries := logs.AllUntimed()
	require.Len(t, entries, 7)

	levels := make([]zapcore.Level, 0, len(entries))
	for _, e := range entries {
		levels = append(levels, e.Level)
		require.Equal(t, "scanner", e.LoggerName)
		require.Equal(t, "G2", e.ContextMap()["model"])
	}
	require.Equal(t, []zapcore.Level{
		zapcore.DebugLevel, zapcore.DebugLevel,
		zapcore.InfoLevel, zapcore.InfoLevel,
		zapcore.WarnLevel, zapcore.WarnLevel,
		zapcore.ErrorLevel,
	}, levels)

	require.Equal(t, "ros arguments [__name:=lidar]", entries[0].Message)
	require.Equal(t, int64(3), entries[1].ContextMap()["seq"])
	require.Equal(t, "/scan", entries[3].ContextMap()["topic"])
}
