package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestParseFormat accepts console and json, defaulting to console.
func TestParseFormat(t *testing.T) {
	t.Parallel()

	format, ok := ParseFormat("")
	require.True(t, ok)
	require.Equal(t, FormatConsole, format)

	format, ok = ParseFormat(" JSON ")
	require.True(t, ok)
	require.Equal(t, FormatJSON, format)

	_, ok = ParseFormat("xml")
	require.False(t, ok)
}

// TestNew_JSONEncoding checks that the JSON logger emits one object per entry.
func TestNew_JSONEncoding(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := New(FormatJSON, &buf).Named("clock")
	l.Warnw("Persisted value repaired", "field", "interval")

	line := buf.String()
	require.True(t, strings.HasPrefix(line, "{"), line)
	require.Contains(t, line, `"level":"warn"`)
	require.Contains(t, line, `"logger":"clock"`)
	require.Contains(t, line, `"field":"interval"`)
}

// TestConfigure_RejectsUnknownLevel leaves the global logger untouched on bad input.
func TestConfigure_RejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Configure("chatty", ""), ErrUnknownLevel)
	require.Error(t, Configure("", "xml"))
}

// TestFromContext_FallsBackToGlobal ensures a bare context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestWithNameAndKV verifies that scoped loggers carry their name and fields.
func TestWithNameAndKV(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "clock")
	ctx = WithKV(ctx, "base", 4)

	InfoKV(ctx, "Alarm fired", "minute", 1380)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "clock", entries[0].LoggerName)
	require.Equal(t, "Alarm fired", entries[0].Message)

	fields := entries[0].ContextMap()
	require.EqualValues(t, 4, fields["base"])
	require.EqualValues(t, 1380, fields["minute"])
}
