package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for input, want := range tests {
		SetLevel(input)
		require.Equal(t, want, zerolog.GlobalLevel(), input)
	}
}

func TestSetOutputWritesJSON(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var buf bytes.Buffer
	SetOutput(&buf)
	Log.Info().Str("profile_id", "abc").Msg("saved")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "saved", line["message"])
	require.Equal(t, "abc", line["profile_id"])
	require.Equal(t, "info", line["level"])
}

func TestSetConsoleWritesText(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var buf bytes.Buffer
	SetConsole(&buf)
	Log.Warn().Str("file", "profiles.json").Msg("unencrypted")

	out := buf.String()
	require.Contains(t, out, "unencrypted")
	require.Contains(t, out, "profiles.json")
	require.False(t, json.Valid(buf.Bytes()))
}
