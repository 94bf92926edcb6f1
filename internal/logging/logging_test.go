package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-cert-console/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLevels(t *testing.T) {
	testCases := []struct {
		level    string
		expected zerolog.Level
	}{
		{level: "debug", expected: zerolog.DebugLevel},
		{level: "warn", expected: zerolog.WarnLevel},
		{level: "", expected: zerolog.InfoLevel},
		{level: "loud", expected: zerolog.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			logger := logging.NewWithWriter(&bytes.Buffer{}, tc.level, false)
			require.Equal(t, tc.expected, logger.GetLevel())
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info", false)
	logger.Info().Str("endpoint", "/api/cas").Msg("gateway request")
	logger.Debug().Msg("dropped")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "gateway request", line["message"])
	require.Equal(t, "/api/cas", line["endpoint"])
	require.Contains(t, line, "time")
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info", true)
	logger.Info().Msg("signed in")

	require.Contains(t, buf.String(), "signed in")
	require.False(t, json.Valid(buf.Bytes()))
}
