package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"invalid", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", false)

	log.Debug().Msg("hidden")
	log.Info().Str("asset", "moon.jpg").Msg("loaded")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"loaded"`)
	assert.Contains(t, out, `"asset":"moon.jpg"`)
	assert.Contains(t, out, `"time":`)
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", true)

	log.Debug().Int("events", 3).Msg("composed")

	out := buf.String()
	assert.Contains(t, out, "composed")
	assert.Contains(t, out, "events=3")
	assert.NotContains(t, out, `"message"`)
}
