package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterForwardsTrimmedLines(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	w := Writer{Logger: &logger, Level: zerolog.WarnLevel}

	n, err := w.Write([]byte("slow query\n"))
	require.NoError(t, err)
	assert.Equal(t, len("slow query\n"), n)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "slow query", line["message"])
	assert.Equal(t, "warn", line["level"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	logger := New("nonsense", false)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger = New("DEBUG", false)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}
