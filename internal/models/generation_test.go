package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to GenerationStatus
		want     bool
	}{
		{GenerationPending, GenerationThinking, true},
		{GenerationThinking, GenerationGenerating, true},
		{GenerationGenerating, GenerationComplete, true},
		{GenerationPending, GenerationFailed, true},
		{GenerationThinking, GenerationFailed, true},
		{GenerationGenerating, GenerationFailed, true},
		{GenerationPending, GenerationGenerating, false},
		{GenerationPending, GenerationComplete, false},
		{GenerationGenerating, GenerationThinking, false},
		{GenerationThinking, GenerationThinking, false},
		{GenerationComplete, GenerationFailed, false},
		{GenerationFailed, GenerationComplete, false},
		{GenerationComplete, GenerationThinking, false},
		{GenerationStatus("bogus"), GenerationFailed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, GenerationComplete.IsTerminal())
	assert.True(t, GenerationFailed.IsTerminal())
	assert.False(t, GenerationPending.IsTerminal())
	assert.False(t, GenerationThinking.IsTerminal())
	assert.False(t, GenerationGenerating.IsTerminal())
}

func TestGeneratedFileRecordRoundTrip(t *testing.T) {
	rec := FileRecord{Path: "src/App.tsx", Content: "export {}", Type: "typescript"}
	row := NewGeneratedFile(uuid.New(), rec)

	assert.Equal(t, rec, row.Record())

	untyped := NewGeneratedFile(uuid.New(), FileRecord{Path: "notes.txt"})
	assert.Nil(t, untyped.FileType)
	assert.Equal(t, "", untyped.Record().Type)
}
