package events

import (
	"time"

	"promptforge/internal/models"
)

type EventType string

const (
	EventThinking       EventType = "thinking"
	EventThinkingLonger EventType = "thinking_longer"
	EventGenerating     EventType = "generating"
	EventFile           EventType = "file"
	EventComplete       EventType = "complete"
	EventError          EventType = "error"
)

// ThinkingLongerThreshold is the provider latency above which a thinking_longer event is sent.
const ThinkingLongerThreshold = 3 * time.Second

// IsTerminal reports whether the event closes a stream.
func (t EventType) IsTerminal() bool {
	return t == EventComplete || t == EventError
}

// Event is one progress notification for a generation. Only the fields of its Type are set.
type Event struct {
	Type             EventType          `json:"type"`
	Message          string             `json:"message,omitempty"`
	File             *models.FileRecord `json:"file,omitempty"`
	TotalFiles       *int               `json:"totalFiles,omitempty"`
	ThinkingDuration *int64             `json:"thinkingDuration,omitempty"`
	GenerationID     string             `json:"generationId,omitempty"`
	Timestamp        time.Time          `json:"timestamp"`
}

func newEvent(t EventType, message string) Event {
	return Event{Type: t, Message: message, Timestamp: time.Now()}
}

func Thinking() Event {
	return newEvent(EventThinking, "Analyzing your request...")
}

func ThinkingLonger(duration time.Duration) Event {
	evt := newEvent(EventThinkingLonger, "")
	ms := duration.Milliseconds()
	evt.ThinkingDuration = &ms
	return evt
}

func Generating() Event {
	return newEvent(EventGenerating, "Writing code...")
}

func FileExtracted(file models.FileRecord) Event {
	evt := newEvent(EventFile, "Created "+file.Path)
	evt.File = &file
	return evt
}

func Complete(totalFiles int, thinking time.Duration) Event {
	evt := newEvent(EventComplete, "")
	ms := thinking.Milliseconds()
	evt.TotalFiles = &totalFiles
	evt.ThinkingDuration = &ms
	return evt
}

func Failed(message string) Event {
	if message == "" {
		message = "Generation failed"
	}
	return newEvent(EventError, message)
}

// ShouldEmitThinkingLonger reports whether a provider call of duration d warrants thinking_longer.
func ShouldEmitThinkingLonger(d time.Duration) bool {
	return d > ThinkingLongerThreshold
}
