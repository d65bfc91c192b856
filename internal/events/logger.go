package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink writes every event to a structured logger.
type LogSink struct {
	Logger *zerolog.Logger
}

func (s LogSink) Emit(_ context.Context, evt Event) error {
	var e *zerolog.Event
	switch evt.Type {
	case EventError:
		e = s.Logger.Error()
	case EventFile:
		e = s.Logger.Debug()
	default:
		e = s.Logger.Info()
	}
	if evt.GenerationID != "" {
		e = e.Str("generation_id", evt.GenerationID)
	}
	if evt.File != nil {
		e = e.Str("path", evt.File.Path).Int("bytes", len(evt.File.Content))
	}
	if evt.TotalFiles != nil {
		e = e.Int("total_files", *evt.TotalFiles)
	}
	if evt.ThinkingDuration != nil {
		e = e.Int64("thinking_ms", *evt.ThinkingDuration)
	}
	e.Str("event", string(evt.Type)).Msg(evt.Message)
	return nil
}
