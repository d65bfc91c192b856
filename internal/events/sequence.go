package events

import "fmt"

// ValidateSequence checks that a complete stream obeys the lifecycle ordering:
// thinking first, thinking_longer only before generating, file only after
// generating, and exactly one terminal event at the end.
func ValidateSequence(evts []Event) error {
	if len(evts) == 0 {
		return fmt.Errorf("empty stream")
	}
	if evts[0].Type != EventThinking {
		return fmt.Errorf("stream starts with %s, want thinking", evts[0].Type)
	}
	last := evts[len(evts)-1].Type
	if !last.IsTerminal() {
		return fmt.Errorf("stream ends with %s, want complete or error", last)
	}

	generating := false
	files := 0
	for i, e := range evts {
		if e.Type.IsTerminal() && i != len(evts)-1 {
			return fmt.Errorf("terminal %s at position %d is not last", e.Type, i)
		}
		switch e.Type {
		case EventThinking:
			if i != 0 {
				return fmt.Errorf("thinking repeated at position %d", i)
			}
		case EventThinkingLonger:
			if generating {
				return fmt.Errorf("thinking_longer after generating at position %d", i)
			}
		case EventGenerating:
			if generating {
				return fmt.Errorf("generating repeated at position %d", i)
			}
			generating = true
		case EventFile:
			if !generating {
				return fmt.Errorf("file before generating at position %d", i)
			}
			files++
		case EventComplete:
			if !generating {
				return fmt.Errorf("complete before generating")
			}
			if e.TotalFiles != nil && *e.TotalFiles != files {
				return fmt.Errorf("complete reports %d files, stream carried %d", *e.TotalFiles, files)
			}
		case EventError:
		default:
			return fmt.Errorf("unknown event type %q at position %d", e.Type, i)
		}
	}
	return nil
}
