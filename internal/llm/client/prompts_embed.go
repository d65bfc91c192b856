package client

import (
	"embed"
	"strings"
)

// embeddedPrompts holds the built-in prompt templates so packaged executables
// can load them without needing access to the source tree.
//
//go:embed prompts/*.txt
var embeddedPrompts embed.FS

// SystemPrompt returns the fixed instruction that asks the model for tagged file blocks.
func SystemPrompt() string {
	data, err := embeddedPrompts.ReadFile("prompts/generation.txt")
	if err != nil {
		panic("client: missing embedded generation prompt: " + err.Error())
	}
	return strings.TrimSpace(string(data))
}
