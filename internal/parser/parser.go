// Package parser extracts project files from free-form model output.
//
// Two strategies are tried in order. Tagged blocks of the form
// <file path="P" type="T">...</file> are authoritative; fenced markdown code
// blocks are used only when no tagged block is present.
package parser

import (
	"regexp"
	"strings"

	"promptforge/internal/models"
)

type Strategy string

const (
	StrategyTagged Strategy = "tagged"
	StrategyFenced Strategy = "fenced"
	StrategyNone   Strategy = "none"
)

// Result is the outcome of one extraction.
type Result struct {
	Files    []models.FileRecord
	Strategy Strategy
}

var taggedBlock = regexp.MustCompile(`(?s)<file\s+path="([^"]+)"\s+type="([^"]+)"\s*>(.*?)</file>`)

// Parse runs the tagged extractor and falls back to fenced blocks when it finds nothing.
// Files are returned in document order and are never deduplicated.
func Parse(text string) Result {
	if files := ExtractTagged(text); len(files) > 0 {
		return Result{Files: files, Strategy: StrategyTagged}
	}
	if files := ExtractFenced(text); len(files) > 0 {
		return Result{Files: files, Strategy: StrategyFenced}
	}
	return Result{Files: []models.FileRecord{}, Strategy: StrategyNone}
}

// ExtractTagged returns one record per well-formed tagged block. Unterminated blocks are ignored.
func ExtractTagged(text string) []models.FileRecord {
	matches := taggedBlock.FindAllStringSubmatch(text, -1)
	files := make([]models.FileRecord, 0, len(matches))
	for _, m := range matches {
		files = append(files, models.FileRecord{
			Path:    strings.TrimSpace(m[1]),
			Type:    strings.TrimSpace(m[2]),
			Content: strings.TrimSpace(m[3]),
		})
	}
	return files
}
