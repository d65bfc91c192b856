package parser

import (
	"fmt"
	"regexp"
	"strings"

	"promptforge/internal/models"
)

const (
	defaultFenceType = "typescript"
	hintWindow       = 100
)

var (
	fencedBlock = regexp.MustCompile("(?s)```([A-Za-z0-9_+.#-]*)[ \\t]*([^\\r\\n]*)\\r?\\n(.*?)```")
	pathHint    = regexp.MustCompile(`(?i)\b(?:file(?:name)?|path|name)\s*:\s*([^\s]+)`)
	infoPrefix  = regexp.MustCompile(`(?i)^(?://|#|<!--)?\s*(?:(?:file(?:name)?|path)\s*:)?\s*`)
)

// extensions maps a block language to the extension of a synthesized filename.
var extensions = map[string]string{
	"typescript": "tsx",
	"javascript": "jsx",
	"css":        "css",
	"html":       "html",
	"json":       "json",
	"markdown":   "md",
	"tsx":        "tsx",
	"ts":         "ts",
	"jsx":        "jsx",
	"js":         "js",
	"md":         "md",
}

// rootNames are paths that already belong at the project root and are not moved under src/.
var rootNames = []string{
	"src/",
	"public/",
	"package.json",
	"index.html",
	"vite.config",
	"tsconfig",
	"README",
	".gitignore",
	"tailwind.config",
	"postcss.config",
}

// ExtensionFor returns the filename extension synthesized for a block language.
func ExtensionFor(lang string) string {
	if ext, ok := extensions[strings.ToLower(lang)]; ok {
		return ext
	}
	return "txt"
}

// ExtractFenced recovers files from markdown fences. The path comes from the
// fence's info string ("```tsx src/App.tsx", "```ts // file: main.ts"), then a
// file:/path:/name: hint just before the fence, else file-<ordinal>.<ext>.
func ExtractFenced(text string) []models.FileRecord {
	locs := fencedBlock.FindAllStringSubmatchIndex(text, -1)
	files := make([]models.FileRecord, 0, len(locs))
	prevEnd := 0
	for i, loc := range locs {
		lang := text[loc[2]:loc[3]]
		info := text[loc[4]:loc[5]]
		content := text[loc[6]:loc[7]]

		fileType := lang
		if fileType == "" {
			fileType = defaultFenceType
		}

		start := loc[0] - hintWindow
		if start < prevEnd {
			start = prevEnd
		}
		name := infoName(info)
		if name == "" {
			name = hintedName(text[start:loc[0]])
		}
		if name == "" {
			name = fmt.Sprintf("file-%d.%s", i, ExtensionFor(fileType))
		}

		files = append(files, models.FileRecord{
			Path:    placeUnderSource(name),
			Content: strings.TrimSpace(content),
			Type:    fileType,
		})
		prevEnd = loc[1]
	}
	return files
}

// hintedName returns the last path hint in window, stripped of markdown decoration.
func hintedName(window string) string {
	hints := pathHint.FindAllStringSubmatch(window, -1)
	if len(hints) == 0 {
		return ""
	}
	name := strings.Trim(hints[len(hints)-1][1], "`*\"'()[],;:")
	return strings.TrimPrefix(name, "./")
}

// infoName reads a filename from the text after a fence's language tag.
func infoName(info string) string {
	info = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(info), "-->"))
	info = strings.TrimSpace(infoPrefix.ReplaceAllString(info, ""))
	if info == "" {
		return ""
	}
	name := strings.Trim(strings.Fields(info)[0], "`*\"'()[],;:")
	// attributes such as {1,3} or title="x" are not filenames
	if strings.ContainsAny(name, "{}=") || !strings.ContainsAny(name, "./") {
		return ""
	}
	return strings.TrimPrefix(name, "./")
}

func placeUnderSource(name string) string {
	name = strings.TrimPrefix(name, "/")
	for _, root := range rootNames {
		if strings.HasPrefix(name, root) {
			return name
		}
	}
	return "src/" + name
}
