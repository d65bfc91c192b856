package parser

import (
	"strings"

	"promptforge/internal/models"
)

type essentialFile struct {
	marker string
	record models.FileRecord
}

// essentialFiles are appended, in this order, when no extracted path contains the marker.
var essentialFiles = []essentialFile{
	{
		marker: "package.json",
		record: models.FileRecord{Path: "package.json", Type: "json", Content: defaultPackageJSON},
	},
	{
		marker: "vite.config",
		record: models.FileRecord{Path: "vite.config.ts", Type: "typescript", Content: defaultViteConfig},
	},
	{
		marker: "index.html",
		record: models.FileRecord{Path: "index.html", Type: "html", Content: defaultIndexHTML},
	},
}

// EnsureEssentialFiles appends a manifest, a build config and an HTML entry
// point when the file set lacks them. Existing records are never modified, and
// applying it twice yields the same set as applying it once.
func EnsureEssentialFiles(files []models.FileRecord) []models.FileRecord {
	out := make([]models.FileRecord, len(files), len(files)+len(essentialFiles))
	copy(out, files)
	for _, ef := range essentialFiles {
		if !containsPath(out, ef.marker) {
			out = append(out, ef.record)
		}
	}
	return out
}

// MissingEssentials lists the markers EnsureEssentialFiles would backfill.
func MissingEssentials(files []models.FileRecord) []string {
	var missing []string
	for _, ef := range essentialFiles {
		if !containsPath(files, ef.marker) {
			missing = append(missing, ef.marker)
		}
	}
	return missing
}

func containsPath(files []models.FileRecord, marker string) bool {
	for _, f := range files {
		if strings.Contains(f.Path, marker) {
			return true
		}
	}
	return false
}

// CollapseDuplicates keeps one record per path: the last occurrence's content
// and type, at the position where the path first appeared.
func CollapseDuplicates(files []models.FileRecord) []models.FileRecord {
	index := make(map[string]int, len(files))
	out := make([]models.FileRecord, 0, len(files))
	for _, f := range files {
		if i, ok := index[f.Path]; ok {
			out[i] = f
			continue
		}
		index[f.Path] = len(out)
		out = append(out, f)
	}
	return out
}

const defaultPackageJSON = `{
  "name": "generated-app",
  "version": "0.1.0",
  "private": true,
  "type": "module",
  "scripts": {
    "dev": "vite",
    "build": "tsc && vite build",
    "preview": "vite preview"
  },
  "dependencies": {
    "react": "^18.3.1",
    "react-dom": "^18.3.1"
  },
  "devDependencies": {
    "@types/react": "^18.3.12",
    "@types/react-dom": "^18.3.1",
    "@vitejs/plugin-react": "^4.3.4",
    "typescript": "^5.7.2",
    "vite": "^6.0.5"
  }
}`

const defaultViteConfig = `import { defineConfig } from 'vite'
import react from '@vitejs/plugin-react'

export default defineConfig({
  plugins: [react()],
})`

const defaultIndexHTML = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>Generated App</title>
  </head>
  <body>
    <div id="root"></div>
    <script type="module" src="/src/main.tsx"></script>
  </body>
</html>`
