// Package archive packages persisted generation files for download.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"promptforge/internal/models"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// zipEpoch stamps entries when no generation time is known; it is the earliest
// time an MS-DOS header can hold.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// SanitizeName turns a project name into a filesystem-safe archive stem.
// Every character outside [A-Za-z0-9] becomes an underscore.
func SanitizeName(name string) string {
	if name == "" {
		return "project"
	}
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// Filename returns the download filename for a project name.
func Filename(projectName string) string {
	return SanitizeName(projectName) + ".zip"
}

// CleanPath normalizes a relative file path and rejects paths escaping the archive root.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return "", fmt.Errorf("empty file path")
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("file path %q escapes project root", p)
	}
	return cleaned, nil
}

// BuildZip writes every file at its relative path, stamped with modified (or
// zipEpoch when zero), so the same files always produce the same bytes. When a
// path repeats, the last occurrence wins and keeps the position of the first.
func BuildZip(files []models.FileRecord, modified time.Time) ([]byte, error) {
	order := make([]string, 0, len(files))
	latest := make(map[string]string, len(files))
	for _, f := range files {
		p, err := CleanPath(f.Path)
		if err != nil {
			return nil, err
		}
		if _, seen := latest[p]; !seen {
			order = append(order, p)
		}
		latest[p] = f.Content
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if modified.IsZero() {
		modified = zipEpoch
	}
	modified = modified.UTC().Truncate(time.Second)
	for _, p := range order {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", p, err)
		}
		if _, err := io.WriteString(w, latest[p]); err != nil {
			return nil, fmt.Errorf("write %s: %w", p, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadZip lists the entries of an archive produced by BuildZip, in archive order.
func ReadZip(data []byte) ([]models.FileRecord, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	out := make([]models.FileRecord, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		out = append(out, models.FileRecord{Path: f.Name, Content: string(content)})
	}
	return out, nil
}
