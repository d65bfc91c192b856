package utils

import (
	"os"
	"path/filepath"
)

func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func HasGitRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}

// IsEmptyDir reports whether path is a directory with no entries.
func IsEmptyDir(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) == 0
}

// CanExportInto reports whether a generated project may be written to dir:
// it must be missing, empty, or already a git repository.
func CanExportInto(dir string) bool {
	if !DirectoryExists(dir) {
		_, err := os.Stat(dir)
		return os.IsNotExist(err)
	}
	return IsEmptyDir(dir) || HasGitRepo(dir)
}
