package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	filepathx "github.com/yargevad/filepathx"

	"promptforge/internal/models"
)

// GitExportOptions controls the commit created by ExportGitRepository.
type GitExportOptions struct {
	Message     string
	AuthorName  string
	AuthorEmail string
}

// ExportGitRepository writes files under dir and commits them. The repository is
// created when dir is not one yet. It returns the new commit hash.
func ExportGitRepository(dir string, files []models.FileRecord, opts GitExportOptions) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("export directory cannot be empty")
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no files to export")
	}
	if opts.Message == "" {
		opts.Message = "Generated project"
	}
	if opts.AuthorName == "" {
		opts.AuthorName = "promptforge"
	}
	if opts.AuthorEmail == "" {
		opts.AuthorEmail = "promptforge@localhost"
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return "", fmt.Errorf("open repository at %s: %w", dir, err)
	}

	for _, f := range files {
		rel, err := CleanPath(f.Path)
		if err != nil {
			return "", err
		}
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return "", err
		}
		if err := os.WriteFile(target, []byte(f.Content), 0644); err != nil {
			return "", fmt.Errorf("write %s: %w", rel, err)
		}
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	staged, err := stageAll(wt, dir)
	if err != nil {
		return "", err
	}
	if staged == 0 {
		return "", fmt.Errorf("nothing staged in %s", dir)
	}

	hash, err := wt.Commit(opts.Message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  opts.AuthorName,
			Email: opts.AuthorEmail,
			When:  time.Now(),
		},
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash.String(), nil
}

// stageAll adds every regular file under dir outside .git.
func stageAll(wt *git.Worktree, dir string) (int, error) {
	matches, err := filepathx.Glob(filepath.Join(dir, "**", "*"))
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		rel, err := filepath.Rel(dir, m)
		if err != nil {
			return count, err
		}
		rel = filepath.ToSlash(rel)
		if rel == ".git" || strings.HasPrefix(rel, ".git/") {
			continue
		}
		if _, err := wt.Add(rel); err != nil {
			return count, fmt.Errorf("stage %s: %w", rel, err)
		}
		count++
	}
	return count, nil
}
