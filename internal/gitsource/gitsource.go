// Package gitsource keeps local checkouts of git-hosted sentence corpora.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Sync clones the repository at url into localPath if it is not there yet,
// or pulls the latest changes if it is.
func Sync(ctx context.Context, url, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Info("Cloning corpus repository", "url", url, "path", localPath)
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:   url,
			Depth: 1,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}

	case err == nil:
		slog.Info("Pulling corpus repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}
		err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}

	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
	return nil
}

// IsGitURL reports whether path names a git remote rather than a local directory.
func IsGitURL(path string) bool {
	return strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://")
}

// LocalPath maps a git URL (https or scp-like ssh) to a checkout directory
// under baseDir, e.g. https://github.com/a/b.git → baseDir/github.com/a/b.
func LocalPath(baseDir, repoURL string) (string, error) {
	host, repoPath, ok := splitGitURL(repoURL)
	if !ok {
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}
	dir := filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git"))
	rel, err := filepath.Rel(baseDir, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("git URL %s escapes %s", repoURL, baseDir)
	}
	return dir, nil
}

func splitGitURL(repoURL string) (host, repoPath string, ok bool) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		ok := parsed.Host != "" && strings.Trim(parsed.Path, "/") != ""
		return parsed.Host, parsed.Path, ok
	}

	// git@host:owner/repo.git
	userHost, repoPath, ok := strings.Cut(repoURL, ":")
	if !ok {
		// A local bare repository such as /srv/mirror/corpus.git.
		if strings.HasSuffix(repoURL, ".git") {
			return "local", repoURL, true
		}
		return "", "", false
	}
	if repoPath == "" {
		return "", "", false
	}
	_, host, ok = strings.Cut(userHost, "@")
	return host, repoPath, ok && host != ""
}
