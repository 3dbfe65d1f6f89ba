// Package gitsource keeps local checkouts of git note sources up to date.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does.
func Sync(ctx context.Context, logger *slog.Logger, url, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.InfoContext(ctx, "cloning repository", "url", url, "path", localPath)
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:      url,
			Progress: progress(logger),
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
		logger.InfoContext(ctx, "clone successful", "path", localPath)

	case err == nil:
		logger.InfoContext(ctx, "pulling latest changes", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}

		err = worktree.PullContext(ctx, &git.PullOptions{
			RemoteName: "origin",
			Progress:   progress(logger),
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
		logger.InfoContext(ctx, "pull successful", "path", localPath, "up_to_date", err != nil)

	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	return nil
}

// progress forwards remote progress output only when debug logging is on.
func progress(logger *slog.Logger) io.Writer {
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		return os.Stderr
	}
	return nil
}

// RepoPath maps a repository URL to its checkout directory under baseDir,
// e.g. https://github.com/a/b.git and git@github.com:a/b.git both become
// baseDir/github.com/a/b.
func RepoPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err == nil && (parsedURL.Scheme == "https" || parsedURL.Scheme == "http" || parsedURL.Scheme == "ssh") {
		repoPath := strings.TrimSuffix(strings.Trim(parsedURL.Path, "/"), ".git")
		if parsedURL.Host == "" || repoPath == "" {
			return "", fmt.Errorf("could not parse git URL: %s", repoURL)
		}
		return filepath.Join(baseDir, parsedURL.Hostname(), repoPath), nil
	}

	// scp-like syntax: user@host:path
	userHost, repoPath, ok := strings.Cut(repoURL, ":")
	if ok {
		_, host, hasUser := strings.Cut(userHost, "@")
		repoPath = strings.TrimSuffix(strings.Trim(repoPath, "/"), ".git")
		if hasUser && host != "" && repoPath != "" {
			return filepath.Join(baseDir, host, repoPath), nil
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}

// IsURL reports whether path looks like a remote git repository rather than
// a local directory.
func IsURL(path string) bool {
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "ssh://") {
		return true
	}
	return strings.HasPrefix(path, "git@") || strings.HasSuffix(path, ".git")
}
