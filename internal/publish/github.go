// internal/publish/github.go
// Package publish pushes finished story assets to GitHub and posts the
// weekly article to Substack. Both targets speak plain HTTP: the GitHub
// contents API, and the endpoints the Substack web app itself uses.
package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const githubAPIBase = "https://api.github.com"

// GitHubUploader pushes files and text blobs to a repository through the
// contents API, one commit per file.
type GitHubUploader struct {
	token   string
	owner   string
	repo    string
	branch  string
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// GitHubOption adjusts a GitHubUploader at construction time.
type GitHubOption func(*GitHubUploader)

// WithGitHubBaseURL points the uploader at a different API host, used by
// tests.
func WithGitHubBaseURL(url string) GitHubOption {
	return func(u *GitHubUploader) { u.baseURL = strings.TrimSuffix(url, "/") }
}

// WithGitHubClock replaces the commit-message timestamp source.
func WithGitHubClock(now func() time.Time) GitHubOption {
	return func(u *GitHubUploader) { u.now = now }
}

// NewGitHubUploader returns an uploader committing to owner/repo on the
// given branch. An empty branch means "main".
func NewGitHubUploader(token, owner, repo, branch string, opts ...GitHubOption) *GitHubUploader {
	u := &GitHubUploader{
		token:   token,
		owner:   owner,
		repo:    repo,
		branch:  branch,
		baseURL: githubAPIBase,
		http:    &http.Client{Timeout: 60 * time.Second},
		now:     time.Now,
	}
	if u.branch == "" {
		u.branch = "main"
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// PushFile uploads a local file to destPath in the repository. An empty
// destPath defaults to assets/<filename>.
func (u *GitHubUploader) PushFile(ctx context.Context, localPath, destPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("publish: read %s: %w", localPath, err)
	}
	name := filepath.Base(localPath)
	if destPath == "" {
		destPath = "assets/" + name
	}
	msg := fmt.Sprintf("Upload %s [%s]", name, u.now().Format("2006-01-02"))
	return u.push(ctx, destPath, data, msg)
}

// PushText uploads a string, typically a caption or article, to destPath.
func (u *GitHubUploader) PushText(ctx context.Context, text, destPath string) error {
	msg := fmt.Sprintf("Save %s [%s]", filepath.Base(destPath), u.now().Format("2006-01-02"))
	return u.push(ctx, destPath, []byte(text), msg)
}

// PushStoryPack uploads a set of story files under content/<year>/<slug>/.
// Map values that name an existing local file are uploaded as files,
// everything else is treated as text content.
func (u *GitHubUploader) PushStoryPack(ctx context.Context, year, storySlug string, files map[string]string) error {
	base := fmt.Sprintf("content/%s/%s", year, storySlug)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		source := files[name]
		dest := base + "/" + name
		if _, err := os.Stat(source); err == nil {
			if err := u.PushFile(ctx, source, dest); err != nil {
				return err
			}
			continue
		}
		if err := u.PushText(ctx, source, dest); err != nil {
			return err
		}
	}
	return nil
}

func (u *GitHubUploader) push(ctx context.Context, path string, content []byte, commitMsg string) error {
	body := map[string]string{
		"message": commitMsg,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  u.branch,
	}
	// Updating an existing file needs its current blob sha.
	if sha, err := u.currentSHA(ctx, path); err != nil {
		return err
	} else if sha != "" {
		body["sha"] = sha
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("publish: encode push for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.contentsURL(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("publish: build push for %s: %w", path, err)
	}
	u.setHeaders(req)

	resp, err := u.http.Do(req)
	if err != nil {
		return fmt.Errorf("publish: push %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("publish: push %s: GitHub returned %d: %s", path, resp.StatusCode, readSnippet(resp.Body))
	}
	return nil
}

func (u *GitHubUploader) currentSHA(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.contentsURL(path), nil)
	if err != nil {
		return "", fmt.Errorf("publish: build sha lookup for %s: %w", path, err)
	}
	u.setHeaders(req)

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("publish: look up %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil
	}
	var body struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", nil
	}
	return body.SHA, nil
}

func (u *GitHubUploader) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", u.baseURL, u.owner, u.repo, path)
}

func (u *GitHubUploader) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+u.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
}

func readSnippet(r io.Reader) string {
	snippet, _ := io.ReadAll(io.LimitReader(r, 500))
	return strings.TrimSpace(string(snippet))
}
