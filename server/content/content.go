// Package content lists and fetches study material from a GitHub repository,
// via the repository contents API.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cyclopcam/logs"
)

// Extension sets for the three material categories
var (
	FlashcardExts = []string{".txt"}
	MapExts       = []string{".html", ".htm"}
	PDFExts       = []string{".pdf"}
)

// ErrNotConfigured means the material's root folder does not exist in the
// repository, or no repository has been configured at all.
var ErrNotConfigured = errors.New("content folder not configured")

var errNotFound = errors.New("not found")

// RateLimitError is returned when GitHub refuses us for exceeding the API
// rate limit. Unauthenticated clients get 60 requests per hour, so this is
// a real condition, not a theoretical one.
type RateLimitError struct {
	Limit int       // Requests allowed per window
	Reset time.Time // When the window resets
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit of %v exceeded, resets at %v", e.Limit, e.Reset.Format(time.RFC3339))
}

// File is one study material file in the repository tree.
type File struct {
	Name        string `json:"name"`
	FolderPath  string `json:"folderPath"` // Path of the containing folder, relative to the material root ("" for root files)
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadURL"`
}

// entry is the wire format of a GitHub contents API directory listing item
type entry struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "file" or "dir"
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

// Client talks to the GitHub contents API for one repository.
type Client struct {
	log     logs.Log
	http    *http.Client
	baseURL string // Overridden in tests
	owner   string
	repo    string
	token   string // Optional. Raises the rate limit and allows private repos.
}

func NewClient(log logs.Log, owner, repo, token string) *Client {
	return &Client{
		log:     log,
		http:    &http.Client{Timeout: 20 * time.Second},
		baseURL: "https://api.github.com",
		owner:   owner,
		repo:    repo,
		token:   token,
	}
}

// ListTree walks the tree rooted at root (eg "flashcards"), and returns all
// files whose name ends with one of exts (case insensitive). Folders come
// back depth first, so files from one folder stay adjacent in the result.
// A missing root folder returns ErrNotConfigured. Errors inside non-root
// folders are logged and skipped, except for rate limiting, which aborts
// the whole walk.
func (c *Client) ListTree(ctx context.Context, root string, exts []string) ([]File, error) {
	if c.owner == "" || c.repo == "" {
		return nil, ErrNotConfigured
	}
	files := []File{}
	err := c.walk(ctx, root, "", exts, &files)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, ErrNotConfigured
		}
		return nil, err
	}
	return files, nil
}

func (c *Client) walk(ctx context.Context, path, folder string, exts []string, out *[]File) error {
	entries, err := c.fetchDir(ctx, path)
	if err != nil {
		return err
	}
	dirs := []entry{}
	plain := []entry{}
	for _, e := range entries {
		switch e.Type {
		case "dir":
			dirs = append(dirs, e)
		case "file":
			if hasExt(e.Name, exts) {
				plain = append(plain, e)
			}
		}
	}
	for _, d := range dirs {
		sub := folder
		if sub == "" {
			sub = d.Name
		} else {
			sub = sub + "/" + d.Name
		}
		if err := c.walk(ctx, path+"/"+d.Name, sub, exts, out); err != nil {
			rateLimited := &RateLimitError{}
			if errors.As(err, &rateLimited) {
				return err
			}
			c.log.Warnf("Skipping content folder %v: %v", path+"/"+d.Name, err)
		}
	}
	for _, e := range plain {
		*out = append(*out, File{
			Name:        e.Name,
			FolderPath:  folder,
			Size:        e.Size,
			DownloadURL: e.DownloadURL,
		})
	}
	return nil
}

func (c *Client) fetchDir(ctx context.Context, path string) ([]entry, error) {
	resp, err := c.fetch(ctx, path, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	entries := []entry{}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("Failed to decode listing of %v: %w", path, err)
	}
	return entries, nil
}

// FetchRaw downloads the raw bytes of one file in the repository.
func (c *Client) FetchRaw(ctx context.Context, path string) ([]byte, error) {
	if c.owner == "" || c.repo == "" {
		return nil, ErrNotConfigured
	}
	resp, err := c.fetch(ctx, path, "application/vnd.github.v3.raw")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) fetch(ctx context.Context, path, accept string) (*http.Response, error) {
	u := fmt.Sprintf("%v/repos/%v/%v/contents/%v", c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), escapePath(path))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == 200 {
		return resp, nil
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == 404:
		return nil, fmt.Errorf("%v: %w", path, errNotFound)
	case resp.StatusCode == 403 && resp.Header.Get("X-RateLimit-Remaining") == "0":
		limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
		reset, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
		return nil, &RateLimitError{Limit: limit, Reset: time.Unix(reset, 0)}
	default:
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub API error %v fetching %v: %v", resp.Status, path, string(msg))
	}
}

// escapePath escapes each segment of a repo path, preserving the slashes
func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return strings.Join(parts, "/")
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
