package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := NewClient(logs.NewTestingLog(t), "owner", "repo", "")
	c.baseURL = server.URL
	return c
}

func TestListTree(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/contents/flashcards", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"name": "anatomy", "type": "dir", "path": "flashcards/anatomy"},
			{"name": "intro.txt", "type": "file", "path": "flashcards/intro.txt", "size": 10, "download_url": "http://raw/intro.txt"},
			{"name": "notes.pdf", "type": "file", "path": "flashcards/notes.pdf", "size": 99, "download_url": "http://raw/notes.pdf"}
		]`))
	})
	mux.HandleFunc("/repos/owner/repo/contents/flashcards/anatomy", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"name": "Bones.TXT", "type": "file", "path": "flashcards/anatomy/Bones.TXT", "size": 20, "download_url": "http://raw/bones.txt"}
		]`))
	})
	c := newTestClient(t, mux)

	files, err := c.ListTree(context.Background(), "flashcards", FlashcardExts)
	require.NoError(t, err)
	require.Len(t, files, 2)
	// Folder contents come first, then root files. The pdf is filtered out.
	require.Equal(t, "Bones.TXT", files[0].Name)
	require.Equal(t, "anatomy", files[0].FolderPath)
	require.Equal(t, "intro.txt", files[1].Name)
	require.Equal(t, "", files[1].FolderPath)
}

func TestListTreeMissingRoot(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, 404)
	}))
	_, err := c.ListTree(context.Background(), "maps", MapExts)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestListTreeSkipsBrokenFolder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/contents/ssm", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"name": "gone", "type": "dir", "path": "ssm/gone"},
			{"name": "guide.pdf", "type": "file", "path": "ssm/guide.pdf", "size": 5, "download_url": "http://raw/guide.pdf"}
		]`))
	})
	mux.HandleFunc("/repos/owner/repo/contents/ssm/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, 404)
	})
	c := newTestClient(t, mux)

	files, err := c.ListTree(context.Background(), "ssm", PDFExts)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "guide.pdf", files[0].Name)
}

func TestRateLimit(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Reset", "1960000000")
		http.Error(w, `{"message": "API rate limit exceeded"}`, 403)
	}))
	_, err := c.ListTree(context.Background(), "flashcards", FlashcardExts)
	rateLimited := &RateLimitError{}
	require.ErrorAs(t, err, &rateLimited)
	require.Equal(t, 60, rateLimited.Limit)
	require.Equal(t, time.Unix(1960000000, 0), rateLimited.Reset)
}

func TestFetchRaw(t *testing.T) {
	var gotAccept, gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/contents/flashcards/intro.txt", func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("Q: question\nA: answer\n"))
	})
	c := newTestClient(t, mux)
	c.token = "secret"

	raw, err := c.FetchRaw(context.Background(), "flashcards/intro.txt")
	require.NoError(t, err)
	require.Equal(t, "Q: question\nA: answer\n", string(raw))
	require.Equal(t, "application/vnd.github.v3.raw", gotAccept)
	require.Equal(t, "token secret", gotAuth)
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(logs.NewTestingLog(t), "", "", "")
	_, err := c.ListTree(context.Background(), "flashcards", FlashcardExts)
	require.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.FetchRaw(context.Background(), "flashcards/intro.txt")
	require.ErrorIs(t, err, ErrNotConfigured)
}
