package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	local := t.TempDir()

	tests := []struct {
		name     string
		source   string
		expected Kind
		wantErr  bool
	}{
		{"local directory", local, KindLocal, false},
		{"github blob", "https://github.com/acme/skills/blob/main/demo/SKILL.md", KindGitHub, false},
		{"github tree", "https://github.com/acme/skills/tree/v1.2/skills/demo", KindGitHub, false},
		{"github repo root", "https://github.com/acme/skills", "", true},
		{"http file", "https://example.com/skills/SKILL.md", KindHTTP, false},
		{"http directory", "https://example.com/skills/", "", true},
		{"http host only", "https://example.com", "", true},
		{"missing local path", filepath.Join(local, "missing"), "", true},
		{"ftp", "ftp://example.com/SKILL.md", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := Classify(tt.source)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedSource))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, kind)
		})
	}
}

func TestParseGitHub(t *testing.T) {
	gh, ok := ParseGitHub("https://github.com/acme/skills/tree/main/skills/demo/")
	require.True(t, ok)
	assert.Equal(t, GitHubSource{Owner: "acme", Repo: "skills", Ref: "main", Path: "skills/demo"}, gh)

	gh, ok = ParseGitHub("https://github.com/acme/skills/blob/abc123/SKILL.md")
	require.True(t, ok)
	assert.Equal(t, "abc123", gh.Ref)
	assert.Equal(t, "SKILL.md", gh.Path)

	_, ok = ParseGitHub("https://github.com/acme/skills")
	assert.False(t, ok)
}

func TestFetchLocalDirectory(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "SKILL.md"), []byte("# Demo\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "scripts", "run.sh"), []byte("echo\n"), 0o644))

	client := NewClient(WithTempDir(t.TempDir()))
	fetched, err := client.Fetch(context.Background(), src)
	require.NoError(t, err)
	defer fetched.Cleanup()

	assert.Equal(t, KindLocal, fetched.Kind)
	data, err := os.ReadFile(filepath.Join(fetched.Dir, "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Demo\n", string(data))
	assert.FileExists(t, filepath.Join(fetched.Dir, "scripts", "run.sh"))
}

func TestFetchLocalFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "SKILL.md")
	require.NoError(t, os.WriteFile(src, []byte("# Single\n"), 0o644))

	fetched, err := NewClient(WithTempDir(t.TempDir())).Fetch(context.Background(), src)
	require.NoError(t, err)
	defer fetched.Cleanup()

	data, err := os.ReadFile(filepath.Join(fetched.Dir, "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Single\n", string(data))
}

func TestFetchedCleanupIsIdempotent(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "SKILL.md"), []byte("x"), 0o644))

	fetched, err := NewClient(WithTempDir(t.TempDir())).Fetch(context.Background(), src)
	require.NoError(t, err)

	require.NoError(t, fetched.Cleanup())
	require.NoError(t, fetched.Cleanup())
	_, err = os.Stat(fetched.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestFetchHTTP(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# Remote\n"))
	}))
	defer server.Close()

	client := NewClient(WithTempDir(t.TempDir()), WithRetry(3, time.Millisecond))
	fetched, err := client.Fetch(context.Background(), server.URL+"/skills/SKILL.md")
	require.NoError(t, err)
	defer fetched.Cleanup()

	assert.Equal(t, KindHTTP, fetched.Kind)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	data, err := os.ReadFile(filepath.Join(fetched.Dir, "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Remote\n", string(data))
}

func TestFetchHTTPNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(WithTempDir(t.TempDir()), WithRetry(3, time.Millisecond))
	_, err := client.Fetch(context.Background(), server.URL+"/SKILL.md")
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchHTTPGivesUpAfterAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tmp := t.TempDir()
	client := NewClient(WithTempDir(tmp), WithRetry(3, time.Millisecond))
	_, err := client.Fetch(context.Background(), server.URL+"/SKILL.md")
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory is removed on failure")
}

func TestFetchHTTPConvertsHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><h1>Guide</h1><p>Use it.</p></body></html>"))
	}))
	defer server.Close()

	fetched, err := NewClient(WithTempDir(t.TempDir())).Fetch(context.Background(), server.URL+"/guide.md")
	require.NoError(t, err)
	defer fetched.Cleanup()

	data, err := os.ReadFile(filepath.Join(fetched.Dir, "guide.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Guide")
	assert.Contains(t, string(data), "Use it.")
	assert.NotContains(t, string(data), "<h1>")
}

func newGitHubServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var authorized int32
	mux := http.NewServeMux()
	var server *httptest.Server

	writeJSON := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("/repos/acme/skills/contents/skills/demo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer secret" {
			atomic.AddInt32(&authorized, 1)
		}
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		writeJSON(w, []contentItem{
			{Type: "file", Name: "SKILL.md", DownloadURL: server.URL + "/raw/SKILL.md"},
			{Type: "dir", Name: "scripts", URL: server.URL + "/repos/acme/skills/contents/skills/demo/scripts?ref=main"},
		})
	})
	mux.HandleFunc("/repos/acme/skills/contents/skills/demo/scripts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []contentItem{
			{Type: "file", Name: "run.sh", DownloadURL: server.URL + "/raw/run.sh"},
		})
	})
	mux.HandleFunc("/repos/acme/skills/contents/skills/single/SKILL.md", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, contentItem{Type: "file", Name: "SKILL.md", DownloadURL: server.URL + "/raw/SKILL.md"})
	})
	mux.HandleFunc("/repos/acme/skills/commits/main", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"sha": "0123abcd"})
	})
	mux.HandleFunc("/raw/SKILL.md", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# GitHub skill\n"))
	})
	mux.HandleFunc("/raw/run.sh", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("echo hi\n"))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &authorized
}

func TestFetchGitHubTree(t *testing.T) {
	server, authorized := newGitHubServer(t)
	ctx := context.Background()

	client := NewClient(
		WithTempDir(t.TempDir()),
		WithGitHubAPI(server.URL),
		WithRetry(1, time.Millisecond),
		WithGitHubToken(ctx, "secret"),
	)

	fetched, err := client.Fetch(ctx, "https://github.com/acme/skills/tree/main/skills/demo")
	require.NoError(t, err)
	defer fetched.Cleanup()

	assert.Equal(t, KindGitHub, fetched.Kind)
	data, err := os.ReadFile(filepath.Join(fetched.Dir, "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, "# GitHub skill\n", string(data))

	data, err = os.ReadFile(filepath.Join(fetched.Dir, "scripts", "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, "echo hi\n", string(data))
	assert.Equal(t, int32(1), atomic.LoadInt32(authorized))
}

func TestFetchGitHubBlob(t *testing.T) {
	server, _ := newGitHubServer(t)

	client := NewClient(WithTempDir(t.TempDir()), WithGitHubAPI(server.URL), WithRetry(1, time.Millisecond))
	fetched, err := client.Fetch(context.Background(), "https://github.com/acme/skills/blob/main/skills/single/SKILL.md")
	require.NoError(t, err)
	defer fetched.Cleanup()

	assert.FileExists(t, filepath.Join(fetched.Dir, "SKILL.md"))
}

func TestSourceMetadata(t *testing.T) {
	server, _ := newGitHubServer(t)
	client := NewClient(WithGitHubAPI(server.URL), WithRetry(1, time.Millisecond))
	ctx := context.Background()

	src := client.SourceMetadata(ctx, "https://github.com/acme/skills/tree/main/skills/demo", KindGitHub)
	assert.Equal(t, "acme/skills", src.Repo)
	assert.Equal(t, "skills/demo", src.Path)
	assert.Equal(t, "main", src.RefRequested)
	assert.Equal(t, "0123abcd", src.RefResolved)
	assert.Equal(t, "0123abcd", src.CommitSHA)

	unresolved := client.SourceMetadata(ctx, "https://github.com/acme/skills/tree/v9/skills/demo", KindGitHub)
	assert.Equal(t, "v9", unresolved.RefResolved)
	assert.Empty(t, unresolved.CommitSHA)

	httpSrc := client.SourceMetadata(ctx, "https://example.com/a/SKILL.md", KindHTTP)
	assert.Equal(t, "/a/SKILL.md", httpSrc.Path)
}
