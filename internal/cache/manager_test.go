package cache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dest-ash/bnncache/internal/github"
	"github.com/dest-ash/bnncache/internal/utils"
)

// newModelServer serves a repository with one models directory
// containing a single file
func newModelServer(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/o/r":
			fmt.Fprint(w, `{"default_branch":"main"}`)
		case "/repos/o/r/contents/models":
			fmt.Fprintf(w, `[{"name":"weights.npz","path":"models/weights.npz","type":"file",
				"size":7,"download_url":"%s/dl/weights.npz","url":"%s/repos/o/r/contents/models/weights.npz"}]`,
				server.URL, server.URL)
		case "/dl/weights.npz":
			fmt.Fprint(w, "weights")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestManager(t *testing.T, server *httptest.Server, cacheDir string) *Manager {
	t.Helper()
	client := github.NewClient(context.Background(), github.Options{
		Owner:      "o",
		Repo:       "r",
		APIBaseURL: server.URL,
		RawBaseURL: server.URL + "/raw",
	})
	return NewManager(Options{
		CacheDir:     cacheDir,
		RemoteFolder: "models",
		Client:       client,
		MaxRetries:   2,
	})
}

func TestPopulateCreatesCache(t *testing.T) {
	server := newModelServer(t)
	cacheDir := filepath.Join(t.TempDir(), utils.CacheDirName)
	m := newTestManager(t, server, cacheDir)

	report, err := m.Populate(context.Background(), false)
	if err != nil {
		t.Fatalf("Populate failed: %v", err)
	}
	if !report.Complete() {
		t.Errorf("expected complete report, got %+v", report)
	}

	data, err := os.ReadFile(filepath.Join(cacheDir, "models", "weights.npz"))
	if err != nil {
		t.Fatalf("cached file missing: %v", err)
	}
	if string(data) != "weights" {
		t.Errorf("cached content = %q", data)
	}
}

func TestPopulateRefusesExistingCache(t *testing.T) {
	server := newModelServer(t)
	cacheDir := filepath.Join(t.TempDir(), utils.CacheDirName)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		t.Fatal(err)
	}

	m := newTestManager(t, server, cacheDir)
	_, err := m.Populate(context.Background(), false)
	if err == nil {
		t.Fatal("expected error for existing cache")
	}
	if utils.ErrorCode(err) != utils.ErrCodeCacheExists {
		t.Errorf("code = %q, want %q", utils.ErrorCode(err), utils.ErrCodeCacheExists)
	}
}

func TestPopulateOverwriteResumes(t *testing.T) {
	server := newModelServer(t)
	cacheDir := filepath.Join(t.TempDir(), utils.CacheDirName)
	modelsDir := filepath.Join(cacheDir, "models")
	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(modelsDir, "weights.npz"), []byte("local"), 0644); err != nil {
		t.Fatal(err)
	}

	m := newTestManager(t, server, cacheDir)
	report, err := m.Populate(context.Background(), true)
	if err != nil {
		t.Fatalf("Populate failed: %v", err)
	}
	if report.Summary.Skipped != 1 {
		t.Errorf("expected present file skipped, got %+v", report.Summary)
	}

	data, _ := os.ReadFile(filepath.Join(modelsDir, "weights.npz"))
	if string(data) != "local" {
		t.Errorf("present file was overwritten: %q", data)
	}
}

func TestPopulateRootListingFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	m := newTestManager(t, server, filepath.Join(t.TempDir(), utils.CacheDirName))
	if _, err := m.Populate(context.Background(), false); err == nil {
		t.Fatal("expected root listing failure to abort the run")
	}
}

func TestClearAndStatus(t *testing.T) {
	server := newModelServer(t)
	cacheDir := filepath.Join(t.TempDir(), utils.CacheDirName)
	m := newTestManager(t, server, cacheDir)

	if files, err := m.Status(); err != nil || files != nil {
		t.Errorf("empty cache status = %v, %v", files, err)
	}

	if _, err := m.Populate(context.Background(), false); err != nil {
		t.Fatalf("Populate failed: %v", err)
	}

	files, err := m.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(files) != 1 || files[0].Path != "models/weights.npz" || files[0].Size != 7 {
		t.Errorf("unexpected status %+v", files)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if m.Exists() {
		t.Error("cache still exists after Clear")
	}
	if err := m.Clear(); utils.ErrorCode(err) != utils.ErrCodeFileNotFound {
		t.Errorf("second Clear should report missing cache, got %v", err)
	}
}
