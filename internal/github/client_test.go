package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dest-ash/bnncache/internal/types"
	"github.com/dest-ash/bnncache/internal/utils"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(context.Background(), Options{
		Owner:      "dest-ash",
		Repo:       "bnn_for_14C_calibration",
		APIBaseURL: server.URL,
		RawBaseURL: server.URL + "/raw",
	})
	return client, server
}

func TestListDirectory(t *testing.T) {
	var server *httptest.Server
	var client *Client
	client, server = newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/dest-ash/bnn_for_14C_calibration/contents/models" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[
			{"name":"weights.npz","path":"models/weights.npz","type":"file","size":42,
			 "download_url":"%s/raw/x/weights.npz","url":"%s/api/weights"},
			{"name":"sub","path":"models/sub","type":"dir","size":0,
			 "download_url":null,"url":"%s/api/sub"}
		]`, server.URL, server.URL, server.URL)
	}))

	entries, err := client.ListDirectory(context.Background(), "models")
	if err != nil {
		t.Fatalf("ListDirectory failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	file := entries[0]
	if file.Name != "weights.npz" || file.Kind != types.EntryKindFile {
		t.Errorf("unexpected file entry %+v", file)
	}
	if file.Size != 42 || file.DownloadURL == "" {
		t.Errorf("file entry missing fields %+v", file)
	}

	dir := entries[1]
	if !dir.IsDir() {
		t.Errorf("expected directory entry, got %+v", dir)
	}
	if dir.ListingURL != server.URL+"/api/sub" {
		t.Errorf("unexpected listing url %q", dir.ListingURL)
	}
}

func TestListDirectoryFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.ListDirectory(context.Background(), "models")
	if err == nil {
		t.Fatal("expected error")
	}
	if utils.ErrorCode(err) != utils.ErrCodeListingFailed {
		t.Errorf("code = %q, want %q", utils.ErrorCode(err), utils.ErrCodeListingFailed)
	}
	if utils.IsRetryable(err) {
		t.Error("listing failures should not be retryable")
	}
}

func TestDefaultBranchCached(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/dest-ash/bnn_for_14C_calibration" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		calls.Add(1)
		fmt.Fprint(w, `{"default_branch":"main"}`)
	}))

	for i := 0; i < 3; i++ {
		branch, err := client.DefaultBranch(context.Background())
		if err != nil {
			t.Fatalf("DefaultBranch failed: %v", err)
		}
		if branch != "main" {
			t.Errorf("branch = %q, want main", branch)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single metadata request, got %d", calls.Load())
	}
}

func TestDefaultBranchMissing(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))

	if _, err := client.DefaultBranch(context.Background()); err == nil {
		t.Fatal("expected error for missing default_branch")
	}
}

func TestURLBuilders(t *testing.T) {
	client := NewClient(context.Background(), Options{
		Owner: "dest-ash",
		Repo:  "bnn_for_14C_calibration",
	})

	want := "https://api.github.com/repos/dest-ash/bnn_for_14C_calibration/contents/models/sub"
	if got := client.ContentsURL("models/sub"); got != want {
		t.Errorf("ContentsURL = %q, want %q", got, want)
	}

	want = "https://raw.githubusercontent.com/dest-ash/bnn_for_14C_calibration/main/models/weights.npz"
	if got := client.RawURL("models/weights.npz", "main"); got != want {
		t.Errorf("RawURL = %q, want %q", got, want)
	}
}
