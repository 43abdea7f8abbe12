// Package github lists repository contents and resolves download
// endpoints through the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	apierrors "github.com/dest-ash/bnncache/internal/errors"
	"github.com/dest-ash/bnncache/internal/logging"
	"github.com/dest-ash/bnncache/internal/types"
	"github.com/dest-ash/bnncache/internal/utils"
)

// Client talks to the GitHub contents API for one repository
type Client struct {
	owner      string
	repo       string
	apiBaseURL string
	rawBaseURL string
	httpClient *http.Client
	logger     logging.Logger

	branchOnce sync.Once
	branch     string
	branchErr  error
}

// Options configures client creation
type Options struct {
	Owner      string
	Repo       string
	APIBaseURL string
	RawBaseURL string
	Token      string
	Timeout    time.Duration
	Transport  http.RoundTripper
	Logger     logging.Logger
}

// NewClient creates a contents API client. A non-empty token is sent
// as a bearer credential on API requests; raw host fetches go through
// the same client.
func NewClient(ctx context.Context, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	apiBase := strings.TrimRight(opts.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = utils.GitHubAPIBaseURL
	}
	rawBase := strings.TrimRight(opts.RawBaseURL, "/")
	if rawBase == "" {
		rawBase = utils.GitHubRawBaseURL
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Duration(utils.DefaultRequestTimeoutSec) * time.Second
	}

	var httpClient *http.Client
	if opts.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		if opts.Transport != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: opts.Transport})
		}
		httpClient = oauth2.NewClient(ctx, src)
	} else {
		httpClient = &http.Client{Transport: opts.Transport}
	}
	httpClient.Timeout = timeout

	return &Client{
		owner:      opts.Owner,
		repo:       opts.Repo,
		apiBaseURL: apiBase,
		rawBaseURL: rawBase,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ContentsURL returns the contents API endpoint for a repository path
func (c *Client) ContentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.apiBaseURL, c.owner, c.repo, escapePath(path))
}

// RawURL returns the raw host URL for a repository path on a branch
func (c *Client) RawURL(path, branch string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		c.rawBaseURL, c.owner, c.repo, url.PathEscape(branch), escapePath(path))
}

func escapePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// contentsEntry is the subset of the contents API response we consume
type contentsEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
	URL         string `json:"url"`
}

// ListDirectory lists the entries of a repository directory by path
func (c *Client) ListDirectory(ctx context.Context, path string) ([]types.RemoteEntry, error) {
	return c.List(ctx, c.ContentsURL(path))
}

// List lists directory entries from a contents API listing URL. Used
// for subdirectories, whose listing endpoints come back in the parent
// listing.
func (c *Client) List(ctx context.Context, listingURL string) ([]types.RemoteEntry, error) {
	traceID := uuid.New().String()

	c.logger.Debug("Listing directory",
		logging.F("url", listingURL),
		logging.F("traceId", traceID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, apierrors.ClassifyTransportError(err, listingURL, traceID, c.logger)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.ClassifyTransportError(err, listingURL, traceID, c.logger)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, apierrors.ClassifyListingError(resp.StatusCode, listingURL, traceID, c.logger)
	}

	var raw []contentsEntry
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeListingFailed,
			fmt.Sprintf("decoding listing %s: %v", listingURL, err)).
			WithContext("traceId", traceID).
			Build())
	}

	entries := make([]types.RemoteEntry, 0, len(raw))
	for _, e := range raw {
		kind := types.EntryKindFile
		if e.Type == "dir" {
			kind = types.EntryKindDir
		}
		entries = append(entries, types.RemoteEntry{
			Name:        e.Name,
			Kind:        kind,
			Path:        e.Path,
			Size:        e.Size,
			DownloadURL: e.DownloadURL,
			ListingURL:  e.URL,
		})
	}

	c.logger.Debug("Listing complete",
		logging.F("url", listingURL),
		logging.F("entries", len(entries)),
		logging.F("traceId", traceID),
	)

	return entries, nil
}

// DefaultBranch returns the repository's default branch. The result
// is fetched at most once per client; concurrent calls share it.
func (c *Client) DefaultBranch(ctx context.Context) (string, error) {
	c.branchOnce.Do(func() {
		c.branch, c.branchErr = c.fetchDefaultBranch(ctx)
	})
	return c.branch, c.branchErr
}

func (c *Client) fetchDefaultBranch(ctx context.Context) (string, error) {
	traceID := uuid.New().String()
	repoURL := fmt.Sprintf("%s/repos/%s/%s", c.apiBaseURL, c.owner, c.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, repoURL, nil)
	if err != nil {
		return "", apierrors.ClassifyTransportError(err, repoURL, traceID, c.logger)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apierrors.ClassifyTransportError(err, repoURL, traceID, c.logger)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", apierrors.ClassifyListingError(resp.StatusCode, repoURL, traceID, c.logger)
	}

	var info types.RepoInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", utils.NewAppError(utils.NewCLIError(utils.ErrCodeListingFailed,
			fmt.Sprintf("decoding repository metadata: %v", err)).
			WithContext("traceId", traceID).
			Build())
	}
	if info.DefaultBranch == "" {
		return "", utils.NewAppError(utils.NewCLIError(utils.ErrCodeListingFailed,
			"repository metadata is missing default_branch").
			WithContext("traceId", traceID).
			Build())
	}

	c.logger.Info("Resolved default branch",
		logging.F("branch", info.DefaultBranch),
		logging.F("traceId", traceID),
	)

	return info.DefaultBranch, nil
}

// HTTPClient exposes the underlying HTTP client so file fetches share
// the same transport and credentials
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}
