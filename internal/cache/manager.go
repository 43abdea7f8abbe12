// Package cache manages the local model cache directory and drives
// full sync runs against the remote repository.
package cache

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dest-ash/bnncache/internal/github"
	"github.com/dest-ash/bnncache/internal/logging"
	"github.com/dest-ash/bnncache/internal/sync"
	"github.com/dest-ash/bnncache/internal/utils"
)

// Manager owns the cache directory lifecycle
type Manager struct {
	cacheDir     string
	remoteFolder string
	client       *github.Client
	alt          sync.AltDownloader
	maxRetries   int
	retryDelay   time.Duration
	requestDelay time.Duration
	logger       logging.Logger
}

// Options configures a cache manager
type Options struct {
	CacheDir     string
	RemoteFolder string
	Client       *github.Client
	Alt          sync.AltDownloader
	MaxRetries   int
	RetryDelay   time.Duration
	RequestDelay time.Duration
	Logger       logging.Logger
}

// NewManager creates a cache manager
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Manager{
		cacheDir:     opts.CacheDir,
		remoteFolder: opts.RemoteFolder,
		client:       opts.Client,
		alt:          opts.Alt,
		maxRetries:   opts.MaxRetries,
		retryDelay:   opts.RetryDelay,
		requestDelay: opts.RequestDelay,
		logger:       logger,
	}
}

// Dir returns the cache directory path
func (m *Manager) Dir() string {
	return m.cacheDir
}

// Exists reports whether the cache directory is already on disk
func (m *Manager) Exists() bool {
	info, err := os.Stat(m.cacheDir)
	return err == nil && info.IsDir()
}

// Populate mirrors the remote folder into the cache. With overwrite
// false an existing cache is left untouched and reported via a
// CACHE_EXISTS error the caller can downgrade to a notice. Files
// already present are never re-downloaded, so an interrupted run can
// be resumed with overwrite set.
func (m *Manager) Populate(ctx context.Context, overwrite bool) (sync.Report, error) {
	if m.Exists() && !overwrite {
		return sync.Report{}, utils.NewAppError(utils.NewCLIError(utils.ErrCodeCacheExists,
			"cache directory already exists").
			WithContext("dir", m.cacheDir).
			Build())
	}

	localRoot := filepath.Join(m.cacheDir, m.remoteFolder)
	if err := os.MkdirAll(localRoot, 0755); err != nil {
		return sync.Report{}, err
	}

	m.logger.Info("Populating cache",
		logging.F("dir", m.cacheDir),
		logging.F("folder", m.remoteFolder),
	)

	fetcher := sync.NewFetcher(m.client.HTTPClient(), m.requestDelay, m.logger)
	walker := sync.NewWalker(m.client, m.alt, fetcher, m.logger)

	deferred, err := walker.Walk(ctx, m.client.ContentsURL(m.remoteFolder), localRoot)
	if err != nil {
		// A root listing failure means nothing could be mirrored.
		return sync.Report{Summary: walker.Summary()}, err
	}

	coordinator := sync.NewCoordinator(walker, m.maxRetries, m.retryDelay, m.logger)
	failures := coordinator.Resolve(ctx, deferred)

	report := sync.Report{Summary: walker.Summary(), Failures: failures}
	report.Summary.Failed += len(failures)
	report.Summary.Deferred = 0

	m.logger.Info("Cache population finished",
		logging.F("fetched", report.Summary.Fetched),
		logging.F("skipped", report.Summary.Skipped),
		logging.F("failed", report.Summary.Failed),
	)
	return report, ctx.Err()
}

// Clear removes the cache directory and everything under it
func (m *Manager) Clear() error {
	if !m.Exists() {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeFileNotFound,
			"cache directory does not exist").
			WithContext("dir", m.cacheDir).
			Build())
	}
	m.logger.Info("Clearing cache", logging.F("dir", m.cacheDir))
	return os.RemoveAll(m.cacheDir)
}

// CachedFile describes one file in the cache
type CachedFile struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Status walks the cache directory and lists what it holds
func (m *Manager) Status() ([]CachedFile, error) {
	if !m.Exists() {
		return nil, nil
	}

	var files []CachedFile
	err := filepath.WalkDir(m.cacheDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(m.cacheDir, path)
		if err != nil {
			return err
		}
		files = append(files, CachedFile{Path: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	return files, err
}
