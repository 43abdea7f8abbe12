package sync

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dest-ash/bnncache/internal/logging"
	"github.com/dest-ash/bnncache/internal/types"
	"github.com/dest-ash/bnncache/internal/utils"
)

// Source lists remote directories and resolves raw host URLs
type Source interface {
	List(ctx context.Context, listingURL string) ([]types.RemoteEntry, error)
	DefaultBranch(ctx context.Context) (string, error)
	RawURL(path, branch string) string
}

// AltDownloader fetches an override target into the cache
type AltDownloader interface {
	Fetch(ctx context.Context, shareURL string, localPath string) error
}

// Walker mirrors a remote directory tree into a local one. Transient
// fetch failures are deferred rather than fatal; each call frame
// collects its own and hands them up to the caller.
type Walker struct {
	src     Source
	alt     AltDownloader
	fetcher *Fetcher
	logger  logging.Logger

	summary Summary
}

// NewWalker creates a walker. alt may be nil when no Drive client is
// configured; overrides then fall back to the primary host.
func NewWalker(src Source, alt AltDownloader, fetcher *Fetcher, logger logging.Logger) *Walker {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Walker{src: src, alt: alt, fetcher: fetcher, logger: logger}
}

// Summary returns counters accumulated across Walk and Run calls
func (w *Walker) Summary() Summary {
	return w.summary
}

// Walk mirrors the directory behind listingURL into localDir. A
// listing failure is returned to the caller: the root caller treats
// it as fatal, while recursive frames log it and skip the subtree.
func (w *Walker) Walk(ctx context.Context, listingURL string, localDir string) ([]DeferredFailure, error) {
	entries, err := w.src.List(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(localDir, 0755); err != nil {
		return nil, err
	}

	overrides := w.loadOverrides(ctx, entries, localDir)

	var deferred []DeferredFailure
	for _, entry := range entries {
		if ctx.Err() != nil {
			return deferred, ctx.Err()
		}

		if entry.IsDir() {
			childDeferred, err := w.Walk(ctx, entry.ListingURL, filepath.Join(localDir, entry.Name))
			deferred = append(deferred, childDeferred...)
			if err != nil {
				w.logger.Warn("Skipping subtree, listing failed",
					logging.F("path", entry.Path),
					logging.F("error", err.Error()),
				)
				w.summary.Failed++
			}
			continue
		}

		deferred = append(deferred, w.syncFile(ctx, entry, localDir, overrides)...)
	}
	return deferred, nil
}

// loadOverrides fetches and parses the directory's drive_map.json, if
// any. The manifest itself is also mirrored like a regular file.
func (w *Walker) loadOverrides(ctx context.Context, entries []types.RemoteEntry, localDir string) map[string]string {
	for _, entry := range entries {
		if entry.IsDir() || entry.Name != utils.DriveMapFileName {
			continue
		}

		localPath := filepath.Join(localDir, entry.Name)
		if data, err := os.ReadFile(localPath); err == nil {
			return ParseOverrides(data, filepath.Dir(entry.Path), w.logger)
		}

		data, err := w.fetcher.Get(ctx, entry.DownloadURL)
		if err != nil {
			w.logger.Warn("Could not fetch override manifest",
				logging.F("path", entry.Path),
				logging.F("error", err.Error()),
			)
			return nil
		}
		if err := os.WriteFile(localPath, data, 0644); err != nil {
			w.logger.Warn("Could not store override manifest",
				logging.F("path", entry.Path),
				logging.F("error", err.Error()),
			)
		}
		return ParseOverrides(data, filepath.Dir(entry.Path), w.logger)
	}
	return nil
}

// syncFile brings one file into the cache, returning any failure
// worth retrying later
func (w *Walker) syncFile(ctx context.Context, entry types.RemoteEntry, localDir string, overrides map[string]string) []DeferredFailure {
	if entry.Name == utils.DriveMapFileName {
		return nil
	}

	localPath := filepath.Join(localDir, entry.Name)
	res := NewResolution(entry, localPath, w.effectiveOverrides(overrides), w.logger)
	task := res.Task()

	if task.Backend == BackendDrive {
		if _, err := os.Stat(localPath); err == nil {
			w.summary.Skipped++
			return nil
		}
		if err := w.alt.Fetch(ctx, task.SourceURL, localPath); err != nil {
			// A folder override that fails mid-download leaves a
			// partial tree whose bare existence would read as done.
			os.RemoveAll(localPath)
			return w.classifyFailure(task, err)
		}
		w.summary.Fetched++
		return nil
	}

	data, fetched, err := w.fetcher.Do(ctx, task)
	if err != nil {
		return w.classifyFailure(task, err)
	}
	if !fetched {
		w.summary.Skipped++
		return nil
	}

	if err := res.ObserveContent(data); err != nil {
		os.Remove(localPath)
		w.logger.Error("Removing invalid download",
			logging.F("path", entry.Path),
			logging.F("error", err.Error()),
		)
		w.summary.Failed++
		return nil
	}

	if res.State != StateNeedsRawFetch {
		w.summary.Fetched++
		return nil
	}

	// The pointer text must never sit in the cache masquerading as
	// the real file.
	os.Remove(localPath)

	branch, err := w.src.DefaultBranch(ctx)
	if err != nil {
		w.logger.Error("Cannot resolve default branch for raw fetch",
			logging.F("path", entry.Path),
			logging.F("error", err.Error()),
		)
		w.summary.Failed++
		return nil
	}

	rawTask := res.RawTask(w.src.RawURL(entry.Path, branch))
	if _, _, err := w.fetcher.Do(ctx, rawTask); err != nil {
		return w.classifyFailure(rawTask, err)
	}
	w.summary.Fetched++
	return nil
}

// effectiveOverrides hides the override map when no Drive downloader
// is wired, so resolutions fall back to the primary host
func (w *Walker) effectiveOverrides(overrides map[string]string) map[string]string {
	if w.alt == nil {
		return nil
	}
	return overrides
}

func (w *Walker) classifyFailure(task FetchTask, err error) []DeferredFailure {
	if utils.IsRetryable(err) {
		w.logger.Warn("Deferring transient failure",
			logging.F("path", task.Path),
			logging.F("error", err.Error()),
		)
		w.summary.Deferred++
		return []DeferredFailure{{Task: task, AttemptsMade: 0, Err: err}}
	}

	w.logger.Error("Fetch failed",
		logging.F("path", task.Path),
		logging.F("error", err.Error()),
	)
	w.summary.Failed++
	return nil
}

// Run re-executes a deferred task during a retry round. A primary
// fetch that lands an LFS pointer is completed against the raw host
// in the same attempt.
func (w *Walker) Run(ctx context.Context, task FetchTask) error {
	if task.Backend == BackendDrive {
		if _, err := os.Stat(task.LocalPath); err == nil {
			w.summary.Skipped++
			w.summary.Deferred--
			return nil
		}
		if err := w.alt.Fetch(ctx, task.SourceURL, task.LocalPath); err != nil {
			os.RemoveAll(task.LocalPath)
			return err
		}
		w.summary.Fetched++
		w.summary.Deferred--
		return nil
	}

	data, fetched, err := w.fetcher.Do(ctx, task)
	if err != nil {
		return err
	}
	if !fetched {
		w.summary.Skipped++
		w.summary.Deferred--
		return nil
	}

	if task.Backend == BackendPrimary {
		res := &Resolution{Entry: types.RemoteEntry{Path: task.Path}, LocalPath: task.LocalPath}
		if err := res.ObserveContent(data); err != nil {
			os.Remove(task.LocalPath)
			return err
		}
		if res.State == StateNeedsRawFetch {
			os.Remove(task.LocalPath)
			branch, err := w.src.DefaultBranch(ctx)
			if err != nil {
				return err
			}
			rawTask := res.RawTask(w.src.RawURL(task.Path, branch))
			if _, _, err := w.fetcher.Do(ctx, rawTask); err != nil {
				return err
			}
		}
	}

	w.summary.Fetched++
	w.summary.Deferred--
	return nil
}
