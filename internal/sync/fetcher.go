package sync

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/dest-ash/bnncache/internal/errors"
	"github.com/dest-ash/bnncache/internal/logging"
)

// Fetcher downloads single files over HTTP with a polite delay
// between requests. A zero delay disables pacing, which tests rely
// on.
type Fetcher struct {
	client *http.Client
	delay  time.Duration
	logger logging.Logger
}

// NewFetcher creates a fetcher sharing the given HTTP client
func NewFetcher(client *http.Client, delay time.Duration, logger logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Fetcher{client: client, delay: delay, logger: logger}
}

// Do executes one fetch task. A file already present at the
// destination is left alone and reported as not fetched. On success
// the downloaded bytes are returned for content inspection.
func (f *Fetcher) Do(ctx context.Context, task FetchTask) ([]byte, bool, error) {
	if _, err := os.Stat(task.LocalPath); err == nil {
		f.logger.Debug("Already cached, skipping",
			logging.F("path", task.Path),
		)
		return nil, false, nil
	}

	data, err := f.Get(ctx, task.SourceURL)
	if err != nil {
		return nil, false, err
	}

	if err := os.MkdirAll(filepath.Dir(task.LocalPath), 0755); err != nil {
		return nil, false, err
	}
	if err := os.WriteFile(task.LocalPath, data, 0644); err != nil {
		return nil, false, err
	}

	f.logger.Info("Fetched",
		logging.F("path", task.Path),
		logging.F("backend", string(task.Backend)),
		logging.F("bytes", len(data)),
	)
	return data, true, nil
}

// Get downloads a URL into memory, classifying failures
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	traceID := uuid.New().String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apierrors.ClassifyTransportError(err, url, traceID, f.logger)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.pause(ctx)
		return nil, apierrors.ClassifyTransportError(err, url, traceID, f.logger)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		f.pause(ctx)
		return nil, apierrors.ClassifyFetchError(resp.StatusCode, url, traceID, f.logger)
	}

	data, err := io.ReadAll(resp.Body)
	f.pause(ctx)
	if err != nil {
		return nil, apierrors.ClassifyTransportError(err, url, traceID, f.logger)
	}
	return data, nil
}

// pause spaces requests so the remote hosts are not hammered
func (f *Fetcher) pause(ctx context.Context) {
	if f.delay <= 0 {
		return
	}
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
	}
}
