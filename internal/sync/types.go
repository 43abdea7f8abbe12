// Package sync mirrors a remote repository folder into the local
// cache, tolerating partial failure. Files that fail with a transient
// error are collected and re-driven in bounded retry rounds instead of
// aborting the run.
package sync

import (
	"encoding/json"
	"fmt"
)

// Backend identifies where a fetch task downloads from
type Backend string

const (
	// BackendPrimary is the contents API download endpoint
	BackendPrimary Backend = "primary"
	// BackendRaw is the raw host, used to re-fetch LFS objects
	BackendRaw Backend = "raw"
	// BackendDrive is a Google Drive override target
	BackendDrive Backend = "drive"
)

// FetchTask is one pending download: a source, a destination, and the
// backend that serves it
type FetchTask struct {
	Path      string
	SourceURL string
	LocalPath string
	Backend   Backend
}

func (t FetchTask) String() string {
	return fmt.Sprintf("%s (%s)", t.Path, t.Backend)
}

// DeferredFailure records a task that failed with a transient error
// and is waiting for a retry round
type DeferredFailure struct {
	Task         FetchTask
	AttemptsMade int
	Err          error
}

// MarshalJSON renders the failure with its error as a string
func (d DeferredFailure) MarshalJSON() ([]byte, error) {
	var msg string
	if d.Err != nil {
		msg = d.Err.Error()
	}
	return json.Marshal(struct {
		Path     string `json:"path"`
		Backend  string `json:"backend"`
		Attempts int    `json:"attempts"`
		Error    string `json:"error"`
	}{d.Task.Path, string(d.Task.Backend), d.AttemptsMade, msg})
}

// Summary counts what a walk did
type Summary struct {
	Fetched  int `json:"fetched"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Deferred int `json:"deferred,omitempty"`
}

// Report is the outcome of a full sync run, including anything still
// failing after the retry rounds
type Report struct {
	Summary  Summary           `json:"summary"`
	Failures []DeferredFailure `json:"failures,omitempty"`
}

// Complete reports whether every file ended up in the cache
func (r Report) Complete() bool {
	return r.Summary.Failed == 0 && len(r.Failures) == 0
}
