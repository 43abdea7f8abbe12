package sync

import (
	"github.com/dest-ash/bnncache/internal/drive"
	"github.com/dest-ash/bnncache/internal/lfs"
	"github.com/dest-ash/bnncache/internal/logging"
	"github.com/dest-ash/bnncache/internal/types"
	"github.com/dest-ash/bnncache/internal/utils"
)

// State tracks how far a file has progressed toward its final cached
// form
type State int

const (
	// StateUnresolved means no download has happened yet
	StateUnresolved State = iota
	// StateProvisionallyFetched means the primary download landed but
	// its content has not been inspected
	StateProvisionallyFetched
	// StateNeedsRawFetch means the primary download was an LFS
	// pointer and the real object must come from the raw host
	StateNeedsRawFetch
	// StateFinal means the cached bytes are the real file
	StateFinal
)

// Resolution drives one file from listing entry to final cached
// content. Files served by an override skip pointer inspection since
// the alternate host stores real objects.
type Resolution struct {
	Entry     types.RemoteEntry
	LocalPath string
	State     State
	Pointer   *lfs.Pointer

	task FetchTask
}

// NewResolution plans the first fetch for a file. An override URL that
// is not a recognized Drive link is logged and ignored, falling back
// to the primary host.
func NewResolution(entry types.RemoteEntry, localPath string, overrides map[string]string, logger logging.Logger) *Resolution {
	r := &Resolution{
		Entry:     entry,
		LocalPath: localPath,
		State:     StateUnresolved,
	}

	if target, ok := overrides[entry.Name]; ok {
		if drive.IsResourceURL(target) {
			r.task = FetchTask{
				Path:      entry.Path,
				SourceURL: target,
				LocalPath: localPath,
				Backend:   BackendDrive,
			}
			return r
		}
		logger.Warn("Unrecognized override target, using primary host",
			logging.F("path", entry.Path),
			logging.F("target", target),
		)
	}

	r.task = FetchTask{
		Path:      entry.Path,
		SourceURL: entry.DownloadURL,
		LocalPath: localPath,
		Backend:   BackendPrimary,
	}
	return r
}

// Task returns the currently planned fetch
func (r *Resolution) Task() FetchTask {
	return r.task
}

// ObserveContent inspects a landed primary download. Real content
// finalizes the file; a valid LFS pointer demands a raw host
// re-fetch; a pointer that fails to parse is an error and the
// placeholder must not stay in the cache.
func (r *Resolution) ObserveContent(data []byte) error {
	r.State = StateProvisionallyFetched

	if !lfs.IsPointer(data) {
		r.State = StateFinal
		return nil
	}

	pointer, err := lfs.Parse(data)
	if err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidPointer,
			"downloaded content looks like an LFS pointer but fails to parse").
			WithContext("path", r.Entry.Path).
			Build())
	}

	r.Pointer = pointer
	r.State = StateNeedsRawFetch
	return nil
}

// RawTask switches the resolution to the raw host for the real object
func (r *Resolution) RawTask(rawURL string) FetchTask {
	r.task = FetchTask{
		Path:      r.Entry.Path,
		SourceURL: rawURL,
		LocalPath: r.LocalPath,
		Backend:   BackendRaw,
	}
	return r.task
}
