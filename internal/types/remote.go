package types

// EntryKind distinguishes files from directories in a remote listing.
type EntryKind string

const (
	EntryKindFile EntryKind = "file"
	EntryKindDir  EntryKind = "dir"
)

// RemoteEntry is a single item returned by the remote tree-listing API.
type RemoteEntry struct {
	Name        string    `json:"name"`
	Kind        EntryKind `json:"kind"`
	Path        string    `json:"path"`
	Size        int64     `json:"size,omitempty"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
	ListingURL  string    `json:"listingUrl,omitempty"`
}

// IsDir reports whether the entry is a subdirectory.
func (e RemoteEntry) IsDir() bool {
	return e.Kind == EntryKindDir
}

// RepoInfo is the subset of the repository metadata API response we consume.
type RepoInfo struct {
	DefaultBranch string `json:"default_branch"`
}
