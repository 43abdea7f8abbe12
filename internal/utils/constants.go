package utils

// Remote endpoints
const (
	GitHubAPIBaseURL = "https://api.github.com"
	GitHubRawBaseURL = "https://raw.githubusercontent.com"
)

// Default remote repository hosting the model artifacts
const (
	DefaultRepoOwner    = "dest-ash"
	DefaultRepoName     = "bnn_for_14C_calibration"
	DefaultRemoteFolder = "models"
)

// Cache layout. CacheDirName matches the directory the calibration
// library itself reads from, so both tools share one cache.
const (
	CacheDirName     = ".bnn_for_14C_calibration"
	DriveMapFileName = "drive_map.json"
)

// Request policy defaults
const (
	DefaultMaxRetries        = 3
	DefaultRequestTimeoutSec = 60
	DefaultRequestDelayMs    = 250
	DefaultRetryBaseDelayMs  = 1000
	MaxRetryDelayMs          = 32000
)

// RetryableFetchStatuses lists HTTP statuses treated as transient for
// single-file fetches. 403 and 404 both show up while a large object is
// still propagating on the raw host.
var RetryableFetchStatuses = map[int]bool{
	403: true,
	404: true,
}

// SchemaVersion identifies the JSON output envelope version
const SchemaVersion = "1.0"
