package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dest-ash/bnncache/internal/auth"
	"github.com/dest-ash/bnncache/internal/cache"
	"github.com/dest-ash/bnncache/internal/config"
	"github.com/dest-ash/bnncache/internal/drive"
	"github.com/dest-ash/bnncache/internal/github"
	"github.com/dest-ash/bnncache/internal/sync"
	"github.com/dest-ash/bnncache/internal/types"
	"github.com/dest-ash/bnncache/internal/utils"
)

var fetchFlags struct {
	overwrite bool
	folder    string
	retries   int
	delayMs   int
	timeout   int
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Mirror the remote model folder into the local cache",
	Long: `Download every file of the remote model folder into the cache
directory. Files already present are kept as-is, LFS pointers are
replaced by the objects they reference, and per-directory
drive_map.json manifests redirect individual files to Google Drive.

Transient download failures are retried in rounds after the first
pass; anything still failing is reported without discarding the rest
of the cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runFetch(cmd)
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchFlags.overwrite, "overwrite", false, "Resume into an existing cache directory")
	fetchCmd.Flags().StringVar(&fetchFlags.folder, "folder", "", "Remote folder to mirror (default from config)")
	fetchCmd.Flags().IntVar(&fetchFlags.retries, "retries", -1, "Retry rounds for failed downloads")
	fetchCmd.Flags().IntVar(&fetchFlags.delayMs, "delay-ms", -1, "Delay between requests in milliseconds")
	fetchCmd.Flags().IntVar(&fetchFlags.timeout, "timeout", -1, "Per-request timeout in seconds")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command) error {
	ctx := cmd.Context()
	writer := newWriter()

	applyFetchFlags(cfg)

	configDir, err := config.GetConfigDir()
	if err != nil {
		exitWithError("fetch", err)
	}
	authMgr, err := auth.NewManager(configDir)
	if err != nil {
		exitWithError("fetch", err)
	}
	token, _ := authMgr.LoadToken()

	clientOpts := github.Options{
		Owner:      cfg.RepoOwner,
		Repo:       cfg.RepoName,
		APIBaseURL: cfg.APIBaseURL,
		RawBaseURL: cfg.RawBaseURL,
		Token:      token,
		Timeout:    cfg.GetRequestTimeout(),
		Logger:     logger,
	}
	if debugTransport != nil {
		clientOpts.Transport = debugTransport
	}
	client := github.NewClient(ctx, clientOpts)

	var alt sync.AltDownloader
	if driveMgr, err := drive.NewManager(ctx, cfg.DriveAPIKey, logger); err == nil {
		alt = driveMgr
	} else {
		writer.AddWarning(utils.ErrCodeOverrideInvalid,
			fmt.Sprintf("Drive unavailable, overrides fall back to the primary host: %v", err),
			"warning")
	}

	cacheDir, err := cfg.GetCacheDir()
	if err != nil {
		exitWithError("fetch", err)
	}

	manager := cache.NewManager(cache.Options{
		CacheDir:     cacheDir,
		RemoteFolder: cfg.RemoteFolder,
		Client:       client,
		Alt:          alt,
		MaxRetries:   cfg.MaxRetries,
		RetryDelay:   cfg.GetRetryBaseDelay(),
		RequestDelay: cfg.GetRequestDelay(),
		Logger:       logger,
	})

	report, err := manager.Populate(ctx, fetchFlags.overwrite)
	if err != nil {
		if utils.ErrorCode(err) == utils.ErrCodeCacheExists {
			// An existing cache is a no-op, not a failure.
			writer.AddWarning(utils.ErrCodeCacheExists,
				"cache already exists, use --overwrite to resume into it", "notice")
			return writer.WriteSuccess("fetch", fetchResult{Dir: cacheDir, Report: report})
		}
		exitWithError("fetch", err)
	}

	return writer.WriteSuccess("fetch", fetchResult{Dir: cacheDir, Report: report})
}

// applyFetchFlags folds command flags over the loaded configuration
func applyFetchFlags(cfg *config.Config) {
	if fetchFlags.folder != "" {
		cfg.RemoteFolder = fetchFlags.folder
	}
	if fetchFlags.retries >= 0 {
		cfg.MaxRetries = fetchFlags.retries
	}
	if fetchFlags.delayMs >= 0 {
		cfg.RequestDelay = fetchFlags.delayMs
	}
	if fetchFlags.timeout > 0 {
		cfg.RequestTimeout = fetchFlags.timeout
	}
}

// fetchResult is the fetch command's output payload
type fetchResult struct {
	Dir    string      `json:"dir"`
	Report sync.Report `json:"report"`
}

func (r fetchResult) AsTableRenderer() types.TableRenderer {
	return fetchTable{r}
}

type fetchTable struct {
	result fetchResult
}

func (t fetchTable) Headers() []string {
	return []string{"Fetched", "Skipped", "Failed", "Dir"}
}

func (t fetchTable) Rows() [][]string {
	s := t.result.Report.Summary
	return [][]string{{
		fmt.Sprintf("%d", s.Fetched),
		fmt.Sprintf("%d", s.Skipped),
		fmt.Sprintf("%d", s.Failed),
		t.result.Dir,
	}}
}

func (t fetchTable) EmptyMessage() string {
	return "Nothing to do"
}
