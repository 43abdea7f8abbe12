package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dest-ash/bnncache/internal/cache"
	"github.com/dest-ash/bnncache/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the local cache holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		writer := newWriter()

		cacheDir, err := cfg.GetCacheDir()
		if err != nil {
			exitWithError("status", err)
		}

		manager := cache.NewManager(cache.Options{
			CacheDir: cacheDir,
			Logger:   logger,
		})

		files, err := manager.Status()
		if err != nil {
			exitWithError("status", err)
		}

		var total int64
		for _, f := range files {
			total += f.Size
		}

		return writer.WriteSuccess("status", statusResult{
			Dir:        cacheDir,
			Exists:     manager.Exists(),
			FileCount:  len(files),
			TotalBytes: total,
			Files:      files,
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusResult struct {
	Dir        string             `json:"dir"`
	Exists     bool               `json:"exists"`
	FileCount  int                `json:"fileCount"`
	TotalBytes int64              `json:"totalBytes"`
	Files      []cache.CachedFile `json:"files"`
}

func (r statusResult) AsTableRenderer() types.TableRenderer {
	return statusTable{r}
}

type statusTable struct {
	result statusResult
}

func (t statusTable) Headers() []string {
	return []string{"File", "Size"}
}

func (t statusTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.result.Files))
	for _, f := range t.result.Files {
		rows = append(rows, []string{truncate(f.Path, 60), formatSize(f.Size)})
	}
	return rows
}

func (t statusTable) EmptyMessage() string {
	return fmt.Sprintf("Cache is empty (%s)", t.result.Dir)
}
