package cli

import (
	"github.com/spf13/cobra"

	"github.com/dest-ash/bnncache/internal/cache"
	"github.com/dest-ash/bnncache/internal/utils"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the local cache directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		writer := newWriter()

		cacheDir, err := cfg.GetCacheDir()
		if err != nil {
			exitWithError("clear", err)
		}

		manager := cache.NewManager(cache.Options{
			CacheDir: cacheDir,
			Logger:   logger,
		})

		if err := manager.Clear(); err != nil {
			if utils.ErrorCode(err) == utils.ErrCodeFileNotFound {
				writer.AddWarning(utils.ErrCodeFileNotFound, "cache directory does not exist", "notice")
				return writer.WriteSuccess("clear", map[string]string{"dir": cacheDir, "status": "absent"})
			}
			exitWithError("clear", err)
		}

		return writer.WriteSuccess("clear", map[string]string{"dir": cacheDir, "status": "removed"})
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
