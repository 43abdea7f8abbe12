package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dest-ash/bnncache/internal/auth"
	"github.com/dest-ash/bnncache/internal/config"
	"github.com/dest-ash/bnncache/internal/utils"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the GitHub access token",
	Long: `Store, inspect, or remove the GitHub token used for API requests.
A token raises the rate limit and grants access to private
repositories. The ` + auth.EnvToken + ` environment variable
overrides any stored token.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store a GitHub token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		writer := newWriter()

		manager, err := newAuthManager()
		if err != nil {
			exitWithError("token set", err)
		}

		token := ""
		if len(args) == 1 {
			token = args[0]
		} else {
			fmt.Fprint(os.Stderr, "Token: ")
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				exitWithError("token set", err)
			}
			token = strings.TrimSpace(line)
		}

		if err := manager.SaveToken(token); err != nil {
			exitWithError("token set", utils.NewAppError(
				utils.NewCLIError(utils.ErrCodeInvalidArgument, err.Error()).Build()))
		}

		if warning := manager.StorageWarning(); warning != "" {
			writer.AddWarning(utils.ErrCodeUnknown, warning, "notice")
		}
		return writer.WriteSuccess("token set", map[string]string{
			"storage": manager.StorageName(),
			"status":  "saved",
		})
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored GitHub token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		writer := newWriter()

		manager, err := newAuthManager()
		if err != nil {
			exitWithError("token clear", err)
		}
		if err := manager.DeleteToken(); err != nil {
			writer.AddWarning(utils.ErrCodeFileNotFound, "no stored token", "notice")
		}
		return writer.WriteSuccess("token clear", map[string]string{"status": "cleared"})
	},
}

var tokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a token is configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		writer := newWriter()

		manager, err := newAuthManager()
		if err != nil {
			exitWithError("token status", err)
		}

		source := "none"
		if os.Getenv(auth.EnvToken) != "" {
			source = "environment"
		} else if manager.HasToken() {
			source = manager.StorageName()
		}

		return writer.WriteSuccess("token status", map[string]interface{}{
			"configured": source != "none",
			"source":     source,
		})
	},
}

func newAuthManager() (*auth.Manager, error) {
	configDir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	return auth.NewManager(configDir)
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenClearCmd)
	tokenCmd.AddCommand(tokenStatusCmd)
	rootCmd.AddCommand(tokenCmd)
}
