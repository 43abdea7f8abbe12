// Package cli wires the bnncache commands together.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dest-ash/bnncache/internal/config"
	"github.com/dest-ash/bnncache/internal/logging"
	"github.com/dest-ash/bnncache/internal/types"
	"github.com/dest-ash/bnncache/internal/utils"
	"github.com/dest-ash/bnncache/pkg/version"
)

var (
	globalFlags    types.GlobalFlags
	logger         logging.Logger
	debugTransport *logging.DebugTransport
	cfg            *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bnncache",
	Short: "Model cache manager for the radiocarbon calibration networks",
	Long: `bnncache mirrors the published neural network model files into a
local cache directory. Large files stored in Git LFS or on Google
Drive are resolved to their real content automatically.

All commands support JSON output for automation and scripting.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateGlobalFlags(); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		logConfig := logging.LogConfig{
			Level:           logging.INFO,
			OutputFile:      globalFlags.LogFile,
			EnableConsole:   !globalFlags.Quiet,
			EnableDebug:     globalFlags.Debug,
			RedactSensitive: true,
			EnableColor:     cfg.ColorOutput,
			EnableTimestamp: true,
		}
		if globalFlags.Verbose {
			logConfig.Level = logging.DEBUG
		}
		if globalFlags.OutputFormat == types.OutputFormatJSON && !globalFlags.Verbose && !globalFlags.Debug {
			logConfig.EnableConsole = false
		}

		logger, debugTransport, err = logging.NewDebugLoggerWithTransport(logConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		if globalFlags.OutputFormat == types.OutputFormatJSON {
			writer := newWriter()
			writer.WriteSuccess("version", version.Get())
			return
		}
		fmt.Println(version.Get().String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar((*string)(&globalFlags.OutputFormat), "output", "table", "Output format (json, table)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.JSON, "json", false, "Output in JSON format (alias for --output json)")

	rootCmd.AddCommand(versionCmd)
}

func validateGlobalFlags() error {
	if globalFlags.JSON {
		globalFlags.OutputFormat = types.OutputFormatJSON
	}
	if globalFlags.OutputFormat != types.OutputFormatJSON && globalFlags.OutputFormat != types.OutputFormatTable {
		return fmt.Errorf("invalid output format: %s", globalFlags.OutputFormat)
	}
	return nil
}

func newWriter() *OutputWriter {
	return NewOutputWriter(globalFlags.OutputFormat, globalFlags.Quiet, globalFlags.Verbose)
}

// exitWithError renders err on stdout and terminates with its mapped
// exit code
func exitWithError(command string, err error) {
	writer := newWriter()

	var cliErr types.CLIError
	if appErr, ok := err.(*utils.AppError); ok {
		cliErr = appErr.CLIError
	} else {
		cliErr = utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build()
	}

	writer.WriteError(command, cliErr)
	if logger != nil {
		logger.Close()
	}
	os.Exit(utils.GetExitCode(cliErr.Code))
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(utils.ExitInvalidArgument)
	}
	return nil
}
