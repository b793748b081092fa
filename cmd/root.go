package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mirror-config",
	Short: "Validate image set configurations",
	Long: `mirror-config loads and validates image set configurations.

An image set configuration declares the platform release channels, operator
catalogs, additional images and helm content a mirroring tool should copy.
Every command accepts - to read the configuration from stdin.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		levelStr, _ := cmd.Flags().GetString("log-level")
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelStr)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", levelStr, err)
		}
		logger := clog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		cmd.SetContext(clog.WithLogger(cmd.Context(), logger))
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// Main runs the command line and returns the process exit code.
func Main() int {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(validateCommand())
	rootCmd.AddCommand(showCommand())
	rootCmd.AddCommand(lintCommand())
	rootCmd.AddCommand(fmtCommand())
}
