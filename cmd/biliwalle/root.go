package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string
	var logFormatFlag string
	var verboseFlag bool

	ctx := newCommandContext(&configFlag, &logLevelFlag, &logFormatFlag, &verboseFlag)

	rootCmd := &cobra.Command{
		Use:           "biliwalle",
		Short:         "Build stimulus audio, clips, and movies from a protocol table",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path (.yaml, .yml, or .toml)")
	flags.StringVar(&logLevelFlag, "log-level", "", "Override logging.level (debug, info, warn, error)")
	flags.StringVar(&logFormatFlag, "log-format", "", "Override logging.format (console, json)")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Shorthand for --log-level debug")

	rootCmd.AddCommand(newWeaveCommand(ctx))
	rootCmd.AddCommand(newClipsCommand(ctx))
	rootCmd.AddCommand(newMovieCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newProtocolCommand(ctx))

	return rootCmd
}
