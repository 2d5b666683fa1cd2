package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"biliwalle/internal/config"
	"biliwalle/internal/deps"
	"biliwalle/internal/stage"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file (.toml paths get TOML, anything else YAML)",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", filepath.Dir(target), err)
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set data.audiodir, data.videodir, data.outdir, and data.protocolcsv before running a workflow.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	var workflows []string

	cmd := &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration and the inputs each workflow needs",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			path := ctx.configPath
			if !ctx.configExists {
				path += " (not found; defaults used)"
			}
			fmt.Fprintf(out, "Config path: %s\n", path)

			for _, tool := range deps.Probe(cmd.Context(), toolRequirements(cfg)) {
				switch {
				case !tool.Available:
					fmt.Fprintln(out, statusLine(tool.Name, toneWarn, tool.Detail, colorize))
				case tool.Version != "":
					fmt.Fprintln(out, statusLine(tool.Name, toneOK, tool.Version, colorize))
				default:
					fmt.Fprintln(out, statusLine(tool.Name, toneOK, tool.Path, colorize))
				}
			}

			failed := 0
			for _, name := range workflows {
				w := config.Workflow(strings.ToLower(strings.TrimSpace(name)))
				health := stage.Healthy(string(w))
				if err := cfg.ValidateFor(w); err != nil {
					health = stage.Unhealthy(string(w), err.Error())
				}
				if health.Ready {
					fmt.Fprintln(out, statusLine(health.Name, toneOK, "inputs present", colorize))
					continue
				}
				failed++
				fmt.Fprintln(out, statusLine(health.Name, toneError, health.Detail, colorize))
			}
			if failed > 0 {
				return fmt.Errorf("%d workflow(s) cannot run with this configuration", failed)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&workflows, "workflow", "w", nil, "Also check inputs for these workflows (weave, clips, movie)")
	return cmd
}

func toolRequirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{Name: "ffmpeg", Command: cfg.FFmpegBinary(), Description: "decodes, mixes, and renders media"},
		{Name: "ffprobe", Command: cfg.FFprobeBinary(), Description: "inspects clip and video streams", Optional: true},
	}
}
