// Package main provides the devops binary entry point.
// devops builds, tests and packages .NET repositories and publishes their
// releases to GitHub.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lanceccraig/Tooling.DevOps/executor"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "devops"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		// Tool output already explains a failed command
		if executor.IsExitError(err) {
			fmt.Fprintln(os.Stderr, err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Build and release automation",
		Long: `devops runs the build and deploy pipelines of a repository.

build    cleans, builds, tests, packs and publishes the configured projects
deploy   compiles installers and creates a GitHub release from the milestone
         named after the current version

Settings are read from devops.yaml (or devops.toml) in the repository root.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML or TOML)")
	pf.StringVar(&flags.repoPath, "repo", "", "Repository path to operate on (default: detected from the working directory)")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when the run ends")

	cmd.AddCommand(
		pipelineCmd("build", "Run build targets", &flags, (*app).buildTargets),
		pipelineCmd("deploy", "Run deploy targets", &flags, (*app).deployTargets),
		initCmd(&flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

func pipelineCmd(name, short string, flags *globalFlags, targets targetsFunc) *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags, rf.dryRun, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return a.runPipeline(cmd.Context(), targets, rf)
		},
	}

	cmd.Flags().StringArrayVarP(&rf.targets, "targets", "t", nil, "Targets to run (repeatable, default: all)")
	cmd.Flags().BoolVar(&rf.list, "list", false, "List the targets that would run and exit")
	cmd.Flags().BoolVar(&rf.dryRun, "dry-run", false, "Print commands and the release body without changing anything")

	return cmd
}

func initCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a devops.yaml with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel, cmd.ErrOrStderr())
			path, err := writeDefaultConfig(flags.repoPath, logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
