package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/lanceccraig/Tooling.DevOps/build"
	"github.com/lanceccraig/Tooling.DevOps/config"
	"github.com/lanceccraig/Tooling.DevOps/deploy"
	"github.com/lanceccraig/Tooling.DevOps/errs"
	"github.com/lanceccraig/Tooling.DevOps/executor"
	"github.com/lanceccraig/Tooling.DevOps/github"
	"github.com/lanceccraig/Tooling.DevOps/issues"
	"github.com/lanceccraig/Tooling.DevOps/metrics"
	"github.com/lanceccraig/Tooling.DevOps/release"
	"github.com/lanceccraig/Tooling.DevOps/repo"
	"github.com/lanceccraig/Tooling.DevOps/report"
	"github.com/lanceccraig/Tooling.DevOps/scheduler"
	"github.com/lanceccraig/Tooling.DevOps/target"
	"github.com/lanceccraig/Tooling.DevOps/version"
	"github.com/lanceccraig/Tooling.DevOps/workspace"
)

// userConfigPath overrides the user config location. Tests point it at a
// temporary file.
var userConfigPath string

type globalFlags struct {
	configPath  string
	repoPath    string
	logLevel    string
	metricsFile string
}

type runFlags struct {
	targets []string
	list    bool
	dryRun  bool
}

type targetsFunc func(*app) ([]target.Definition, error)

// app holds the collaborators shared by the build and deploy commands.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	ws          *workspace.Workspace
	console     *report.Console
	metrics     *metrics.Recorder
	runner      executor.Runner
	dryRun      bool
	metricsFile string
}

func newLogger(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newApp(flags globalFlags, dryRun bool, out, errOut io.Writer) (*app, error) {
	// Configure logging
	logger := newLogger(flags.logLevel, errOut).With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(logger)

	// Load configuration
	loader := config.NewLoader(logger)
	loader.Path = flags.configPath
	loader.RepoPath = flags.repoPath
	loader.UserConfigPath = userConfigPath
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	ws, err := workspace.New(cfg.Root)
	if err != nil {
		return nil, err
	}

	console := report.NewConsole(out, errOut)
	var runner executor.Runner = executor.New(logger, executor.WithStdout(out), executor.WithStderr(errOut))
	if dryRun {
		runner = &executor.Recorder{Echo: out}
	}

	logger.Debug("Loaded configuration",
		slog.String("root", cfg.Root),
		slog.String("repository", cfg.Repository.String()),
		slog.Bool("dry_run", dryRun))

	return &app{
		cfg:         cfg,
		logger:      logger,
		ws:          ws,
		console:     console,
		metrics:     metrics.NewRecorder(),
		runner:      runner,
		dryRun:      dryRun,
		metricsFile: flags.metricsFile,
	}, nil
}

// runPipeline composes the targets and runs, or lists, the requested ones.
func (a *app) runPipeline(ctx context.Context, targets targetsFunc, rf runFlags) error {
	defs, err := targets(a)
	if err != nil {
		return err
	}
	g, err := target.Compose(defs...)
	if err != nil {
		return err
	}

	if rf.list {
		names, err := scheduler.Plan(g, rf.targets)
		if err != nil {
			return err
		}
		a.console.Plan(names)
		return nil
	}

	defer a.writeMetrics()
	return scheduler.Run(ctx, g, rf.targets,
		scheduler.WithObserver(a.console),
		scheduler.WithObserver(a.metrics),
		scheduler.WithLogger(a.logger))
}

func (a *app) buildTargets() ([]target.Definition, error) {
	var ws build.Workspace = a.ws
	if a.dryRun {
		ws = dryRunWorkspace{Workspace: a.ws, console: a.console}
	}
	return build.Targets(a.cfg.BuildOptions(), a.runner, ws), nil
}

func (a *app) deployTargets() ([]target.Definition, error) {
	resolver, err := version.NewResolver(a.cfg.Deploy.VersionStrategy,
		version.NewFileStrategy(a.ws, a.cfg.Deploy.VersionFile),
		version.NewBinaryStrategy())
	if err != nil {
		return nil, err
	}

	releaser, err := a.releaser()
	if err != nil {
		return nil, err
	}
	return deploy.Targets(a.cfg.DeployOptions(), a.runner, a.ws, resolver, releaser), nil
}

func (a *app) releaser() (deploy.Releaser, error) {
	if a.cfg.Repository.Owner == "" || a.cfg.Repository.Name == "" {
		return missingRepository{}, nil
	}

	classifier, err := a.cfg.Classifier()
	if err != nil {
		return nil, err
	}
	resolution, typ, err := a.cfg.IssueClassifications()
	if err != nil {
		return nil, err
	}
	converter := issues.NewConverter(classifier, a.cfg.IssueRegistry(),
		issues.WithClassifications(resolution, typ),
		issues.WithSkipFunc(func(s issues.Skip) { a.console.Error(s.String()) }),
		issues.WithStats(a.metrics.ConversionFinished),
		issues.WithLogger(a.logger))

	opts := []github.ClientOption{
		github.WithProductName(a.cfg.Deploy.ProductName),
		github.WithLogger(a.logger),
	}
	if a.cfg.Deploy.APIURL != "" {
		opts = append(opts, github.WithBaseURL(a.cfg.Deploy.APIURL))
	}
	if a.cfg.Deploy.UploadURL != "" {
		opts = append(opts, github.WithUploadURL(a.cfg.Deploy.UploadURL))
	}
	tokens := github.NewCredentialStore(a.cfg.Deploy.GitHubTokenEnv, a.cfg.Deploy.GitHubTokenPath, a.ws)
	hosting := github.NewClient(a.cfg.Repository, tokens, opts...)

	return release.NewService(hosting, converter, a.ws, a.console, a.cfg.ReleaseOptions(a.dryRun), a.logger), nil
}

func (a *app) writeMetrics() {
	if a.metricsFile == "" {
		return
	}
	if err := a.metrics.WriteFile(a.metricsFile); err != nil {
		a.logger.Warn("Failed to write metrics", slog.String("path", a.metricsFile), slog.String("error", err.Error()))
	}
}

// dryRunWorkspace reports directory cleanup instead of performing it.
type dryRunWorkspace struct {
	*workspace.Workspace
	console *report.Console
}

func (w dryRunWorkspace) ClearDir(rel string) error {
	w.console.Status("clear " + w.Path(rel))
	return nil
}

// missingRepository fails Create Release when the repository identity is
// unknown, leaving the other deploy targets usable.
type missingRepository struct{}

func (missingRepository) Create(context.Context, string) error {
	return errs.InvalidConfig("repository owner and name are required; set repository in %s or add an origin remote", config.ProjectConfigFiles[0])
}

func writeDefaultConfig(repoPath string, logger *slog.Logger) (string, error) {
	root := repoPath
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		root = cwd
		if r, err := repo.Detect(cwd); err == nil {
			root = r.Root()
		}
	}
	return config.NewLoader(logger).EnsureProjectConfig(root)
}
