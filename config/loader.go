package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/lanceccraig/Tooling.DevOps/repo"
)

// ProjectConfigFiles are the project-level config file names, in lookup
// order.
var ProjectConfigFiles = []string{"devops.yaml", "devops.yml", "devops.toml"}

const (
	// UserConfigDir is the directory for user-level config, under the XDG
	// config home
	UserConfigDir = "devops"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger

	// Path, when set, is loaded instead of searching for a project config.
	Path string
	// RepoPath, when set, is used as the repository root instead of
	// detecting it.
	RepoPath string
	// WorkDir is where detection starts (default: current directory).
	WorkDir string
	// UserConfigPath overrides the user config location.
	UserConfigPath string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (<xdg config home>/devops/config.yaml)
// 3. Project config (--config, or devops.yaml in the repository root,
// the working directory or its parents)
//
// The repository root and, when not configured, the repository owner and
// name are detected from git.
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	workDir, err := l.workDir()
	if err != nil {
		return nil, err
	}

	// Load user config
	userConfigPath := l.userConfigPath()
	if userConfigPath != "" {
		if userConfig, err := parseFile(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	// Detect the repository before the project config so the search can
	// start at its root
	var detected *repo.Repository
	root := l.RepoPath
	if root == "" {
		if r, err := repo.Detect(workDir); err == nil {
			detected = r
			root = r.Root()
			l.logger.Debug("Auto-detected git root", slog.String("path", root))
		} else {
			root = workDir
			l.logger.Debug("Using working directory as repo root", slog.String("path", root), slog.String("reason", err.Error()))
		}
	} else if r, err := repo.Detect(root); err == nil {
		detected = r
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	// Load project config
	projectConfigPath := l.Path
	if projectConfigPath == "" {
		projectConfigPath = findProjectConfig(root, workDir)
	}
	if projectConfigPath != "" {
		projectConfig, err := parseFile(projectConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load project config %s: %w", projectConfigPath, err)
		}
		l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
		config.Merge(projectConfig)
	} else {
		l.logger.Debug("No project config found")
	}

	config.Root = root
	if config.Repository.Owner == "" || config.Repository.Name == "" {
		l.detectRepository(config, detected)
	}

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (l *Loader) detectRepository(config *Config, detected *repo.Repository) {
	if detected == nil {
		return
	}
	info, err := detected.Origin()
	if err != nil {
		l.logger.Debug("Repository identity not detected", slog.String("error", err.Error()))
		return
	}
	if config.Repository.Owner == "" {
		config.Repository.Owner = info.Owner
	}
	if config.Repository.Name == "" {
		config.Repository.Name = info.Name
	}
	l.logger.Debug("Auto-detected repository", slog.String("repository", config.Repository.String()))
}

// EnsureProjectConfig writes a project config with defaults to root unless
// one already exists, and returns its path.
func (l *Loader) EnsureProjectConfig(root string) (string, error) {
	if existing := projectConfigIn(root); existing != "" {
		return existing, nil
	}

	path := filepath.Join(root, ProjectConfigFiles[0])
	if err := DefaultConfig().SaveToFile(path); err != nil {
		return "", err
	}

	l.logger.Info("Created default project config", slog.String("path", path))
	return path, nil
}

func (l *Loader) workDir() (string, error) {
	if l.WorkDir != "" {
		return l.WorkDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	if l.UserConfigPath != "" {
		return l.UserConfigPath
	}
	return filepath.Join(xdg.ConfigHome, UserConfigDir, UserConfigFile)
}

// findProjectConfig returns the first project config in root, then in start
// and its parent directories.
func findProjectConfig(root, start string) string {
	if path := projectConfigIn(root); path != "" {
		return path
	}
	if start == "" {
		return ""
	}

	dir := start
	for {
		if path := projectConfigIn(dir); path != "" {
			return path
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

func projectConfigIn(dir string) string {
	if dir == "" {
		return ""
	}
	for _, name := range ProjectConfigFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
