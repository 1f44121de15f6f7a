// Package config provides configuration loading and management for the
// build and deploy commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lanceccraig/Tooling.DevOps/errs"
	"github.com/lanceccraig/Tooling.DevOps/issues"
	"github.com/lanceccraig/Tooling.DevOps/labels"
	"github.com/lanceccraig/Tooling.DevOps/repo"
	"github.com/lanceccraig/Tooling.DevOps/version"
)

// Config represents the complete configuration
type Config struct {
	// ArtifactsDir is the repository-relative output directory for packages
	// and release assets.
	ArtifactsDir string       `yaml:"artifacts_dir" toml:"artifacts_dir"`
	Repository   repo.Info    `yaml:"repository" toml:"repository"`
	Build        BuildConfig  `yaml:"build" toml:"build"`
	Deploy       DeployConfig `yaml:"deploy" toml:"deploy"`

	// Root is the repository root. It is set by the Loader, never read from
	// a file.
	Root string `yaml:"-" toml:"-"`
}

// ProjectConfig references a project by repository-relative path.
type ProjectConfig struct {
	Path       string `yaml:"path" toml:"path"`
	ForceBuild bool   `yaml:"force_build,omitempty" toml:"force_build,omitempty"`
}

// TestProjectConfig is a test project and the suite it belongs to.
type TestProjectConfig struct {
	Path       string `yaml:"path" toml:"path"`
	Suite      string `yaml:"suite" toml:"suite"`
	ForceBuild bool   `yaml:"force_build,omitempty" toml:"force_build,omitempty"`
}

// PublishProjectConfig is a project published with a publish profile.
type PublishProjectConfig struct {
	Path       string `yaml:"path" toml:"path"`
	Profile    string `yaml:"profile" toml:"profile"`
	ForceBuild bool   `yaml:"force_build,omitempty" toml:"force_build,omitempty"`
}

// BuildConfig configures the build targets
type BuildConfig struct {
	// Toolchain is the build CLI (default: dotnet)
	Toolchain string `yaml:"toolchain" toml:"toolchain"`
	// Configuration is the build configuration (default: Release)
	Configuration   string                 `yaml:"configuration" toml:"configuration"`
	TestProjects    []TestProjectConfig    `yaml:"test_projects,omitempty" toml:"test_projects,omitempty"`
	PackProjects    []ProjectConfig        `yaml:"pack_projects,omitempty" toml:"pack_projects,omitempty"`
	PublishProjects []PublishProjectConfig `yaml:"publish_projects,omitempty" toml:"publish_projects,omitempty"`
}

// DeployConfig configures the deploy targets and the release service
type DeployConfig struct {
	// ProductName is sent to the hosting API as the user agent
	ProductName string `yaml:"product_name" toml:"product_name"`
	// APIURL overrides the hosting API endpoint (empty = public GitHub)
	APIURL string `yaml:"api_url,omitempty" toml:"api_url,omitempty"`
	// UploadURL overrides the asset upload endpoint (empty = api_url)
	UploadURL string `yaml:"upload_url,omitempty" toml:"upload_url,omitempty"`

	LabelSeparator string `yaml:"label_separator" toml:"label_separator"`
	// FailOnUnconfiguredPrefixes rejects labels whose prefix is not a
	// configured classification (default: true)
	FailOnUnconfiguredPrefixes *bool `yaml:"fail_on_unconfigured_prefixes,omitempty" toml:"fail_on_unconfigured_prefixes,omitempty"`

	DefaultClassification    string `yaml:"default_classification" toml:"default_classification"`
	ResolutionClassification string `yaml:"resolution_classification" toml:"resolution_classification"`
	TypeClassification       string `yaml:"type_classification" toml:"type_classification"`

	Classifications []labels.Classification `yaml:"classifications,omitempty" toml:"classifications,omitempty"`
	Resolutions     []issues.Resolution     `yaml:"resolutions,omitempty" toml:"resolutions,omitempty"`
	Types           []issues.Type           `yaml:"types,omitempty" toml:"types,omitempty"`

	GitHubTokenEnv  string `yaml:"github_token_env" toml:"github_token_env"`
	GitHubTokenPath string `yaml:"github_token_path" toml:"github_token_path"`

	// InstallerCompiler compiles installer scripts (default: iscc)
	InstallerCompiler string   `yaml:"installer_compiler" toml:"installer_compiler"`
	InstallerScripts  []string `yaml:"installer_scripts,omitempty" toml:"installer_scripts,omitempty"`
	// ReleaseAssets are artifacts-relative paths or globs; {version} is
	// replaced with the release version
	ReleaseAssets []string `yaml:"release_assets,omitempty" toml:"release_assets,omitempty"`

	VersionStrategy version.Kind `yaml:"version_strategy" toml:"version_strategy"`
	// VersionFile is read by the file strategy, relative to the repository root
	VersionFile string `yaml:"version_file" toml:"version_file"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	strict := true
	return &Config{
		ArtifactsDir: "artifacts",
		Build: BuildConfig{
			Toolchain:     "dotnet",
			Configuration: "Release",
		},
		Deploy: DeployConfig{
			ProductName:                "Tool.Deploy",
			LabelSeparator:             labels.DefaultSeparator,
			FailOnUnconfiguredPrefixes: &strict,
			DefaultClassification:      labels.Miscellaneous.Name,
			ResolutionClassification:   labels.Resolution.Name,
			TypeClassification:         labels.Type.Name,
			Classifications:            labels.BuiltIns(),
			Resolutions:                issues.BuiltInResolutions(),
			Types:                      issues.BuiltInTypes(),
			GitHubTokenEnv:             "GITHUB_TOKEN",
			GitHubTokenPath:            filepath.Join(".github", "token"),
			InstallerCompiler:          "iscc",
			VersionStrategy:            version.KindFile,
			VersionFile:                version.DefaultPropsFile,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.ArtifactsDir == "" {
		return errs.InvalidConfig("artifacts_dir is required")
	}
	if err := c.Build.validate(); err != nil {
		return err
	}
	return c.Deploy.validate()
}

func (b *BuildConfig) validate() error {
	if b.Toolchain == "" {
		return errs.InvalidConfig("build.toolchain is required")
	}
	if b.Configuration == "" {
		return errs.InvalidConfig("build.configuration is required")
	}
	for i, p := range b.TestProjects {
		if p.Path == "" {
			return errs.InvalidConfig("build.test_projects[%d].path is required", i)
		}
		if p.Suite == "" {
			return errs.InvalidConfig("build.test_projects[%d].suite is required", i)
		}
	}
	for i, p := range b.PackProjects {
		if p.Path == "" {
			return errs.InvalidConfig("build.pack_projects[%d].path is required", i)
		}
	}
	for i, p := range b.PublishProjects {
		if p.Path == "" {
			return errs.InvalidConfig("build.publish_projects[%d].path is required", i)
		}
		if p.Profile == "" {
			return errs.InvalidConfig("build.publish_projects[%d].profile is required", i)
		}
	}
	return nil
}

func (d *DeployConfig) validate() error {
	if d.ProductName == "" {
		return errs.InvalidConfig("deploy.product_name is required")
	}
	if d.LabelSeparator == "" {
		return errs.InvalidConfig("deploy.label_separator is required")
	}

	names := make(map[string]bool)
	prefixes := make(map[string]bool)
	for _, cls := range d.Classifications {
		if cls.Name == "" {
			return errs.InvalidConfig("deploy.classifications: name is required")
		}
		name := strings.ToLower(cls.Name)
		if names[name] {
			return errs.InvalidConfig("deploy.classifications: duplicate name %q", cls.Name)
		}
		names[name] = true

		prefix := strings.ToLower(cls.Prefix)
		if prefixes[prefix] {
			return errs.InvalidConfig("deploy.classifications: duplicate prefix %q", cls.Prefix)
		}
		prefixes[prefix] = true
	}
	for _, ref := range []struct{ key, name string }{
		{"deploy.default_classification", d.DefaultClassification},
		{"deploy.resolution_classification", d.ResolutionClassification},
		{"deploy.type_classification", d.TypeClassification},
	} {
		key, name := ref.key, ref.name
		if name == "" {
			return errs.InvalidConfig("%s is required", key)
		}
		if !names[strings.ToLower(name)] {
			return errs.InvalidConfig("%s: unknown classification %q", key, name)
		}
	}

	seen := make(map[string]bool)
	for _, r := range d.Resolutions {
		if r.Name == "" {
			return errs.InvalidConfig("deploy.resolutions: name is required")
		}
		if seen[strings.ToLower(r.Name)] {
			return errs.InvalidConfig("deploy.resolutions: duplicate name %q", r.Name)
		}
		seen[strings.ToLower(r.Name)] = true
	}
	seen = make(map[string]bool)
	for _, t := range d.Types {
		if t.Name == "" {
			return errs.InvalidConfig("deploy.types: name is required")
		}
		if seen[strings.ToLower(t.Name)] {
			return errs.InvalidConfig("deploy.types: duplicate name %q", t.Name)
		}
		seen[strings.ToLower(t.Name)] = true
	}

	known := false
	for _, k := range version.Kinds() {
		if d.VersionStrategy == k {
			known = true
		}
	}
	if !known {
		return errs.InvalidConfig("deploy.version_strategy must be one of %v", version.Kinds())
	}
	if d.VersionStrategy == version.KindFile && d.VersionFile == "" {
		return errs.InvalidConfig("deploy.version_file is required for the %s strategy", version.KindFile)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML or TOML file on top of the
// defaults. Files ending in .toml are parsed as TOML.
func LoadFromFile(path string) (*Config, error) {
	parsed, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	config := DefaultConfig()
	config.Merge(parsed)
	return config, nil
}

// parseFile decodes path without applying defaults.
func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(config); err != nil {
			return nil, errs.Wrap(errs.CodeInvalidConfig, "failed to parse config file", err)
		}
		return config, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.Wrap(errs.CodeInvalidConfig, "failed to parse config file", err)
	}
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values; lists are replaced, not appended)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	setString(&c.ArtifactsDir, other.ArtifactsDir)
	setString(&c.Root, other.Root)

	// Repository
	setString(&c.Repository.Owner, other.Repository.Owner)
	setString(&c.Repository.Name, other.Repository.Name)

	// Build
	b, ob := &c.Build, other.Build
	setString(&b.Toolchain, ob.Toolchain)
	setString(&b.Configuration, ob.Configuration)
	setSlice(&b.TestProjects, ob.TestProjects)
	setSlice(&b.PackProjects, ob.PackProjects)
	setSlice(&b.PublishProjects, ob.PublishProjects)

	// Deploy
	d, od := &c.Deploy, other.Deploy
	setString(&d.ProductName, od.ProductName)
	setString(&d.APIURL, od.APIURL)
	setString(&d.UploadURL, od.UploadURL)
	setString(&d.LabelSeparator, od.LabelSeparator)
	if od.FailOnUnconfiguredPrefixes != nil {
		v := *od.FailOnUnconfiguredPrefixes
		d.FailOnUnconfiguredPrefixes = &v
	}
	setString(&d.DefaultClassification, od.DefaultClassification)
	setString(&d.ResolutionClassification, od.ResolutionClassification)
	setString(&d.TypeClassification, od.TypeClassification)
	setSlice(&d.Classifications, od.Classifications)
	setSlice(&d.Resolutions, od.Resolutions)
	setSlice(&d.Types, od.Types)
	setString(&d.GitHubTokenEnv, od.GitHubTokenEnv)
	setString(&d.GitHubTokenPath, od.GitHubTokenPath)
	setString(&d.InstallerCompiler, od.InstallerCompiler)
	setSlice(&d.InstallerScripts, od.InstallerScripts)
	setSlice(&d.ReleaseAssets, od.ReleaseAssets)
	if od.VersionStrategy != "" {
		d.VersionStrategy = od.VersionStrategy
	}
	setString(&d.VersionFile, od.VersionFile)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setSlice[T any](dst *[]T, v []T) {
	if len(v) > 0 {
		*dst = append([]T(nil), v...)
	}
}
