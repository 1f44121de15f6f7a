package config

import (
	"github.com/lanceccraig/Tooling.DevOps/build"
	"github.com/lanceccraig/Tooling.DevOps/deploy"
	"github.com/lanceccraig/Tooling.DevOps/errs"
	"github.com/lanceccraig/Tooling.DevOps/issues"
	"github.com/lanceccraig/Tooling.DevOps/labels"
	"github.com/lanceccraig/Tooling.DevOps/release"
)

// BuildOptions returns the build target options.
func (c *Config) BuildOptions() build.Options {
	opts := build.Options{
		ArtifactsDir:  c.ArtifactsDir,
		Toolchain:     c.Build.Toolchain,
		Configuration: c.Build.Configuration,
	}
	for _, p := range c.Build.TestProjects {
		opts.TestProjects = append(opts.TestProjects, build.TestProject{
			Project: build.Project{Path: p.Path, ForceBuild: p.ForceBuild},
			Suite:   p.Suite,
		})
	}
	for _, p := range c.Build.PackProjects {
		opts.PackProjects = append(opts.PackProjects, build.PackProject{
			Project: build.Project{Path: p.Path, ForceBuild: p.ForceBuild},
		})
	}
	for _, p := range c.Build.PublishProjects {
		opts.PublishProjects = append(opts.PublishProjects, build.PublishProject{
			Project: build.Project{Path: p.Path, ForceBuild: p.ForceBuild},
			Profile: p.Profile,
		})
	}
	return opts
}

// DeployOptions returns the deploy target options.
func (c *Config) DeployOptions() deploy.Options {
	return deploy.Options{
		InstallerCompiler: c.Deploy.InstallerCompiler,
		InstallerScripts:  append([]string(nil), c.Deploy.InstallerScripts...),
	}
}

// ReleaseOptions returns the release service options.
func (c *Config) ReleaseOptions(dryRun bool) release.Options {
	return release.Options{
		ArtifactsDir: c.ArtifactsDir,
		Assets:       append([]string(nil), c.Deploy.ReleaseAssets...),
		DryRun:       dryRun,
	}
}

// StrictPrefixes reports whether unconfigured label prefixes are errors.
func (d *DeployConfig) StrictPrefixes() bool {
	return d.FailOnUnconfiguredPrefixes == nil || *d.FailOnUnconfiguredPrefixes
}

// Classifier returns the label classifier described by the deploy settings.
func (c *Config) Classifier() (*labels.Classifier, error) {
	registry := labels.NewRegistry(c.Deploy.Classifications...)
	def, ok := registry.ByName(c.Deploy.DefaultClassification)
	if !ok {
		return nil, errs.InvalidConfig("unknown default classification %q", c.Deploy.DefaultClassification)
	}
	return &labels.Classifier{
		Registry:  registry,
		Default:   def,
		Separator: c.Deploy.LabelSeparator,
		Strict:    c.Deploy.StrictPrefixes(),
	}, nil
}

// IssueClassifications returns the classifications holding resolution and
// type labels.
func (c *Config) IssueClassifications() (resolution, typ labels.Classification, err error) {
	registry := labels.NewRegistry(c.Deploy.Classifications...)
	resolution, ok := registry.ByName(c.Deploy.ResolutionClassification)
	if !ok {
		return resolution, typ, errs.InvalidConfig("unknown resolution classification %q", c.Deploy.ResolutionClassification)
	}
	typ, ok = registry.ByName(c.Deploy.TypeClassification)
	if !ok {
		return resolution, typ, errs.InvalidConfig("unknown type classification %q", c.Deploy.TypeClassification)
	}
	return resolution, typ, nil
}

// IssueRegistry returns the configured resolutions and types.
func (c *Config) IssueRegistry() issues.Registry {
	return issues.NewRegistry(c.Deploy.Resolutions, c.Deploy.Types)
}
