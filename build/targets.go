package build

import (
	"context"

	"github.com/lanceccraig/Tooling.DevOps/executor"
	"github.com/lanceccraig/Tooling.DevOps/target"
)

// Workspace is the part of the workspace used by build targets.
type Workspace interface {
	Root() string
	ClearDir(rel string) error
}

// Targets returns the built-in build targets in declaration order.
func Targets(opts Options, runner executor.Runner, ws Workspace) []target.Definition {
	b := &builder{opts: opts, runner: runner, ws: ws}
	return []target.Definition{
		b.deleteArtifacts(),
		b.clean(),
		b.build(),
		b.test(TargetTestUnit, SuiteUnit),
		b.test(TargetTestIntegration, SuiteIntegration),
		b.test(TargetTestFunctional, SuiteFunctional),
		b.pack(),
		b.publish(),
	}
}

type builder struct {
	opts   Options
	runner executor.Runner
	ws     Workspace
}

func (b *builder) deleteArtifacts() target.Definition {
	return target.Func{
		TargetName: TargetDeleteArtifacts,
		Enabled:    true,
		SetupFunc: func() (target.Target, error) {
			return target.Target{
				Name: TargetDeleteArtifacts,
				Steps: target.Action(func(context.Context) error {
					return b.ws.ClearDir(b.opts.ArtifactsDir)
				}),
			}, nil
		},
	}
}

func (b *builder) clean() target.Definition {
	return target.Func{
		TargetName: TargetClean,
		Enabled:    true,
		SetupFunc: func() (target.Target, error) {
			return target.Target{
				Name: TargetClean,
				Steps: target.Action(func(ctx context.Context) error {
					return b.dotnet(ctx, b.withCommon("clean"))
				}),
			}, nil
		},
	}
}

func (b *builder) build() target.Definition {
	return target.Func{
		TargetName: TargetBuild,
		Enabled:    true,
		SetupFunc: func() (target.Target, error) {
			return target.Target{
				Name:      TargetBuild,
				DependsOn: []string{TargetClean},
				Steps: target.Action(func(ctx context.Context) error {
					return b.dotnet(ctx, b.withCommon("build"))
				}),
			}, nil
		},
	}
}

func (b *builder) test(name, suite string) target.Definition {
	projects := b.opts.TestProjectsFor(suite)
	return target.Func{
		TargetName: name,
		Enabled:    len(projects) > 0,
		SetupFunc: func() (target.Target, error) {
			forced := make([]bool, len(projects))
			for i, p := range projects {
				forced[i] = p.ForceBuild
			}
			return target.Target{
				Name:      name,
				DependsOn: target.DependsOnUnlessForced(TargetBuild, forced...),
				Steps: target.ForEach(projects,
					func(p TestProject) string { return p.Path },
					func(ctx context.Context, p TestProject) error {
						return b.dotnet(ctx, b.withProject(p.Project, "test", p.Path))
					}),
			}, nil
		},
	}
}

func (b *builder) pack() target.Definition {
	projects := b.opts.PackProjects
	return target.Func{
		TargetName: TargetPack,
		Enabled:    len(projects) > 0,
		SetupFunc: func() (target.Target, error) {
			forced := make([]bool, len(projects))
			for i, p := range projects {
				forced[i] = p.ForceBuild
			}
			return target.Target{
				Name:      TargetPack,
				DependsOn: target.DependsOnUnlessForced(TargetBuild, forced...),
				Steps: target.ForEach(projects,
					func(p PackProject) string { return p.Path },
					func(ctx context.Context, p PackProject) error {
						return b.dotnet(ctx, b.withProject(p.Project, "pack", p.Path, "-o", b.opts.ArtifactsDir))
					}),
			}, nil
		},
	}
}

func (b *builder) publish() target.Definition {
	projects := b.opts.PublishProjects
	return target.Func{
		TargetName: TargetPublish,
		Enabled:    len(projects) > 0,
		SetupFunc: func() (target.Target, error) {
			forced := make([]bool, len(projects))
			for i, p := range projects {
				forced[i] = p.ForceBuild
			}
			return target.Target{
				Name:      TargetPublish,
				DependsOn: target.DependsOnUnlessForced(TargetBuild, forced...),
				Steps: target.ForEach(projects,
					func(p PublishProject) string { return p.Path },
					func(ctx context.Context, p PublishProject) error {
						return b.dotnet(ctx, b.withProject(p.Project, "publish", p.Path, "-p:PublishProfile="+p.Profile))
					}),
			}, nil
		},
	}
}

func (b *builder) dotnet(ctx context.Context, args []string) error {
	return b.runner.Run(ctx, b.opts.Toolchain, args, executor.WithWorkingDir(b.ws.Root()))
}

// withCommon appends the configuration, verbosity and logo flags.
func (b *builder) withCommon(args ...string) []string {
	return append(args, "-c", b.opts.Configuration, "-v", "minimal", "--nologo")
}

// withProject is withCommon plus --no-build for projects that rely on the
// Build target.
func (b *builder) withProject(p Project, args ...string) []string {
	args = b.withCommon(args...)
	if !p.ForceBuild {
		args = append(args, "--no-build")
	}
	return args
}
