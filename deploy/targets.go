// Package deploy provides the built-in deploy targets: compiling installers
// and publishing the release.
package deploy

import (
	"context"

	"github.com/lanceccraig/Tooling.DevOps/executor"
	"github.com/lanceccraig/Tooling.DevOps/target"
)

// Built-in target names.
const (
	TargetCompileInstallers = "Compile Installers"
	TargetCreateRelease     = "Create Release"
)

// DefaultInstallerCompiler is the Inno Setup command line compiler.
const DefaultInstallerCompiler = "iscc"

// InstallerDir holds installer scripts, relative to the repository root.
const InstallerDir = "build"

// Options is the deploy configuration used by the targets.
type Options struct {
	// InstallerCompiler is the command used to compile installer scripts.
	InstallerCompiler string
	// InstallerScripts are paths relative to InstallerDir.
	InstallerScripts []string
}

// DefaultOptions returns options with no installer scripts.
func DefaultOptions() Options {
	return Options{InstallerCompiler: DefaultInstallerCompiler}
}

// Workspace resolves repository paths.
type Workspace interface {
	Path(elem ...string) string
}

// VersionResolver supplies the release version.
type VersionResolver interface {
	Resolve() (string, error)
}

// Releaser publishes the release for a version.
type Releaser interface {
	Create(ctx context.Context, version string) error
}

// Targets returns the built-in deploy targets in declaration order. The
// version is resolved when the targets are set up.
func Targets(opts Options, runner executor.Runner, ws Workspace, versions VersionResolver, releaser Releaser) []target.Definition {
	if opts.InstallerCompiler == "" {
		opts.InstallerCompiler = DefaultInstallerCompiler
	}
	return []target.Definition{
		compileInstallers(opts, runner, ws, versions),
		createRelease(versions, releaser),
	}
}

func compileInstallers(opts Options, runner executor.Runner, ws Workspace, versions VersionResolver) target.Definition {
	return target.Func{
		TargetName: TargetCompileInstallers,
		Enabled:    len(opts.InstallerScripts) > 0,
		SetupFunc: func() (target.Target, error) {
			version, err := versions.Resolve()
			if err != nil {
				return target.Target{}, err
			}
			return target.Target{
				Name: TargetCompileInstallers,
				Steps: target.ForEach(opts.InstallerScripts,
					func(script string) string { return script },
					func(ctx context.Context, script string) error {
						args := []string{ws.Path(InstallerDir, script), "/DVERSION=" + version}
						return runner.Run(ctx, opts.InstallerCompiler, args)
					}),
			}, nil
		},
	}
}

func createRelease(versions VersionResolver, releaser Releaser) target.Definition {
	return target.Func{
		TargetName: TargetCreateRelease,
		Enabled:    true,
		SetupFunc: func() (target.Target, error) {
			version, err := versions.Resolve()
			if err != nil {
				return target.Target{}, err
			}
			return target.Target{
				Name: TargetCreateRelease,
				Steps: target.Action(func(ctx context.Context) error {
					return releaser.Create(ctx, version)
				}),
			}, nil
		},
	}
}
