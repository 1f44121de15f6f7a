// Package build provides the built-in build targets: cleaning, compiling,
// testing, packing and publishing .NET projects.
package build

import "strings"

// Built-in target names.
const (
	TargetDeleteArtifacts = "Delete Artifacts"
	TargetClean           = "Clean"
	TargetBuild           = "Build"
	TargetTestUnit        = "Test (Unit)"
	TargetTestIntegration = "Test (Integration)"
	TargetTestFunctional  = "Test (Functional)"
	TargetPack            = "Pack"
	TargetPublish         = "Publish"
)

// Built-in test suites.
const (
	SuiteUnit        = "Unit"
	SuiteIntegration = "Integration"
	SuiteFunctional  = "Functional"
)

// Project references a project by its repository-relative path. ForceBuild
// projects build themselves instead of depending on the Build target.
type Project struct {
	Path       string
	ForceBuild bool
}

// TestProject is a project run by one of the test targets.
type TestProject struct {
	Project
	Suite string
}

// PackProject is a project packed into the artifacts directory.
type PackProject struct {
	Project
}

// PublishProject is a project published with a publish profile.
type PublishProject struct {
	Project
	Profile string
}

// Options is the read-only build configuration.
type Options struct {
	ArtifactsDir    string
	Toolchain       string
	Configuration   string
	TestProjects    []TestProject
	PackProjects    []PackProject
	PublishProjects []PublishProject
}

// DefaultOptions returns options with no projects.
func DefaultOptions() Options {
	return Options{
		ArtifactsDir:  "artifacts",
		Toolchain:     "dotnet",
		Configuration: "Release",
	}
}

// TestProjectsFor returns the test projects of suite, ignoring case.
func (o Options) TestProjectsFor(suite string) []TestProject {
	var out []TestProject
	for _, p := range o.TestProjects {
		if strings.EqualFold(p.Suite, suite) {
			out = append(out, p)
		}
	}
	return out
}
