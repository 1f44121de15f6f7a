package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanceccraig/Tooling.DevOps/errs"
)

const testConfig = `
build:
  test_projects:
    - path: tests/Foo.Facts
      suite: Unit
deploy:
  installer_scripts:
    - setup.iss
`

const testProps = `<Project>
  <PropertyGroup>
    <Version>1.2.3</Version>
  </PropertyGroup>
</Project>
`

func newTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	r, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = r.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:octo/hello.git"}})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "devops.yaml"), []byte(testConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Directory.Build.props"), []byte(testProps), 0o644))

	userConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() { userConfigPath = "" })
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "devops version 0.1.0 (build: dev)\n", out)
}

func TestBuildList(t *testing.T) {
	dir := newTestRepo(t)

	out, _, err := execute(t, "--repo", dir, "build", "--list")
	require.NoError(t, err)
	assert.Equal(t, "1. Delete Artifacts\n2. Clean\n3. Build\n4. Test (Unit)\n5. default\n", out)

	out, _, err = execute(t, "--repo", dir, "build", "--list", "-t", "Test (Unit)")
	require.NoError(t, err)
	assert.Equal(t, "1. Clean\n2. Build\n3. Test (Unit)\n", out)
}

func TestBuildListTargetsFlag(t *testing.T) {
	dir := newTestRepo(t)

	out, _, err := execute(t, "--repo", dir, "build", "--list", "--targets", "Clean")
	require.NoError(t, err)
	assert.Equal(t, "1. Clean\n", out)

	out, _, err = execute(t, "--repo", dir, "build", "--list", "--targets", "Clean", "--targets", "Test (Unit)")
	require.NoError(t, err)
	assert.Equal(t, "1. Clean\n2. Build\n3. Test (Unit)\n", out)
}

func TestBuildDryRun(t *testing.T) {
	dir := newTestRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "artifacts"), 0o755))
	keep := filepath.Join(dir, "artifacts", "keep.nupkg")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))

	metricsFile := filepath.Join(t.TempDir(), "devops.prom")
	out, _, err := execute(t, "--repo", dir, "--metrics-file", metricsFile, "build", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "==> Delete Artifacts\n")
	assert.Contains(t, out, "clear "+filepath.Join(dir, "artifacts")+"\n")
	assert.Contains(t, out, "dotnet clean -c Release -v minimal --nologo\n")
	assert.Contains(t, out, "dotnet build -c Release -v minimal --nologo\n")
	assert.Contains(t, out, "dotnet test tests/Foo.Facts -c Release -v minimal --nologo --no-build\n")
	assert.FileExists(t, keep)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `devops_target_runs_total{success="true",target="Build"} 1`)
}

func TestBuildUnknownTarget(t *testing.T) {
	dir := newTestRepo(t)

	_, _, err := execute(t, "--repo", dir, "build", "-t", "Nope")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestDeployDryRunInstallers(t *testing.T) {
	dir := newTestRepo(t)

	out, _, err := execute(t, "--repo", dir, "deploy", "--dry-run", "-t", "Compile Installers")
	require.NoError(t, err)
	assert.Contains(t, out, "iscc "+filepath.Join(dir, "build", "setup.iss")+" /DVERSION=1.2.3\n")
}

func TestDeployList(t *testing.T) {
	dir := newTestRepo(t)

	out, _, err := execute(t, "--repo", dir, "deploy", "--list")
	require.NoError(t, err)
	assert.Equal(t, "1. Compile Installers\n2. Create Release\n3. default\n", out)
}

func TestDeployMissingVersion(t *testing.T) {
	dir := newTestRepo(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "Directory.Build.props")))

	_, _, err := execute(t, "--repo", dir, "deploy", "--list")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir()
	userConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() { userConfigPath = "" })

	out, _, err := execute(t, "--repo", dir, "init")
	require.NoError(t, err)
	path := filepath.Join(dir, "devops.yaml")
	assert.Equal(t, path+"\n", out)
	assert.FileExists(t, path)

	out, _, err = execute(t, "--repo", dir, "build", "--list")
	require.NoError(t, err)
	assert.Equal(t, "1. Delete Artifacts\n2. Clean\n3. Build\n4. default\n", out)
}
