package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
)

func initRepo(t *testing.T, dir, remoteURL string) {
	t.Helper()
	r, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repository: %v", err)
	}
	if remoteURL == "" {
		return
	}
	if _, err := r.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{remoteURL}}); err != nil {
		t.Fatalf("create remote: %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestLoader(t *testing.T, workDir string) *Loader {
	t.Helper()
	l := NewLoader(nil)
	l.WorkDir = workDir
	l.UserConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	return l
}

func TestLoaderLayers(t *testing.T) {
	root := t.TempDir()
	initRepo(t, root, "git@github.com:octo/hello.git")
	nested := filepath.Join(root, "src", "Foo")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	l := newTestLoader(t, nested)
	writeFile(t, l.UserConfigPath, "build:\n  toolchain: /opt/dotnet/dotnet\n  configuration: Debug\n")
	writeFile(t, filepath.Join(root, "devops.yaml"), "build:\n  configuration: Release\n")

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Build.Toolchain != "/opt/dotnet/dotnet" {
		t.Errorf("expected toolchain from user config, got %s", cfg.Build.Toolchain)
	}
	if cfg.Build.Configuration != "Release" {
		t.Errorf("expected project config to win, got %s", cfg.Build.Configuration)
	}
	if cfg.Repository.String() != "octo/hello" {
		t.Errorf("expected detected repository octo/hello, got %s", cfg.Repository)
	}

	wantRoot, _ := filepath.EvalSymlinks(root)
	gotRoot, _ := filepath.EvalSymlinks(cfg.Root)
	if gotRoot != wantRoot {
		t.Errorf("expected root %s, got %s", wantRoot, gotRoot)
	}
}

func TestLoaderConfiguredRepositoryWins(t *testing.T) {
	root := t.TempDir()
	initRepo(t, root, "https://github.com/octo/hello.git")
	writeFile(t, filepath.Join(root, "devops.toml"), "[repository]\nowner = \"fork\"\nname = \"hello-fork\"\n")

	cfg, err := newTestLoader(t, root).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Repository.String() != "fork/hello-fork" {
		t.Errorf("expected configured repository, got %s", cfg.Repository)
	}
}

func TestLoaderExplicitPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "devops.yaml"), "artifacts_dir: ignored\n")
	explicit := filepath.Join(t.TempDir(), "ci.yaml")
	writeFile(t, explicit, "artifacts_dir: ci-out\n")

	l := newTestLoader(t, root)
	l.Path = explicit
	l.RepoPath = root

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ArtifactsDir != "ci-out" {
		t.Errorf("expected explicit config, got %s", cfg.ArtifactsDir)
	}
	if !cfg.Repository.IsZero() {
		t.Errorf("expected no repository outside git, got %s", cfg.Repository)
	}
}

func TestLoaderInvalidProjectConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "devops.yaml"), "deploy:\n  version_strategy: msbuild\n")

	l := newTestLoader(t, root)
	l.RepoPath = root
	if _, err := l.Load(); err == nil {
		t.Error("expected validation error")
	}
}

func TestEnsureProjectConfig(t *testing.T) {
	root := t.TempDir()
	l := NewLoader(nil)

	path, err := l.EnsureProjectConfig(root)
	if err != nil {
		t.Fatalf("EnsureProjectConfig() error = %v", err)
	}
	if path != filepath.Join(root, "devops.yaml") {
		t.Errorf("unexpected path %s", path)
	}
	if _, err := LoadFromFile(path); err != nil {
		t.Errorf("written config should load: %v", err)
	}

	// Existing configs are left alone
	writeFile(t, path, "artifacts_dir: kept\n")
	if _, err := l.EnsureProjectConfig(root); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ArtifactsDir != "kept" {
		t.Errorf("expected existing config to be kept, got %s", cfg.ArtifactsDir)
	}
}
