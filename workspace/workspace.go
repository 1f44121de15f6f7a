// Package workspace gives targets access to the repository files, the user's
// home directory and the environment.
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Environment reads environment variables.
type Environment interface {
	Lookup(name string) (string, bool)
}

// OSEnvironment reads the process environment.
type OSEnvironment struct{}

// Lookup implements Environment.
func (OSEnvironment) Lookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// StaticEnvironment is a fixed set of variables.
type StaticEnvironment map[string]string

// Lookup implements Environment.
func (e StaticEnvironment) Lookup(name string) (string, bool) {
	v, ok := e[name]
	return v, ok
}

// Workspace is rooted at the repository root. Relative paths passed to its
// methods are resolved against that root.
type Workspace struct {
	root string
	fs   billy.Filesystem
	home billy.Filesystem
	env  Environment
}

// New creates a workspace for the repository at root backed by the OS
// filesystem.
func New(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	return &Workspace{
		root: abs,
		fs:   osfs.New(abs),
		home: osfs.New(xdg.Home),
		env:  OSEnvironment{},
	}, nil
}

// NewWithFS creates a workspace over the given filesystems. Used with
// memfs in tests.
func NewWithFS(root string, fs, home billy.Filesystem, env Environment) *Workspace {
	if env == nil {
		env = StaticEnvironment{}
	}
	return &Workspace{root: root, fs: fs, home: home, env: env}
}

// Root returns the absolute repository root.
func (w *Workspace) Root() string {
	return w.root
}

// Path joins elem onto the repository root.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.root}, elem...)...)
}

// Env returns the environment accessor.
func (w *Workspace) Env() Environment {
	return w.env
}

// Exists reports whether the repository-relative path exists.
func (w *Workspace) Exists(rel string) (bool, error) {
	return exists(w.fs, rel)
}

// ReadFile reads a repository-relative file.
func (w *Workspace) ReadFile(rel string) ([]byte, error) {
	data, err := util.ReadFile(w.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return data, nil
}

// Open opens a repository-relative file and returns it with its size.
func (w *Workspace) Open(rel string) (io.ReadCloser, int64, error) {
	info, err := w.fs.Stat(rel)
	if err != nil {
		return nil, 0, fmt.Errorf("stat %s: %w", rel, err)
	}
	f, err := w.fs.Open(rel)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", rel, err)
	}
	return f, info.Size(), nil
}

// Walk walks the repository-relative tree rooted at rel.
func (w *Workspace) Walk(rel string, fn filepath.WalkFunc) error {
	return util.Walk(w.fs, rel, fn)
}

// ClearDir makes sure rel exists and is empty.
func (w *Workspace) ClearDir(rel string) error {
	if err := w.fs.MkdirAll(rel, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", rel, err)
	}
	entries, err := w.fs.ReadDir(rel)
	if err != nil {
		return fmt.Errorf("list %s: %w", rel, err)
	}
	for _, entry := range entries {
		if err := util.RemoveAll(w.fs, w.fs.Join(rel, entry.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// HomeExists reports whether a path relative to the user's home exists.
func (w *Workspace) HomeExists(rel string) (bool, error) {
	return exists(w.home, rel)
}

// ReadHomeFile reads a file relative to the user's home directory.
func (w *Workspace) ReadHomeFile(rel string) ([]byte, error) {
	data, err := util.ReadFile(w.home, rel)
	if err != nil {
		return nil, fmt.Errorf("read ~/%s: %w", rel, err)
	}
	return data, nil
}

func exists(fs billy.Filesystem, rel string) (bool, error) {
	_, err := fs.Stat(rel)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", rel, err)
	}
}
