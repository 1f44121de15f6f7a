// Package repo identifies the git repository the tool runs in.
package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/lanceccraig/Tooling.DevOps/errs"
)

// DefaultRemote is the remote whose URL names the hosted repository.
const DefaultRemote = "origin"

// Info names a hosted repository.
type Info struct {
	Owner string `yaml:"owner" toml:"owner"`
	Name  string `yaml:"name" toml:"name"`
}

// IsZero reports whether neither field is set.
func (i Info) IsZero() bool {
	return i.Owner == "" && i.Name == ""
}

func (i Info) String() string {
	return i.Owner + "/" + i.Name
}

// Repository is an opened local repository.
type Repository struct {
	root string
	repo *git.Repository
}

// Detect opens the repository containing path, searching parent
// directories for the .git directory.
func Detect(path string) (*Repository, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errs.NotFound("no git repository found at %s", path)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	return &Repository{root: wt.Filesystem.Root(), repo: r}, nil
}

// Root returns the worktree root.
func (r *Repository) Root() string {
	return r.root
}

// Origin parses the URL of the origin remote.
func (r *Repository) Origin() (Info, error) {
	return r.Remote(DefaultRemote)
}

// Remote parses the first URL of the named remote.
func (r *Repository) Remote(name string) (Info, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return Info{}, errs.NotFound("remote %q is not configured", name)
		}
		return Info{}, fmt.Errorf("read remote %q: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return Info{}, errs.NotFound("remote %q has no URL", name)
	}
	return ParseURL(urls[0])
}

// ParseURL extracts the owner and name from a remote URL. Both scp-like
// (git@host:owner/name.git) and URL forms are accepted.
func ParseURL(raw string) (Info, error) {
	ep, err := transport.NewEndpoint(raw)
	if err != nil {
		return Info{}, errs.InvalidConfig("parse remote URL %q: %v", raw, err)
	}

	path := strings.Trim(ep.Path, "/")
	path = strings.TrimSuffix(path, ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return Info{}, errs.InvalidConfig("remote URL %q does not name an owner and repository", raw)
	}
	return Info{Owner: parts[len(parts)-2], Name: parts[len(parts)-1]}, nil
}
