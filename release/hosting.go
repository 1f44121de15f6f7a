// Package release publishes a release for a milestone: it converts the
// milestone's issues into release notes, creates a draft release, uploads
// assets and closes the milestone.
package release

import (
	"context"
	"io"
	"path/filepath"

	"github.com/lanceccraig/Tooling.DevOps/issues"
)

// Milestone is a tracker milestone.
type Milestone struct {
	Number int
	Title  string
}

// Release is a created release.
type Release struct {
	ID   int64
	Name string
	URL  string
}

// NewRelease describes the release to create.
type NewRelease struct {
	Name       string
	Body       string
	Draft      bool
	Prerelease bool
}

// Hosting is the release hosting service.
type Hosting interface {
	Milestones(ctx context.Context) ([]Milestone, error)
	Issues(ctx context.Context, m Milestone) ([]issues.RawIssue, error)
	CreateRelease(ctx context.Context, r NewRelease) (Release, error)
	UploadAsset(ctx context.Context, r Release, name string, content io.Reader, size int64) error
	CloseMilestone(ctx context.Context, m Milestone) error
}

// Converter converts raw issues.
type Converter interface {
	ConvertAll(raw []issues.RawIssue) ([]issues.Releasable, error)
}

// Files opens release assets.
type Files interface {
	Open(rel string) (io.ReadCloser, int64, error)
	Walk(rel string, fn filepath.WalkFunc) error
}

// Reporter receives user-facing messages.
type Reporter interface {
	Status(msg string)
	Error(msg string)
}
