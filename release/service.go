package release

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/lanceccraig/Tooling.DevOps/errs"
	"github.com/lanceccraig/Tooling.DevOps/issues"
	"github.com/lanceccraig/Tooling.DevOps/notes"
)

// VersionToken is replaced by the release version in asset paths.
const VersionToken = "{version}"

var versionToken = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(VersionToken))

// Options configures a Service.
type Options struct {
	// ArtifactsDir is the repository-relative directory holding assets.
	ArtifactsDir string
	// Assets are paths relative to ArtifactsDir. They may contain
	// VersionToken and glob patterns.
	Assets []string
	// DryRun stops after the release body is built.
	DryRun bool
}

// Service creates releases.
type Service struct {
	hosting   Hosting
	converter Converter
	files     Files
	reporter  Reporter
	opts      Options
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(hosting Hosting, converter Converter, files Files, reporter Reporter, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ArtifactsDir == "" {
		opts.ArtifactsDir = "artifacts"
	}
	return &Service{
		hosting:   hosting,
		converter: converter,
		files:     files,
		reporter:  reporter,
		opts:      opts,
		logger:    logger,
	}
}

// Create publishes the release for version.
//
// An empty version is returned as an error. Not-found and configuration
// errors, and skipped issue batches, are reported as a single message and
// Create returns nil. Other errors are returned.
func (s *Service) Create(ctx context.Context, version string) error {
	if version == "" {
		return errs.InvalidInput("version is required")
	}
	if _, err := semver.NewVersion(version); err != nil {
		s.logger.Warn("Release version is not semantic", slog.String("version", version))
	}

	err := s.create(ctx, version)
	if err == nil {
		return nil
	}

	var skipped *issues.BatchSkippedError
	if errs.IsNotFound(err) || errs.IsInvalidConfig(err) || errors.As(err, &skipped) {
		s.reporter.Error("release failed: " + err.Error())
		return nil
	}
	return err
}

func (s *Service) create(ctx context.Context, version string) error {
	s.reporter.Status("Retrieving milestone " + version)
	milestone, err := s.milestone(ctx, version)
	if err != nil {
		return err
	}

	s.reporter.Status("Retrieving issues")
	raw, err := s.hosting.Issues(ctx, milestone)
	if err != nil {
		return fmt.Errorf("list issues for milestone %q: %w", milestone.Title, err)
	}
	releasable, err := s.converter.ConvertAll(raw)
	if err != nil {
		return err
	}
	if len(releasable) == 0 {
		s.reporter.Error("no releasable issues")
		return nil
	}

	s.reporter.Status("Building release body")
	body := notes.Build(releasable)

	if s.opts.DryRun {
		s.reporter.Status(body)
		return nil
	}

	s.reporter.Status("Creating release " + version)
	rel, err := s.hosting.CreateRelease(ctx, NewRelease{
		Name:       version,
		Body:       body,
		Draft:      true,
		Prerelease: IsPrerelease(version),
	})
	if err != nil {
		return fmt.Errorf("create release %q: %w", version, err)
	}
	s.logger.Info("Created release", slog.String("name", rel.Name), slog.String("url", rel.URL))

	if len(s.opts.Assets) > 0 {
		s.reporter.Status("Uploading assets")
		if err := s.uploadAssets(ctx, rel, version); err != nil {
			return err
		}
	}

	s.reporter.Status("Closing milestone " + milestone.Title)
	if err := s.hosting.CloseMilestone(ctx, milestone); err != nil {
		return fmt.Errorf("close milestone %q: %w", milestone.Title, err)
	}

	s.reporter.Status("Release complete")
	return nil
}

func (s *Service) milestone(ctx context.Context, title string) (Milestone, error) {
	milestones, err := s.hosting.Milestones(ctx)
	if err != nil {
		return Milestone{}, fmt.Errorf("list milestones: %w", err)
	}
	for _, m := range milestones {
		if strings.EqualFold(m.Title, title) {
			return m, nil
		}
	}
	return Milestone{}, errs.NotFound("milestone %q was not found", title)
}

func (s *Service) uploadAssets(ctx context.Context, rel Release, version string) error {
	for _, tmpl := range s.opts.Assets {
		paths, err := s.expand(ExpandAsset(tmpl, version))
		if err != nil {
			return err
		}
		for _, p := range paths {
			if err := s.upload(ctx, rel, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) upload(ctx context.Context, rel Release, assetPath string) error {
	s.reporter.Status("Uploading " + assetPath)
	full := filepath.Join(s.opts.ArtifactsDir, assetPath)

	f, size, err := s.files.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errs.NotFound("release asset %s was not found", full)
		}
		return err
	}
	defer f.Close()

	name := filepath.Base(assetPath)
	if err := s.hosting.UploadAsset(ctx, rel, name, f, size); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

// expand returns the artifacts-relative paths matching p. Paths without
// glob characters are returned unchanged.
func (s *Service) expand(p string) ([]string, error) {
	if !strings.ContainsAny(p, "*?[") {
		return []string{p}, nil
	}

	pattern := filepath.ToSlash(p)
	var matches []string
	err := s.files.Walk(s.opts.ArtifactsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.opts.ArtifactsDir, path)
		if err != nil {
			return err
		}
		ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
		if err != nil {
			return errs.Wrap(errs.CodeInvalidConfig, "match "+p, err)
		}
		if ok {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NotFound("artifacts directory %s was not found", s.opts.ArtifactsDir)
		}
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errs.NotFound("no release assets match %s", p)
	}
	sort.Strings(matches)
	return matches, nil
}

// ExpandAsset replaces every VersionToken in tmpl, ignoring case.
func ExpandAsset(tmpl, version string) string {
	return versionToken.ReplaceAllLiteralString(tmpl, version)
}

// IsPrerelease reports whether a release named name is a pre-release.
func IsPrerelease(name string) bool {
	return strings.Contains(name, "-")
}
