package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v72/github"

	"github.com/lanceccraig/Tooling.DevOps/errs"
	"github.com/lanceccraig/Tooling.DevOps/issues"
	"github.com/lanceccraig/Tooling.DevOps/release"
	"github.com/lanceccraig/Tooling.DevOps/repo"
)

const (
	// DefaultProductName is sent as the user agent.
	DefaultProductName = "Tool.Deploy"

	// UploadTimeout bounds a single asset upload.
	UploadTimeout = 5 * time.Minute

	pageSize = 100
)

// Client implements release.Hosting for one repository.
type Client struct {
	repo        repo.Info
	tokens      TokenSource
	productName string
	httpClient  *http.Client
	baseURL     string
	uploadURL   string
	logger      *slog.Logger

	mu     sync.Mutex
	client *gh.Client
}

var _ release.Hosting = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithProductName sets the user agent.
func WithProductName(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.productName = name
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL points the client at another API endpoint. Uploads go to the
// same host unless WithUploadURL is also given.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithUploadURL sets the asset upload endpoint.
func WithUploadURL(u string) ClientOption {
	return func(c *Client) {
		c.uploadURL = u
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client. The token is not read until the first call.
func NewClient(info repo.Info, tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		repo:        info,
		tokens:      tokens,
		productName: DefaultProductName,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func (c *Client) api() (*gh.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	client := gh.NewClient(c.httpClient).WithAuthToken(token)
	client.UserAgent = c.productName
	if c.baseURL != "" {
		base, err := parseEndpoint(c.baseURL)
		if err != nil {
			return nil, err
		}
		client.BaseURL = base
		client.UploadURL = base
	}
	if c.uploadURL != "" {
		upload, err := parseEndpoint(c.uploadURL)
		if err != nil {
			return nil, err
		}
		client.UploadURL = upload
	}

	c.client = client
	return client, nil
}

func parseEndpoint(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errs.InvalidConfig("parse API endpoint %q: %v", raw, err)
	}
	return u, nil
}

// Milestones lists every milestone of the repository.
func (c *Client) Milestones(ctx context.Context) ([]release.Milestone, error) {
	client, err := c.api()
	if err != nil {
		return nil, err
	}

	opts := &gh.MilestoneListOptions{
		State:       "all",
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}
	var result []release.Milestone
	for {
		page, resp, err := client.Issues.ListMilestones(ctx, c.repo.Owner, c.repo.Name, opts)
		if err != nil {
			if isStatus(err, http.StatusNotFound) {
				return nil, errs.NotFound("repository %s was not found", c.repo)
			}
			return nil, fmt.Errorf("list milestones: %w", err)
		}
		for _, m := range page {
			result = append(result, release.Milestone{Number: m.GetNumber(), Title: m.GetTitle()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.logger.Debug("Listed milestones", slog.String("repository", c.repo.String()), slog.Int("count", len(result)))
	return result, nil
}

// Issues lists the issues of a milestone in every state. Pull requests are
// left out.
func (c *Client) Issues(ctx context.Context, m release.Milestone) ([]issues.RawIssue, error) {
	client, err := c.api()
	if err != nil {
		return nil, err
	}

	opts := &gh.IssueListByRepoOptions{
		Milestone:   strconv.Itoa(m.Number),
		State:       "all",
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}
	var result []issues.RawIssue
	for {
		page, resp, err := client.Issues.ListByRepo(ctx, c.repo.Owner, c.repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("list issues: %w", err)
		}
		for _, issue := range page {
			if issue.IsPullRequest() {
				continue
			}
			labels := make([]string, 0, len(issue.Labels))
			for _, l := range issue.Labels {
				labels = append(labels, l.GetName())
			}
			result = append(result, issues.RawIssue{
				Number: issue.GetNumber(),
				Title:  issue.GetTitle(),
				Labels: labels,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}
	return result, nil
}

// CreateRelease creates a release tagged with its name.
func (c *Client) CreateRelease(ctx context.Context, r release.NewRelease) (release.Release, error) {
	if r.Name == "" {
		return release.Release{}, errs.InvalidInput("release name is required")
	}
	if r.Body == "" {
		return release.Release{}, errs.InvalidInput("release body is required")
	}

	client, err := c.api()
	if err != nil {
		return release.Release{}, err
	}

	created, _, err := client.Repositories.CreateRelease(ctx, c.repo.Owner, c.repo.Name, &gh.RepositoryRelease{
		TagName:    gh.Ptr(r.Name),
		Name:       gh.Ptr(r.Name),
		Body:       gh.Ptr(r.Body),
		Draft:      gh.Ptr(r.Draft),
		Prerelease: gh.Ptr(r.Prerelease),
	})
	if err != nil {
		return release.Release{}, err
	}
	return release.Release{
		ID:   created.GetID(),
		Name: created.GetName(),
		URL:  created.GetHTMLURL(),
	}, nil
}

// UploadAsset uploads content as a release asset.
func (c *Client) UploadAsset(ctx context.Context, r release.Release, name string, content io.Reader, size int64) error {
	if name == "" {
		return errs.InvalidInput("asset name is required")
	}
	if content == nil {
		return errs.InvalidInput("asset content is required")
	}

	client, err := c.api()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	u := fmt.Sprintf("repos/%s/%s/releases/%d/assets?name=%s",
		c.repo.Owner, c.repo.Name, r.ID, url.QueryEscape(name))
	req, err := client.NewUploadRequest(u, content, size, "application/octet-stream")
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}

	asset := new(gh.ReleaseAsset)
	if _, err := client.Do(ctx, req, asset); err != nil {
		return err
	}
	c.logger.Debug("Uploaded asset", slog.String("name", asset.GetName()), slog.Int64("size", size))
	return nil
}

// CloseMilestone sets the milestone state to closed.
func (c *Client) CloseMilestone(ctx context.Context, m release.Milestone) error {
	client, err := c.api()
	if err != nil {
		return err
	}
	_, _, err = client.Issues.EditMilestone(ctx, c.repo.Owner, c.repo.Name, m.Number, &gh.Milestone{
		State: gh.Ptr("closed"),
	})
	return err
}

func isStatus(err error, status int) bool {
	var resp *gh.ErrorResponse
	return errors.As(err, &resp) && resp.Response != nil && resp.Response.StatusCode == status
}
