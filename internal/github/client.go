// Package github provides the code-review adapter for the GitHub API.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
)

// PullRequest is the adapter's view of a change request.
type PullRequest struct {
	Number           int
	Title            string
	Body             string
	State            string
	Draft            bool
	Merged           bool
	URL              string
	HeadRef          string
	ChangesRequested bool
	ReviewComments   int
}

// Client encapsulates the GitHub API client.
type Client struct {
	client *github.Client
	owner  string
	repo   string
}

// NewClient creates a new GitHub API client for the repository identified by
// remoteURL, authenticated with the configured token. GitHub Enterprise
// domains are supported via the github.domain configuration.
func NewClient(cfg config.GitHubConfig, remoteURL string) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token not found in configuration")
	}

	owner, repo, err := ParseRepoURL(remoteURL)
	if err != nil {
		return nil, err
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "github.com"
	}
	var apiURL string
	if domain == "github.com" {
		apiURL = "https://api.github.com/"
	} else {
		apiURL = fmt.Sprintf("https://%s/api/v3/", domain)
	}

	logging.Debug("github configuration",
		"domain", domain,
		"api_url", apiURL,
		"repository", owner+"/"+repo,
		"token", logging.MaskSensitive(cfg.Token))

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	tc := oauth2.NewClient(context.Background(), ts)
	client := github.NewClient(tc)

	if domain != "github.com" {
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		client.BaseURL = parsedURL
		client.UploadURL = parsedURL
	}

	return &Client{client: client, owner: owner, repo: repo}, nil
}

// ParseRepoURL extracts the owner and repository name from a git remote URL.
// Both SSH (git@host:owner/repo.git) and HTTPS (https://host/owner/repo.git)
// forms are accepted.
func ParseRepoURL(remoteURL string) (owner, repo string, err error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(remoteURL), ".git")
	if trimmed == "" {
		return "", "", fmt.Errorf("empty remote url")
	}

	if at := strings.Index(trimmed, "@"); at >= 0 && strings.Contains(trimmed[at:], ":") && !strings.Contains(trimmed, "://") {
		trimmed = trimmed[strings.Index(trimmed, ":")+1:]
	} else if idx := strings.Index(trimmed, "://"); idx >= 0 {
		rest := trimmed[idx+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return "", "", fmt.Errorf("invalid remote url: %s", remoteURL)
		}
		trimmed = rest[slash+1:]
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", fmt.Errorf("invalid remote url: %s", remoteURL)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

// ListOpenByHead returns the open pull requests whose head is the given
// branch. GitHub guarantees at most one open pull request per head/base
// pair, so callers treat the first entry as the review to update.
func (c *Client) ListOpenByHead(ctx context.Context, branch string) ([]PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State: "open",
		Head:  c.owner + ":" + branch,
		ListOptions: github.ListOptions{
			PerPage: 50,
		},
	}
	prs, _, err := c.client.PullRequests.List(ctx, c.owner, c.repo, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests for head %s: %w", branch, err)
	}

	result := make([]PullRequest, 0, len(prs))
	for _, pr := range prs {
		result = append(result, convertPullRequest(pr))
	}
	return result, nil
}

// Get returns one pull request by number, including review state.
func (c *Client) Get(ctx context.Context, number int) (PullRequest, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return PullRequest{}, fmt.Errorf("failed to get pull request #%d: %w", number, err)
	}

	converted := convertPullRequest(pr)
	converted.ReviewComments = pr.GetReviewComments()

	reviews, _, err := c.client.PullRequests.ListReviews(ctx, c.owner, c.repo, number, nil)
	if err != nil {
		logging.Warn("failed to list reviews", "number", number, "error", err)
		return converted, nil
	}
	for _, review := range reviews {
		if review.GetState() == "CHANGES_REQUESTED" {
			converted.ChangesRequested = true
			break
		}
	}
	return converted, nil
}

// Create opens a new pull request for the branch against base.
func (c *Client) Create(ctx context.Context, title, body, branch, base string, draft bool) (PullRequest, error) {
	newPR := &github.NewPullRequest{
		Title: github.String(title),
		Body:  github.String(body),
		Head:  github.String(branch),
		Base:  github.String(base),
		Draft: github.Bool(draft),
	}
	pr, _, err := c.client.PullRequests.Create(ctx, c.owner, c.repo, newPR)
	if err != nil {
		return PullRequest{}, fmt.Errorf("failed to create pull request for %s: %w", branch, err)
	}

	logging.Info("created pull request",
		"number", pr.GetNumber(),
		"head", branch,
		"draft", draft)
	return convertPullRequest(pr), nil
}

// Update sets the title and body of an existing pull request.
func (c *Client) Update(ctx context.Context, number int, title, body string) (PullRequest, error) {
	patch := &github.PullRequest{
		Title: github.String(title),
		Body:  github.String(body),
	}
	pr, _, err := c.client.PullRequests.Edit(ctx, c.owner, c.repo, number, patch)
	if err != nil {
		return PullRequest{}, fmt.Errorf("failed to update pull request #%d: %w", number, err)
	}

	logging.Info("updated pull request", "number", number)
	return convertPullRequest(pr), nil
}

func convertPullRequest(pr *github.PullRequest) PullRequest {
	return PullRequest{
		Number:         pr.GetNumber(),
		Title:          pr.GetTitle(),
		Body:           pr.GetBody(),
		State:          pr.GetState(),
		Draft:          pr.GetDraft(),
		Merged:         pr.MergedAt != nil,
		URL:            pr.GetHTMLURL(),
		HeadRef:        pr.GetHead().GetRef(),
		ReviewComments: pr.GetReviewComments(),
	}
}
