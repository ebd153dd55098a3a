// Package catalog lists published releases through the GitHub REST API.
//
// The client is constructed with an explicit access token and base URL; it
// never reads credentials from the environment.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/logger"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/release"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/version"
)

const (
	// DefaultBaseURL is the public GitHub REST API endpoint.
	DefaultBaseURL = "https://api.github.com"
	// DefaultOwner owns the repository that publishes scan-github releases.
	DefaultOwner = "Enterprise-CMCS"
	// DefaultRepo publishes scan-github releases.
	DefaultRepo = "mac-fc-scan-github-releases"

	perPage  = 100
	maxPages = 10
)

// Client lists releases of a GitHub repository.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (GitHub Enterprise Server, tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a catalog client authenticated with token.
// An empty token sends unauthenticated requests.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		// No timeout; cancellation comes from the caller's context.
		httpClient: &http.Client{},
		userAgent:  version.UserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type releaseResponse struct {
	TagName    string          `json:"tag_name"`
	Name       string          `json:"name"`
	Draft      bool            `json:"draft"`
	Prerelease bool            `json:"prerelease"`
	Assets     []assetResponse `json:"assets"`
}

type assetResponse struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// ListReleases returns the published releases of owner/repo, following
// pagination. Draft releases are omitted.
func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]release.Release, error) {
	next := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), perPage)

	var releases []release.Release
	for page := 1; next != ""; page++ {
		if page > maxPages {
			logger.Warnf(ctx, "release listing truncated after %d pages", maxPages)
			break
		}

		items, link, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, &UnavailableError{Owner: owner, Repo: repo, Err: err}
		}

		for _, item := range items {
			if item.Draft {
				continue
			}
			releases = append(releases, toRelease(item))
		}

		next = nextLink(link)
	}

	logger.Debugf(ctx, "listed %d releases of %s/%s", len(releases), owner, repo)

	return releases, nil
}

// fetchPage retrieves one page of releases and returns it with the Link header.
func (c *Client) fetchPage(ctx context.Context, pageURL string) ([]releaseResponse, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if rl := rateLimitErrorFromResponse(resp); rl != nil {
			return nil, "", rl
		}
		return nil, "", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var items []releaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, "", fmt.Errorf("decode releases: %w", err)
	}

	return items, resp.Header.Get("Link"), nil
}

func toRelease(item releaseResponse) release.Release {
	r := release.Release{
		Tag:        item.TagName,
		Name:       item.Name,
		Draft:      item.Draft,
		Prerelease: item.Prerelease,
		Assets:     make([]release.Asset, 0, len(item.Assets)),
	}
	for _, a := range item.Assets {
		r.Assets = append(r.Assets, release.Asset{
			Name:        a.Name,
			DownloadURL: a.BrowserDownloadURL,
			Size:        a.Size,
		})
	}
	return r
}

// nextLink extracts the rel="next" target from an RFC 8288 Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segments[1:] {
			param = strings.ReplaceAll(strings.TrimSpace(param), " ", "")
			if param == `rel="next"` || param == "rel=next" {
				return target[1 : len(target)-1]
			}
		}
	}
	return ""
}
