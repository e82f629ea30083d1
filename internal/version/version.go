// Package version reports build metadata and checks GitHub for newer releases.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
)

// Build metadata, set with -ldflags "-X github.com/fedibtc/fedicore/internal/version.Version=v1.2.3".
//
//nolint:gochecknoglobals // Link-time variables
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Release source used by "fedicore version --check".
const (
	Owner = "fedibtc"
	Repo  = "fedicore"
)

const (
	DefaultBaseURL  = "https://api.github.com"
	DefaultTimeout  = 10 * time.Second
	maxReleaseBytes = 64 * 1024
	maxErrorBytes   = 1024
)

// Errors returned by this package.
var (
	ErrReleaseLookup = errors.New("release lookup failed")
	ErrInvalidRepo   = errors.New("invalid owner or repository name")
)

//nolint:gochecknoglobals // compiled once
var repoNameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Current returns the build metadata. Binaries built with "go install"
// carry no link-time version, so the module version is used instead.
func Current() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.Version == "dev" || info.Version == "" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}
	return info
}

// Release is the subset of a GitHub release we read.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
}

// Client fetches releases from the GitHub API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  fmt.Sprintf("fedicore/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestRelease returns the latest published release of owner/repo.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	if !repoNameRe.MatchString(owner) || !repoNameRe.MatchString(repo) {
		return nil, fmt.Errorf("%w: %q/%q", ErrInvalidRepo, owner, repo)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL built from validated owner/repo
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReleaseLookup, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return nil, fmt.Errorf("%w: status %d: %s", ErrReleaseLookup, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rel Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReleaseBytes)).Decode(&rel); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrReleaseLookup, err)
	}
	return &rel, nil
}

// Update is the result of comparing the running build with the latest release.
type Update struct {
	Current   string `json:"current"`
	Latest    string `json:"latest"`
	Available bool   `json:"available"`
	URL       string `json:"url,omitempty"`
}

// Check compares current against the latest release of the fedicore repo.
func (c *Client) Check(ctx context.Context, current string) (*Update, error) {
	rel, err := c.LatestRelease(ctx, Owner, Repo)
	if err != nil {
		return nil, err
	}
	return &Update{
		Current:   Normalize(current),
		Latest:    Normalize(rel.TagName),
		Available: IsNewer(current, rel.TagName),
		URL:       rel.HTMLURL,
	}, nil
}

// Normalize strips whitespace, "v" prefixes and pre-release or build suffixes.
func Normalize(v string) string {
	v = strings.TrimLeft(strings.TrimSpace(v), "vV")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	return v
}

// Compare returns 1, 0 or -1 as a is newer than, equal to or older than b.
// Development builds sort before every release.
func Compare(a, b string) int {
	devA, devB := isDev(a), isDev(b)
	switch {
	case devA && devB:
		return 0
	case devA:
		return -1
	case devB:
		return 1
	}

	pa, pb := parts(a), parts(b)
	for i := range 3 {
		switch {
		case pa[i] > pb[i]:
			return 1
		case pa[i] < pb[i]:
			return -1
		}
	}
	return 0
}

// IsNewer reports whether latest is a newer release than current.
func IsNewer(current, latest string) bool {
	return Compare(latest, current) > 0
}

func parts(v string) [3]int {
	var out [3]int
	for i, p := range strings.SplitN(Normalize(v), ".", 3) {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		out[i] = n
	}
	return out
}

//nolint:gochecknoglobals // compiled once
var commitRe = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)

// isDev reports whether v is a development build or a bare commit hash.
func isDev(v string) bool {
	v = strings.TrimSuffix(strings.TrimSpace(v), "-dirty")
	if v == "" || v == "dev" {
		return true
	}
	return commitRe.MatchString(v) && strings.ContainsAny(strings.ToLower(v), "abcdef")
}
