package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/tidwall/gjson"
)

// DefaultURL is the crates.io API root.
const DefaultURL = "https://crates.io"

// ErrNotFound is returned when the index has no crate with the requested name.
var ErrNotFound = errors.New("crate not found")

// Options configures a Client.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	SkipYanked bool
	// Cache, when set, short-circuits lookups made within its TTL.
	Cache      *Cache
	HTTPClient *http.Client
}

// Client lists published crate versions from a crates.io compatible API.
type Client struct {
	baseURL    string
	userAgent  string
	skipYanked bool
	cache      *Cache
	http       *http.Client
}

// New returns a Client for opts, filling in defaults.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "cargo-upstall"
	}
	return &Client{
		baseURL:    base,
		userAgent:  userAgent,
		skipYanked: opts.SkipYanked,
		cache:      opts.Cache,
		http:       httpClient,
	}
}

// Versions returns every published version of the named crate, leaving out
// yanked ones when the client was built with SkipYanked.
func (c *Client) Versions(ctx context.Context, name string) ([]*semver.Version, error) {
	releases, cached := c.lookup(name)
	if !cached {
		var err error
		releases, err = c.fetch(ctx, name)
		if err != nil {
			return nil, err
		}
	}

	var nums []string
	for _, r := range releases {
		if c.skipYanked && r.Yanked {
			continue
		}
		nums = append(nums, r.Num)
	}
	versions, err := parseVersions(name, nums)
	if err != nil {
		return nil, err
	}

	if !cached && c.cache != nil {
		// A cache write failure only costs a refetch next run.
		_ = c.cache.Store(c.baseURL, name, releases)
	}
	return versions, nil
}

func (c *Client) lookup(name string) ([]Release, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Lookup(c.baseURL, name)
}

func (c *Client) fetch(ctx context.Context, name string) ([]Release, error) {
	endpoint := fmt.Sprintf("%s/api/v1/crates/%s", c.baseURL, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("crate query failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return extractVersions(name, body)
}

// extractVersions pulls versions[].num and versions[].yanked out of a
// /api/v1/crates/{name} body.
func extractVersions(name string, body []byte) ([]Release, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode %s metadata: invalid json", name)
	}
	doc := gjson.ParseBytes(body)

	if crate := doc.Get("crate.name"); !crate.Exists() {
		return nil, fmt.Errorf("decode %s metadata: missing crate object", name)
	}
	versionList := doc.Get("versions")
	if !versionList.IsArray() {
		return nil, fmt.Errorf("decode %s metadata: missing versions list", name)
	}

	releases := make([]Release, 0, len(versionList.Array()))
	for _, entry := range versionList.Array() {
		num := entry.Get("num")
		if num.Type != gjson.String {
			return nil, fmt.Errorf("decode %s metadata: version without num", name)
		}
		releases = append(releases, Release{Num: num.String(), Yanked: entry.Get("yanked").Bool()})
	}
	return releases, nil
}

func parseVersions(name string, raw []string) ([]*semver.Version, error) {
	versions := make([]*semver.Version, 0, len(raw))
	for _, s := range raw {
		v, err := semver.StrictNewVersion(s)
		if err != nil {
			return nil, fmt.Errorf("decode %s metadata: version %q: %w", name, s, err)
		}
		versions = append(versions, v)
	}
	return versions, nil
}
