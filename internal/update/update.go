// Package update compares the running build with the latest GitHub release.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/salmonumbrella/fastmail-mcp/internal/transport"
)

// DefaultReleasesURL is the latest-release endpoint for this project.
const DefaultReleasesURL = "https://api.github.com/repos/salmonumbrella/fastmail-mcp/releases/latest"

// CheckTimeout bounds the release lookup.
const CheckTimeout = 5 * time.Second

// Release is the part of a GitHub release the check reads.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckResult reports how the running version compares with the latest release.
type CheckResult struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version"`
	UpdateURL       string `json:"update_url,omitempty"`
	UpdateAvailable bool   `json:"update_available"`
	// Comparable is false when either version is not semver, e.g. "dev".
	Comparable bool `json:"comparable"`
}

// Checker looks up the latest release.
type Checker struct {
	URL        string
	HTTPClient *http.Client
}

// NewChecker returns a Checker for DefaultReleasesURL.
func NewChecker() *Checker {
	return &Checker{URL: DefaultReleasesURL, HTTPClient: &http.Client{Timeout: CheckTimeout}}
}

// Check fetches the latest release and compares it with current.
func (c *Checker) Check(ctx context.Context, current string) (*CheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release lookup: %w", err)
	}
	//nolint:errcheck // close errors not actionable
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, transport.NewHTTPError("release lookup", resp, body)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("release has no tag")
	}

	return Compare(current, release), nil
}

// Compare reports whether release is newer than current.
func Compare(current string, release Release) *CheckResult {
	result := &CheckResult{
		CurrentVersion: current,
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		UpdateURL:      release.HTMLURL,
	}

	cur, latest := canonical(current), canonical(release.TagName)
	if semver.IsValid(cur) && semver.IsValid(latest) {
		result.Comparable = true
		result.UpdateAvailable = semver.Compare(latest, cur) > 0
	}
	return result
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
