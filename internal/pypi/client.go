package pypi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"depdetective/internal/errors"
	"depdetective/internal/observability"
	"depdetective/internal/util"
)

// Index is the abstract package-index capability the version resolver
// depends on. Tests substitute a deterministic fake.
type Index interface {
	// LatestVersion returns the latest published version of a package,
	// or an error when the index cannot answer. Callers treat every
	// error as "leave unpinned".
	LatestVersion(ctx context.Context, pkg string) (string, error)
}

// Client queries the PyPI JSON API (GET /pypi/<name>/json). Every
// request carries its own timeout, and requests are rate limited so a
// large project does not hammer the index.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	limiter *util.Limiter
}

func NewClient(baseURL string, timeout time.Duration, ratePerSecond float64) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
		limiter: util.NewLimiter(ratePerSecond, 1),
	}
}

type packageInfo struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
}

func (c *Client) LatestVersion(ctx context.Context, pkg string) (string, error) {
	if err := c.limiter.Wait(ctx, 1); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/pypi/%s/json", c.baseURL, url.PathEscape(pkg))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeLookupFailure, "build index request")
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	observability.IndexLookupDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return "", errors.Wrap(err, errors.CodeLookupFailure, fmt.Sprintf("query index for %q", pkg))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", errors.New(errors.CodeLookupFailure, fmt.Sprintf("package %q not found on index", pkg))
	case resp.StatusCode != http.StatusOK:
		return "", errors.New(errors.CodeLookupFailure, fmt.Sprintf("index returned %d for %q", resp.StatusCode, pkg))
	}

	var info packageInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", errors.Wrap(err, errors.CodeLookupFailure, fmt.Sprintf("decode index response for %q", pkg))
	}
	if strings.TrimSpace(info.Info.Version) == "" {
		return "", errors.New(errors.CodeLookupFailure, fmt.Sprintf("index response for %q has no version", pkg))
	}
	return info.Info.Version, nil
}
