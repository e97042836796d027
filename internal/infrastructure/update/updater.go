// Package update implements self-update against a releases REST endpoint.
// The running binary is backed up next to itself before the downloaded
// replacement is swapped into place.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// Logger defines the logging interface for the updater.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// Release is the subset of the releases API response the updater consumes.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable artifact attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// CheckResult reports the outcome of a version check.
type CheckResult struct {
	Current   string
	Latest    string
	Available bool

	release *Release
}

// Updater checks for and applies new releases of the binary.
type Updater struct {
	endpoint string
	current  string
	client   *retryablehttp.Client
	logger   Logger

	// executable is overridable for tests; defaults to os.Executable.
	executable func() (string, error)
}

// NewUpdater creates an Updater for the given releases endpoint and current
// version string (with or without a leading "v").
func NewUpdater(endpoint, current string, log Logger) *Updater {
	client := retryablehttp.NewClient()
	client.RetryMax = 4
	client.Logger = nil

	return &Updater{
		endpoint:   endpoint,
		current:    current,
		client:     client,
		logger:     log,
		executable: os.Executable,
	}
}

// Check fetches the latest release and compares versions semantically.
func (u *Updater) Check(ctx context.Context) (*CheckResult, error) {
	release, err := u.fetchLatest(ctx)
	if err != nil {
		return nil, err
	}

	currentVer, err := semver.NewVersion(u.current)
	if err != nil {
		return nil, fmt.Errorf("invalid current version %q: %w", u.current, err)
	}
	latestVer, err := semver.NewVersion(release.TagName)
	if err != nil {
		return nil, fmt.Errorf("invalid release tag %q: %w", release.TagName, err)
	}

	result := &CheckResult{
		Current:   currentVer.String(),
		Latest:    latestVer.String(),
		Available: latestVer.GreaterThan(currentVer),
		release:   release,
	}

	u.logger.Info(ctx, "update check complete", map[string]interface{}{
		"current":   result.Current,
		"latest":    result.Latest,
		"available": result.Available,
	})
	return result, nil
}

// Apply downloads the platform asset of the latest release and swaps it in
// for the running binary. The previous binary is kept as <exe>.bak and
// restored if the swap fails partway.
func (u *Updater) Apply(ctx context.Context) error {
	result, err := u.Check(ctx)
	if err != nil {
		return err
	}
	if !result.Available {
		return nil
	}

	assetName := fmt.Sprintf("buildnum_%s_%s", runtime.GOOS, runtime.GOARCH)
	asset, err := findAsset(result.release, assetName)
	if err != nil {
		return err
	}

	exe, err := u.executable()
	if err != nil {
		return fmt.Errorf("cannot locate running executable: %w", err)
	}

	tmpPath := filepath.Join(filepath.Dir(exe), ".buildnum-"+uuid.NewString())
	if err := u.download(ctx, asset.BrowserDownloadURL, tmpPath); err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	backup := exe + ".bak"
	if err := os.Rename(exe, backup); err != nil {
		return fmt.Errorf("failed to back up current binary: %w", err)
	}
	if err := os.Rename(tmpPath, exe); err != nil {
		// Put the old binary back so the install stays usable.
		if restoreErr := os.Rename(backup, exe); restoreErr != nil {
			return fmt.Errorf("failed to install update and restore backup: %v (restore: %w)", err, restoreErr)
		}
		return fmt.Errorf("failed to install update: %w", err)
	}

	u.logger.Info(ctx, "update installed", map[string]interface{}{
		"version": result.Latest,
		"backup":  backup,
	})
	return nil
}

// fetchLatest GETs <endpoint>/latest and decodes the release document.
func (u *Updater) fetchLatest(ctx context.Context) (*Release, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.endpoint+"/latest", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build release request: %w", err)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("releases endpoint returned %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release document: %w", err)
	}
	return &release, nil
}

// download streams the asset to path with the executable bit set.
func (u *Updater) download(ctx context.Context, url, path string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("asset download returned %s", resp.Status)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create temp binary: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to write temp binary: %w", err)
	}
	return nil
}

// findAsset locates the asset matching the platform naming convention.
func findAsset(release *Release, name string) (*Asset, error) {
	for i := range release.Assets {
		if release.Assets[i].Name == name {
			return &release.Assets[i], nil
		}
	}
	return nil, fmt.Errorf("release %s has no asset named %s", release.TagName, name)
}
