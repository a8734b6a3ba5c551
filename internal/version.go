package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	CurrentVersion = "v0.3.0" // Will be overwritten by ldflags during build
	GitHubAPI      = "https://api.github.com/repos/chukul/cloudview/releases/latest"
	CheckInterval  = 24 * time.Hour
)

type GitHubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

type VersionCheck struct {
	LastChecked   time.Time `json:"last_checked"`
	LatestVersion string    `json:"latest_version"`
}

// CheckForUpdates checks if a new version is available (non-blocking)
func CheckForUpdates() {
	cachePath := filepath.Join(HomeDir(), "version_check.json")
	if !shouldCheck(cachePath, time.Now()) {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		checkForUpdates(ctx, http.DefaultClient, cachePath, os.Stderr)
	}()
}

// checkForUpdates records the attempt whatever its outcome, so a failing endpoint is
// asked at most once per CheckInterval.
func checkForUpdates(ctx context.Context, client *http.Client, cachePath string, w io.Writer) {
	latest, url, err := FetchLatestVersion(ctx, client)
	saveLastCheck(cachePath, latest)
	if err != nil {
		slog.Debug("update check failed", "error", err)
		return
	}

	if IsNewer(latest, CurrentVersion) {
		fmt.Fprintf(w, "\n💡 Update available: %s → %s\n", CurrentVersion, latest)
		fmt.Fprintf(w, "   Download: %s\n\n", url)
	}
}

func shouldCheck(cachePath string, now time.Time) bool {
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return true
	}

	var check VersionCheck
	if err := json.Unmarshal(data, &check); err != nil {
		return true
	}

	return now.Sub(check.LastChecked) > CheckInterval
}

// FetchLatestVersion returns the tag and page URL of the latest published release.
func FetchLatestVersion(ctx context.Context, client *http.Client) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, GitHubAPI, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", "", err
	}

	return release.TagName, release.HTMLURL, nil
}

// IsNewer reports whether latest is a higher dotted version than current.
// Non-numeric parts compare as zero.
func IsNewer(latest, current string) bool {
	l := versionParts(latest)
	c := versionParts(current)
	for i := 0; i < len(l) || i < len(c); i++ {
		var lv, cv int
		if i < len(l) {
			lv = l[i]
		}
		if i < len(c) {
			cv = c[i]
		}
		if lv != cv {
			return lv > cv
		}
	}
	return false
}

func versionParts(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	fields := strings.Split(v, ".")
	parts := make([]int, len(fields))
	for i, f := range fields {
		parts[i], _ = strconv.Atoi(f)
	}
	return parts
}

func saveLastCheck(cachePath, version string) {
	check := VersionCheck{
		LastChecked:   time.Now(),
		LatestVersion: version,
	}
	data, _ := json.Marshal(check)
	_ = os.MkdirAll(filepath.Dir(cachePath), 0700)
	_ = os.WriteFile(cachePath, data, 0600)
}
