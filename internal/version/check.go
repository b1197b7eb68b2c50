package version

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-version"
)

var AppVersion = "v0.0.0"

const releaseURL = "https://api.github.com/repos/rkilchmn/openrouter-free-scanner/releases/latest"

type gitHubRelease struct {
	TagName string `json:"tag_name"`
}

// CheckForUpdates prints a warning when a newer release exists. Best
// effort: any failure is silently ignored.
func CheckForUpdates() {
	client := http.Client{
		Timeout: 2 * time.Second,
	}

	resp, err := client.Get(releaseURL)
	if err != nil {
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return
	}

	var release gitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return
	}

	current, err := version.NewVersion(AppVersion)
	if err != nil {
		return
	}

	latest, err := version.NewVersion(release.TagName)
	if err != nil {
		return
	}

	if current.LessThan(latest) {
		fmt.Printf("A newer release is available: %s (you are on %s)\n", release.TagName, AppVersion)
	}
}
