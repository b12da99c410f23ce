// Package update replaces the running vox binary with the latest GitHub
// release. The whole flow is one interactive pass: check, confirm, download,
// verify, swap.
package update

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const repo = "voxtool/vox"

// apiBase is swapped for an httptest server in tests.
var apiBase = "https://api.github.com"

// Run performs one update pass against the latest release. Dev builds and
// up-to-date binaries return without touching anything; otherwise the user is
// asked before the binary on disk is replaced.
func Run(current string) error {
	if current == "dev" {
		fmt.Println("Dev build - cannot check for updates.")
		return nil
	}
	fmt.Printf("vox %s - checking for updates...\n", current)

	rel, err := latestRelease()
	if err != nil {
		return fmt.Errorf("check releases: %w", err)
	}
	if !newer(rel.tag, current) {
		fmt.Println("Already up to date.")
		return nil
	}

	fmt.Printf("Update available: %s -> %s\n", current, rel.tag)
	if !confirm() {
		fmt.Println("Aborted.")
		return nil
	}
	if err := install(rel); err != nil {
		return err
	}
	fmt.Printf("Updated to %s\n", rel.tag)
	return nil
}

// release is the slice of a GitHub release vox cares about: the tag, the
// binary asset for this platform, and the checksums file when published.
type release struct {
	tag     string
	binURL  string
	sumsURL string
}

func assetName() string {
	return fmt.Sprintf("vox_%s_%s", runtime.GOOS, runtime.GOARCH)
}

func latestRelease() (*release, error) {
	req, err := http.NewRequest(http.MethodGet, apiBase+"/repos/"+repo+"/releases/latest", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api: %s", resp.Status)
	}

	var payload struct {
		TagName string `json:"tag_name"`
		Assets  []struct {
			Name string `json:"name"`
			URL  string `json:"browser_download_url"`
		} `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	rel := &release{tag: payload.TagName}
	for _, a := range payload.Assets {
		switch a.Name {
		case assetName():
			rel.binURL = a.URL
		case "checksums.txt":
			rel.sumsURL = a.URL
		}
	}
	if rel.binURL == "" {
		return nil, fmt.Errorf("release %s has no binary for %s/%s", payload.TagName, runtime.GOOS, runtime.GOARCH)
	}
	return rel, nil
}

func confirm() bool {
	fmt.Print("Continue? [y/N] ")
	var answer string
	fmt.Scanln(&answer)
	return answer == "y" || answer == "Y"
}

// install downloads the release binary next to the running executable,
// verifies it against the published checksum, and renames it into place. The
// temp file lives in the same directory so the final rename stays atomic.
func install(rel *release) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	self, err = filepath.EvalSymlinks(self)
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(self), ".vox-update-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	sum, err := download(rel.binURL, tmp)
	tmp.Close()
	if err != nil {
		return fmt.Errorf("download binary: %w", err)
	}

	if rel.sumsURL != "" {
		want, err := publishedSum(rel.sumsURL, assetName())
		if err != nil {
			return fmt.Errorf("fetch checksums: %w", err)
		}
		if sum != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", sum[:12], want[:12])
		}
	}

	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	// Rename the live binary aside first; a failed second rename rolls back.
	prev := self + ".old"
	if err := os.Rename(self, prev); err != nil {
		return fmt.Errorf("back up current binary: %w", err)
	}
	if err := os.Rename(tmp.Name(), self); err != nil {
		os.Rename(prev, self)
		return fmt.Errorf("install new binary: %w", err)
	}
	os.Remove(prev)
	return nil
}

// download streams url into dst and returns the hex sha256 of the bytes
// written.
func download(url string, dst io.Writer) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s", resp.Status)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(dst, h), resp.Body)
	if err != nil {
		return "", err
	}
	fmt.Printf("Downloaded %d KB\n", n/1024)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// publishedSum finds name's entry in a goreleaser-style checksums.txt
// ("<sha256>  <asset>" per line).
func publishedSum(url, name string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("checksums: %s", resp.Status)
	}

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 2 && fields[1] == name {
			return fields[0], nil
		}
	}
	return "", fmt.Errorf("no checksum entry for %s", name)
}
