package common

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ServiceName identifies this service in the version payload and banner.
const ServiceName = "portfolio"

// Build metadata, set with -ldflags "-X .../common.Version=..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

func GetVersion() string {
	return Version
}

func GetBuild() string {
	return Build
}

func GetGitCommit() string {
	return GitCommit
}

// VersionInfo is the payload of GET /api/version.
type VersionInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Build     string `json:"build"`
	GitCommit string `json:"git_commit"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{Service: ServiceName, Version: Version, Build: Build, GitCommit: GitCommit}
}

// GetFullVersion is the one-line form printed by -version.
func GetFullVersion() string {
	return fmt.Sprintf("%s %s (build: %s, commit: %s)", ServiceName, Version, Build, GitCommit)
}

// LoadVersionFromFile reads a .version file next to the binary. Its values
// only fill fields still at their defaults, so ldflags win.
func LoadVersionFromFile() {
	exe, err := os.Executable()
	if err != nil {
		return
	}
	f, err := os.Open(filepath.Join(filepath.Dir(exe), ".version"))
	if err != nil {
		return
	}
	defer f.Close()
	applyVersionFile(f)
}

// applyVersionFile parses "key: value" lines; blank lines and # comments
// are skipped, as are unknown keys.
func applyVersionFile(r io.Reader) {
	fields := map[string]struct {
		target   *string
		fallback string
	}{
		"version": {&Version, "dev"},
		"build":   {&Build, "unknown"},
		"commit":  {&GitCommit, "unknown"},
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		f, known := fields[strings.TrimSpace(key)]
		if !known || *f.target != f.fallback {
			continue
		}
		*f.target = strings.TrimSpace(val)
	}
}
