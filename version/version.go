// Package version exposes build information for the invoicer binary.
//
// Values are stamped at build time:
//
//	go build -ldflags "-X github.com/kbukum/invoicer/version.Version=1.4.0 \
//	  -X github.com/kbukum/invoicer/version.BuildTime=2026-01-02T15:04:05Z" ./cmd/invoicer
//
// Missing values fall back to the VCS data the Go toolchain embeds.
package version

import (
	"cmp"
	"runtime/debug"
	"strings"
	"time"
)

// Set with -ldflags -X.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit,omitempty"`
	BuildTime string    `json:"build_time,omitempty"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"-"`
	IsRelease bool      `json:"is_release"`
	IsDirty   bool      `json:"is_dirty"`
}

// Get combines the stamped variables with the embedded VCS settings.
// Stamped values win.
func Get() Info {
	vcs := map[string]string{}
	info := Info{Version: Version}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		for _, s := range bi.Settings {
			vcs[s.Key] = s.Value
		}
	}

	info.GitCommit = cmp.Or(GitCommit, vcs["vcs.revision"])
	info.GitCommit = info.GitCommit[:min(len(info.GitCommit), 7)]
	info.IsDirty = vcs["vcs.modified"] == "true"
	info.IsRelease = Version != "dev" && !strings.Contains(Version, "dirty")

	for _, stamp := range []string{BuildTime, vcs["vcs.time"]} {
		if t, err := time.Parse(time.RFC3339, stamp); err == nil {
			info.BuildTime, info.BuildDate = stamp, t
			break
		}
	}
	return info
}

// Short is "version-commit[-dirty]", or the bare version without a commit.
func (i Info) Short() string {
	if i.GitCommit == "" {
		return i.Version
	}
	parts := []string{i.Version, i.GitCommit}
	if i.IsDirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}
