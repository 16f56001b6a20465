package version

import (
	"fmt"
	"runtime/debug"
	"strings"

	"golang.org/x/mod/semver"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// SchemaVersion is the newest strategy document version this build
// compiles. Documents with the same major version and a lower or equal
// minor version are accepted.
const SchemaVersion = "1.2.0"

// Info describes the running build.
type Info struct {
	Version       string `json:"version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
	GoVersion     string `json:"go_version"`
	SchemaVersion string `json:"schema_version"`
	IsDirty       bool   `json:"is_dirty"`
}

// GetVersionInfo returns build information, filling gaps from the
// module's embedded VCS settings.
func GetVersionInfo() *Info {
	info := &Info{
		Version:       Version,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
		SchemaVersion: SchemaVersion,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.modified":
				info.IsDirty = s.Value == "true"
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			}
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// GetShortVersion returns version-commit[-dirty].
func GetShortVersion() string {
	info := GetVersionInfo()
	parts := []string{info.Version}
	if info.GitCommit != "" {
		parts = append(parts, info.GitCommit)
	}
	if info.IsDirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}

// Canonical turns "1.2" or "v1.2.0" into "v1.2.0". It returns "" for
// strings that are not semantic versions.
func Canonical(v string) string {
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// CheckSchema reports whether a strategy document version can be compiled
// by this build.
func CheckSchema(docVersion string) error {
	doc := Canonical(docVersion)
	if doc == "" {
		return fmt.Errorf("%q is not a semantic version", docVersion)
	}
	supported := Canonical(SchemaVersion)
	if semver.Major(doc) != semver.Major(supported) {
		return fmt.Errorf("strategy version %s has major %s, this build supports %s",
			docVersion, semver.Major(doc), semver.Major(supported))
	}
	if semver.Compare(semver.MajorMinor(doc), semver.MajorMinor(supported)) > 0 {
		return fmt.Errorf("strategy version %s is newer than supported %s", docVersion, SchemaVersion)
	}
	return nil
}
