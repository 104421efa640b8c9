/*
Package version reports the recordbook build.

Values are set via ldflags during build:

	go build -ldflags "-X github.com/khanglvm/recordbook/internal/version.Version=v0.3.0 \
	  -X github.com/khanglvm/recordbook/internal/version.Commit=abc1234 \
	  -X github.com/khanglvm/recordbook/internal/version.Date=2025-03-02"

Without ldflags the commit and date come from the Go build info when the
binary was built from a VCS checkout.
*/
package version

import "runtime/debug"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// GetVersion returns version information as a formatted string
func GetVersion() string {
	v, c, d := GetVersionComponents()
	return FormatVersion(v, c, d)
}

// FormatVersion formats version components into a display string
func FormatVersion(version, commit, date string) string {
	if version == "dev" {
		if commit != "none" {
			return version + " (development build, commit: " + commit + ")"
		}
		return version + " (development build)"
	}
	return version + " (commit: " + commit + ", built: " + date + ")"
}

// GetVersionComponents returns individual version components, filling unset
// commit and date from build info.
func GetVersionComponents() (version, commit, date string) {
	version, commit, date = Version, Commit, Date
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version, commit, date
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "none" && len(s.Value) >= 7 {
				commit = s.Value[:7]
			}
		case "vcs.time":
			if date == "unknown" && len(s.Value) >= 10 {
				date = s.Value[:10]
			}
		}
	}
	return version, commit, date
}
