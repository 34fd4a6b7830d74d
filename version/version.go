package version

import "runtime/debug"

// Version is empty unless set at build time, e.g.
// go build -ldflags "-X github.com/tcsenpai/neoretro/version.Version=$(git describe --dirty)"
var Version string

// Hash is the short VCS revision embedded by the go tool, suffixed with
// "-dirty" for builds from a modified tree.
var Hash = vcsHash()

// VersionOrHash is what the commands print for -v.
var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()

func vcsHash() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var revision, suffix string
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && len(s.Value) >= 7:
			revision = s.Value[:7]
		case s.Key == "vcs.modified" && s.Value == "true":
			suffix = "-dirty"
		}
	}
	if revision == "" {
		return ""
	}
	return revision + suffix
}
