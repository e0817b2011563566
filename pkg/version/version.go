package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Version represents the current version of regtool.
type Version struct {
	Major    string
	Minor    string
	Patch    string
	Metadata string
	Build    string
}

// RegtoolVersion is the current version of regtool.
var RegtoolVersion = Version{
	Major: "0", Minor: "4", Patch: "0", Metadata: "",
	Build: "$Id$",
}

func (v Version) String() string {
	fixBuild(&v)
	ver := fmt.Sprintf("Version: %s.%s.%s", v.Major, v.Minor, v.Patch)
	if v.Metadata != "" {
		ver += "-" + v.Metadata
	}
	return fmt.Sprintf("%s\nBuild: %s", ver, v.Build)
}

// Short returns the version without build information, as recorded in
// generated files.
func (v Version) Short() string {
	s := v.Major + "." + v.Minor + "." + v.Patch
	if v.Metadata != "" {
		s += "-" + v.Metadata
	}
	return s
}

var buildInfo = func() string {
	return ""
}

// BuildInfo returns the Go version and the modules regtool was built with.
func BuildInfo() string {
	return fmt.Sprintf("%s\n%s", runtime.Version(), buildInfo())
}

func fixBuild(v *Version) {
	// Only replace an unexpanded Git ident.
	if !strings.HasPrefix(v.Build, "$Id") {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if build, ok := buildFromSettings(info.Settings); ok {
		v.Build = build
	}
}

// buildFromSettings returns the revision recorded by the Go toolchain,
// suffixed with "-dirty" for a modified work tree. Toolchains before
// vcs stamping recorded it as gitrevision.
func buildFromSettings(settings []debug.BuildSetting) (string, bool) {
	var rev, legacy string
	modified := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		case "gitrevision":
			legacy = s.Value
		}
	}
	if rev == "" {
		return legacy, legacy != ""
	}
	if modified {
		rev += "-dirty"
	}
	return rev, true
}
