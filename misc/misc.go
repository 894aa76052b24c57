// Package misc provides build metadata helpers shared by all packages.
package misc

import (
	"path"
	"runtime/debug"
	"strings"
	"sync"
)

// Set at build time with -ldflags "-X ...". When empty we fall back to
// module build information.
var (
	appName string
	version string
	gitHash string
)

var readBuildInfo = sync.OnceValue(func() *debug.BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return bi
})

// GetAppName returns short program name used for logs, temporary files and reports.
func GetAppName() string {
	if len(appName) > 0 {
		return appName
	}
	if bi := readBuildInfo(); bi != nil && len(bi.Main.Path) > 0 {
		return path.Base(bi.Main.Path)
	}
	return "webtero"
}

// GetVersion returns program version.
func GetVersion() string {
	if len(version) > 0 {
		return version
	}
	if bi := readBuildInfo(); bi != nil && len(bi.Main.Version) > 0 {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns VCS revision the program was built from.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if bi := readBuildInfo(); bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				if len(s.Value) > 12 {
					return s.Value[:12]
				}
				return s.Value
			}
		}
	}
	return strings.Repeat("0", 12)
}
