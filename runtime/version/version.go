// Package version reports the build of the running binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set through linker options.
var (
	gitCommit = "Local build"
	gitTag    = "Unknown"
	buildDate = "Moments ago"
)

// Version returns the tag, commit and build date of this binary.
func Version() string {
	return fmt.Sprintf("%s. Built at: %s", BuildData(), buildDate)
}

// BuildData returns the tag and commit of this binary. Local builds fall back to the
// VCS revision the Go toolchain stamped into the binary.
func BuildData() string {
	commit := gitCommit
	if commit == "Local build" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					commit = s.Value
				}
			}
		}
	}
	return fmt.Sprintf("PrysmEPBS/%s/%s", gitTag, commit)
}
