package version

import "runtime/debug"

var (
	// Version is the rosterbot release version.
	// Overridden at build time via -ldflags; falls back to the
	// module version embedded by go install.
	Version = "dev"
)

func init() {
	if Version != "dev" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
}
