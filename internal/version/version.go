// Package version holds build-time version information, set via linker
// flags in release builds.
package version

// Version is the component's release version, overridden at build time with
// -ldflags "-X github.com/hostwatch/pcie-errmon/internal/version.Version=...".
var Version = "dev"
