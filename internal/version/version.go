// Package version holds the build-time version of the buildnum binary.
package version

// Version is the semantic version of this build. Overridden at release time
// via -ldflags "-X .../internal/version.Version=v1.2.3".
var Version = "v0.0.0-dev"
