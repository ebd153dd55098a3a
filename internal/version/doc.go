// Package version exposes build metadata for the wrapper.
//
// Version, Commit, and BuildTime are injected at build time via ldflags and
// default to values suitable for local builds.
package version
