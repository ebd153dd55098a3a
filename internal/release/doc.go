// Package release resolves a version constraint against published releases of
// the scan-github binary and selects the asset built for a given platform.
//
// # Resolution
//
// Resolve orders releases by semantic-version precedence, highest first, and
// returns the first one whose tag satisfies the constraint:
//
//	r, err := release.Resolve(releases, "^2.0.0")
//	if errors.Is(err, release.ErrNoMatchingRelease) {
//	    // no published tag satisfies ^2.0.0
//	}
//
// # Asset naming
//
// Published assets follow the pattern
//
//	scan-github_{tag}_{osFamily}_{arch}[.exe]
//
// where the .exe suffix is present only for the Windows_NT family. SelectAsset
// derives that name and looks it up by exact, case-sensitive match.
package release
