package release

import (
	"sort"

	"github.com/Masterminds/semver/v3"
)

type candidate struct {
	release Release
	version *semver.Version
}

// Resolve returns the release with the highest semantic-version precedence
// whose tag satisfies constraint.
//
// Tags that are not valid semantic versions are skipped. Releases with equal
// precedence keep their input order. The input slice is not modified.
func Resolve(releases []Release, constraint string) (Release, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return Release{}, &NoMatchingReleaseError{Constraint: constraint, Err: err}
	}

	candidates := make([]candidate, 0, len(releases))
	skipped := 0
	for _, r := range releases {
		v, err := semver.NewVersion(r.Tag)
		if err != nil {
			skipped++
			continue
		}
		candidates = append(candidates, candidate{release: r, version: v})
	}

	// Highest precedence first
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].version.GreaterThan(candidates[j].version)
	})

	for _, cand := range candidates {
		if c.Check(cand.version) {
			return cand.release, nil
		}
	}

	return Release{}, &NoMatchingReleaseError{
		Constraint: constraint,
		Considered: len(candidates),
		Skipped:    skipped,
	}
}
