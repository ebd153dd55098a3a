package release

import (
	"errors"
	"fmt"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/platform"
)

var (
	// ErrNoMatchingRelease is matched by errors returned when no release satisfies a constraint.
	ErrNoMatchingRelease = errors.New("no matching release")
	// ErrAssetNotFound is matched by errors returned when a release lacks the platform asset.
	ErrAssetNotFound = errors.New("asset not found")
)

// NoMatchingReleaseError reports a constraint that no release satisfies.
type NoMatchingReleaseError struct {
	Constraint string
	Considered int   // releases with a valid semver tag
	Skipped    int   // releases whose tag is not valid semver
	Err        error // constraint parse error, if any
}

func (e *NoMatchingReleaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no release matches version %q: %v", e.Constraint, e.Err)
	}
	msg := fmt.Sprintf("no release matches version %q (%d candidates", e.Constraint, e.Considered)
	if e.Skipped > 0 {
		msg += fmt.Sprintf(", %d non-semver tags skipped", e.Skipped)
	}
	return msg + ")"
}

func (e *NoMatchingReleaseError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrNoMatchingRelease) succeed.
func (e *NoMatchingReleaseError) Is(target error) bool {
	return target == ErrNoMatchingRelease
}

// AssetNotFoundError reports a release without the asset derived for a platform.
type AssetNotFoundError struct {
	Name     string
	Tag      string
	Platform platform.Descriptor
}

func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("release %s has no asset %q for platform %s", e.Tag, e.Name, e.Platform)
}

// Is makes errors.Is(err, ErrAssetNotFound) succeed.
func (e *AssetNotFoundError) Is(target error) bool {
	return target == ErrAssetNotFound
}
