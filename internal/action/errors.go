package action

import (
	"errors"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/binary"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/catalog"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/release"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/runner"
)

// Failure kinds reported by Kind.
const (
	KindCatalogUnavailable    = "CatalogUnavailable"
	KindNoMatchingRelease     = "NoMatchingRelease"
	KindAssetNotFound         = "AssetNotFound"
	KindDownloadFailed        = "DownloadFailed"
	KindSubprocessSpawnFailed = "SubprocessSpawnFailed"
	KindUnknown               = "Unknown"
)

// Kind classifies err into one of the failure kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		return KindCatalogUnavailable
	case errors.Is(err, release.ErrNoMatchingRelease):
		return KindNoMatchingRelease
	case errors.Is(err, release.ErrAssetNotFound):
		return KindAssetNotFound
	case errors.Is(err, binary.ErrDownloadFailed):
		return KindDownloadFailed
	case errors.Is(err, runner.ErrSpawnFailed):
		return KindSubprocessSpawnFailed
	default:
		return KindUnknown
	}
}
