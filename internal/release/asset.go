package release

import (
	"fmt"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/platform"
)

// AssetName derives the published asset file name for a binary, tag and platform.
// Pattern: {binary}_{tag}_{osFamily}_{arch}, plus ".exe" for Windows_NT.
func AssetName(binary, tag string, p platform.Descriptor) string {
	name := fmt.Sprintf("%s_%s_%s_%s", binary, tag, p.OSFamily, p.Arch)
	if p.IsWindows() {
		name += ".exe"
	}
	return name
}

// SelectAsset returns the release asset built for platform p.
// Only an exact, case-sensitive name match is accepted.
func SelectAsset(r Release, p platform.Descriptor) (Asset, error) {
	name := AssetName(BinaryName, r.Tag, p)

	asset, ok := r.FindAsset(name)
	if !ok {
		return Asset{}, &AssetNotFoundError{Name: name, Tag: r.Tag, Platform: p}
	}

	return asset, nil
}
