package release

// BinaryName is the name the publisher uses as the prefix of every asset.
const BinaryName = "scan-github"

// Release is a published, tagged version of the binary.
type Release struct {
	Tag        string
	Name       string
	Draft      bool
	Prerelease bool
	Assets     []Asset
}

// DisplayName returns the release name, or the tag when the release is unnamed.
func (r Release) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Tag
}

// FindAsset returns the asset with exactly the given name.
func (r Release) FindAsset(name string) (Asset, bool) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
	Size        int64
}
