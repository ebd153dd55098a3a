package binary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/logger"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/release"
)

// Fetcher orchestrates asset download, verification, and installation
type Fetcher struct {
	downloader *Downloader
	verifier   *Verifier
	policy     Policy
}

// NewFetcher creates a new fetcher. A nil verifier disables verification.
func NewFetcher(downloader *Downloader, verifier *Verifier, policy Policy) *Fetcher {
	if downloader == nil {
		downloader = NewDownloader()
	}
	if policy == "" {
		policy = PolicyAuto
	}
	if verifier == nil {
		policy = PolicyNone
	}
	return &Fetcher{
		downloader: downloader,
		verifier:   verifier,
		policy:     policy,
	}
}

// Fetch downloads asset of rel into dir, verifies it according to the policy,
// and marks it executable. The file is complete and closed when Fetch returns.
// Every error matches ErrDownloadFailed.
func (f *Fetcher) Fetch(ctx context.Context, rel release.Release, asset release.Asset, dir string) (*FetchResult, error) {
	startTime := time.Now()

	wrap := func(err error) error {
		return &DownloadError{Asset: asset.Name, URL: asset.DownloadURL, Err: err}
	}

	if asset.DownloadURL == "" {
		return nil, wrap(fmt.Errorf("asset has no download URL"))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wrap(fmt.Errorf("create work dir: %w", err))
	}

	lock, err := AcquireLock(ctx, dir, asset.Name)
	if err != nil {
		return nil, wrap(err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warnf(ctx, "release asset lock: %v", err)
		}
	}()

	destPath := filepath.Join(dir, asset.Name)
	if err := f.downloader.DownloadToFile(ctx, asset.DownloadURL, destPath); err != nil {
		return nil, wrap(err)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return nil, wrap(fmt.Errorf("stat download: %w", err))
	}
	if asset.Size > 0 && info.Size() != asset.Size {
		os.Remove(destPath)
		return nil, wrap(fmt.Errorf("incomplete download: got %d bytes, want %d", info.Size(), asset.Size))
	}

	method, err := f.verify(ctx, rel, asset, destPath, dir)
	if err != nil {
		os.Remove(destPath)
		return nil, wrap(err)
	}

	if err := SetExecutable(destPath); err != nil {
		return nil, wrap(err)
	}

	logger.Debugf(ctx, "downloaded %s (%d bytes, verification %s)", asset.Name, info.Size(), method)

	return &FetchResult{
		Asset:        asset.Name,
		Path:         destPath,
		Size:         info.Size(),
		Verified:     method,
		DownloadTime: time.Since(startTime),
	}, nil
}

// verify downloads the companions published for asset and checks the binary.
func (f *Fetcher) verify(ctx context.Context, rel release.Release, asset release.Asset, binaryPath, dir string) (VerificationMethod, error) {
	if f.policy == PolicyNone {
		return VerificationNone, nil
	}

	tmpDir, err := os.MkdirTemp(dir, ".verify-")
	if err != nil {
		return VerificationNone, fmt.Errorf("create verification dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	companions, err := f.downloadCompanions(ctx, rel, asset, tmpDir)
	if err != nil {
		return VerificationNone, err
	}

	result, err := f.verifier.VerifyFile(ctx, binaryPath, asset.Name, companions)
	if err != nil {
		return VerificationNone, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	if result.Method == VerificationNone {
		if f.policy == PolicyRequired {
			return VerificationNone, fmt.Errorf("%w: release %s publishes no usable signature or checksum for %s",
				ErrVerificationFailed, rel.Tag, asset.Name)
		}
		logger.Warnf(ctx, "release %s publishes no usable signature or checksum for %s; running unverified", rel.Tag, asset.Name)
	}

	return result.Method, nil
}

// downloadCompanions fetches the verification files the verifier can use.
// Only the strongest usable companion is downloaded.
func (f *Fetcher) downloadCompanions(ctx context.Context, rel release.Release, asset release.Asset, dir string) (Companions, error) {
	var c Companions

	get := func(a release.Asset) (string, error) {
		path := filepath.Join(dir, a.Name)
		if err := f.downloader.DownloadToFile(ctx, a.DownloadURL, path); err != nil {
			return "", fmt.Errorf("download %s: %w", a.Name, err)
		}
		return path, nil
	}

	if a, ok := rel.FindAsset(BundleAssetName(asset.Name)); ok {
		path, err := get(a)
		c.BundlePath = path
		return c, err
	}

	if f.verifier.HasGPGKey() {
		for _, name := range SignatureAssetNames(asset.Name) {
			if a, ok := rel.FindAsset(name); ok {
				path, err := get(a)
				c.SignaturePath = path
				return c, err
			}
		}
	}

	for _, name := range ChecksumAssetNames(rel.Tag) {
		if a, ok := rel.FindAsset(name); ok {
			path, err := get(a)
			c.ChecksumPath = path
			return c, err
		}
	}

	return c, nil
}

// BundleAssetName returns the name of the Sigstore bundle published for asset.
func BundleAssetName(asset string) string {
	return asset + ".sigstore.json"
}

// SignatureAssetNames returns candidate OpenPGP signature names for asset, armored first.
func SignatureAssetNames(asset string) []string {
	return []string{asset + ".asc", asset + ".sig"}
}

// ChecksumAssetNames returns candidate checksum file names for a release tag.
func ChecksumAssetNames(tag string) []string {
	return []string{
		fmt.Sprintf("%s_%s_checksums.txt", release.BinaryName, tag),
		"checksums.txt",
	}
}

// SetExecutable sets file permissions to make it executable
func SetExecutable(path string) error {
	// Set permissions to 0755 (rwxr-xr-x)
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}
