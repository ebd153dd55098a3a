// Package binary downloads the selected scan-github release asset, optionally
// verifies it, and leaves it executable in the work directory.
//
// # Verification
//
// A release may publish companion assets next to each binary:
//   - "<asset>.sigstore.json": a Sigstore bundle, checked against a trusted
//     root and the expected signing certificate identity
//   - "<asset>.asc" or "<asset>.sig": an OpenPGP detached signature, checked
//     against the configured public key file
//   - "scan-github_<tag>_checksums.txt" or "checksums.txt": SHA256 sums
//
// The strongest available method is used, in the order listed. Under
// PolicyAuto a release without companions is accepted unverified; under
// PolicyRequired it is rejected; PolicyNone skips verification entirely.
//
// # Usage
//
//	fetcher := binary.NewFetcher(
//	    binary.NewDownloader(binary.WithRetries(0)),
//	    binary.NewVerifier(binary.VerifierConfig{GPGKeyFile: keyPath}),
//	    binary.PolicyAuto,
//	)
//
//	result, err := fetcher.Fetch(ctx, rel, asset, workDir)
//	if errors.Is(err, binary.ErrDownloadFailed) {
//	    return err
//	}
//	fmt.Println(result.Path, result.Verified)
//
// # Architecture
//
//   - Fetcher: download, verify, mark executable
//   - Downloader: HTTP download into a temp file renamed into place
//   - Verifier: Sigstore, OpenPGP and SHA256 checks
package binary
