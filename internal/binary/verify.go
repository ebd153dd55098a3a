package binary

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/sigstore/sigstore-go/pkg/bundle"
	"github.com/sigstore/sigstore-go/pkg/root"
	"github.com/sigstore/sigstore-go/pkg/verify"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/logger"
)

const (
	// DefaultSigstoreIssuer is the OIDC issuer of GitHub Actions workflow identities.
	DefaultSigstoreIssuer = "https://token.actions.githubusercontent.com"
	// DefaultSigstoreIdentity matches certificates issued to the publisher's release workflows.
	DefaultSigstoreIdentity = `^https://github\.com/Enterprise-CMCS/mac-fc-scan-github-releases/`
)

// VerifierConfig configures the verification methods.
type VerifierConfig struct {
	// GPGKeyFile is an armored or binary OpenPGP public keyring.
	// Signatures are ignored when it is empty.
	GPGKeyFile string
	// SigstoreTrustedRoot is a trusted_root.json path. When empty the
	// public-good root is fetched through TUF.
	SigstoreTrustedRoot string
	// SigstoreIssuer is the expected certificate OIDC issuer.
	SigstoreIssuer string
	// SigstoreIdentity is a regular expression the certificate SAN must match.
	SigstoreIdentity string
}

// Verifier handles cryptographic verification of binaries
type Verifier struct {
	config VerifierConfig

	// loadTrustedMaterial is replaced in tests.
	loadTrustedMaterial func() (root.TrustedMaterial, error)
}

// NewVerifier creates a new verifier
func NewVerifier(config VerifierConfig) *Verifier {
	if config.SigstoreIssuer == "" {
		config.SigstoreIssuer = DefaultSigstoreIssuer
	}
	if config.SigstoreIdentity == "" {
		config.SigstoreIdentity = DefaultSigstoreIdentity
	}

	v := &Verifier{config: config}
	v.loadTrustedMaterial = v.defaultTrustedMaterial
	return v
}

// HasGPGKey reports whether OpenPGP signatures can be checked.
func (v *Verifier) HasGPGKey() bool {
	return v.config.GPGKeyFile != ""
}

// VerifyFile verifies binaryPath with the strongest method the companions allow:
// Sigstore bundle, then OpenPGP signature, then SHA256 checksum.
// It returns a VerificationNone result when no method applies.
func (v *Verifier) VerifyFile(ctx context.Context, binaryPath, assetName string, c Companions) (*VerificationResult, error) {
	var (
		result *VerificationResult
		err    error
	)

	switch {
	case c.BundlePath != "":
		result, err = v.verifySigstore(binaryPath, c.BundlePath)
	case c.SignaturePath != "" && v.HasGPGKey():
		result, err = v.verifyGPG(binaryPath, c.SignaturePath)
	case c.ChecksumPath != "":
		result, err = v.verifySHA256(binaryPath, c.ChecksumPath, assetName)
	default:
		return &VerificationResult{Method: VerificationNone, Success: false}, nil
	}

	if err != nil {
		return result, fmt.Errorf("%s verification of %s: %w", result.Method, assetName, err)
	}

	logger.Debugf(ctx, "verified %s with %s", assetName, result.Method)

	return result, nil
}

// verifySigstore checks a Sigstore bundle against the artifact
func (v *Verifier) verifySigstore(binaryPath, bundlePath string) (*VerificationResult, error) {
	fail := func(err error) (*VerificationResult, error) {
		return &VerificationResult{Method: VerificationSigstore, Success: false, Error: err}, err
	}

	b, err := bundle.LoadJSONFromPath(bundlePath)
	if err != nil {
		return fail(fmt.Errorf("load bundle: %w", err))
	}

	trusted, err := v.loadTrustedMaterial()
	if err != nil {
		return fail(fmt.Errorf("load trusted root: %w", err))
	}

	sev, err := verify.NewVerifier(trusted,
		verify.WithSignedCertificateTimestamps(1),
		verify.WithTransparencyLog(1),
		verify.WithObserverTimestamps(1),
	)
	if err != nil {
		return fail(fmt.Errorf("create verifier: %w", err))
	}

	identity, err := verify.NewShortCertificateIdentity(v.config.SigstoreIssuer, "", "", v.config.SigstoreIdentity)
	if err != nil {
		return fail(fmt.Errorf("certificate identity: %w", err))
	}

	artifact, err := os.Open(binaryPath)
	if err != nil {
		return fail(fmt.Errorf("open binary: %w", err))
	}
	defer artifact.Close()

	if _, err := sev.Verify(b, verify.NewPolicy(verify.WithArtifact(artifact), verify.WithCertificateIdentity(identity))); err != nil {
		return fail(fmt.Errorf("verify bundle: %w", err))
	}

	return &VerificationResult{Method: VerificationSigstore, Success: true}, nil
}

// defaultTrustedMaterial loads the configured trusted root or fetches the public-good one.
func (v *Verifier) defaultTrustedMaterial() (root.TrustedMaterial, error) {
	var (
		tr  *root.TrustedRoot
		err error
	)
	if v.config.SigstoreTrustedRoot != "" {
		tr, err = root.NewTrustedRootFromPath(v.config.SigstoreTrustedRoot)
	} else {
		tr, err = root.FetchTrustedRoot()
	}
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// verifyGPG verifies a file using an OpenPGP detached signature
func (v *Verifier) verifyGPG(binaryPath, signaturePath string) (*VerificationResult, error) {
	fail := func(err error) (*VerificationResult, error) {
		return &VerificationResult{Method: VerificationGPG, Success: false, Error: err}, err
	}

	keyring, err := loadKeyring(v.config.GPGKeyFile)
	if err != nil {
		return fail(fmt.Errorf("load keyring: %w", err))
	}

	binaryFile, err := os.Open(binaryPath)
	if err != nil {
		return fail(fmt.Errorf("open binary: %w", err))
	}
	defer binaryFile.Close()

	sigFile, err := os.Open(signaturePath)
	if err != nil {
		return fail(fmt.Errorf("open signature: %w", err))
	}
	defer sigFile.Close()

	// Verify signature (try armored first)
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, binaryFile, sigFile, nil)
	if err != nil {
		// Try non-armored signature
		if _, serr := binaryFile.Seek(0, io.SeekStart); serr != nil {
			return fail(fmt.Errorf("rewind binary: %w", serr))
		}
		if _, serr := sigFile.Seek(0, io.SeekStart); serr != nil {
			return fail(fmt.Errorf("rewind signature: %w", serr))
		}
		_, err = openpgp.CheckDetachedSignature(keyring, binaryFile, sigFile, nil)
	}
	if err != nil {
		return fail(fmt.Errorf("verify signature: %w", err))
	}

	return &VerificationResult{Method: VerificationGPG, Success: true}, nil
}

// verifySHA256 verifies a file using SHA256 checksum
func (v *Verifier) verifySHA256(binaryPath, checksumPath, assetName string) (*VerificationResult, error) {
	fail := func(err error) (*VerificationResult, error) {
		return &VerificationResult{Method: VerificationSHA256, Success: false, Error: err}, err
	}

	actualChecksum, err := calculateSHA256(binaryPath)
	if err != nil {
		return fail(fmt.Errorf("calculate checksum: %w", err))
	}

	expectedChecksum, err := findChecksum(checksumPath, assetName)
	if err != nil {
		return fail(fmt.Errorf("find checksum: %w", err))
	}

	// Compare checksums (case-insensitive)
	if !strings.EqualFold(actualChecksum, expectedChecksum) {
		return fail(fmt.Errorf("checksum mismatch: actual %s, expected %s", actualChecksum, expectedChecksum))
	}

	return &VerificationResult{Method: VerificationSHA256, Success: true}, nil
}

// loadKeyring loads an OpenPGP keyring from path
func loadKeyring(path string) (openpgp.EntityList, error) {
	keyringFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		// Try reading as non-armored keyring
		if _, serr := keyringFile.Seek(0, io.SeekStart); serr != nil {
			return nil, fmt.Errorf("rewind keyring: %w", serr)
		}
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum finds the checksum for a specific filename in a checksum file
// Format: "abc123def456  filename" (a leading "*" marks binary mode)
func findChecksum(checksumPath, filename string) (string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		checksumFilename := strings.TrimPrefix(parts[1], "*")
		if checksumFilename == filename || filepath.Base(checksumFilename) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	return "", fmt.Errorf("checksum not found for %s", filename)
}
