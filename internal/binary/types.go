package binary

import (
	"fmt"
	"strings"
	"time"
)

// VerificationMethod indicates how a binary was verified
type VerificationMethod int

const (
	// VerificationNone indicates the binary was not verified
	VerificationNone VerificationMethod = iota
	// VerificationSHA256 indicates SHA256 checksum verification was used
	VerificationSHA256
	// VerificationGPG indicates OpenPGP signature verification was used
	VerificationGPG
	// VerificationSigstore indicates Sigstore bundle verification was used
	VerificationSigstore
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationSigstore:
		return "Sigstore"
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// Policy controls whether a downloaded asset must be verified.
type Policy string

const (
	// PolicyAuto verifies with the strongest published method, if any.
	PolicyAuto Policy = "auto"
	// PolicyRequired fails when no verification method applies.
	PolicyRequired Policy = "required"
	// PolicyNone skips verification.
	PolicyNone Policy = "none"
)

// ParsePolicy converts a user-supplied string into a Policy.
// The empty string selects PolicyAuto.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAuto:
		return PolicyAuto, nil
	case PolicyRequired:
		return PolicyRequired, nil
	case PolicyNone:
		return PolicyNone, nil
	default:
		return "", fmt.Errorf("unknown verification policy %q (want auto, required or none)", s)
	}
}

// FetchResult contains information about a downloaded asset
type FetchResult struct {
	Asset        string
	Path         string
	Size         int64
	Verified     VerificationMethod
	DownloadTime time.Duration
}

// VerificationResult contains the outcome of a verification attempt
type VerificationResult struct {
	Method  VerificationMethod
	Success bool
	Error   error
}

// Companions holds local paths of downloaded verification files.
// Empty fields mean the release does not publish that file.
type Companions struct {
	BundlePath    string
	SignaturePath string
	ChecksumPath  string
}
