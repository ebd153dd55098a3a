package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Config holds every setting of one wrapper run.
type Config struct {
	// Version is the semver range the release must satisfy.
	Version string
	// AccessToken authorizes the release listing and is passed to the scanner.
	AccessToken string
	// ScannerConfig is passed verbatim to the scanner.
	ScannerConfig string
	// Args is appended verbatim to the scanner command line.
	Args string

	// WorkDir receives the downloaded asset and is the scanner's working directory.
	WorkDir string
	// OSFamily and Arch override the detected platform descriptor.
	OSFamily string
	Arch     string

	// Verify is the verification policy: auto, required or none.
	Verify string
	// GPGKeyFile is an OpenPGP public keyring for detached signatures.
	GPGKeyFile string
	// Sigstore settings
	SigstoreTrustedRoot string
	SigstoreIssuer      string
	SigstoreIdentity    string

	// SummaryFile receives a YAML run summary when set.
	SummaryFile string
	// LogLevel is debug, info, warn or error.
	LogLevel string
	// APIURL is the GitHub REST API base URL.
	APIURL string
	// DownloadRetries is how often a failed download is retried; nil means unset.
	DownloadRetries *int
}

// Retries returns the configured download retries, zero when unset.
func (c *Config) Retries() int {
	if c.DownloadRetries == nil {
		return 0
	}
	return *c.DownloadRetries
}

// Merge fills every empty field of c from other.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}

	fill(&c.Version, other.Version)
	fill(&c.AccessToken, other.AccessToken)
	fill(&c.ScannerConfig, other.ScannerConfig)
	fill(&c.Args, other.Args)
	fill(&c.WorkDir, other.WorkDir)
	fill(&c.OSFamily, other.OSFamily)
	fill(&c.Arch, other.Arch)
	fill(&c.Verify, other.Verify)
	fill(&c.GPGKeyFile, other.GPGKeyFile)
	fill(&c.SigstoreTrustedRoot, other.SigstoreTrustedRoot)
	fill(&c.SigstoreIssuer, other.SigstoreIssuer)
	fill(&c.SigstoreIdentity, other.SigstoreIdentity)
	fill(&c.SummaryFile, other.SummaryFile)
	fill(&c.LogLevel, other.LogLevel)
	fill(&c.APIURL, other.APIURL)

	if c.DownloadRetries == nil && other.DownloadRetries != nil {
		n := *other.DownloadRetries
		c.DownloadRetries = &n
	}
}

// Defaults returns the configuration used for fields nobody set.
func Defaults() *Config {
	return &Config{
		Version:  DefaultVersion,
		WorkDir:  DefaultWorkDir,
		Verify:   DefaultVerify,
		LogLevel: DefaultLogLevel,
	}
}

// Validate performs basic validation on a Config.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Version) != "" {
		if _, err := semver.NewConstraint(c.Version); err != nil {
			return &ValidationError{Field: "version", Message: fmt.Sprintf("invalid version constraint %q: %v", c.Version, err)}
		}
	}

	switch strings.ToLower(c.Verify) {
	case "", "auto", "required", "none":
	default:
		return &ValidationError{Field: "verify", Message: fmt.Sprintf("unknown policy %q (want auto, required or none)", c.Verify)}
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Field: "log_level", Message: fmt.Sprintf("unknown level %q", c.LogLevel)}
	}

	if c.DownloadRetries != nil && (*c.DownloadRetries < 0 || *c.DownloadRetries > MaxDownloadRetries) {
		return &ValidationError{
			Field:   "download_retries",
			Message: fmt.Sprintf("must be between 0 and %d (got %d)", MaxDownloadRetries, *c.DownloadRetries),
		}
	}

	if c.APIURL != "" {
		if err := validateAPIURL(c.APIURL); err != nil {
			return &ValidationError{Field: "api_url", Message: err.Error()}
		}
	}

	return nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

// validateAPIURL validates the GitHub API base URL.
func validateAPIURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must use https:// or http:// scheme (got: %s)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}

	return nil
}
