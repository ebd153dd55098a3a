package config

import (
	"strconv"
	"strings"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/ghaction"
)

// Additional inputs beyond the four the action declares.
const (
	inputWorkDir         = "work-dir"
	inputVerify          = "verify"
	inputGPGKeyFile      = "gpg-key-file"
	inputSummaryFile     = "summary-file"
	inputLogLevel        = "log-level"
	inputDownloadRetries = "download-retries"
)

// FromEnv reads the configuration a GitHub Actions runner passes through the
// environment. Unset inputs stay empty.
func FromEnv(getenv ghaction.Getenv) (*Config, error) {
	cfg := &Config{
		Version:       ghaction.Input(getenv, ghaction.InputVersion),
		AccessToken:   ghaction.Input(getenv, ghaction.InputAccessToken),
		ScannerConfig: ghaction.Input(getenv, ghaction.InputConfig),
		Args:          ghaction.Input(getenv, ghaction.InputArgs),
		WorkDir:       ghaction.Input(getenv, inputWorkDir),
		Verify:        ghaction.Input(getenv, inputVerify),
		GPGKeyFile:    ghaction.Input(getenv, inputGPGKeyFile),
		SummaryFile:   ghaction.Input(getenv, inputSummaryFile),
		LogLevel:      ghaction.Input(getenv, inputLogLevel),
	}

	if getenv == nil {
		return cfg, nil
	}

	// Runner-provided API endpoint (GitHub Enterprise Server)
	cfg.APIURL = strings.TrimSpace(getenv("GITHUB_API_URL"))

	// Step debug logging
	if cfg.LogLevel == "" && getenv("RUNNER_DEBUG") == "1" {
		cfg.LogLevel = "debug"
	}

	if raw := ghaction.Input(getenv, inputDownloadRetries); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &ValidationError{Field: "download_retries", Message: "not an integer: " + raw}
		}
		cfg.DownloadRetries = &n
	}

	return cfg, nil
}
