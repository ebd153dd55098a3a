package config

import (
	"fmt"
	"regexp"
	"strings"
)

// SensitivePattern represents a pattern that might indicate sensitive data
type SensitivePattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
}

var sensitivePatterns = []SensitivePattern{
	{
		Name:        "GitHub Token",
		Pattern:     regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36,}`),
		Description: "Potential GitHub token detected",
	},
	{
		Name:        "GitHub Fine-Grained Token",
		Pattern:     regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{22,}`),
		Description: "Potential GitHub fine-grained token detected",
	},
	{
		Name:        "Token",
		Pattern:     regexp.MustCompile(`(?i)(token|auth[_-]?token|access[_-]?token|bearer)\s*=\s*['"][a-zA-Z0-9_-]{15,}['"]`),
		Description: "Potential authentication token detected",
	},
	{
		Name:        "Secret",
		Pattern:     regexp.MustCompile(`(?i)(secret|secret[_-]?key|private[_-]?key)\s*=\s*['"][a-zA-Z0-9_-]{15,}['"]`),
		Description: "Potential secret key detected",
	},
	{
		Name:        "AWS Key",
		Pattern:     regexp.MustCompile(`(?i)(aws[_-]?access[_-]?key[_-]?id|aws[_-]?secret[_-]?access[_-]?key)\s*=\s*['"][A-Z0-9]{16,}['"]`),
		Description: "Potential AWS credentials detected",
	},
}

// SensitiveDataFinding represents a detected sensitive data instance
type SensitiveDataFinding struct {
	PatternName string
	Description string
	Line        int
	Preview     string // Redacted preview of the match
}

// DetectSensitiveData scans configuration content for potential sensitive data.
// Each line is reported at most once, for the first pattern it matches.
func DetectSensitiveData(content string) []SensitiveDataFinding {
	var findings []SensitiveDataFinding
	lines := strings.Split(content, "\n")

	for lineNum, line := range lines {
		for _, pattern := range sensitivePatterns {
			if !pattern.Pattern.MatchString(line) {
				continue
			}
			findings = append(findings, SensitiveDataFinding{
				PatternName: pattern.Name,
				Description: pattern.Description,
				Line:        lineNum + 1,
				Preview:     redactSensitiveValue(line),
			})
			break
		}
	}

	return findings
}

// redactSensitiveValue creates a redacted preview of a line with sensitive data
func redactSensitiveValue(line string) string {
	eqIdx := strings.Index(line, "=")
	if eqIdx == -1 {
		return "[REDACTED]"
	}

	keyPart := strings.TrimSpace(line[:eqIdx])
	return keyPart + " = [REDACTED]"
}

// FormatSensitiveDataWarning formats findings into a single warning message.
func FormatSensitiveDataWarning(path string, findings []SensitiveDataFinding) string {
	if len(findings) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "possible secrets in config file %s:", path)
	for _, finding := range findings {
		fmt.Fprintf(&sb, " line %d: %s (%s);", finding.Line, finding.Description, finding.Preview)
	}
	sb.WriteString(" pass the token through the github-access-token input instead")

	return sb.String()
}
