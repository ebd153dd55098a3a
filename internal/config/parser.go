package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/logger"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/platform"
)

// Parser represents a Lua config parser with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector leaves the platform table undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile reads and parses the Lua config file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if info.Size() > MaxConfigSize {
		return nil, &ParseError{
			Message: "config file too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", info.Size(), MaxConfigSize),
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if findings := DetectSensitiveData(string(content)); len(findings) > 0 {
		logger.Warnf(ctx, "%s", FormatSensitiveDataWarning(path, findings))
	}

	return p.ParseString(ctx, string(content))
}

// ParseString parses a Lua config from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	if len(luaCode) > MaxConfigSize {
		return nil, &ParseError{
			Message: "config too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", len(luaCode), MaxConfigSize),
		}
	}

	L := newSandboxedVM(ctx)
	defer L.Close()

	// Detect platform and inject platform table
	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	// Execute Lua code
	if err := L.DoString(luaCode); err != nil {
		if ctx != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("config evaluation cancelled: %w", ctx.Err())
		}
		return nil, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
		}
	}

	return extractConfig(L)
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig extracts the config from the global "action" table.
func extractConfig(L *lua.LState) (*Config, error) {
	actionVal := L.GetGlobal(luaGlobalAction)
	if actionVal.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: fmt.Sprintf("missing or invalid '%s' table", luaGlobalAction),
			Detail:  fmt.Sprintf("expected table, got %s", actionVal.Type()),
		}
	}
	table := actionVal.(*lua.LTable)

	for _, field := range []string{luaFieldAccessToken, luaFieldAccessTokenHyphen} {
		if table.RawGetString(field) != lua.LNil {
			return nil, &ParseError{
				Message: "access token in config file",
				Detail:  fmt.Sprintf("'%s' is not read from config files; pass the github-access-token input", field),
			}
		}
	}

	cfg := &Config{}
	fields := []struct {
		name string
		dst  *string
	}{
		{luaFieldVersion, &cfg.Version},
		{luaFieldConfig, &cfg.ScannerConfig},
		{luaFieldArgs, &cfg.Args},
		{luaFieldWorkDir, &cfg.WorkDir},
		{luaFieldVerify, &cfg.Verify},
		{luaFieldGPGKeyFile, &cfg.GPGKeyFile},
		{luaFieldSummaryFile, &cfg.SummaryFile},
		{luaFieldLogLevel, &cfg.LogLevel},
		{luaFieldAPIURL, &cfg.APIURL},
	}
	for _, f := range fields {
		v, err := stringField(table, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if v := table.RawGetString(luaFieldDownloadRetries); v != lua.LNil {
		n, ok := v.(lua.LNumber)
		if !ok || float64(n) != float64(int(n)) {
			return nil, fieldTypeError(luaFieldDownloadRetries, "integer", v)
		}
		retries := int(n)
		cfg.DownloadRetries = &retries
	}

	if err := extractPlatform(table, cfg); err != nil {
		return nil, err
	}

	if err := extractSigstore(table, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}

	return cfg, nil
}

// extractPlatform reads the platform override sub-table.
func extractPlatform(table *lua.LTable, cfg *Config) error {
	sub, err := tableField(table, luaFieldPlatform)
	if err != nil || sub == nil {
		return err
	}

	if cfg.OSFamily, err = stringField(sub, luaFieldOSFamily); err != nil {
		return err
	}
	cfg.Arch, err = stringField(sub, luaFieldArch)
	return err
}

// extractSigstore reads the sigstore sub-table.
func extractSigstore(table *lua.LTable, cfg *Config) error {
	sub, err := tableField(table, luaFieldSigstore)
	if err != nil || sub == nil {
		return err
	}

	if cfg.SigstoreTrustedRoot, err = stringField(sub, luaFieldTrustedRoot); err != nil {
		return err
	}
	if cfg.SigstoreIssuer, err = stringField(sub, luaFieldIssuer); err != nil {
		return err
	}
	cfg.SigstoreIdentity, err = stringField(sub, luaFieldIdentity)
	return err
}

// stringField returns a string field; nil (from platform conditionals) yields "".
func stringField(table *lua.LTable, name string) (string, error) {
	v := table.RawGetString(name)
	switch v.Type() {
	case lua.LTNil:
		return "", nil
	case lua.LTString:
		return v.String(), nil
	default:
		return "", fieldTypeError(name, "string", v)
	}
}

// tableField returns a sub-table field, or nil when absent.
func tableField(table *lua.LTable, name string) (*lua.LTable, error) {
	v := table.RawGetString(name)
	switch t := v.(type) {
	case *lua.LTable:
		return t, nil
	default:
		if v == lua.LNil {
			return nil, nil
		}
		return nil, fieldTypeError(name, "table", v)
	}
}

func fieldTypeError(name, want string, got lua.LValue) error {
	return &ParseError{
		Message: fmt.Sprintf("invalid '%s' field", name),
		Detail:  fmt.Sprintf("expected %s, got %s", want, got.Type()),
	}
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
