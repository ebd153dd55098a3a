package config

import (
	"bytes"
	"fmt"
	"strings"
)

// Generator generates Lua configuration code from a Config.
type Generator struct {
	indent string // Indentation string (default: two spaces)
}

// NewGenerator creates a new Lua config generator.
func NewGenerator() *Generator {
	return &Generator{
		indent: "  ",
	}
}

// Generate generates an "action" table from cfg. The access token is never
// written. The output parses back into an equal Config.
func (g *Generator) Generate(cfg *Config) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("nil config")
	}

	var buf bytes.Buffer

	buf.WriteString("-- scan-github action configuration\n")
	buf.WriteString("-- The access token is read from the github-access-token input only.\n\n")
	buf.WriteString(luaGlobalAction)
	buf.WriteString(" = {\n")

	g.writeString(&buf, 1, luaFieldVersion, cfg.Version)
	g.writeString(&buf, 1, luaFieldArgs, cfg.Args)
	g.writeString(&buf, 1, luaFieldConfig, cfg.ScannerConfig)
	g.writeString(&buf, 1, luaFieldWorkDir, cfg.WorkDir)
	g.writeString(&buf, 1, luaFieldVerify, cfg.Verify)
	g.writeString(&buf, 1, luaFieldGPGKeyFile, cfg.GPGKeyFile)
	g.writeString(&buf, 1, luaFieldSummaryFile, cfg.SummaryFile)
	g.writeString(&buf, 1, luaFieldLogLevel, cfg.LogLevel)
	g.writeString(&buf, 1, luaFieldAPIURL, cfg.APIURL)

	if cfg.DownloadRetries != nil {
		buf.WriteString(g.indent)
		fmt.Fprintf(&buf, "%s = %d,\n", luaFieldDownloadRetries, *cfg.DownloadRetries)
	}

	if cfg.OSFamily != "" || cfg.Arch != "" {
		g.openTable(&buf, luaFieldPlatform)
		g.writeString(&buf, 2, luaFieldOSFamily, cfg.OSFamily)
		g.writeString(&buf, 2, luaFieldArch, cfg.Arch)
		g.closeTable(&buf)
	}

	if cfg.SigstoreTrustedRoot != "" || cfg.SigstoreIssuer != "" || cfg.SigstoreIdentity != "" {
		g.openTable(&buf, luaFieldSigstore)
		g.writeString(&buf, 2, luaFieldTrustedRoot, cfg.SigstoreTrustedRoot)
		g.writeString(&buf, 2, luaFieldIssuer, cfg.SigstoreIssuer)
		g.writeString(&buf, 2, luaFieldIdentity, cfg.SigstoreIdentity)
		g.closeTable(&buf)
	}

	buf.WriteString("}\n")

	return buf.String(), nil
}

// writeString writes `key = "value",` unless value is empty.
func (g *Generator) writeString(buf *bytes.Buffer, depth int, key, value string) {
	if value == "" {
		return
	}
	buf.WriteString(strings.Repeat(g.indent, depth))
	buf.WriteString(key)
	buf.WriteString(" = ")
	buf.WriteString(g.quoteLuaString(value))
	buf.WriteString(",\n")
}

func (g *Generator) openTable(buf *bytes.Buffer, key string) {
	buf.WriteString(g.indent)
	buf.WriteString(key)
	buf.WriteString(" = {\n")
}

func (g *Generator) closeTable(buf *bytes.Buffer) {
	buf.WriteString(g.indent)
	buf.WriteString("},\n")
}

// quoteLuaString quotes a string for Lua, handling special characters.
func (g *Generator) quoteLuaString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				// Decimal escapes must be three digits so a following digit is not absorbed.
				fmt.Fprintf(&b, `\%03d`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
