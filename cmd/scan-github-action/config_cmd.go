package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/config"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/ghaction"
)

// newConfigCmd prints the effective settings as a Lua config file.
func newConfigCmd(stdout io.Writer, getenv ghaction.Getenv, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings as a Lua config file",
		Long: "Print the settings resolved from flags, inputs and --config-file as a Lua\n" +
			"file usable with --config-file. The access token is never written.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd.Context(), cmd, opts, getenv)
			if err != nil {
				return err
			}

			code, err := config.NewGenerator().Generate(cfg)
			if err != nil {
				return err
			}

			_, err = io.WriteString(stdout, code)
			return err
		},
	}
}
