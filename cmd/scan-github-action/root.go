package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/action"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/binary"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/catalog"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/config"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/ghaction"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/logger"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/platform"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/runner"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/version"
)

// inputConfigFile names the input holding the Lua config path.
const inputConfigFile = "config-file"

//nolint:gochecknoglobals // Replaced in tests.
var newDetector = platform.NewDetector

// cliOptions holds the values of the command-line flags.
type cliOptions struct {
	cfg        config.Config
	retries    int
	configFile string
}

// execute runs the CLI and returns the process exit status.
func execute(args []string, stdout, stderr io.Writer, getenv ghaction.Getenv) int {
	code := 0
	root := newRootCmd(stdout, stderr, getenv, &code)
	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", config.FormatError(err, false))
		return 1
	}
	return code
}

// newRootCmd builds the command tree. The scan status is stored in code.
func newRootCmd(stdout, stderr io.Writer, getenv ghaction.Getenv, code *int) *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "scan-github-action",
		Short:         "Download and run the scan-github release matching a version constraint",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := resolveConfig(ctx, cmd, opts, getenv)
			if err != nil {
				return err
			}

			*code = runScan(ctx, cfg, stdout, stderr, getenv)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfg.Version, "version", "", "semver range the release must satisfy (default \"*\")")
	flags.StringVar(&opts.cfg.AccessToken, "github-access-token", "", "token used to list releases, passed to the scanner")
	flags.StringVar(&opts.cfg.ScannerConfig, "config", "", "configuration passed to the scanner")
	flags.StringVar(&opts.cfg.Args, "args", "", "arguments appended to the scanner command line")
	flags.StringVar(&opts.configFile, "config-file", "", "Lua file declaring an action table")
	flags.StringVar(&opts.cfg.WorkDir, "work-dir", "", "directory the scanner is downloaded to and run in (default \".\")")
	flags.StringVar(&opts.cfg.OSFamily, "os-family", "", "override the detected OS family (Linux, Darwin, Windows_NT)")
	flags.StringVar(&opts.cfg.Arch, "arch", "", "override the detected architecture (x64, arm64, ia32, ...)")
	flags.StringVar(&opts.cfg.Verify, "verify", "", "verification policy: auto, required or none (default \"auto\")")
	flags.StringVar(&opts.cfg.GPGKeyFile, "gpg-key-file", "", "OpenPGP public key for detached signatures")
	flags.StringVar(&opts.cfg.SigstoreTrustedRoot, "sigstore-trusted-root", "", "Sigstore trusted root JSON (default: fetched over TUF)")
	flags.StringVar(&opts.cfg.SigstoreIssuer, "sigstore-issuer", "", "expected OIDC issuer of the signing certificate")
	flags.StringVar(&opts.cfg.SigstoreIdentity, "sigstore-identity", "", "regular expression the certificate identity must match")
	flags.StringVar(&opts.cfg.SummaryFile, "summary-file", "", "write a YAML run summary to this path")
	flags.StringVar(&opts.cfg.LogLevel, "log-level", "", "log level: debug, info, warn or error (default \"info\")")
	flags.StringVar(&opts.cfg.APIURL, "api-url", "", "GitHub REST API base URL")
	flags.IntVar(&opts.retries, "download-retries", 0, "retry a failed download this many times")

	root.AddCommand(newConfigCmd(stdout, getenv, opts))
	version.AttachCobraVersionCommand(root)

	return root
}

// resolveConfig merges flags, action inputs, the Lua file and defaults.
func resolveConfig(ctx context.Context, cmd *cobra.Command, opts *cliOptions, getenv ghaction.Getenv) (*config.Config, error) {
	flagCfg := opts.cfg
	if cmd.Flags().Changed("download-retries") {
		n := opts.retries
		flagCfg.DownloadRetries = &n
	}

	envCfg, err := config.FromEnv(getenv)
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{}
	cfg.Merge(&flagCfg)
	cfg.Merge(envCfg)

	// Log level is needed before the Lua file is read
	applyLogLevel(cfg.LogLevel)

	path := opts.configFile
	if path == "" {
		path = ghaction.Input(getenv, inputConfigFile)
	}
	if path != "" {
		parser := config.NewParser(newDetector())
		fileCfg, err := parser.ParseFile(ctx, path)
		if err != nil {
			return nil, err
		}
		cfg.Merge(fileCfg)
		logger.Debugf(ctx, "loaded config file %s", path)
	}

	cfg.Merge(config.Defaults())
	applyLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyLogLevel(s string) {
	if level, ok := logger.ParseLogLevel(s); ok {
		logger.SetLevel(level)
	}
}

// runScan runs one scan with cfg and returns the exit status.
func runScan(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, getenv ghaction.Getenv) int {
	desc, err := detectPlatform(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error downloading release: %v\n", err)
		return 1
	}

	policy, err := binary.ParsePolicy(cfg.Verify)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var catalogOpts []catalog.Option
	if cfg.APIURL != "" {
		catalogOpts = append(catalogOpts, catalog.WithBaseURL(cfg.APIURL))
	}

	verifier := binary.NewVerifier(binary.VerifierConfig{
		GPGKeyFile:          cfg.GPGKeyFile,
		SigstoreTrustedRoot: cfg.SigstoreTrustedRoot,
		SigstoreIssuer:      cfg.SigstoreIssuer,
		SigstoreIdentity:    cfg.SigstoreIdentity,
	})

	orch := action.New(
		catalog.NewClient(cfg.AccessToken, catalogOpts...),
		binary.NewFetcher(binary.NewDownloader(binary.WithRetries(cfg.Retries())), verifier, policy),
		runner.NewShellHost(),
		action.WithStreams(stdout, stderr),
		action.WithOutputs(stepOutputs(getenv, stdout)),
	)

	res, err := orch.Run(ctx, action.Inputs{
		Constraint:    cfg.Version,
		AccessToken:   cfg.AccessToken,
		ScannerConfig: cfg.ScannerConfig,
		Args:          cfg.Args,
		WorkDir:       cfg.WorkDir,
		Platform:      desc,
		SummaryFile:   cfg.SummaryFile,
	})
	if err != nil && errors.Is(err, context.Canceled) {
		logger.Warnf(ctx, "run cancelled")
	}

	return res.ExitCode
}

// stepOutputs returns the writer for step outputs, or nil outside a workflow
// run where neither $GITHUB_OUTPUT nor the workflow command is understood.
func stepOutputs(getenv ghaction.Getenv, stdout io.Writer) *ghaction.OutputWriter {
	if getenv(ghaction.EnvOutputFile) == "" && !ghaction.Running(getenv) {
		return nil
	}
	return ghaction.NewOutputWriterFromEnv(getenv, stdout)
}

// detectPlatform returns the descriptor of the host with cfg's overrides applied.
func detectPlatform(ctx context.Context, cfg *config.Config) (platform.Descriptor, error) {
	var desc platform.Descriptor
	if cfg.OSFamily == "" || cfg.Arch == "" {
		info, err := newDetector().Detect(ctx)
		if err != nil {
			return desc, err
		}
		desc = info.Descriptor()
		if d := info.GetDistro(); d != nil {
			logger.DebugKV(ctx, "detected distribution", "id", d.ID, "family", d.Family, "version", d.Version)
		}
	}

	if cfg.OSFamily != "" {
		desc.OSFamily = cfg.OSFamily
	}
	if cfg.Arch != "" {
		desc.Arch = cfg.Arch
	}

	return desc, nil
}
