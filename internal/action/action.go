// Package action runs one scan: it resolves the requested release, downloads
// the asset for the current platform, runs it and reports its results.
package action

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/binary"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/catalog"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/ghaction"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/logger"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/platform"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/release"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/report"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/runner"
)

// Catalog lists the releases of a repository.
type Catalog interface {
	ListReleases(ctx context.Context, owner, repo string) ([]release.Release, error)
}

// Fetcher obtains a release asset and makes it executable inside dir.
type Fetcher interface {
	Fetch(ctx context.Context, rel release.Release, asset release.Asset, dir string) (*binary.FetchResult, error)
}

// ProcessHost runs a command to completion.
type ProcessHost interface {
	Spawn(ctx context.Context, cmd runner.Command) (*runner.Result, error)
}

// Inputs are the values of one run.
type Inputs struct {
	// Constraint is the semver range; empty selects the newest release.
	Constraint string
	// AccessToken is passed to the scanner and redacted from diagnostics.
	AccessToken string
	// ScannerConfig is passed to the scanner verbatim.
	ScannerConfig string
	// Args is appended to the command line verbatim.
	Args string
	// WorkDir receives the asset; empty means the current directory.
	WorkDir string
	// Platform selects the asset and the command line form.
	Platform platform.Descriptor
	// SummaryFile receives a YAML run summary when set.
	SummaryFile string
}

// Result is the outcome of a run.
type Result struct {
	Release  release.Release
	Asset    release.Asset
	Fetch    *binary.FetchResult
	Process  *runner.Result
	ExitCode int
}

// Orchestrator wires the catalog, fetcher and process host together.
type Orchestrator struct {
	catalog Catalog
	fetcher Fetcher
	host    ProcessHost
	outputs *ghaction.OutputWriter
	stdout  io.Writer
	stderr  io.Writer
	owner   string
	repo    string
	now     func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOutputs sets the writer for step outputs. Without one no outputs are set.
func WithOutputs(w *ghaction.OutputWriter) Option {
	return func(o *Orchestrator) {
		o.outputs = w
	}
}

// WithStreams sets where the scanner's output is relayed.
func WithStreams(stdout, stderr io.Writer) Option {
	return func(o *Orchestrator) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithRepository overrides the repository releases are listed from.
func WithRepository(owner, repo string) Option {
	return func(o *Orchestrator) {
		o.owner = owner
		o.repo = repo
	}
}

// WithClock overrides the time source used for summary timings.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an Orchestrator.
func New(c Catalog, f Fetcher, h ProcessHost, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog: c,
		fetcher: f,
		host:    h,
		stdout:  io.Discard,
		stderr:  io.Discard,
		owner:   catalog.DefaultOwner,
		repo:    catalog.DefaultRepo,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs one scan.
//
// A failure before the scanner starts is printed to stderr and returned with
// exit code 1; no outputs are set in that case. Otherwise the scanner's
// output is relayed, the outputs are set and ExitCode is the scanner's status,
// or 1 when it produced none.
func (o *Orchestrator) Run(ctx context.Context, in Inputs) (Result, error) {
	start := o.now()

	constraint := strings.TrimSpace(in.Constraint)
	if constraint == "" {
		constraint = "*"
	}
	dir := in.WorkDir
	if dir == "" {
		dir = "."
	}

	ctx = logger.WithKV(logger.WithName(ctx, "action"), "constraint", constraint, "platform", in.Platform.String())

	summary := &report.Summary{
		Constraint: constraint,
		Platform:   in.Platform.String(),
		StartedAt:  start,
	}

	result := Result{ExitCode: 1}

	// Resolve release
	step := o.now()
	releases, err := o.catalog.ListReleases(ctx, o.owner, o.repo)
	summary.Timings.Catalog = o.now().Sub(step)
	if err != nil {
		return result, o.fail(ctx, in, summary, start, "Error downloading release", err)
	}
	logger.DebugKV(ctx, "listed releases", "count", len(releases))

	rel, err := release.Resolve(releases, constraint)
	if err != nil {
		return result, o.fail(ctx, in, summary, start, "Error downloading release", err)
	}
	result.Release = rel
	summary.Release = rel.Tag
	summary.ReleaseName = rel.DisplayName()

	fmt.Fprintf(o.stdout, "Using release %s\n", rel.DisplayName())
	logger.InfoKV(ctx, "release resolved", "tag", rel.Tag, "prerelease", rel.Prerelease)

	asset, err := release.SelectAsset(rel, in.Platform)
	if err != nil {
		return result, o.fail(ctx, in, summary, start, "Error downloading release", err)
	}
	result.Asset = asset
	summary.Asset = asset.Name

	// Download
	step = o.now()
	fetched, err := o.fetcher.Fetch(ctx, rel, asset, dir)
	summary.Timings.Download = o.now().Sub(step)
	if err != nil {
		return result, o.fail(ctx, in, summary, start, "Error downloading release", err)
	}
	result.Fetch = fetched
	summary.Verification = fetched.Verified.String()
	logger.InfoKV(ctx, "asset ready", "asset", asset.Name, "path", fetched.Path, "verification", fetched.Verified.String())

	// Run scanner
	cmd := runner.Command{
		Executable: asset.Name,
		Args:       in.Args,
		Env: []string{
			runner.EnvPair(runner.EnvAccessToken, in.AccessToken),
			runner.EnvPair(runner.EnvScannerConfig, in.ScannerConfig),
		},
		Dir:      dir,
		OSFamily: in.Platform.OSFamily,
	}
	logger.DebugKV(ctx, "starting scanner", "command", runner.Redact(cmd.Line(), in.AccessToken))

	step = o.now()
	proc, err := o.host.Spawn(ctx, cmd)
	summary.Timings.Scan = o.now().Sub(step)
	if err != nil {
		return result, o.fail(ctx, in, summary, start, "Error spawning child process", err)
	}
	result.Process = proc
	result.ExitCode = proc.ExitCode()

	if proc.Status == nil {
		logger.Warnf(ctx, "scanner exited without a status, reporting %d", result.ExitCode)
	}

	// Relay output
	fmt.Fprintln(o.stdout, proc.Stdout)
	fmt.Fprintln(o.stderr, proc.Stderr)

	if o.outputs != nil {
		err := o.outputs.SetAll(
			ghaction.Output{Name: ghaction.OutputExitCode, Value: strconv.Itoa(result.ExitCode)},
			ghaction.Output{Name: ghaction.OutputStdout, Value: proc.Stdout},
			ghaction.Output{Name: ghaction.OutputErrorOutput, Value: proc.Stderr},
		)
		if err != nil {
			logger.Errorf(ctx, "set step outputs: %v", err)
		}
	}

	summary.ExitCode = result.ExitCode
	o.saveSummary(ctx, in.SummaryFile, summary, start)

	logger.InfoKV(ctx, "scan finished", "exit_code", result.ExitCode, "duration", proc.Duration)

	return result, nil
}

// fail reports a run that ended before the scanner produced a status.
func (o *Orchestrator) fail(ctx context.Context, in Inputs, summary *report.Summary, start time.Time, prefix string, err error) error {
	err = runner.NewRedactedError(err, in.AccessToken)
	kind := Kind(err)

	fmt.Fprintf(o.stderr, "%s: %v\n", prefix, err)
	logger.ErrorKV(ctx, "run failed", "kind", kind)
	if catalog.IsRateLimitError(err) && in.AccessToken == "" {
		logger.WarnKV(ctx, "GitHub API rate limit exhausted", "hint", "pass github-access-token to raise the limit")
	}

	summary.ExitCode = 1
	summary.Error = &report.Failure{Kind: kind, Message: err.Error()}
	o.saveSummary(ctx, in.SummaryFile, summary, start)

	return err
}

func (o *Orchestrator) saveSummary(ctx context.Context, path string, summary *report.Summary, start time.Time) {
	if path == "" {
		return
	}

	summary.Timings.Total = o.now().Sub(start)
	if err := report.Save(path, summary); err != nil {
		logger.Warnf(ctx, "write run summary: %v", err)
		return
	}
	logger.DebugKV(ctx, "run summary written", "path", path)
}
