// Package cmd provides the CLI commands for buildnum.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
	"github.com/MyCarrier-DevOps/buildnum/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/buildnum/internal/infrastructure/update"
)

// Logger defines the logging interface used by the commands.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// HookInstaller manages the repository's git hooks.
type HookInstaller interface {
	Install(ctx context.Context) error
	Uninstall(ctx context.Context) error
}

// Updater checks for and applies new releases of the binary.
type Updater interface {
	Check(ctx context.Context) (*update.CheckResult, error)
	Apply(ctx context.Context) error
}

// Dependencies holds all injectable dependencies for the commands.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance.
	LoggerFactory func() Logger

	// ConfigLoader loads configuration for the repository rooted at root.
	ConfigLoader func(root string) (*config.Config, error)

	// GatewayFactory creates a RepositoryGateway for the given path.
	GatewayFactory func(path string, timeout time.Duration, log Logger) (domain.RepositoryGateway, error)

	// AllocatorFactory creates an Allocator over the gateway.
	AllocatorFactory func(gw domain.RepositoryGateway, cfg *config.Config, log Logger) domain.Allocator

	// ResolverFactory creates an OriginResolver over the gateway.
	ResolverFactory func(gw domain.RepositoryGateway, cfg *config.Config, log Logger) domain.OriginResolver

	// PatcherFactory creates a WorkflowPatcher rooted at the worktree.
	PatcherFactory func(root string, cfg *config.Config, log Logger) domain.WorkflowPatcher

	// WriterFactory creates the output writer.
	WriterFactory func(quiet bool) domain.OutputWriter

	// HookInstallerFactory creates a HookInstaller rooted at the worktree.
	HookInstallerFactory func(root string, log Logger) HookInstaller

	// UpdaterFactory creates an Updater from configuration.
	UpdaterFactory func(cfg *config.Config, log Logger) Updater

	// Confirm asks the user a yes/no question. Injected so hook and test
	// runs never touch a terminal.
	Confirm func(prompt string) (bool, error)

	// SchedulePush starts a detached, fire-and-forget delayed push. The
	// command never awaits its result.
	SchedulePush func(root, remote, branch string, delay time.Duration) error

	// Stdout is the writer for result output.
	Stdout io.Writer

	// Stderr is the writer for warnings and progress.
	Stderr io.Writer
}

// Command-line flags shared by subcommands.
var (
	repoPath   string
	remoteName string
	verbose    bool
)

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for buildnum.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "buildnum",
		Short: "Keep build numbers and CI workflow files in sync with remote branches",
		Long: `buildnum keeps a single-integer build-number file and two CI workflow
files synchronized with the state of the repository's remote branches.

It is designed to run from git hooks: the pre-commit hook checks the local
build number against the numbers recorded across all remote branches and
proposes a collision-free increment, and the post-commit hook re-points the
workflow files at the branch's detected origin.

Build numbers below the configured minimum are ignored as noise. Concurrent
invocations against the same working copy are not coordinated; run one at a
time per repository.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&repoPath, "repo", ".",
		"Path inside the repository to operate on")
	rootCmd.PersistentFlags().StringVar(&remoteName, "remote", "",
		"Remote to scan (defaults to the configured remote)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	rootCmd.AddCommand(
		newCheckCmd(deps),
		newSuggestCmd(deps),
		newOriginCmd(deps),
		newSyncCmd(deps),
		newHooksCmd(deps),
		newUpdateCmd(deps),
	)

	return rootCmd
}

// runtime bundles the collaborators most commands need.
type runtime struct {
	ctx     context.Context
	log     Logger
	cfg     *config.Config
	gateway domain.RepositoryGateway
	deps    *Dependencies
}

// remote returns the remote to scan, preferring the --remote flag.
func (rt *runtime) remote() string {
	if remoteName != "" {
		return remoteName
	}
	return rt.cfg.Remote
}

// newRuntime wires logger, config and gateway for a command invocation.
func newRuntime(cmd *cobra.Command, deps *Dependencies) (*runtime, error) {
	if deps == nil {
		return nil, errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			writeWarningf(stderrOf(deps), "warning: could not set log level: %v\n", err)
		}
	}

	log := deps.LoggerFactory()

	// Hooks invoke the tool from the worktree root, so the config file is
	// found before the root is formally resolved by the gateway.
	cfg, err := deps.ConfigLoader(repoPath)
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	gateway, err := deps.GatewayFactory(repoPath, cfg.GitTimeout, log)
	if err != nil {
		log.Error(ctx, "failed to open repository", err, map[string]interface{}{
			"path": repoPath,
		})
		if errors.Is(err, domain.ErrRepositoryNotFound) {
			return nil, fmt.Errorf("not a git repository: %s", repoPath)
		}
		return nil, err
	}

	return &runtime{ctx: ctx, log: log, cfg: cfg, gateway: gateway, deps: deps}, nil
}

// stderrOf returns the configured stderr, defaulting to os.Stderr.
func stderrOf(deps *Dependencies) io.Writer {
	if deps != nil && deps.Stderr != nil {
		return deps.Stderr
	}
	return os.Stderr
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		return
	}
}
