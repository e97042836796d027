// Package main is the entry point for the buildnum CLI application.
// buildnum keeps a monotonically-assigned build-number file and two CI
// workflow files synchronized with the repository's remote branches, and is
// designed to be invoked from git hooks.
package main

import (
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	zaplogger "github.com/MyCarrier-DevOps/goLibMyCarrier/logger"

	"github.com/MyCarrier-DevOps/buildnum/cmd"
	"github.com/MyCarrier-DevOps/buildnum/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/buildnum/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/buildnum/internal/adapters/output"
	"github.com/MyCarrier-DevOps/buildnum/internal/adapters/workflow"
	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
	"github.com/MyCarrier-DevOps/buildnum/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/buildnum/internal/infrastructure/hooks"
	"github.com/MyCarrier-DevOps/buildnum/internal/infrastructure/update"
	"github.com/MyCarrier-DevOps/buildnum/internal/usecases"
	"github.com/MyCarrier-DevOps/buildnum/internal/version"
)

func main() {
	cmd.SetDefaultDependencies(newDependencies())
	cmd.Execute()
}

// newDependencies builds the production dependency wiring.
func newDependencies() *cmd.Dependencies {
	// One shared logger for the whole invocation, stamped with a fresh
	// invocation ID so hook runs can be correlated across commands.
	zapLog := zaplogger.NewZapLoggerFromConfig()
	adapter := logadapter.NewZapAdapter(zapLog, uuid.NewString())

	return &cmd.Dependencies{
		LoggerFactory: func() cmd.Logger {
			return adapter
		},

		ConfigLoader: config.Load,

		GatewayFactory: func(path string, timeout time.Duration, _ cmd.Logger) (domain.RepositoryGateway, error) {
			return git.NewCLIGateway(path, timeout, adapter)
		},

		AllocatorFactory: func(gw domain.RepositoryGateway, cfg *config.Config, _ cmd.Logger) domain.Allocator {
			return usecases.NewBuildAllocator(gw, cfg.BuildFile, cfg.MinBuildNumber, adapter)
		},

		ResolverFactory: func(gw domain.RepositoryGateway, cfg *config.Config, _ cmd.Logger) domain.OriginResolver {
			return usecases.NewBranchOriginResolver(gw, cfg.BaseBranches, adapter)
		},

		PatcherFactory: func(root string, cfg *config.Config, _ cmd.Logger) domain.WorkflowPatcher {
			return workflow.NewPatcher(root, cfg.WorkflowFiles, adapter)
		},

		WriterFactory: func(quiet bool) domain.OutputWriter {
			w := output.NewWriter()
			w.SetQuiet(quiet)
			return w
		},

		HookInstallerFactory: func(root string, _ cmd.Logger) cmd.HookInstaller {
			return hooks.NewInstaller(root, adapter)
		},

		UpdaterFactory: func(cfg *config.Config, _ cmd.Logger) cmd.Updater {
			return update.NewUpdater(cfg.ReleaseEndpoint, version.Version, adapter)
		},

		Confirm: func(prompt string) (bool, error) {
			var ok bool
			err := huh.NewConfirm().Title(prompt).Value(&ok).Run()
			return ok, err
		},

		SchedulePush: git.SchedulePush,

		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}
