package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
)

// newSyncCmd builds the `sync` command, the post-commit workflow updater.
func newSyncCmd(deps *Dependencies) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Point the CI workflow files at the current branch and its origin",
		Long: `sync detects the origin of the current branch and idempotently patches
the configured workflow files so their BUILD_BRANCH and BASE_BRANCH values
match. Files already up to date are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, deps, quiet)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false,
		"Only report errors")

	return cmd
}

func runSync(cmd *cobra.Command, deps *Dependencies, quiet bool) error {
	rt, err := newRuntime(cmd, deps)
	if err != nil {
		return err
	}

	branch, err := rt.gateway.CurrentBranch()
	if err != nil {
		return fmt.Errorf("cannot determine current branch: %w", err)
	}

	resolver := rt.deps.ResolverFactory(rt.gateway, rt.cfg, rt.log)
	detection, err := resolver.ResolveOrigin(rt.ctx, branch)
	if err != nil {
		if errors.Is(err, domain.ErrOriginUndetermined) {
			return fmt.Errorf("could not determine the origin of %s; run `buildnum origin` for details", branch)
		}
		return err
	}

	patcher := rt.deps.PatcherFactory(rt.gateway.Root(), rt.cfg, rt.log)
	results, err := patcher.Patch(rt.ctx, branch, detection.Origin)
	if err != nil {
		return err
	}

	if quiet {
		return nil
	}

	writer := rt.deps.WriterFactory(false)
	writer.Line("origin of %s: %s (%s)", branch, detection.Origin, detection.Method)
	for _, r := range results {
		switch {
		case r.Skipped:
			writer.Line("%s: missing, skipped", r.Path)
		case r.Changed:
			writer.Line("%s: updated", r.Path)
		default:
			writer.Line("%s: already up to date", r.Path)
		}
	}
	return nil
}
