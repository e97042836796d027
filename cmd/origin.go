package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
)

// newOriginCmd builds the `origin` command, a diagnostic view of origin
// detection.
func newOriginCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "origin [branch]",
		Short: "Show which branch a branch was created from",
		Long: `origin infers the branch the given branch (default: the current one)
was forked from. The reflog creation entry is preferred; when it yields
nothing usable, the canonical base branch with the closest merge base wins.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrigin(cmd, deps, args)
		},
	}
	return cmd
}

func runOrigin(cmd *cobra.Command, deps *Dependencies, args []string) error {
	rt, err := newRuntime(cmd, deps)
	if err != nil {
		return err
	}

	branch := ""
	if len(args) > 0 {
		branch = args[0]
	} else {
		branch, err = rt.gateway.CurrentBranch()
		if err != nil {
			return fmt.Errorf("cannot determine current branch: %w", err)
		}
	}

	resolver := rt.deps.ResolverFactory(rt.gateway, rt.cfg, rt.log)
	detection, err := resolver.ResolveOrigin(rt.ctx, branch)
	if err != nil {
		if errors.Is(err, domain.ErrOriginUndetermined) {
			return fmt.Errorf("could not determine the origin of %s; specify it manually", branch)
		}
		return err
	}

	writer := rt.deps.WriterFactory(false)
	writer.Line("%s was created from %s", detection.Branch, detection.Origin)
	writer.Line("method: %s", detection.Method)
	writer.Line("evidence: %s", detection.Evidence)
	return nil
}
