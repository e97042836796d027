package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
	"github.com/MyCarrier-DevOps/buildnum/internal/usecases"
)

// newCheckCmd builds the `check` command, the pre-commit entry point.
func newCheckCmd(deps *Dependencies) *cobra.Command {
	var (
		hookMode  bool
		assumeYes bool
		pushAfter time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the local build number against all remote branches",
		Long: `check reads the local build-number file, compares it with the number
recorded for the current branch on the remote, and classifies the result:

  behind     local < remote: reconcile (pull) before committing
  ahead      local > remote: nothing to do
  equal      a new number is due; the increment is checked for collisions
             against every remote branch and bumped sequentially until free
  no-remote  the remote has no record for this branch; informational

In equal state the collision-free candidate is written to the build-number
file after confirmation (or immediately with --yes / --hook).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, deps, hookMode, assumeYes, pushAfter)
		},
	}

	cmd.Flags().BoolVar(&hookMode, "hook", false,
		"Run non-interactively as a git hook (no prompts, no writes on no-remote)")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false,
		"Write the proposed number without prompting")
	cmd.Flags().DurationVar(&pushAfter, "push-after", 0,
		"Schedule a detached push after this delay (fire-and-forget)")

	return cmd
}

func runCheck(cmd *cobra.Command, deps *Dependencies, hookMode, assumeYes bool, pushAfter time.Duration) error {
	rt, err := newRuntime(cmd, deps)
	if err != nil {
		return err
	}

	branch, err := rt.gateway.CurrentBranch()
	if err != nil {
		return fmt.Errorf("cannot determine current branch: %w", err)
	}

	line, ok, err := rt.gateway.ReadLocalFile(rt.cfg.BuildFile)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no build-number file at %s; create it with an initial number", rt.cfg.BuildFile)
	}
	local, err := usecases.ParseBuildNumber(line)
	if err != nil {
		return fmt.Errorf("local build-number file is not an integer: %w", err)
	}

	writer := rt.deps.WriterFactory(hookMode)
	allocator := rt.deps.AllocatorFactory(rt.gateway, rt.cfg, rt.log)

	set, err := allocator.CollectAll(rt.ctx, rt.remote(), writer.Progress)
	if err != nil {
		return err
	}

	remote, hasRemote := set.Numbers[branch]
	decider := usecases.NewDecider(allocator, rt.log)
	decision, err := decider.Decide(rt.ctx, usecases.DecideInput{
		Branch:    branch,
		Local:     local,
		Remote:    remote,
		HasRemote: hasRemote,
		Set:       set,
	})
	if err != nil {
		return err
	}

	if err := renderDecision(rt, writer, decision, hookMode, assumeYes); err != nil {
		return err
	}

	if pushAfter > 0 {
		if err := rt.deps.SchedulePush(rt.gateway.Root(), rt.remote(), branch, pushAfter); err != nil {
			writeWarningf(stderrOf(deps), "warning: could not schedule push: %v\n", err)
		} else {
			writer.Line("push scheduled in %s", pushAfter)
		}
	}

	return nil
}

// renderDecision acts on the computed decision: reporting, prompting, and
// writing the new number where one is due.
func renderDecision(rt *runtime, writer domain.OutputWriter, decision *domain.Decision, hookMode, assumeYes bool) error {
	switch decision.State {
	case domain.StateBehind:
		return fmt.Errorf("local build number %d is behind the remote record %d for %s; pull before committing",
			decision.Local, decision.Remote, decision.Branch)

	case domain.StateAhead:
		writer.Line("%s: local %d is ahead of remote %d, nothing to do",
			decision.Branch, decision.Local, decision.Remote)
		return nil

	case domain.StateEqual:
		if decision.CollidesWith != "" {
			writer.Line("%d is already taken by %s", decision.Local+1, decision.CollidesWith)
		}
		return writeProposed(rt, writer, decision, hookMode, assumeYes)

	case domain.StateNoRemote:
		writer.Line("%s: no remote record; %d would be next", decision.Branch, decision.Proposed)
		if hookMode {
			return nil
		}
		return writeProposed(rt, writer, decision, hookMode, assumeYes)
	}
	return nil
}

func writeProposed(rt *runtime, writer domain.OutputWriter, decision *domain.Decision, hookMode, assumeYes bool) error {
	if !hookMode && !assumeYes {
		ok, err := rt.deps.Confirm(fmt.Sprintf("Set build number to %d?", decision.Proposed))
		if err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}
		if !ok {
			writer.Line("left build number at %d", decision.Local)
			return nil
		}
	}

	if err := rt.gateway.WriteLocalFile(rt.cfg.BuildFile, usecases.FormatBuildNumber(decision.Proposed)); err != nil {
		return err
	}

	rt.log.Info(rt.ctx, "build number written", map[string]interface{}{
		"branch": decision.Branch,
		"number": decision.Proposed,
	})
	writer.Line("build number set to %d", decision.Proposed)
	return nil
}
