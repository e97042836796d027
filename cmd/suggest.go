package cmd

import (
	"sort"

	"github.com/spf13/cobra"
)

// newSuggestCmd builds the `suggest` command, the advisory gap-seeking view.
func newSuggestCmd(deps *Dependencies) *cobra.Command {
	var minGap int

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest safe, round build numbers with headroom",
		Long: `suggest scans all remote branches, reports collisions (one number
recorded on multiple branches), and lists candidate numbers computed by the
gap-seeking strategy: for each recorded value the next multiple of ten above
it, kept only when at least the minimum gap of headroom remains before the
next recorded value.

This advisory output is intentionally different from the sequential fallback
used by check; the two can and do recommend different numbers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSuggest(cmd, deps, minGap)
		},
	}

	cmd.Flags().IntVar(&minGap, "min-gap", 0,
		"Minimum headroom before the next recorded number (defaults to the configured value)")

	return cmd
}

func runSuggest(cmd *cobra.Command, deps *Dependencies, minGap int) error {
	rt, err := newRuntime(cmd, deps)
	if err != nil {
		return err
	}
	if minGap <= 0 {
		minGap = rt.cfg.MinGap
	}

	writer := rt.deps.WriterFactory(false)
	allocator := rt.deps.AllocatorFactory(rt.gateway, rt.cfg, rt.log)

	set, err := allocator.CollectAll(rt.ctx, rt.remote(), writer.Progress)
	if err != nil {
		return err
	}

	if set.Len() == 0 {
		writer.Line("no build numbers recorded on %s", rt.remote())
		return nil
	}

	// Collision report: every value held by more than one branch.
	byValue := make(map[int][]string)
	for _, branch := range set.Branches {
		n := set.Numbers[branch]
		byValue[n] = append(byValue[n], branch)
	}
	var collided []int
	for n, branches := range byValue {
		if len(branches) > 1 {
			collided = append(collided, n)
		}
	}
	sort.Ints(collided)
	for _, n := range collided {
		writer.Line("collision: %d held by %v", n, byValue[n])
	}

	suggestions := allocator.SuggestGaps(set, minGap)
	if len(suggestions) == 0 {
		writer.Line("no gaps of at least %d found among %d recorded numbers", minGap, set.Len())
		return nil
	}

	for _, s := range suggestions {
		if s.Open {
			writer.Line("%d  (after %d, open-ended)", s.Number, s.After)
			continue
		}
		writer.Line("%d  (after %d, before %d, gap %d)", s.Number, s.After, s.Before, s.Gap)
	}
	return nil
}
