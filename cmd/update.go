package cmd

import (
	"github.com/spf13/cobra"
)

// newUpdateCmd builds the `update` command for self-updating the binary.
func newUpdateCmd(deps *Dependencies) *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update buildnum to the latest release",
		Long: `update queries the configured releases endpoint, compares versions
semantically, and downloads the platform binary when a newer release exists.
The running binary is kept next to itself as a .bak backup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpdate(cmd, deps, checkOnly)
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check-only", false,
		"Report whether an update is available without installing it")

	return cmd
}

func runUpdate(cmd *cobra.Command, deps *Dependencies, checkOnly bool) error {
	rt, err := newRuntime(cmd, deps)
	if err != nil {
		return err
	}

	updater := rt.deps.UpdaterFactory(rt.cfg, rt.log)
	writer := rt.deps.WriterFactory(false)

	result, err := updater.Check(rt.ctx)
	if err != nil {
		return err
	}

	if !result.Available {
		writer.Line("buildnum %s is up to date", result.Current)
		return nil
	}

	writer.Line("update available: %s -> %s", result.Current, result.Latest)
	if checkOnly {
		return nil
	}

	if err := updater.Apply(rt.ctx); err != nil {
		return err
	}
	writer.Line("updated to %s (previous binary kept as .bak)", result.Latest)
	return nil
}
