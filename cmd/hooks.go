package cmd

import (
	"github.com/spf13/cobra"
)

// newHooksCmd builds the `hooks` command group.
func newHooksCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Install or remove the git hooks that drive buildnum",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Install the pre-commit and post-commit hooks",
			Long: `install writes the pre-commit hook (buildnum check --hook) and the
post-commit hook (buildnum sync --quiet) into the repository's hooks
directory. Existing hooks not written by buildnum are backed up first and
restored on uninstall.`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				rt, err := newRuntime(cmd, deps)
				if err != nil {
					return err
				}
				installer := rt.deps.HookInstallerFactory(rt.gateway.Root(), rt.log)
				if err := installer.Install(rt.ctx); err != nil {
					return err
				}
				rt.deps.WriterFactory(false).Line("hooks installed in %s", rt.gateway.Root())
				return nil
			},
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Remove buildnum's hooks and restore any backups",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				rt, err := newRuntime(cmd, deps)
				if err != nil {
					return err
				}
				installer := rt.deps.HookInstallerFactory(rt.gateway.Root(), rt.log)
				if err := installer.Uninstall(rt.ctx); err != nil {
					return err
				}
				rt.deps.WriterFactory(false).Line("hooks removed from %s", rt.gateway.Root())
				return nil
			},
		},
	)

	return cmd
}
