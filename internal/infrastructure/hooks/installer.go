// Package hooks installs and removes the git hooks that drive buildnum.
package hooks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
)

// Marker identifies hook scripts written by this tool. Installation over a
// marked hook is idempotent; anything else is backed up first.
const Marker = "# installed by buildnum"

// BackupSuffix is appended to a pre-existing foreign hook before overwrite.
const BackupSuffix = ".pre-buildnum"

// Logger defines the logging interface for the installer.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// hookScripts maps hook name to the command each script runs.
var hookScripts = map[string]string{
	"pre-commit":  "buildnum check --hook",
	"post-commit": "buildnum sync --quiet",
}

// Installer writes the pre-commit and post-commit hooks for a repository.
type Installer struct {
	root   string
	logger Logger
}

// NewInstaller creates an Installer for the repository rooted at root.
func NewInstaller(root string, log Logger) *Installer {
	return &Installer{root: root, logger: log}
}

// Install writes both hook scripts, backing up any existing foreign hooks.
// Reinstalling over buildnum's own hooks rewrites them without a backup.
func (i *Installer) Install(ctx context.Context) error {
	hooksDir, err := i.hooksDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	for name, command := range hookScripts {
		path := filepath.Join(hooksDir, name)

		existing, err := os.ReadFile(path)
		if err == nil && !strings.Contains(string(existing), Marker) {
			backup := path + BackupSuffix
			if _, statErr := os.Stat(backup); statErr == nil {
				// An earlier backup is the user's original hook; keep it.
				i.logger.Warn(ctx, "backup already exists, keeping the earlier one", map[string]interface{}{
					"hook":   name,
					"backup": backup,
				})
			} else {
				if err := os.Rename(path, backup); err != nil {
					return fmt.Errorf("failed to back up existing %s hook: %w", name, err)
				}
				i.logger.Info(ctx, "backed up existing hook", map[string]interface{}{
					"hook":   name,
					"backup": backup,
				})
			}
		}

		script := fmt.Sprintf("#!/bin/sh\n%s\nexec %s\n", Marker, command)
		if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
			if os.IsPermission(err) {
				return fmt.Errorf("%w: %s", domain.ErrWriteDenied, path)
			}
			return fmt.Errorf("failed to write %s hook: %w", name, err)
		}

		i.logger.Info(ctx, "installed hook", map[string]interface{}{
			"hook": name,
			"path": path,
		})
	}
	return nil
}

// Uninstall removes buildnum's hooks and restores any backups. Hooks not
// written by buildnum are left alone.
func (i *Installer) Uninstall(ctx context.Context) error {
	hooksDir, err := i.hooksDir()
	if err != nil {
		return err
	}

	for name := range hookScripts {
		path := filepath.Join(hooksDir, name)

		existing, err := os.ReadFile(path)
		if err != nil || !strings.Contains(string(existing), Marker) {
			continue
		}

		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s hook: %w", name, err)
		}

		backup := path + BackupSuffix
		if _, err := os.Stat(backup); err == nil {
			if err := os.Rename(backup, path); err != nil {
				return fmt.Errorf("failed to restore backed-up %s hook: %w", name, err)
			}
			i.logger.Info(ctx, "restored backed-up hook", map[string]interface{}{
				"hook": name,
			})
		}
	}
	return nil
}

// hooksDir resolves the hooks directory, following the gitdir pointer file
// that worktree checkouts use in place of a .git directory.
func (i *Installer) hooksDir() (string, error) {
	gitPath := filepath.Join(i.root, ".git")

	info, err := os.Stat(gitPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, i.root)
	}

	if info.IsDir() {
		return filepath.Join(gitPath, "hooks"), nil
	}

	content, err := os.ReadFile(gitPath)
	if err != nil {
		return "", fmt.Errorf("failed to read .git file: %w", err)
	}
	line := strings.TrimSpace(string(content))
	gitdir, ok := strings.CutPrefix(line, "gitdir: ")
	if !ok {
		return "", fmt.Errorf("%w: unexpected .git file format", domain.ErrRepositoryNotFound)
	}
	if !filepath.IsAbs(gitdir) {
		gitdir = filepath.Join(i.root, gitdir)
	}
	return filepath.Join(gitdir, "hooks"), nil
}
