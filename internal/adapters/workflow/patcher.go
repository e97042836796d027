// Package workflow patches the CI workflow files that track the current
// branch and its origin. Patching is plain regex line rewriting; the result
// is validated as YAML before anything is written back.
package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
)

// Logger defines the logging interface for the patcher.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

var (
	buildBranchPattern = regexp.MustCompile(`(?m)^(\s*)BUILD_BRANCH:\s*\S.*$`)
	baseBranchPattern  = regexp.MustCompile(`(?m)^(\s*)BASE_BRANCH:\s*\S.*$`)
)

// Patcher implements domain.WorkflowPatcher over files beneath a repository
// root. It rewrites the BUILD_BRANCH and BASE_BRANCH values in each
// configured workflow file.
type Patcher struct {
	root   string
	paths  []string
	logger Logger
}

// NewPatcher creates a Patcher for the workflow files at the given
// repository-relative paths.
func NewPatcher(root string, paths []string, log Logger) *Patcher {
	return &Patcher{root: root, paths: paths, logger: log}
}

// Patch rewrites every configured workflow file for the branch/origin pair.
// Missing files are skipped with a warning. Files whose content would not
// change are left untouched, so repeated invocations are idempotent.
func (p *Patcher) Patch(ctx context.Context, branch, origin string) ([]domain.PatchResult, error) {
	results := make([]domain.PatchResult, 0, len(p.paths))

	for _, path := range p.paths {
		result, err := p.patchFile(ctx, path, branch, origin)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (p *Patcher) patchFile(ctx context.Context, path, branch, origin string) (domain.PatchResult, error) {
	full := filepath.Join(p.root, path)

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Warn(ctx, "workflow file missing, skipping", map[string]interface{}{
				"path": path,
			})
			return domain.PatchResult{Path: path, Skipped: true}, nil
		}
		return domain.PatchResult{}, fmt.Errorf("failed to read workflow %s: %w", path, err)
	}

	patched := rewrite(string(data), branch, origin)
	if patched == string(data) {
		p.logger.Debug(ctx, "workflow already up to date", map[string]interface{}{
			"path": path,
		})
		return domain.PatchResult{Path: path}, nil
	}

	var parsed any
	if err := yaml.Unmarshal([]byte(patched), &parsed); err != nil {
		return domain.PatchResult{}, fmt.Errorf("%w: %s: %v", domain.ErrWorkflowInvalid, path, err)
	}

	if err := os.WriteFile(full, []byte(patched), 0o644); err != nil {
		if os.IsPermission(err) {
			return domain.PatchResult{}, fmt.Errorf("%w: %s", domain.ErrWriteDenied, path)
		}
		return domain.PatchResult{}, fmt.Errorf("failed to write workflow %s: %w", path, err)
	}

	return domain.PatchResult{Path: path, Changed: true}, nil
}

// rewrite applies both line substitutions, preserving indentation.
func rewrite(content, branch, origin string) string {
	content = buildBranchPattern.ReplaceAllString(content, "${1}BUILD_BRANCH: "+branch)
	content = baseBranchPattern.ReplaceAllString(content, "${1}BASE_BRANCH: "+origin)
	return content
}
