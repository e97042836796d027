// Package git provides the repository gateway backed by the local git binary
// and go-git/v5. The repository root is resolved once at construction and
// passed to every git invocation via cmd.Dir; the process working directory
// is never consulted or mutated.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
)

// DefaultQueryTimeout bounds every external git invocation. The remote
// listing can stall on network problems without it.
const DefaultQueryTimeout = 30 * time.Second

// Logger defines the logging interface for the git adapter.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// CLIGateway implements domain.RepositoryGateway. Purely local lookups
// (root, HEAD, ref resolution) go through go-git; everything touching
// remotes, reflogs or the commit graph shells out to the git binary.
type CLIGateway struct {
	repo    *gogit.Repository
	root    string
	timeout time.Duration
	logger  Logger
}

// NewCLIGateway opens the repository containing path (searching upward for
// the .git directory) and returns a gateway rooted at its worktree.
// Returns domain.ErrRepositoryNotFound if path is not inside a repository.
func NewCLIGateway(path string, timeout time.Duration, log Logger) (*CLIGateway, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, path)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: bare repositories are not supported: %s", domain.ErrRepositoryNotFound, path)
	}

	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}

	return &CLIGateway{
		repo:    repo,
		root:    wt.Filesystem.Root(),
		timeout: timeout,
		logger:  log,
	}, nil
}

// Root returns the absolute worktree root path.
func (g *CLIGateway) Root() string {
	return g.root
}

// run executes git with the given arguments in the repository root under the
// gateway's query timeout. It returns stdout, stderr, and the raw error.
func (g *CLIGateway) run(ctx context.Context, args ...string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// ListRemoteBranches enumerates branch heads on the remote via ls-remote,
// preserving the remote's reporting order. An empty listing is valid.
func (g *CLIGateway) ListRemoteBranches(ctx context.Context, remote string) ([]string, error) {
	stdout, stderr, err := g.run(ctx, "ls-remote", "--heads", remote)
	if err != nil {
		return nil, fmt.Errorf("%w: ls-remote %s: %s", domain.ErrRemoteUnreachable, remote, strings.TrimSpace(stderr))
	}
	return parseLsRemoteHeads(stdout), nil
}

// parseLsRemoteHeads extracts short branch names from ls-remote --heads
// output ("<sha>\trefs/heads/<name>" per line).
func parseLsRemoteHeads(output string) []string {
	branches := []string{}
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		name, ok := strings.CutPrefix(fields[1], "refs/heads/")
		if !ok {
			continue
		}
		branches = append(branches, name)
	}
	return branches
}

// ReadFileAtBranchTip returns the first line of path at the tip of
// remote/branch. The local tracking ref is tried first; a branch that was
// never fetched is fetched on demand so every branch the remote reports ends
// up in the snapshot. A file absent at the tip reads as not-ok rather than an
// error; only unexpected failures surface as ErrGitQueryFailed.
func (g *CLIGateway) ReadFileAtBranchTip(ctx context.Context, remote, branch, path string) (string, bool, error) {
	spec := remote + "/" + branch + ":" + path
	stdout, stderr, err := g.run(ctx, "show", spec)
	if err != nil {
		if isPathAbsenceError(stderr) {
			g.logger.Debug(ctx, "file absent at branch tip", map[string]interface{}{
				"branch": branch,
				"path":   path,
			})
			return "", false, nil
		}
		if isMissingRefError(stderr) {
			return g.readFromFetchedTip(ctx, remote, branch, path)
		}
		return "", false, fmt.Errorf("%w: show %s: %s", domain.ErrGitQueryFailed, spec, strings.TrimSpace(stderr))
	}
	return firstLine(stdout), true, nil
}

// readFromFetchedTip fetches the branch tip into FETCH_HEAD and reads the
// file from there. This covers branches the remote reports but that have no
// local tracking ref yet.
func (g *CLIGateway) readFromFetchedTip(ctx context.Context, remote, branch, path string) (string, bool, error) {
	g.logger.Debug(ctx, "no local tracking ref, fetching branch tip", map[string]interface{}{
		"remote": remote,
		"branch": branch,
	})

	if _, stderr, err := g.run(ctx, "fetch", "--quiet", remote, "refs/heads/"+branch); err != nil {
		if strings.Contains(stderr, "couldn't find remote ref") {
			// Deleted on the remote since it was listed.
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: fetch %s %s: %s",
			domain.ErrGitQueryFailed, remote, branch, strings.TrimSpace(stderr))
	}

	stdout, stderr, err := g.run(ctx, "show", "FETCH_HEAD:"+path)
	if err != nil {
		if isPathAbsenceError(stderr) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: show FETCH_HEAD:%s: %s",
			domain.ErrGitQueryFailed, path, strings.TrimSpace(stderr))
	}
	return firstLine(stdout), true, nil
}

// isPathAbsenceError reports whether git show failed because the requested
// path is not present at the resolved ref.
func isPathAbsenceError(stderr string) bool {
	return strings.Contains(stderr, "does not exist in") ||
		strings.Contains(stderr, "exists on disk, but not in")
}

// isMissingRefError reports whether git show failed because the ref itself
// did not resolve, typically a remote branch that was never fetched.
func isMissingRefError(stderr string) bool {
	return strings.Contains(stderr, "invalid object name") ||
		strings.Contains(stderr, "Invalid object name") ||
		strings.Contains(stderr, "unknown revision") ||
		strings.Contains(stderr, "ambiguous argument")
}

// ReadLocalFile returns the first line of a file under the worktree root.
func (g *CLIGateway) ReadLocalFile(path string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(g.root, path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return firstLine(string(data)), true, nil
}

// WriteLocalFile writes content to a file under the worktree root.
func (g *CLIGateway) WriteLocalFile(path, content string) error {
	full := filepath.Join(g.root, path)
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", domain.ErrWriteDenied, path)
		}
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// CurrentBranch resolves HEAD to a short branch name via go-git.
func (g *CLIGateway) CurrentBranch() (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDetachedHead, err)
	}
	if !head.Name().IsBranch() {
		return "", domain.ErrDetachedHead
	}
	return head.Name().Short(), nil
}

// ReflogEntries returns the branch reflog newest first (oldest entry last).
// A branch without a reflog yields an empty slice.
func (g *CLIGateway) ReflogEntries(ctx context.Context, branch string) ([]domain.ReflogEntry, error) {
	stdout, stderr, err := g.run(ctx, "reflog", "show", "--format=%H%x09%gs", branch)
	if err != nil {
		if isUnknownRefError(stderr) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reflog %s: %s", domain.ErrGitQueryFailed, branch, strings.TrimSpace(stderr))
	}
	return parseReflog(stdout), nil
}

// isUnknownRefError reports whether a query failed only because the ref has
// no local history to inspect.
func isUnknownRefError(stderr string) bool {
	return strings.Contains(stderr, "ambiguous argument") ||
		strings.Contains(stderr, "unknown revision") ||
		strings.Contains(stderr, "does not have any entries") ||
		strings.Contains(stderr, "no such ref")
}

// parseReflog splits "sha<TAB>message" lines into entries.
func parseReflog(output string) []domain.ReflogEntry {
	var entries []domain.ReflogEntry
	for _, line := range strings.Split(output, "\n") {
		sha, message, found := strings.Cut(line, "\t")
		if !found || sha == "" {
			continue
		}
		entries = append(entries, domain.ReflogEntry{SHA: sha, Message: message})
	}
	return entries
}

// MergeBaseDistance counts commits reachable from branchA but not from its
// merge base with branchB. ok is false when either ref does not resolve or
// the branches share no history.
func (g *CLIGateway) MergeBaseDistance(ctx context.Context, branchA, branchB string) (int, bool, error) {
	base, stderr, err := g.run(ctx, "merge-base", branchA, branchB)
	if err != nil {
		if isUnknownRefError(stderr) || strings.Contains(stderr, "Not a valid") || stderr == "" {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: merge-base %s %s: %s",
			domain.ErrGitQueryFailed, branchA, branchB, strings.TrimSpace(stderr))
	}

	baseSHA := strings.TrimSpace(base)
	countOut, stderr, err := g.run(ctx, "rev-list", "--count", baseSHA+".."+branchA)
	if err != nil {
		return 0, false, fmt.Errorf("%w: rev-list --count %s..%s: %s",
			domain.ErrGitQueryFailed, baseSHA, branchA, strings.TrimSpace(stderr))
	}

	count, err := strconv.Atoi(strings.TrimSpace(countOut))
	if err != nil {
		return 0, false, fmt.Errorf("%w: unexpected rev-list output %q", domain.ErrGitQueryFailed, countOut)
	}
	return count, true, nil
}

// RefExists reports whether ref resolves in the repository, via go-git.
func (g *CLIGateway) RefExists(ctx context.Context, ref string) bool {
	_, err := g.repo.ResolveRevision(plumbing.Revision(ref))
	return err == nil
}

// BranchesContaining lists short branch names whose history contains sha.
// Local and remote-tracking branches both count; a base branch that exists
// only as a remote-tracking ref must still be found.
func (g *CLIGateway) BranchesContaining(ctx context.Context, sha string) ([]string, error) {
	stdout, stderr, err := g.run(ctx, "branch", "-a", "--contains", sha, "--format=%(refname)")
	if err != nil {
		return nil, fmt.Errorf("%w: branch -a --contains %s: %s",
			domain.ErrGitQueryFailed, sha, strings.TrimSpace(stderr))
	}
	return parseBranchesContaining(stdout), nil
}

// parseBranchesContaining reduces full ref names to deduplicated short branch
// names, stripping the remote segment from remote-tracking refs and dropping
// symbolic entries like refs/remotes/origin/HEAD.
func parseBranchesContaining(output string) []string {
	seen := make(map[string]bool)
	var branches []string

	for _, line := range strings.Split(output, "\n") {
		ref := strings.TrimSpace(line)

		name, local := strings.CutPrefix(ref, "refs/heads/")
		if !local {
			rest, remote := strings.CutPrefix(ref, "refs/remotes/")
			if !remote {
				continue
			}
			_, name, _ = strings.Cut(rest, "/")
		}

		if name == "" || name == "HEAD" || seen[name] {
			continue
		}
		seen[name] = true
		branches = append(branches, name)
	}
	return branches
}

// firstLine returns the first line of s without trailing whitespace.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, " \t\r")
}
