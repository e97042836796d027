// Package domain defines the core business entities and interfaces for buildnum.
// This package contains no external dependencies and represents the innermost
// layer of the application.
package domain

import (
	"context"
	"errors"
)

// Domain errors for repository queries, origin detection and allocation.
var (
	// ErrRepositoryNotFound indicates the specified path is not inside a Git repository.
	ErrRepositoryNotFound = errors.New("git repository not found at specified path")

	// ErrRemoteUnreachable indicates the remote could not be listed (network or auth).
	ErrRemoteUnreachable = errors.New("remote unreachable")

	// ErrGitQueryFailed indicates a local git query failed in an unexpected way.
	// Absence of a file at a branch tip is NOT this error; it is a normal
	// "none" result.
	ErrGitQueryFailed = errors.New("git query failed")

	// ErrDetachedHead indicates HEAD does not resolve to a named branch.
	ErrDetachedHead = errors.New("HEAD is detached or does not resolve to a branch")

	// ErrOriginUndetermined indicates both origin detection methods were exhausted.
	ErrOriginUndetermined = errors.New("origin branch could not be determined")

	// ErrWriteDenied indicates a filesystem permission problem writing the
	// build-number or workflow files.
	ErrWriteDenied = errors.New("write denied")

	// ErrWorkflowInvalid indicates a patched workflow file would no longer
	// parse as YAML; the write is aborted.
	ErrWorkflowInvalid = errors.New("patched workflow is not valid YAML")
)

// RepositoryGateway is the single point of truth for repository facts.
// It isolates the core algorithms from external tool invocation syntax.
// The repository root is explicit state of the implementation; no operation
// depends on, or mutates, the process working directory.
type RepositoryGateway interface {
	// Root returns the absolute path of the repository worktree root.
	Root() string

	// ListRemoteBranches enumerates branch heads on the given remote, in the
	// order the remote reports them. An empty result is valid.
	// Returns ErrRemoteUnreachable if the listing fails.
	ListRemoteBranches(ctx context.Context, remote string) ([]string, error)

	// ReadFileAtBranchTip returns the first line of the file at the tip of
	// remote/branch. ok is false when the file does not exist on that branch;
	// that is not an error. Returns ErrGitQueryFailed on other failures.
	ReadFileAtBranchTip(ctx context.Context, remote, branch, path string) (line string, ok bool, err error)

	// ReadLocalFile returns the first line of a file under the worktree root.
	// ok is false when the file does not exist.
	ReadLocalFile(path string) (line string, ok bool, err error)

	// WriteLocalFile writes content to a file under the worktree root.
	// Returns ErrWriteDenied on permission failures.
	WriteLocalFile(path, content string) error

	// CurrentBranch returns the short name of the checked-out branch.
	// Returns ErrDetachedHead when HEAD is detached or unborn.
	CurrentBranch() (string, error)

	// ReflogEntries returns the branch's reflog, newest first (oldest last).
	// A branch without a reflog yields an empty slice, not an error.
	ReflogEntries(ctx context.Context, branch string) ([]ReflogEntry, error)

	// MergeBaseDistance returns the count of commits reachable from branchA
	// but not from its merge base with branchB. ok is false when either ref
	// does not resolve locally.
	MergeBaseDistance(ctx context.Context, branchA, branchB string) (distance int, ok bool, err error)

	// RefExists reports whether ref resolves in the repository.
	RefExists(ctx context.Context, ref string) bool

	// BranchesContaining lists short branch names whose history contains sha.
	BranchesContaining(ctx context.Context, sha string) ([]string, error)
}

// ProgressFunc receives per-branch progress during a remote scan.
type ProgressFunc func(branch string, index, total int)

// Allocator detects build-number collisions and computes safe candidates
// over the numbers recorded across all remote branches.
type Allocator interface {
	// CollectAll scans every remote branch and builds a fresh BuildNumberSet.
	// Values below the configured minimum build number are discarded.
	CollectAll(ctx context.Context, remote string, progress ProgressFunc) (*BuildNumberSet, error)

	// IsTaken returns the first branch (scan order) holding exactly candidate.
	IsTaken(candidate int, set *BuildNumberSet) (branch string, taken bool)

	// FindNextAvailable returns the smallest integer >= startingFrom that is
	// not a recorded value. Strictly sequential; distinct from SuggestGaps.
	FindNextAvailable(startingFrom int, set *BuildNumberSet) int

	// ComputeNeighbors maps each distinct recorded value to its nearest
	// lower and higher recorded values.
	ComputeNeighbors(set *BuildNumberSet) map[int]NeighborPair

	// SuggestGaps returns gap-seeking candidates in ascending order, each
	// leaving at least minGap of headroom before the next recorded value.
	SuggestGaps(set *BuildNumberSet, minGap int) []Suggestion
}

// OriginResolver infers which branch a branch was created from.
type OriginResolver interface {
	// ResolveOrigin tries the reflog method first, then the common-ancestor
	// fallback. Returns ErrOriginUndetermined when both are exhausted.
	// Pure query: no writes.
	ResolveOrigin(ctx context.Context, branch string) (*OriginDetection, error)
}

// WorkflowPatcher idempotently patches the CI workflow files for a branch and
// its origin. The core calls it only as a sink and never inspects internals.
type WorkflowPatcher interface {
	Patch(ctx context.Context, branch, origin string) ([]PatchResult, error)
}

// OutputWriter renders progress and results for the user.
type OutputWriter interface {
	// Progress reports one step of a branch scan.
	Progress(branch string, index, total int)

	// Line writes one rendered output line.
	Line(format string, args ...any)
}
