package usecases

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
)

// createdFromPattern matches the reflog message git writes when a branch is
// created, e.g. "branch: Created from develop".
var createdFromPattern = regexp.MustCompile(`(?i)branch: Created from (.+)$`)

// shaShapePattern matches anything that looks like an abbreviated or full
// commit hash. Such names are never acceptable origin branches.
var shaShapePattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// specialRefs are symbolic names that must never be reported as an origin.
var specialRefs = map[string]bool{
	"HEAD":       true,
	"ORIG_HEAD":  true,
	"FETCH_HEAD": true,
	"MERGE_HEAD": true,
}

// BranchOriginResolver implements domain.OriginResolver.
// It infers the branch a given branch was forked from, preferring reflog
// evidence and falling back to topological distance against a fixed, ordered
// list of canonical base branches.
type BranchOriginResolver struct {
	gateway      domain.RepositoryGateway
	baseBranches []string
	logger       Logger
}

// NewBranchOriginResolver creates a BranchOriginResolver. baseBranches is the
// ordered canonical base-branch list (earlier entries win ties).
func NewBranchOriginResolver(
	gateway domain.RepositoryGateway,
	baseBranches []string,
	log Logger,
) *BranchOriginResolver {
	return &BranchOriginResolver{
		gateway:      gateway,
		baseBranches: baseBranches,
		logger:       log,
	}
}

// ResolveOrigin determines the most plausible origin branch. It is a pure
// query: the repository is never modified.
//
// Method order, first success wins:
//  1. reflog: find the oldest "branch: Created from X" entry and validate X,
//     resolving a literal HEAD through the branches containing the entry SHA.
//  2. merge-base: pick the canonical base branch with the smallest count of
//     commits since its merge base with branch; ties break by list order.
func (r *BranchOriginResolver) ResolveOrigin(ctx context.Context, branch string) (*domain.OriginDetection, error) {
	if detection, ok, err := r.resolveFromReflog(ctx, branch); err != nil {
		return nil, err
	} else if ok {
		return detection, nil
	}

	if detection, ok, err := r.resolveFromMergeBase(ctx, branch); err != nil {
		return nil, err
	} else if ok {
		return detection, nil
	}

	return nil, fmt.Errorf("%w: branch %s", domain.ErrOriginUndetermined, branch)
}

// resolveFromReflog scans the branch's reflog from oldest to newest for a
// creation entry. ok is false when the reflog yields no valid candidate.
func (r *BranchOriginResolver) resolveFromReflog(ctx context.Context, branch string) (*domain.OriginDetection, bool, error) {
	entries, err := r.gateway.ReflogEntries(ctx, branch)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read reflog for %s: %w", branch, err)
	}

	// Entries arrive newest first; the creation entry is near the end.
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		matches := createdFromPattern.FindStringSubmatch(entry.Message)
		if matches == nil {
			continue
		}

		candidate := strings.TrimSpace(matches[1])
		evidence := entry.Message

		if candidate == "HEAD" {
			resolved, ok := r.resolveHeadAlias(ctx, entry.SHA)
			if !ok {
				r.logger.Debug(ctx, "could not resolve HEAD alias from creation entry", map[string]interface{}{
					"branch": branch,
					"sha":    entry.SHA,
				})
				return nil, false, nil
			}
			candidate = resolved
		}

		if !r.validCandidate(ctx, candidate) {
			r.logger.Debug(ctx, "rejecting invalid origin candidate from reflog", map[string]interface{}{
				"branch":    branch,
				"candidate": candidate,
			})
			return nil, false, nil
		}

		return &domain.OriginDetection{
			Branch:   branch,
			Origin:   candidate,
			Method:   domain.OriginMethodReflog,
			Evidence: evidence,
		}, true, nil
	}

	return nil, false, nil
}

// resolveHeadAlias maps the literal "HEAD" in a creation entry to a concrete
// branch by listing the branches containing the recorded commit. Canonical
// base branches are preferred in list order; otherwise the first name that is
// neither a special ref nor hash-shaped wins.
func (r *BranchOriginResolver) resolveHeadAlias(ctx context.Context, sha string) (string, bool) {
	containing, err := r.gateway.BranchesContaining(ctx, sha)
	if err != nil || len(containing) == 0 {
		return "", false
	}

	for _, base := range r.baseBranches {
		for _, name := range containing {
			if name == base {
				return name, true
			}
		}
	}

	for _, name := range containing {
		if specialRefs[name] || shaShapePattern.MatchString(name) {
			continue
		}
		return name, true
	}
	return "", false
}

// validCandidate rejects special refs, hash-shaped names, and names that do
// not resolve in the repository.
func (r *BranchOriginResolver) validCandidate(ctx context.Context, candidate string) bool {
	if candidate == "" || specialRefs[candidate] {
		return false
	}
	if shaShapePattern.MatchString(candidate) {
		return false
	}
	return r.gateway.RefExists(ctx, candidate)
}

// resolveFromMergeBase picks the canonical base branch closest to branch by
// commit distance from the merge base. Base branches that do not exist
// locally are skipped; ties break in favor of the earlier list entry.
func (r *BranchOriginResolver) resolveFromMergeBase(ctx context.Context, branch string) (*domain.OriginDetection, bool, error) {
	best := ""
	bestDistance := 0
	found := false

	for _, base := range r.baseBranches {
		if base == branch {
			continue
		}

		distance, ok, err := r.gateway.MergeBaseDistance(ctx, base, branch)
		if err != nil {
			return nil, false, fmt.Errorf("failed to compute merge-base distance for %s: %w", base, err)
		}
		if !ok {
			continue
		}

		r.logger.Debug(ctx, "merge-base distance computed", map[string]interface{}{
			"branch":   branch,
			"base":     base,
			"distance": distance,
		})

		// Strict < keeps the first candidate on ties.
		if !found || distance < bestDistance {
			best = base
			bestDistance = distance
			found = true
		}
	}

	if !found {
		return nil, false, nil
	}

	return &domain.OriginDetection{
		Branch:   branch,
		Origin:   best,
		Method:   domain.OriginMethodMergeBase,
		Evidence: fmt.Sprintf("merge-base %s distance=%d", best, bestDistance),
	}, true, nil
}
