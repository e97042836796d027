// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill use cases.
package usecases

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
)

// Logger defines the logging interface required by the use cases.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// BuildAllocator implements domain.Allocator over a RepositoryGateway.
// It detects collisions and computes safe candidate numbers across the build
// numbers recorded on all remote branches.
type BuildAllocator struct {
	gateway  domain.RepositoryGateway
	filePath string
	minBuild int
	logger   Logger
}

// NewBuildAllocator creates a BuildAllocator.
// filePath is the repository-relative path of the build-number file and
// minBuild the threshold below which recorded values are discarded.
func NewBuildAllocator(
	gateway domain.RepositoryGateway,
	filePath string,
	minBuild int,
	log Logger,
) *BuildAllocator {
	return &BuildAllocator{
		gateway:  gateway,
		filePath: filePath,
		minBuild: minBuild,
		logger:   log,
	}
}

// CollectAll scans every branch on the remote and reads the build-number file
// at its tip. Branches with an absent or unparseable file are silently
// skipped; values below the minimum threshold are discarded as noise.
// The returned set is a live snapshot; nothing is cached between calls.
func (a *BuildAllocator) CollectAll(
	ctx context.Context,
	remote string,
	progress domain.ProgressFunc,
) (*domain.BuildNumberSet, error) {
	branches, err := a.gateway.ListRemoteBranches(ctx, remote)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote branches: %w", err)
	}

	set := domain.NewBuildNumberSet()
	for i, branch := range branches {
		if progress != nil {
			progress(branch, i+1, len(branches))
		}

		line, ok, err := a.gateway.ReadFileAtBranchTip(ctx, remote, branch, a.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s on %s: %w", a.filePath, branch, err)
		}
		if !ok {
			continue
		}

		number, err := ParseBuildNumber(line)
		if err != nil {
			a.logger.Debug(ctx, "skipping branch with unparseable build number", map[string]interface{}{
				"branch":  branch,
				"content": line,
			})
			continue
		}
		if number < a.minBuild {
			a.logger.Debug(ctx, "skipping build number below minimum threshold", map[string]interface{}{
				"branch": branch,
				"number": number,
				"min":    a.minBuild,
			})
			continue
		}

		set.Add(branch, number)
	}

	a.logger.Info(ctx, "collected build numbers", map[string]interface{}{
		"remote":   remote,
		"scanned":  len(branches),
		"recorded": set.Len(),
	})

	return set, nil
}

// IsTaken returns the first branch, in scan order, whose recorded number is
// exactly candidate.
func (a *BuildAllocator) IsTaken(candidate int, set *domain.BuildNumberSet) (string, bool) {
	for _, branch := range set.Branches {
		if set.Numbers[branch] == candidate {
			return branch, true
		}
	}
	return "", false
}

// FindNextAvailable returns the smallest integer >= startingFrom not present
// as a recorded value. This is the strictly sequential fallback; it is
// intentionally distinct from the gap-seeking SuggestGaps strategy and the
// two may produce different recommendations.
func (a *BuildAllocator) FindNextAvailable(startingFrom int, set *domain.BuildNumberSet) int {
	used := make(map[int]bool, set.Len())
	for _, n := range set.Numbers {
		used[n] = true
	}

	candidate := startingFrom
	for used[candidate] {
		candidate++
	}
	return candidate
}

// ComputeNeighbors sorts all distinct recorded values and maps each to its
// nearest lower and higher values. Colliding branches share a single sorted
// position; displaying which branches map to a value is the caller's job.
func (a *BuildAllocator) ComputeNeighbors(set *domain.BuildNumberSet) map[int]domain.NeighborPair {
	values := distinctSorted(set)

	pairs := make(map[int]domain.NeighborPair, len(values))
	for i, v := range values {
		pair := domain.NeighborPair{}
		if i > 0 {
			pair.Left = values[i-1]
			pair.HasLeft = true
			pair.GapLeft = v - values[i-1]
		}
		if i < len(values)-1 {
			pair.Right = values[i+1]
			pair.HasRight = true
			pair.GapRight = values[i+1] - v
		}
		pairs[v] = pair
	}
	return pairs
}

// SuggestGaps walks adjacent pairs of distinct recorded values and, for each,
// proposes the next multiple of ten above the lower value. A suggestion is
// emitted only when it leaves at least minGap of headroom before the next
// recorded value; the final, open-ended interval always yields a suggestion.
// Output is ascending, lowest (most preferred) first.
//
// Note: headroom is only guaranteed on the upper side. Two suggestions can sit
// close together when the underlying recorded values are close; this mirrors
// the established behavior callers rely on.
func (a *BuildAllocator) SuggestGaps(set *domain.BuildNumberSet, minGap int) []domain.Suggestion {
	values := distinctSorted(set)

	var suggestions []domain.Suggestion
	for i, current := range values {
		candidate := roundUpToTen(current + 1)

		if i == len(values)-1 {
			suggestions = append(suggestions, domain.Suggestion{
				Number: candidate,
				After:  current,
				Open:   true,
			})
			continue
		}

		next := values[i+1]
		if candidate+minGap <= next {
			suggestions = append(suggestions, domain.Suggestion{
				Number: candidate,
				After:  current,
				Before: next,
				Gap:    next - candidate,
			})
		}
	}
	return suggestions
}

// ParseBuildNumber parses the first line of a build-number file as an
// integer, ignoring surrounding whitespace.
func ParseBuildNumber(line string) (int, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return 0, fmt.Errorf("empty build number")
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid build number %q: %w", trimmed, err)
	}
	return n, nil
}

// FormatBuildNumber renders a build number in the single-line file format:
// the integer followed by one newline.
func FormatBuildNumber(n int) string {
	return strconv.Itoa(n) + "\n"
}

// distinctSorted returns the distinct recorded values in ascending order.
func distinctSorted(set *domain.BuildNumberSet) []int {
	seen := make(map[int]bool, set.Len())
	var values []int
	for _, n := range set.Numbers {
		if !seen[n] {
			seen[n] = true
			values = append(values, n)
		}
	}
	sort.Ints(values)
	return values
}

// roundUpToTen returns n rounded up to the nearest multiple of ten.
func roundUpToTen(n int) int {
	if n%10 == 0 {
		return n
	}
	return n + (10 - n%10)
}
