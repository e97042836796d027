package usecases

import (
	"context"
	"fmt"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
)

// DecideInput carries the parameters for the allocation decision procedure.
type DecideInput struct {
	// Branch is the branch the decision is computed for.
	Branch string

	// Local is the build number read from the working copy.
	Local int

	// Remote is the number recorded for Branch on the remote, valid only
	// when HasRemote is true.
	Remote    int
	HasRemote bool

	// Set is the live snapshot of recorded numbers across all branches,
	// used for collision detection on the proposed candidate.
	Set *domain.BuildNumberSet
}

// Decider runs the allocation decision procedure that backs the pre-commit
// automation. It classifies local vs remote and, where a new number is due,
// finds a collision-free candidate by strict increment-and-recheck.
//
// The strict sequential fallback here and the gap-seeking SuggestGaps
// strategy are intentionally different; callers must not conflate them.
type Decider struct {
	allocator domain.Allocator
	logger    Logger
}

// NewDecider creates a Decider on top of an allocator.
func NewDecider(allocator domain.Allocator, log Logger) *Decider {
	return &Decider{allocator: allocator, logger: log}
}

// Compare classifies the local number against the remote record.
func Compare(local int, remote int, hasRemote bool) domain.SyncState {
	switch {
	case !hasRemote:
		return domain.StateNoRemote
	case local == remote:
		return domain.StateEqual
	case local > remote:
		return domain.StateAhead
	default:
		return domain.StateBehind
	}
}

// Decide runs the state machine:
//
//	BEHIND    -> reported; reconciliation (pull) is the caller's choice.
//	AHEAD     -> terminal success, no change needed.
//	EQUAL     -> candidate = local+1, then increment-and-recheck until free.
//	NO_REMOTE -> no comparison possible; local+1 proposed as informational.
func (d *Decider) Decide(ctx context.Context, input DecideInput) (*domain.Decision, error) {
	if input.Set == nil {
		return nil, fmt.Errorf("decision requires a collected build number set")
	}

	decision := &domain.Decision{
		Branch:    input.Branch,
		State:     Compare(input.Local, input.Remote, input.HasRemote),
		Local:     input.Local,
		Remote:    input.Remote,
		HasRemote: input.HasRemote,
	}

	switch decision.State {
	case domain.StateBehind, domain.StateAhead:
		// Terminal either way; nothing to propose.

	case domain.StateEqual:
		candidate := input.Local + 1
		for {
			branch, taken := d.allocator.IsTaken(candidate, input.Set)
			if !taken {
				break
			}
			if decision.CollidesWith == "" {
				decision.CollidesWith = branch
			}
			d.logger.Warn(ctx, "build number collision", map[string]interface{}{
				"candidate": candidate,
				"held_by":   branch,
			})
			candidate = d.allocator.FindNextAvailable(candidate+1, input.Set)
		}
		decision.Proposed = candidate

	case domain.StateNoRemote:
		decision.Proposed = input.Local + 1
	}

	d.logger.Info(ctx, "allocation decision computed", map[string]interface{}{
		"branch":   decision.Branch,
		"state":    decision.State.String(),
		"local":    decision.Local,
		"proposed": decision.Proposed,
	})

	return decision, nil
}
