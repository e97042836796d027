// Package domain defines the core business entities and interfaces for buildnum.
package domain

// BuildRecord associates a remote branch with the build number recorded at its tip.
type BuildRecord struct {
	// Branch is the short remote branch name (without the remote prefix).
	Branch string

	// Number is the integer parsed from the first line of the build-number file.
	Number int
}

// BuildNumberSet is a live snapshot of the build numbers recorded across all
// remote branches. It is rebuilt on every invocation and never cached.
//
// Branches preserves the order in which branches were scanned so that lookups
// with multiple matches (collisions) resolve deterministically.
type BuildNumberSet struct {
	// Numbers maps branch name to its recorded build number.
	Numbers map[string]int

	// Branches lists branch names in scan order. Only branches that
	// contributed a record appear here.
	Branches []string
}

// NewBuildNumberSet returns an empty set ready for Add calls.
func NewBuildNumberSet() *BuildNumberSet {
	return &BuildNumberSet{Numbers: make(map[string]int)}
}

// Add records a build number for a branch, preserving scan order.
func (s *BuildNumberSet) Add(branch string, number int) {
	if _, seen := s.Numbers[branch]; !seen {
		s.Branches = append(s.Branches, branch)
	}
	s.Numbers[branch] = number
}

// Len returns the number of branches with a recorded build number.
func (s *BuildNumberSet) Len() int {
	return len(s.Numbers)
}

// NeighborPair describes the nearest recorded values around a distinct build
// number in the sorted value set.
type NeighborPair struct {
	// Left is the nearest lower recorded value. HasLeft is false for the minimum.
	Left    int
	HasLeft bool

	// Right is the nearest higher recorded value. HasRight is false for the maximum.
	Right    int
	HasRight bool

	// GapLeft and GapRight are the absolute differences to each neighbor,
	// zero when the corresponding neighbor does not exist.
	GapLeft  int
	GapRight int
}

// Suggestion is a candidate build number computed by the gap-seeking strategy.
// Suggestions favor low, round numbers and guarantee at least the configured
// minimum gap of headroom before the next recorded value.
type Suggestion struct {
	// Number is the suggested build number.
	Number int

	// After is the recorded value immediately below the suggestion.
	After int

	// Before is the recorded value immediately above the suggestion.
	// Open is true when the suggestion sits past the highest recorded value,
	// in which case Before is zero.
	Before int
	Open   bool

	// Gap is the headroom between Number and Before (zero when Open).
	Gap int
}

// Origin detection method names, reported in OriginDetection.Method.
const (
	OriginMethodReflog    = "reflog"
	OriginMethodMergeBase = "merge-base"
)

// OriginDetection is the result of inferring which branch a branch was
// created from. Computed fresh per invocation, never persisted.
type OriginDetection struct {
	// Branch is the branch the detection ran for.
	Branch string

	// Origin is the inferred origin branch.
	Origin string

	// Method is OriginMethodReflog or OriginMethodMergeBase.
	Method string

	// Evidence is the raw reflog line or a rendered merge-base summary,
	// kept for diagnostic display.
	Evidence string
}

// ReflogEntry is one line of a branch's reflog. The gateway returns entries
// in git's native order, newest first (oldest entry last).
type ReflogEntry struct {
	SHA     string
	Message string
}

// SyncState classifies the local build number against the remote record for
// the same branch.
type SyncState int

const (
	// StateEqual means local and remote hold the same number.
	StateEqual SyncState = iota

	// StateAhead means the local number is greater than the remote record.
	StateAhead

	// StateBehind means the local number is lower than the remote record.
	// The caller must reconcile (typically by pulling); this tool only reports.
	StateBehind

	// StateNoRemote means the remote has no parseable record for this branch.
	StateNoRemote
)

// String renders the state for logs and user output.
func (s SyncState) String() string {
	switch s {
	case StateEqual:
		return "equal"
	case StateAhead:
		return "ahead"
	case StateBehind:
		return "behind"
	case StateNoRemote:
		return "no-remote"
	default:
		return "unknown"
	}
}

// Decision is the outcome of the allocation decision procedure for a branch.
type Decision struct {
	// Branch the decision was computed for.
	Branch string

	// State classifies local vs remote.
	State SyncState

	// Local is the build number read from the working copy.
	Local int

	// Remote is the number recorded for Branch on the remote; only valid
	// when HasRemote is true.
	Remote    int
	HasRemote bool

	// Proposed is the next number to write. Populated for StateEqual (after
	// collision fallback) and StateNoRemote (informational increment).
	Proposed int

	// CollidesWith names the branch that already held the initial candidate,
	// empty when the increment was free on the first try.
	CollidesWith string
}

// PatchResult reports what the workflow patcher did to one file.
type PatchResult struct {
	// Path is the workflow file path relative to the repository root.
	Path string

	// Changed is true when the file content was rewritten.
	Changed bool

	// Skipped is true when the file was absent and left alone.
	Skipped bool
}

// DefaultMinBuildNumber is the threshold below which recorded values are
// ignored as noise from legacy or unrelated branches.
const DefaultMinBuildNumber = 5000

// DefaultMinGap is the minimum headroom a gap suggestion must leave before
// the next recorded value.
const DefaultMinGap = 20
