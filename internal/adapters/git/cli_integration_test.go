package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
)

// testLogger is a minimal logger for testing that doesn't output anything.
type testLogger struct{}

func (l *testLogger) Debug(_ context.Context, _ string, _ map[string]interface{}) {}
func (l *testLogger) Warn(_ context.Context, _ string, _ map[string]interface{})  {}

// runGit executes a git command in the given directory.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\nOutput: %s", args, err, output)
	}
}

// setupTestRepos creates an upstream bare repository and a working clone with
// two branches carrying different build numbers:
//
//	main       .build-number = 5038, plus one extra commit
//	feature/x  .build-number = 5064, created from main
func setupTestRepos(t *testing.T) (workDir string) {
	t.Helper()

	base := t.TempDir()
	upstream := filepath.Join(base, "upstream.git")
	workDir = filepath.Join(base, "work")

	runGit(t, base, "init", "--bare", upstream)
	runGit(t, base, "init", "-b", "main", workDir)
	runGit(t, workDir, "config", "user.email", "test@example.com")
	runGit(t, workDir, "config", "user.name", "Test User")
	runGit(t, workDir, "remote", "add", "origin", upstream)

	writeFile(t, workDir, ".build-number", "5038\n")
	writeFile(t, workDir, "README.md", "test repo\n")
	runGit(t, workDir, "add", ".")
	runGit(t, workDir, "commit", "-m", "initial")
	runGit(t, workDir, "push", "-u", "origin", "main")

	runGit(t, workDir, "branch", "feature/x", "main")
	runGit(t, workDir, "checkout", "feature/x")
	writeFile(t, workDir, ".build-number", "5064\n")
	runGit(t, workDir, "commit", "-am", "bump build number")
	runGit(t, workDir, "push", "-u", "origin", "feature/x")

	// One commit on main so the merge-base distance is nonzero.
	runGit(t, workDir, "checkout", "main")
	writeFile(t, workDir, "main-only.txt", "hello\n")
	runGit(t, workDir, "add", ".")
	runGit(t, workDir, "commit", "-m", "main moves on")
	runGit(t, workDir, "push", "origin", "main")

	runGit(t, workDir, "checkout", "feature/x")
	runGit(t, workDir, "fetch", "origin")

	return workDir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestGateway(t *testing.T, path string) *CLIGateway {
	t.Helper()
	gw, err := NewCLIGateway(path, 30*time.Second, &testLogger{})
	require.NoError(t, err)
	return gw
}

func TestNewCLIGateway_NotARepository(t *testing.T) {
	gw, err := NewCLIGateway(t.TempDir(), 0, &testLogger{})

	require.Error(t, err)
	assert.Nil(t, gw)
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
}

func TestCLIGateway_RootDetectedFromSubdirectory(t *testing.T) {
	workDir := setupTestRepos(t)
	sub := filepath.Join(workDir, "sub", "dir")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	gw := newTestGateway(t, sub)
	assert.Equal(t, resolvePath(t, workDir), resolvePath(t, gw.Root()))
}

// resolvePath normalizes symlinked temp dirs (macOS /var vs /private/var).
func resolvePath(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return resolved
}

func TestCLIGateway_ListRemoteBranches(t *testing.T) {
	workDir := setupTestRepos(t)
	gw := newTestGateway(t, workDir)

	branches, err := gw.ListRemoteBranches(context.Background(), "origin")

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main", "feature/x"}, branches)
}

func TestCLIGateway_ListRemoteBranches_Unreachable(t *testing.T) {
	workDir := setupTestRepos(t)
	gw := newTestGateway(t, workDir)

	_, err := gw.ListRemoteBranches(context.Background(), "nonexistent-remote")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemoteUnreachable)
}

func TestCLIGateway_ReadFileAtBranchTip(t *testing.T) {
	workDir := setupTestRepos(t)
	gw := newTestGateway(t, workDir)
	ctx := context.Background()

	line, ok, err := gw.ReadFileAtBranchTip(ctx, "origin", "main", ".build-number")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "5038", line)

	line, ok, err = gw.ReadFileAtBranchTip(ctx, "origin", "feature/x", ".build-number")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "5064", line)

	// A missing file is a normal "none" result, not an error.
	_, ok, err = gw.ReadFileAtBranchTip(ctx, "origin", "main", "no-such-file")
	require.NoError(t, err)
	assert.False(t, ok)

	// A branch deleted on the remote since it was listed reads as absent.
	_, ok, err = gw.ReadFileAtBranchTip(ctx, "origin", "never-existed", ".build-number")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCLIGateway_ReadFileAtBranchTip_UnfetchedBranch(t *testing.T) {
	workDir := setupTestRepos(t)
	ctx := context.Background()

	// A second clone claims a number on a new branch and pushes it. The
	// first clone has no tracking ref for it, but the number must still be
	// visible or the collision check would re-propose it.
	otherDir := filepath.Join(filepath.Dir(workDir), "other")
	runGit(t, filepath.Dir(workDir), "clone", filepath.Join(filepath.Dir(workDir), "upstream.git"), otherDir)
	runGit(t, otherDir, "config", "user.email", "test@example.com")
	runGit(t, otherDir, "config", "user.name", "Test User")
	runGit(t, otherDir, "checkout", "-b", "feature/new", "origin/main")
	writeFile(t, otherDir, ".build-number", "6653\n")
	runGit(t, otherDir, "commit", "-am", "claim build number")
	runGit(t, otherDir, "push", "origin", "feature/new")

	gw := newTestGateway(t, workDir)

	branches, err := gw.ListRemoteBranches(ctx, "origin")
	require.NoError(t, err)
	require.Contains(t, branches, "feature/new")

	line, ok, err := gw.ReadFileAtBranchTip(ctx, "origin", "feature/new", ".build-number")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "6653", line)
}

func TestCLIGateway_LocalFileRoundTrip(t *testing.T) {
	workDir := setupTestRepos(t)
	gw := newTestGateway(t, workDir)

	require.NoError(t, gw.WriteLocalFile(".build-number", "6653\n"))

	line, ok, err := gw.ReadLocalFile(".build-number")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "6653", line)

	_, ok, err = gw.ReadLocalFile("missing-file")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCLIGateway_CurrentBranch(t *testing.T) {
	workDir := setupTestRepos(t)
	gw := newTestGateway(t, workDir)

	branch, err := gw.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "feature/x", branch)
}

func TestCLIGateway_CurrentBranch_Detached(t *testing.T) {
	workDir := setupTestRepos(t)
	runGit(t, workDir, "checkout", "--detach", "HEAD")

	gw := newTestGateway(t, workDir)
	_, err := gw.CurrentBranch()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDetachedHead)
}

func TestCLIGateway_ReflogEntries(t *testing.T) {
	workDir := setupTestRepos(t)
	gw := newTestGateway(t, workDir)

	entries, err := gw.ReflogEntries(context.Background(), "feature/x")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	// The creation entry is the oldest, i.e. the last in the sequence.
	oldest := entries[len(entries)-1]
	assert.Contains(t, oldest.Message, "branch: Created from main")
	assert.NotEmpty(t, oldest.SHA)
}

func TestCLIGateway_ReflogEntries_UnknownBranch(t *testing.T) {
	workDir := setupTestRepos(t)
	gw := newTestGateway(t, workDir)

	entries, err := gw.ReflogEntries(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCLIGateway_MergeBaseDistance(t *testing.T) {
	workDir := setupTestRepos(t)
	gw := newTestGateway(t, workDir)
	ctx := context.Background()

	// main gained exactly one commit past the fork point.
	distance, ok, err := gw.MergeBaseDistance(ctx, "main", "feature/x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, distance)

	// feature/x gained exactly one commit of its own.
	distance, ok, err = gw.MergeBaseDistance(ctx, "feature/x", "main")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, distance)

	_, ok, err = gw.MergeBaseDistance(ctx, "no-such-branch", "main")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCLIGateway_RefExists(t *testing.T) {
	workDir := setupTestRepos(t)
	gw := newTestGateway(t, workDir)
	ctx := context.Background()

	assert.True(t, gw.RefExists(ctx, "main"))
	assert.True(t, gw.RefExists(ctx, "feature/x"))
	assert.False(t, gw.RefExists(ctx, "no-such-ref"))
}

func TestCLIGateway_BranchesContaining(t *testing.T) {
	workDir := setupTestRepos(t)
	gw := newTestGateway(t, workDir)

	// The fork-point commit is on both branches; resolve it via merge-base.
	out, err := exec.Command("git", "-C", workDir, "merge-base", "main", "feature/x").Output()
	require.NoError(t, err)
	sha := string(out[:40])

	branches, err := gw.BranchesContaining(context.Background(), sha)
	require.NoError(t, err)
	assert.Contains(t, branches, "main")
	assert.Contains(t, branches, "feature/x")
}

func TestCLIGateway_BranchesContaining_RemoteTrackingOnly(t *testing.T) {
	workDir := setupTestRepos(t)

	out, err := exec.Command("git", "-C", workDir, "merge-base", "main", "feature/x").Output()
	require.NoError(t, err)
	sha := string(out[:40])

	// Drop the local main; origin/main still contains the commit and must
	// keep main findable under its short name.
	runGit(t, workDir, "branch", "-D", "main")

	gw := newTestGateway(t, workDir)
	branches, err := gw.BranchesContaining(context.Background(), sha)
	require.NoError(t, err)
	assert.Contains(t, branches, "main")
}
