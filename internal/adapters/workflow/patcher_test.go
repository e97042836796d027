package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
)

type testLogger struct{}

func (l *testLogger) Debug(_ context.Context, _ string, _ map[string]interface{}) {}
func (l *testLogger) Warn(_ context.Context, _ string, _ map[string]interface{})  {}

const buildWorkflow = `name: build
on:
  push:
env:
  BUILD_BRANCH: old-branch
  BASE_BRANCH: old-base
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
`

func writeWorkflow(t *testing.T, root, path, content string) {
	t.Helper()
	full := filepath.Join(root, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestPatcher_Patch(t *testing.T) {
	root := t.TempDir()
	writeWorkflow(t, root, ".github/workflows/build.yml", buildWorkflow)
	writeWorkflow(t, root, ".github/workflows/release.yml", buildWorkflow)

	p := NewPatcher(root, []string{".github/workflows/build.yml", ".github/workflows/release.yml"}, &testLogger{})

	results, err := p.Patch(context.Background(), "feature/x", "develop")
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.True(t, r.Changed)
		assert.False(t, r.Skipped)
	}

	data, err := os.ReadFile(filepath.Join(root, ".github/workflows/build.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "BUILD_BRANCH: feature/x")
	assert.Contains(t, string(data), "BASE_BRANCH: develop")
	// Indentation is preserved.
	assert.Contains(t, string(data), "  BUILD_BRANCH: feature/x")
}

func TestPatcher_Patch_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeWorkflow(t, root, "wf.yml", buildWorkflow)

	p := NewPatcher(root, []string{"wf.yml"}, &testLogger{})
	ctx := context.Background()

	first, err := p.Patch(ctx, "feature/x", "develop")
	require.NoError(t, err)
	assert.True(t, first[0].Changed)

	afterFirst, err := os.ReadFile(filepath.Join(root, "wf.yml"))
	require.NoError(t, err)

	second, err := p.Patch(ctx, "feature/x", "develop")
	require.NoError(t, err)
	assert.False(t, second[0].Changed)

	afterSecond, err := os.ReadFile(filepath.Join(root, "wf.yml"))
	require.NoError(t, err)
	assert.Equal(t, afterFirst, afterSecond)
}

func TestPatcher_Patch_MissingFileSkipped(t *testing.T) {
	root := t.TempDir()
	p := NewPatcher(root, []string{"absent.yml"}, &testLogger{})

	results, err := p.Patch(context.Background(), "feature/x", "develop")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.False(t, results[0].Changed)
}

func TestPatcher_Patch_RejectsInvalidResult(t *testing.T) {
	root := t.TempDir()
	// A branch name opening an unterminated quote breaks the YAML after
	// substitution.
	writeWorkflow(t, root, "wf.yml", "BUILD_BRANCH: x\nBASE_BRANCH: y\n")

	p := NewPatcher(root, []string{"wf.yml"}, &testLogger{})

	before, err := os.ReadFile(filepath.Join(root, "wf.yml"))
	require.NoError(t, err)

	_, err = p.Patch(context.Background(), `"broken`, "develop")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWorkflowInvalid)

	// The file is untouched on validation failure.
	after, readErr := os.ReadFile(filepath.Join(root, "wf.yml"))
	require.NoError(t, readErr)
	assert.Equal(t, before, after)
}

func TestRewrite_OnlyTargetsOwnKeys(t *testing.T) {
	content := "OTHER_BRANCH: keep\nBUILD_BRANCH: a\nnested:\n  BASE_BRANCH: b\n"
	patched := rewrite(content, "new-build", "new-base")

	assert.Contains(t, patched, "OTHER_BRANCH: keep")
	assert.Contains(t, patched, "BUILD_BRANCH: new-build")
	assert.Contains(t, patched, "  BASE_BRANCH: new-base")
}
