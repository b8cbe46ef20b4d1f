package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/internal/state"
	"github.com/docsift/docsift/internal/ui"
)

// MockRenderer implements ui.Renderer and records everything it is shown.
type MockRenderer struct {
	StartCalled     bool
	StopCalled      bool
	CompleteCalled  bool
	ProgressEvents  []ui.ProgressEvent
	ErrorEvents     []ui.ErrorEvent
	CompletionStats ui.CompletionStats
}

func (m *MockRenderer) Start(ctx context.Context) error {
	m.StartCalled = true
	return nil
}

func (m *MockRenderer) UpdateProgress(event ui.ProgressEvent) {
	m.ProgressEvents = append(m.ProgressEvents, event)
}

func (m *MockRenderer) AddError(event ui.ErrorEvent) {
	m.ErrorEvents = append(m.ErrorEvents, event)
}

func (m *MockRenderer) Complete(stats ui.CompletionStats) {
	m.CompleteCalled = true
	m.CompletionStats = stats
}

func (m *MockRenderer) Stop() error {
	m.StopCalled = true
	return nil
}

var _ ui.Renderer = (*MockRenderer)(nil)

func setupRunner(t *testing.T) (*Runner, *MockRenderer, *Coordinator, string) {
	t.Helper()

	coord, tempDir := setupCoordinator(t)
	renderer := &MockRenderer{}
	runner, err := NewRunner(RunnerDependencies{
		Renderer:    renderer,
		Coordinator: coord,
	})
	require.NoError(t, err)

	return runner, renderer, coord, tempDir
}

// stagesSeen returns the distinct stages in event order.
func stagesSeen(events []ui.ProgressEvent) []ui.Stage {
	var stages []ui.Stage
	for _, e := range events {
		if len(stages) == 0 || stages[len(stages)-1] != e.Stage {
			stages = append(stages, e.Stage)
		}
	}
	return stages
}

func TestNewRunner_RequiresRenderer(t *testing.T) {
	// Given: dependencies without a renderer
	coord, _ := setupCoordinator(t)

	// When: constructing
	_, err := NewRunner(RunnerDependencies{Coordinator: coord})

	// Then: construction fails
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderer")
}

func TestNewRunner_RequiresCoordinator(t *testing.T) {
	// Given: dependencies without a coordinator
	_, err := NewRunner(RunnerDependencies{Renderer: &MockRenderer{}})

	// Then: construction fails
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coordinator")
}

func TestRunner_FreshDirectory(t *testing.T) {
	// Given: a directory that has never been indexed
	runner, renderer, coord, tempDir := setupRunner(t)
	docs := filepath.Join(tempDir, "docs")
	writeFile(t, docs, "alpha.txt", "the quick brown fox")
	writeFile(t, docs, "beta.md", "jumps over the lazy dog")

	// When: running the pipeline
	result, err := runner.Run(context.Background(), RunnerConfig{Dirs: []string{docs}})
	require.NoError(t, err)

	// Then: both documents are indexed and the state file written
	assert.False(t, result.Loaded)
	assert.Equal(t, 2, result.Documents)
	assert.Equal(t, 2, result.Indexed)
	assert.Greater(t, result.Terms, 0)
	assert.True(t, state.Exists(coord.cfg.StatePath))

	// And: the renderer saw the completion summary
	assert.True(t, renderer.CompleteCalled)
	assert.Equal(t, 2, renderer.CompletionStats.Documents)
	assert.Equal(t, 2, renderer.CompletionStats.Indexed)
}

func TestRunner_SecondRunUpToDate(t *testing.T) {
	// Given: a directory indexed by a previous run
	runner, _, coord, tempDir := setupRunner(t)
	docs := filepath.Join(tempDir, "docs")
	writeFile(t, docs, "alpha.txt", "stable content")

	ctx := context.Background()
	_, err := runner.Run(ctx, RunnerConfig{Dirs: []string{docs}})
	require.NoError(t, err)

	// When: a fresh runner indexes the same directory again
	fresh := NewCoordinator(coord.cfg)
	renderer := &MockRenderer{}
	second, err := NewRunner(RunnerDependencies{Renderer: renderer, Coordinator: fresh})
	require.NoError(t, err)

	result, err := second.Run(ctx, RunnerConfig{Dirs: []string{docs}})
	require.NoError(t, err)

	// Then: the state loads and nothing is re-extracted
	assert.True(t, result.Loaded)
	assert.Equal(t, 0, result.Indexed)
	assert.Equal(t, 1, result.UpToDate)
	assert.Equal(t, 1, result.Documents)
}

func TestRunner_ReconcileRemovesDeleted(t *testing.T) {
	// Given: an indexed file deleted between runs
	runner, _, coord, tempDir := setupRunner(t)
	docs := filepath.Join(tempDir, "docs")
	gone := writeFile(t, docs, "gone.txt", "short lived")
	writeFile(t, docs, "kept.txt", "long lived")

	ctx := context.Background()
	_, err := runner.Run(ctx, RunnerConfig{Dirs: []string{docs}})
	require.NoError(t, err)
	require.NoError(t, os.Remove(gone))

	// When: a fresh runner runs with no directory argument
	fresh := NewCoordinator(coord.cfg)
	renderer := &MockRenderer{}
	second, err := NewRunner(RunnerDependencies{Renderer: renderer, Coordinator: fresh})
	require.NoError(t, err)

	result, err := second.Run(ctx, RunnerConfig{})
	require.NoError(t, err)

	// Then: the deleted document is reconciled away
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, 1, result.Documents)
	assert.False(t, fresh.Index().Contains(gone))
}

func TestRunner_RescanFindsNewFiles(t *testing.T) {
	// Given: a tracked directory that gains a file between runs
	runner, _, coord, tempDir := setupRunner(t)
	docs := filepath.Join(tempDir, "docs")
	writeFile(t, docs, "old.txt", "original member")

	ctx := context.Background()
	_, err := runner.Run(ctx, RunnerConfig{Dirs: []string{docs}})
	require.NoError(t, err)

	writeFile(t, docs, "new.txt", "later arrival")

	// When: a fresh runner rescans
	fresh := NewCoordinator(coord.cfg)
	renderer := &MockRenderer{}
	second, err := NewRunner(RunnerDependencies{Renderer: renderer, Coordinator: fresh})
	require.NoError(t, err)

	result, err := second.Run(ctx, RunnerConfig{Rescan: true})
	require.NoError(t, err)

	// Then: the new file is picked up without re-extracting the old one
	assert.Equal(t, 1, result.Indexed)
	assert.Equal(t, 1, result.UpToDate)
	assert.Equal(t, 2, result.Documents)
}

func TestRunner_ExtractFailureReportedAsWarning(t *testing.T) {
	// Given: a directory containing an unreadable pdf
	runner, renderer, _, tempDir := setupRunner(t)
	docs := filepath.Join(tempDir, "docs")
	writeFile(t, docs, "broken.pdf", "not really a pdf")
	writeFile(t, docs, "fine.txt", "good words")

	// When: running
	result, err := runner.Run(context.Background(), RunnerConfig{Dirs: []string{docs}})
	require.NoError(t, err)

	// Then: the failure surfaces as a warning, not a fatal error
	assert.Equal(t, 1, result.Warnings)
	assert.Equal(t, 1, result.Indexed)
	require.Len(t, renderer.ErrorEvents, 1)
	assert.True(t, renderer.ErrorEvents[0].IsWarn)
	assert.Equal(t, "broken.pdf", renderer.ErrorEvents[0].File)
}

func TestRunner_StageOrdering(t *testing.T) {
	// Given: a directory with content
	runner, renderer, _, tempDir := setupRunner(t)
	docs := filepath.Join(tempDir, "docs")
	writeFile(t, docs, "a.txt", "one")
	writeFile(t, docs, "b.txt", "two")

	// When: running
	_, err := runner.Run(context.Background(), RunnerConfig{Dirs: []string{docs}})
	require.NoError(t, err)

	// Then: stages advance scan, extract, save with no backtracking
	assert.Equal(t,
		[]ui.Stage{ui.StageScanning, ui.StageExtracting, ui.StageSaving},
		stagesSeen(renderer.ProgressEvents))
}

func TestRunner_ReconcileStageOnLoadedState(t *testing.T) {
	// Given: a saved state so the second run reconciles
	runner, _, coord, tempDir := setupRunner(t)
	docs := filepath.Join(tempDir, "docs")
	writeFile(t, docs, "a.txt", "content")

	ctx := context.Background()
	_, err := runner.Run(ctx, RunnerConfig{Dirs: []string{docs}})
	require.NoError(t, err)

	fresh := NewCoordinator(coord.cfg)
	renderer := &MockRenderer{}
	second, err := NewRunner(RunnerDependencies{Renderer: renderer, Coordinator: fresh})
	require.NoError(t, err)

	// When: running with no new directory
	_, err = second.Run(ctx, RunnerConfig{})
	require.NoError(t, err)

	// Then: the run opens with the reconcile stage and its banner message
	stages := stagesSeen(renderer.ProgressEvents)
	require.NotEmpty(t, stages)
	assert.Equal(t, ui.StageReconciling, stages[0])
	assert.Equal(t, "Checking known documents...", renderer.ProgressEvents[0].Message)
}

func TestRunner_EmptyRunStillSaves(t *testing.T) {
	// Given: no directory, no state
	runner, renderer, coord, _ := setupRunner(t)

	// When: running with an empty config
	result, err := runner.Run(context.Background(), RunnerConfig{})
	require.NoError(t, err)

	// Then: an empty state file is written and completion reported
	assert.Equal(t, 0, result.Documents)
	assert.True(t, state.Exists(coord.cfg.StatePath))
	assert.True(t, renderer.CompleteCalled)
}

func TestRunner_DurationAndStageTimings(t *testing.T) {
	// Given: a directory with content
	runner, renderer, _, tempDir := setupRunner(t)
	docs := filepath.Join(tempDir, "docs")
	writeFile(t, docs, "a.txt", "words to index")

	// When: running
	result, err := runner.Run(context.Background(), RunnerConfig{Dirs: []string{docs}})
	require.NoError(t, err)

	// Then: durations are populated
	assert.Greater(t, result.Duration, time.Duration(0))
	assert.Greater(t, renderer.CompletionStats.Stages.Save, time.Duration(0))
	assert.Equal(t, result.Duration, renderer.CompletionStats.Duration)
}
