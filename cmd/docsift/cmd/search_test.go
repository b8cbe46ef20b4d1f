package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indexedProject builds a three-document index where "prism" appears
// with different weights, and returns the state file path.
func indexedProject(t *testing.T) string {
	t.Helper()
	dir := testProject(t)
	writeDoc(t, dir, "docs/heavy.txt", "prism prism prism")
	writeDoc(t, dir, "docs/light.txt", "prism glass glass")
	writeDoc(t, dir, "docs/plain.txt", "glass only here")

	statePath := filepath.Join(dir, "state.json")
	_, err := runCommand(t, "", "index", filepath.Join(dir, "docs"), "--state", statePath, "--no-tui")
	require.NoError(t, err)
	return statePath
}

func TestSearchCmd_RanksResults(t *testing.T) {
	// Given: an index with a term of varying frequency
	statePath := indexedProject(t)

	// When: searching for the term
	out, err := runCommand(t, "", "search", "prism", "--state", statePath)

	// Then: both matches print, highest score first, numbered
	require.NoError(t, err)
	assert.Contains(t, out, `Found 2 results for "prism"`)
	assert.Contains(t, out, "1. ")
	heavy := strings.Index(out, "docs/heavy.txt")
	light := strings.Index(out, "docs/light.txt")
	require.GreaterOrEqual(t, heavy, 0)
	require.GreaterOrEqual(t, light, 0)
	assert.Less(t, heavy, light)
	assert.NotContains(t, out, "docs/plain.txt")
	assert.Contains(t, out, "score: ")
}

func TestSearchCmd_MultiWordQuery(t *testing.T) {
	statePath := indexedProject(t)

	// Unquoted words join into one query.
	out, err := runCommand(t, "", "search", "prism", "glass", "--state", statePath)

	require.NoError(t, err)
	assert.Contains(t, out, `"prism glass"`)
	// Every document matches at least one term.
	assert.Contains(t, out, "docs/plain.txt")
}

func TestSearchCmd_NoResults(t *testing.T) {
	statePath := indexedProject(t)

	out, err := runCommand(t, "", "search", "zirconium", "--state", statePath)

	require.NoError(t, err)
	assert.Contains(t, out, `No results found for "zirconium"`)
}

func TestSearchCmd_LimitCapsResults(t *testing.T) {
	statePath := indexedProject(t)

	out, err := runCommand(t, "", "search", "glass", "--state", statePath, "--limit", "1")

	require.NoError(t, err)
	assert.Contains(t, out, `Found 1 results for "glass"`)
	assert.NotContains(t, out, "2. ")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	// Given: an index
	statePath := indexedProject(t)

	// When: searching with --json
	out, err := runCommand(t, "", "search", "prism", "--state", statePath, "--json")

	// Then: the payload carries the query and ordered matches
	require.NoError(t, err)

	var result searchResultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "prism", result.Query)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Results, 2)
	assert.Contains(t, result.Results[0].Path, "docs/heavy.txt")
	assert.Greater(t, result.Results[0].Score, result.Results[1].Score)
}

func TestSearchCmd_QuietKeepsResults(t *testing.T) {
	// Given: an existing index
	statePath := indexedProject(t)

	// When: searching with --quiet
	out, err := runCommand(t, "", "search", "prism", "--state", statePath, "--quiet")

	// Then: results still print; --quiet only mutes progress chatter
	require.NoError(t, err)
	assert.Contains(t, out, `Found 2 results for "prism"`)
	assert.Contains(t, out, "docs/heavy.txt")
}

func TestSearchCmd_MissingStateFails(t *testing.T) {
	testProject(t)

	_, err := runCommand(t, "", "search", "prism")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no index state")
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	testProject(t)

	_, err := runCommand(t, "", "search")

	require.Error(t, err)
}
