package cmd

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/pkg/version"
)

// execVersion runs the version command with the given flags and returns
// everything it printed.
func execVersion(t *testing.T, args ...string) string {
	t.Helper()

	var buf bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestVersionCmd_DefaultOutput(t *testing.T) {
	out := execVersion(t)

	assert.Contains(t, out, "docsift")
	assert.Contains(t, out, version.Version)
	assert.Contains(t, out, "commit")
}

func TestVersionCmd_ShortOutput(t *testing.T) {
	out := execVersion(t, "--short")

	assert.Equal(t, version.Version, strings.TrimSpace(out))
}

func TestVersionCmd_ShortBeatsJSON(t *testing.T) {
	// Both flags set: the terser one wins.
	out := execVersion(t, "--short", "--json")

	assert.Equal(t, version.Version, strings.TrimSpace(out))
}

func TestVersionCmd_JSONOutput(t *testing.T) {
	out := execVersion(t, "--json")

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))

	assert.Equal(t, version.Version, info["version"])
	for _, field := range []string{"commit", "date", "go_version", "os", "arch"} {
		assert.Contains(t, info, field)
	}
}

func TestVersionCmd_AddedToRoot(t *testing.T) {
	cmd, _, err := NewRootCmd().Find([]string{"version"})

	require.NoError(t, err)
	assert.Equal(t, "version", cmd.Name())
}
