package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRankCmd(t *testing.T) {
	out, err := runCmd(t, "rank", "1750")
	require.NoError(t, err)
	assert.Contains(t, out, "rank:     Adept (adept)")
	assert.Contains(t, out, "next:     Elementalist at 2500")
	assert.Contains(t, out, "progress: 50.0%")
}

func TestRankCmd_SanitizesInput(t *testing.T) {
	out, err := runCmd(t, "rank", "--", "-40.5")
	require.NoError(t, err)
	assert.Contains(t, out, "xp:       0")

	out, err = runCmd(t, "rank", "1e12")
	require.NoError(t, err)
	assert.Contains(t, out, "Algomancer")
	assert.Contains(t, out, "next:     -")
}

func TestRankCmd_RejectsGarbage(t *testing.T) {
	_, err := runCmd(t, "rank", "lots")
	assert.Error(t, err)

	_, err = runCmd(t, "rank")
	assert.Error(t, err)
}

func TestRefreshCmd_RequiresExactlyOneTarget(t *testing.T) {
	_, err := runCmd(t, "refresh")
	assert.ErrorContains(t, err, "exactly one")

	_, err = runCmd(t, "refresh", "--all", "--user", "x")
	assert.ErrorContains(t, err, "exactly one")
}
