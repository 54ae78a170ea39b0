// Package testutil provides shared test infrastructure for the port simulator.
package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where snapshot fixtures live, relative to the package under test.
const GoldenDir = "testdata/golden"

// AssertGolden compares got against testdata/golden/<name>.golden.
// Run with -update to rewrite the fixture from the current output.
func AssertGolden(t *testing.T, name string, got []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, got)
}
