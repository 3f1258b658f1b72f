package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWordDiff_ReplacedWord(t *testing.T) {
	t.Parallel()

	runs := ComputeWordDiff("the quick fox", "the slow fox")

	assert.Equal(t, []Run{
		{Value: "the"},
		{Value: "quick", Removed: true},
		{Value: "slow", Added: true},
		{Value: "fox"},
	}, runs)
}

func TestComputeWordDiff_Identical(t *testing.T) {
	t.Parallel()

	runs := ComputeWordDiff("one two  three\nfour", "one two  three\nfour")

	require.Len(t, runs, 1)
	assert.Equal(t, Run{Value: "one two three four"}, runs[0])
}

func TestComputeWordDiff_EmptySides(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Run{{Value: "a b", Added: true}}, ComputeWordDiff("", "a b"))
	assert.Equal(t, []Run{{Value: "a b", Removed: true}}, ComputeWordDiff("a b", "   "))
	assert.Empty(t, ComputeWordDiff("", ""))
}

func TestComputeWordDiff_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct{ a, b string }{
		{"the quick brown fox jumps", "a quick red fox leaps high"},
		{"alpha beta gamma", "gamma beta alpha"},
		{"x y z", "x y z w"},
		{"lorem ipsum dolor sit amet", "dolor"},
		{"", "new text only"},
	}

	for _, c := range cases {
		runs := ComputeWordDiff(c.a, c.b)

		assert.Equal(t, strings.Join(strings.Fields(c.a), " "), Left(runs), "left of %q -> %q", c.a, c.b)
		assert.Equal(t, strings.Join(strings.Fields(c.b), " "), Right(runs), "right of %q -> %q", c.a, c.b)

		for i := 1; i < len(runs); i++ {
			same := runs[i].Added == runs[i-1].Added && runs[i].Removed == runs[i-1].Removed
			assert.False(t, same, "adjacent runs %d and %d share a class", i-1, i)
		}
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	stats := Summarize(ComputeWordDiff("the quick fox", "the slow red fox"))

	assert.Equal(t, Stats{Added: 2, Removed: 1, Unchanged: 2}, stats)
}

func TestDiffer_FallsBackToLinesAboveCeiling(t *testing.T) {
	t.Parallel()

	a := "first line\nsecond line\nthird line"
	b := "first line\nchanged line\nthird line"

	differ := NewDiffer(4)
	result := differ.Compare(a, b)

	assert.Equal(t, GranularityLine, result.Granularity)
	assert.Equal(t, []Run{
		{Value: "first line"},
		{Value: "second line", Removed: true},
		{Value: "changed line", Added: true},
		{Value: "third line"},
	}, result.Runs)
}

func TestDiffer_WordGranularityBelowCeiling(t *testing.T) {
	t.Parallel()

	result := NewDiffer(0).Compare("a b", "a c")

	assert.Equal(t, GranularityWord, result.Granularity)
	assert.Equal(t, DefaultMaxCells, NewDiffer(-1).MaxCells)
}
