// Package diff compares two versions of a text and reports added, removed and
// unchanged runs for display.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultMaxCells bounds the word-level table (tokens(a) × tokens(b)).
const DefaultMaxCells = 4_000_000

// Granularity names the unit a Result was computed over.
type Granularity string

const (
	GranularityWord Granularity = "word"
	GranularityLine Granularity = "line"
)

// Run is a maximal span of tokens sharing the same class.
type Run struct {
	Value   string `json:"value"`
	Added   bool   `json:"added"`
	Removed bool   `json:"removed"`
}

// Result holds the runs of one comparison.
type Result struct {
	Runs        []Run       `json:"runs"`
	Granularity Granularity `json:"granularity"`
}

// Differ computes diffs with an explicit input-size ceiling. Inputs whose
// word table would exceed MaxCells are compared line by line instead.
type Differ struct {
	MaxCells int
}

// NewDiffer returns a Differ; maxCells <= 0 selects DefaultMaxCells.
func NewDiffer(maxCells int) *Differ {
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}

	return &Differ{MaxCells: maxCells}
}

// Compare diffs a against b.
func (d *Differ) Compare(a, b string) Result {
	left := strings.Fields(a)
	right := strings.Fields(b)

	limit := d.MaxCells
	if limit <= 0 {
		limit = DefaultMaxCells
	}

	if len(left) > 0 && len(right) > 0 && len(left) > limit/len(right) {
		return Result{Runs: lineDiff(a, b), Granularity: GranularityLine}
	}

	return Result{Runs: wordDiff(left, right), Granularity: GranularityWord}
}

// ComputeWordDiff diffs whitespace-delimited tokens of a and b using the default ceiling.
func ComputeWordDiff(a, b string) []Run {
	return NewDiffer(DefaultMaxCells).Compare(a, b).Runs
}

type class int

const (
	kept class = iota
	added
	removed
)

type token struct {
	value string
	class class
}

// wordDiff is the longest-common-subsequence diff over tokens.
func wordDiff(left, right []string) []Run {
	n, m := len(left), len(right)

	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if left[i-1] == right[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	// Backtrack from the bottom-right corner; ties favour treating the right
	// token as inserted.
	ops := make([]token, 0, n+m)
	i, j := n, m

	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && left[i-1] == right[j-1]:
			ops = append(ops, token{value: left[i-1], class: kept})
			i--
			j--
		case j > 0 && (i == 0 || dp[i][j-1] >= dp[i-1][j]):
			ops = append(ops, token{value: right[j-1], class: added})
			j--
		default:
			ops = append(ops, token{value: left[i-1], class: removed})
			i--
		}
	}

	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}

	return merge(ops, " ")
}

// lineDiff is the fallback for inputs above the word ceiling.
func lineDiff(a, b string) []Run {
	left := splitLines(a)
	right := splitLines(b)

	matcher := difflib.NewMatcher(left, right)

	var ops []token

	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, line := range left[op.I1:op.I2] {
				ops = append(ops, token{value: line, class: kept})
			}
		case 'd':
			for _, line := range left[op.I1:op.I2] {
				ops = append(ops, token{value: line, class: removed})
			}
		case 'i':
			for _, line := range right[op.J1:op.J2] {
				ops = append(ops, token{value: line, class: added})
			}
		case 'r':
			for _, line := range left[op.I1:op.I2] {
				ops = append(ops, token{value: line, class: removed})
			}

			for _, line := range right[op.J1:op.J2] {
				ops = append(ops, token{value: line, class: added})
			}
		}
	}

	return merge(ops, "\n")
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

// merge collapses adjacent tokens of the same class into one run.
func merge(ops []token, sep string) []Run {
	runs := make([]Run, 0)

	var (
		current []string
		cls     class
	)

	flush := func() {
		if len(current) == 0 {
			return
		}

		runs = append(runs, Run{
			Value:   strings.Join(current, sep),
			Added:   cls == added,
			Removed: cls == removed,
		})
		current = nil
	}

	for _, op := range ops {
		if len(current) > 0 && op.class != cls {
			flush()
		}

		cls = op.class
		current = append(current, op.value)
	}

	flush()

	return runs
}

// Stats counts tokens per class in runs produced at word granularity.
type Stats struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// Summarize counts the tokens of each class.
func Summarize(runs []Run) Stats {
	var s Stats

	for _, r := range runs {
		count := len(strings.Fields(r.Value))

		switch {
		case r.Added:
			s.Added += count
		case r.Removed:
			s.Removed += count
		default:
			s.Unchanged += count
		}
	}

	return s
}

// Left rebuilds the original text's tokens from runs.
func Left(runs []Run) string {
	return join(runs, func(r Run) bool { return !r.Added })
}

// Right rebuilds the new text's tokens from runs.
func Right(runs []Run) string {
	return join(runs, func(r Run) bool { return !r.Removed })
}

func join(runs []Run, keep func(Run) bool) string {
	parts := make([]string, 0, len(runs))

	for _, r := range runs {
		if keep(r) {
			parts = append(parts, r.Value)
		}
	}

	return strings.Join(parts, " ")
}
