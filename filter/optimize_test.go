package filter

import (
	"strings"
	"testing"
)

func TestOptimize(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			name:     "unchanged comparison",
			src:      `["=", ["field", 2], "cam"]`,
			expected: `[=, [FIELD, 2], "cam"]`,
		},
		{
			name:     "true operand pruned and and flattened",
			src:      `["and", ["and", ["=", 1, 1], [">", ["field", 4], 18]], ["=", ["field", 3], "6314315073"]]`,
			expected: `[AND, [>, [FIELD, 4], 18], [=, [FIELD, 3], "6314315073"]]`,
		},
		{
			name:     "false short-circuits and",
			src:      `["and", ["=", 2, 3], ["=", ["field", 2], "joe"], [">", ["field", 4], 18]]`,
			expected: `false`,
		},
		{
			name:     "true short-circuits or",
			src:      `["or", ["=", 2, 2], ["=", ["field", 2], "joe"]]`,
			expected: `true`,
		},
		{
			name:     "false operands of or pruned",
			src:      `["or", ["=", 2, 3], ["=", ["field", 2], "joe"], [">", ["field", 4], 18]]`,
			expected: `[OR, [=, [FIELD, 2], "joe"], [>, [FIELD, 4], 18]]`,
		},
		{
			name:     "empty and",
			src:      `["and"]`,
			expected: `BLANK`,
		},
		{
			name:     "empty or",
			src:      `["or"]`,
			expected: `BLANK`,
		},
		{
			name:     "and of true constants",
			src:      `["and", true, ["=", "a", "a"]]`,
			expected: `true`,
		},
		{
			name:     "or of false constants",
			src:      `["or", false, ["<", 3, 2]]`,
			expected: `false`,
		},
		{
			name:     "or of blank",
			src:      `["or", ["is-empty", null]]`,
			expected: `BLANK`,
		},
		{
			name:     "and with blank and true",
			src:      `["and", ["is-empty", null], true]`,
			expected: `BLANK`,
		},
		{
			name:     "blank pruned from and",
			src:      `["and", ["is-empty", null], ["=", ["field", 2], "joe"]]`,
			expected: `[AND, [=, [FIELD, 2], "joe"]]`,
		},
		{
			name:     "double negation",
			src:      `["not", ["not", ["=", ["field", 2], "joe"]]]`,
			expected: `[PLAIN, [=, [FIELD, 2], "joe"]]`,
		},
		{
			name:     "triple negation",
			src:      `["not", ["not", ["not", ["=", ["field", 2], "joe"]]]]`,
			expected: `[NOT, [PLAIN, [=, [FIELD, 2], "joe"]]]`,
		},
		{
			name:     "not true",
			src:      `["not", ["=", 1, 1]]`,
			expected: `false`,
		},
		{
			name:     "not false",
			src:      `["not", ["=", 0, 1]]`,
			expected: `true`,
		},
		{
			name:     "not blank",
			src:      `["not", ["is-empty", null]]`,
			expected: `BLANK`,
		},
		{
			name:     "equals promoted to in",
			src:      `["=", ["field", 4], 25, 26, 27]`,
			expected: `[IN, [FIELD, 4], 25, 26, 27]`,
		},
		{
			name:     "equals null",
			src:      `["=", ["field", 3], null]`,
			expected: `[IS EMPTY, [FIELD, 3]]`,
		},
		{
			name:     "not equals null",
			src:      `["!=", ["field", 3], null]`,
			expected: `[NOT EMPTY, [FIELD, 3]]`,
		},
		{
			name:     "null equals null",
			src:      `["=", null, null]`,
			expected: `BLANK`,
		},
		{
			name:     "null not equals null",
			src:      `["!=", null, null]`,
			expected: `false`,
		},
		{
			name:     "is-empty null",
			src:      `["is-empty", null]`,
			expected: `BLANK`,
		},
		{
			name:     "not-empty null",
			src:      `["not-empty", null]`,
			expected: `false`,
		},
		{
			name:     "null on the left is kept",
			src:      `["=", null, ["field", 1]]`,
			expected: `[=, NULL, [FIELD, 1]]`,
		},
		{
			name:     "is-empty of blank",
			src:      `["is-empty", ["is-empty", null]]`,
			expected: `BLANK`,
		},
		{
			name:     "not-empty of blank",
			src:      `["not-empty", ["blank"]]`,
			expected: `BLANK`,
		},
		{
			name:     "comparison with blank operand",
			src:      `[">", ["field", 4], ["is-empty", null]]`,
			expected: `BLANK`,
		},
		{
			name:     "not equals with blank operand",
			src:      `["!=", ["blank"], null]`,
			expected: `BLANK`,
		},
		{
			name:     "equals list with blank operand",
			src:      `["=", ["field", 4], 1, ["blank"]]`,
			expected: `BLANK`,
		},
		{
			name:     "in with blank operand",
			src:      `["in", ["field", 4], ["is-empty", null], 2]`,
			expected: `BLANK`,
		},
		{
			name:     "blank predicate pruned from and",
			src:      `["and", ["is-empty", ["is-empty", null]], ["=", ["field", 2], "joe"]]`,
			expected: `[AND, [=, [FIELD, 2], "joe"]]`,
		},
		{
			name:     "explicit in is not folded",
			src:      `["in", 1, 1, 2]`,
			expected: `[IN, 1, 1, 2]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Optimize(mustBuild(t, tt.src)).String()
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestOptimizeLiteralFolding(t *testing.T) {
	tests := []struct {
		src      string
		expected string
	}{
		{`["=", 2, 2]`, `true`},
		{`["=", 2, 3]`, `false`},
		{`["!=", 2, 3]`, `true`},
		{`["!=", "a", "a"]`, `false`},
		{`["<", 1.5, 2]`, `true`},
		{`["<", 2, 2]`, `false`},
		{`[">", "b", "a"]`, `true`},
		{`[">", "a", "b"]`, `false`},
		{`["<", "2015-01-01", "2015-11-01"]`, `true`},
		// Mixed kinds and fields never fold.
		{`["=", 1, "1"]`, `[=, 1, "1"]`},
		{`["<", true, false]`, `[<, true, false]`},
		{`[">", ["field", 1], 2]`, `[>, [FIELD, 1], 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := Optimize(mustBuild(t, tt.src)).String()
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestOptimizeIdempotent(t *testing.T) {
	sources := []string{
		`["and", ["and", ["=", 1, 1], [">", ["field", 4], 18]], ["=", ["field", 3], "x"]]`,
		`["or", ["or", ["=", ["field", 2], "joe"], [">", ["field", 4], 18]], ["and", ["=", ["field", 3], "x"], ["=", ["field", 1], 1]]]`,
		`["not", ["not", ["not", ["not", ["=", ["field", 2], "joe"]]]]]`,
		`["not", ["not", ["not", ["=", ["field", 2], "joe"]]]]`,
		`["or", ["is-empty", null], ["and", ["not-empty", null]]]`,
		`["and", ["=", null, null], ["!=", ["field", 1], null], ["=", ["field", 2], 1, 2]]`,
		`["and", ["or", ["and", ["=", ["field", 1], 1]]], ["not", ["not", ["and", true]]]]`,
		`["or", ["is-empty", ["is-empty", null]], ["<", ["blank"], ["field", 1]], ["=", ["field", 2], 1, ["or"]]]`,
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			once := Optimize(mustBuild(t, src))
			twice := Optimize(once)
			if !once.Equal(twice) {
				t.Errorf("second pass changed the tree: %s -> %s", once, twice)
			}
		})
	}
}

func TestOptimizeFlattening(t *testing.T) {
	leaf := func(i int) any { return []any{"=", []any{"field", i}, i} }

	for _, junction := range []string{"and", "or"} {
		t.Run(junction, func(t *testing.T) {
			// Right-nested: [j, a, [j, b, [j, c, ...]]]
			var right any = leaf(5)
			for i := 4; i >= 1; i-- {
				right = []any{junction, leaf(i), right}
			}
			// Left-nested: [j, [j, [j, a, b], c], ...]
			var left any = leaf(1)
			for i := 2; i <= 5; i++ {
				left = []any{junction, left, leaf(i)}
			}

			rt, err := Build(right)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			lt, err := Build(left)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}

			ro, lo := Optimize(rt), Optimize(lt)
			if !ro.Equal(lo) {
				t.Errorf("nesting shape changed the result: %s vs %s", ro, lo)
			}
			if len(ro.Children) != 5 {
				t.Errorf("expected 5 flattened children, got %d: %s", len(ro.Children), ro)
			}
			for _, c := range ro.Children {
				if c.Op.Kind != KindEquals {
					t.Errorf("expected only comparisons after flattening, got %s", c)
				}
			}
		})
	}
}

func TestOptimizeNegationParity(t *testing.T) {
	for k := 1; k <= 8; k++ {
		var expr any = []any{"=", []any{"field", 2}, "joe"}
		for i := 0; i < k; i++ {
			expr = []any{"not", expr}
		}

		tree, err := Build(expr)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		optimized := Optimize(tree)

		nots := strings.Count(optimized.String(), "NOT")
		expected := k % 2
		if nots != expected {
			t.Errorf("k=%d: expected %d NOT, got %d in %s", k, expected, nots, optimized)
		}
	}
}

func TestOptimizeLeavesInputUntouched(t *testing.T) {
	src := `["and", ["and", ["=", 1, 1], ["not", ["not", [">", ["field", 4], 18]]]], ["=", ["field", 3], null]]`
	tree := mustBuild(t, src)
	before := tree.String()

	Optimize(tree)

	if after := tree.String(); after != before {
		t.Errorf("input tree mutated: %s -> %s", before, after)
	}
}
