package runner

import "testing"

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"ints", 3, 3, true},
		{"int float same value", 3, 3.0, true},
		{"int64 int", int64(7), 7, true},
		{"float mismatch", 1.5, 1.6, false},
		{"strings", "abc", "abc", true},
		{"string number distinct", "3", 3, false},
		{"bools", true, true, true},
		{"nils", nil, nil, true},
		{"nil vs zero", nil, 0, false},
		{"lists", []any{1, 2}, []any{1, 2}, true},
		{"lists order matters", []any{1, 2}, []any{2, 1}, false},
		{"lists length", []any{1}, []any{1, 2}, false},
		{"empty lists", []any{}, []any{}, true},
		{"nested lists", []any{[]any{1}, []any{2}}, []any{[]any{1}, []any{2}}, true},
		{"maps", map[string]any{"a": 1}, map[string]any{"a": 1}, true},
		{"maps key missing", map[string]any{"a": 1}, map[string]any{"b": 1}, false},
		{"maps value mismatch", map[string]any{"a": 1}, map[string]any{"a": 2}, false},
		{"map numeric value", map[string]any{"a": 1}, map[string]any{"a": 1.0}, true},
		{"mixed kinds", []any{1}, map[string]any{"1": 1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Fatalf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
