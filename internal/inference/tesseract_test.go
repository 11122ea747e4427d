package inference

import "testing"

func TestTruncateTokens(t *testing.T) {
	cases := []struct {
		name       string
		text       string
		max        int
		wantText   string
		wantTokens int
	}{
		{"under cap keeps layout", "line one\nline two", 10, "line one\nline two", 4},
		{"at cap untouched", "a b c", 3, "a b c", 3},
		{"over cap truncated", "a b c d e", 3, "a b c", 3},
		{"zero cap unbounded", "a b c d", 0, "a b c d", 4},
		{"whitespace trimmed", "  hello world \n", 10, "hello world", 2},
		{"empty", "", 5, "", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotText, gotTokens := truncateTokens(tc.text, tc.max)
			if gotText != tc.wantText {
				t.Errorf("text = %q, want %q", gotText, tc.wantText)
			}
			if gotTokens != tc.wantTokens {
				t.Errorf("tokens = %d, want %d", gotTokens, tc.wantTokens)
			}
		})
	}
}
