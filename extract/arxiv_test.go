package extract

import "testing"

func TestParseArxivID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://arxiv.org/abs/2303.08774", "2303.08774"},
		{"https://arxiv.org/abs/2303.08774v2", "2303.08774v2"},
		{"https://arxiv.org/pdf/2303.08774.pdf", "2303.08774"},
		{"https://arxiv.org/pdf/2303.08774v1", "2303.08774v1"},
		{"https://arxiv.org/html/2401.00001v3", "2401.00001v3"},
		{"https://arxiv.org/abs/cs/0112017", "cs/0112017"},
		{"https://arxiv.org/pdf/math-ph/0201001v2", "math-ph/0201001v2"},
		{"https://arxiv.org/hep-th/9901001", "hep-th/9901001"},
		{"https://example.com/abs/2303.08774", ""},
		{"https://arxiv.org/list/cs.AI/recent", ""},
	}
	for _, tc := range cases {
		if got := parseArxivID(tc.url); got != tc.want {
			t.Errorf("parseArxivID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestStripArxivVersion(t *testing.T) {
	cases := map[string]string{
		"2303.08774v2":  "2303.08774",
		"2303.08774":    "2303.08774",
		"cs/0112017v12": "cs/0112017",
	}
	for in, want := range cases {
		if got := stripArxivVersion(in); got != want {
			t.Errorf("stripArxivVersion(%q) = %q, want %q", in, got, want)
		}
	}
}
