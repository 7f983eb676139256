package extract

import "testing"

func TestIsLessWrongURL(t *testing.T) {
	cases := map[string]bool{
		"https://www.lesswrong.com/posts/abc123XYZ/some-slug":      true,
		"https://lesswrong.com/posts/abc123XYZ":                    true,
		"https://www.alignmentforum.org/posts/xyz789/another-post": true,
		"https://www.lesswrong.com/tag/rationality":                false,
		"https://greaterwrong.com/posts/abc123XYZ/some-slug":       false,
	}
	for url, want := range cases {
		if got := isLessWrongURL(url); got != want {
			t.Errorf("isLessWrongURL(%q) = %v, want %v", url, got, want)
		}
	}
}

func TestLWPostIDPattern(t *testing.T) {
	m := lwPostIDExpr.FindStringSubmatch("/posts/Ke2ogqSEhL2KCJCNx/what-failure-looks-like")
	if m == nil || m[1] != "Ke2ogqSEhL2KCJCNx" {
		t.Fatalf("post id match = %v", m)
	}
}
