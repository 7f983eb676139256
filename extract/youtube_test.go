package extract

import (
	"strings"
	"testing"
)

func TestParseVideoID(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":       "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ":                      "dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=42":    "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/abc123xyz99":        "abc123xyz99",
		"https://www.youtube.com/embed/abc123xyz99":         "abc123xyz99",
		"https://www.youtube.com/live/abc123xyz99":          "abc123xyz99",
		"https://www.youtube.com/feed/subscriptions":        "",
		"https://vimeo.com/12345":                           "",
		"https://example.com/watch?v=dQw4w9WgXcQ":           "",
	}
	for url, want := range cases {
		if got := parseVideoID(url); got != want {
			t.Errorf("parseVideoID(%q) = %q, want %q", url, got, want)
		}
	}
}

func TestParseChapters(t *testing.T) {
	description := `A long talk about things.

0:00 Introduction
2:30 - The middle part
1:02:15 Closing thoughts
Not a chapter line
`
	chapters := parseChapters(description)
	if len(chapters) != 3 {
		t.Fatalf("got %d chapters: %v", len(chapters), chapters)
	}

	want := []Chapter{
		{0, "Introduction"},
		{150, "The middle part"},
		{3735, "Closing thoughts"},
	}
	for i, ch := range want {
		if chapters[i] != ch {
			t.Errorf("chapter %d = %+v, want %+v", i, chapters[i], ch)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := map[int]string{
		0:    "0:00",
		65:   "1:05",
		3600: "1:00:00",
		3735: "1:02:15",
	}
	for secs, want := range cases {
		if got := formatTimestamp(secs); got != want {
			t.Errorf("formatTimestamp(%d) = %q, want %q", secs, got, want)
		}
	}
}

func TestParseISODuration(t *testing.T) {
	cases := map[string]int{
		"PT4M13S":    253,
		"PT1H2M3S":   3723,
		"PT45S":      45,
		"PT2H":       7200,
		"not-a-time": 0,
	}
	for raw, want := range cases {
		if got := parseISODuration(raw); got != want {
			t.Errorf("parseISODuration(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestParseUploadDate(t *testing.T) {
	if got := parseUploadDate("2024-06-01T15:04:05Z"); got == nil || got.Year() != 2024 || got.Month() != 6 {
		t.Errorf("RFC3339 date = %v", got)
	}
	if got := parseUploadDate("20240601"); got == nil || got.Day() != 1 {
		t.Errorf("compact date = %v", got)
	}
	if got := parseUploadDate("June 1st"); got != nil {
		t.Errorf("unparseable date = %v, want nil", got)
	}
}

func TestSynthesizeVideoBody(t *testing.T) {
	chapters := []Chapter{{0, "Intro"}, {90, "Demo"}}
	body := synthesizeVideoBody("Talk Title", "The description.", chapters)

	for _, fragment := range []string{"Talk Title", "The description.", "Chapters:", "0:00 Intro", "1:30 Demo"} {
		if !strings.Contains(body, fragment) {
			t.Errorf("body missing %q:\n%s", fragment, body)
		}
	}
}
