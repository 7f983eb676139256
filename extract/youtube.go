package extract

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/sebkrier/alexandria-sub000/types"
)

// YouTubeExtractor reads video metadata from the YouTube Data API and
// synthesizes a text body from title, description, and chapter list.
type YouTubeExtractor struct {
	apiKey string
}

func NewYouTubeExtractor(apiKey string) *YouTubeExtractor {
	return &YouTubeExtractor{apiKey: apiKey}
}

var videoDomains = map[string]bool{
	"youtube.com":   true,
	"m.youtube.com": true,
	"youtu.be":      true,
}

func (y *YouTubeExtractor) Extractor() Extractor {
	return Extractor{
		Name: "youtube",
		CanHandle: func(rawURL string) bool {
			return parseVideoID(rawURL) != ""
		},
		Extract: y.Extract,
	}
}

var videoPathExprs = []*regexp.Regexp{
	regexp.MustCompile(`^/(?:shorts|embed|live)/([a-zA-Z0-9_-]{6,})`),
}

// parseVideoID handles watch?v=, youtu.be short links, and the shorts,
// embed, and live path shapes.
func parseVideoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if !videoDomains[host] {
		return ""
	}

	if host == "youtu.be" {
		return strings.Trim(u.Path, "/")
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	for _, expr := range videoPathExprs {
		if m := expr.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
	}
	return ""
}

func (y *YouTubeExtractor) Extract(ctx context.Context, rawURL string) (*types.ExtractedContent, error) {
	if y.apiKey == "" {
		return nil, fmt.Errorf("youtube api key not configured")
	}

	videoID := parseVideoID(rawURL)
	if videoID == "" {
		return nil, fmt.Errorf("no video id in %s", rawURL)
	}

	svc, err := youtube.NewService(ctx, option.WithAPIKey(y.apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}

	resp, err := svc.Videos.
		List([]string{"snippet", "contentDetails", "statistics"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube lookup for %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	video := resp.Items[0]
	snippet := video.Snippet
	chapters := parseChapters(snippet.Description)

	content := &types.ExtractedContent{
		Title:       snippet.Title,
		Text:        synthesizeVideoBody(snippet.Title, snippet.Description, chapters),
		Authors:     []string{snippet.ChannelTitle},
		SourceType:  types.SourceVideo,
		OriginalURL: rawURL,
		Metadata: map[string]interface{}{
			"video_id": videoID,
			"platform": "youtube",
			"uploader": snippet.ChannelTitle,
		},
	}

	if video.ContentDetails != nil && video.ContentDetails.Duration != "" {
		if secs := parseISODuration(video.ContentDetails.Duration); secs > 0 {
			content.Metadata["duration_seconds"] = secs
		}
	}
	if video.Statistics != nil {
		content.Metadata["view_count"] = video.Statistics.ViewCount
	}
	if snippet.Thumbnails != nil && snippet.Thumbnails.High != nil {
		content.Metadata["thumbnail"] = snippet.Thumbnails.High.Url
	}
	if published := parseUploadDate(snippet.PublishedAt); published != nil {
		content.PublicationDate = published
	}
	return content, nil
}

// parseUploadDate accepts both RFC3339 and the compact YYYYMMDD form some
// metadata backends emit.
func parseUploadDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		naive := types.NaiveTime(t)
		return &naive
	}
	if t, err := time.Parse("20060102", raw); err == nil {
		naive := types.NaiveTime(t)
		return &naive
	}
	return nil
}

// Chapter is one timestamped section parsed from a video description.
type Chapter struct {
	StartSeconds int
	Title        string
}

var chapterLineExpr = regexp.MustCompile(`^(?:(\d{1,2}):)?(\d{1,2}):(\d{2})\s+[-–—]?\s*(.+)$`)

// parseChapters scans a description for timestamp lines.
func parseChapters(description string) []Chapter {
	var chapters []Chapter
	for _, line := range strings.Split(description, "\n") {
		m := chapterLineExpr.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		secs := atoiSafe(m[2])*60 + atoiSafe(m[3])
		if m[1] != "" {
			secs += atoiSafe(m[1]) * 3600
		}
		chapters = append(chapters, Chapter{StartSeconds: secs, Title: strings.TrimSpace(m[4])})
	}
	return chapters
}

// formatTimestamp renders H:MM:SS past the hour mark, M:SS under it.
func formatTimestamp(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func synthesizeVideoBody(title, description string, chapters []Chapter) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")
	sb.WriteString(description)

	if len(chapters) > 0 {
		sb.WriteString("\n\nChapters:\n")
		for _, ch := range chapters {
			sb.WriteString(fmt.Sprintf("%s %s\n", formatTimestamp(ch.StartSeconds), ch.Title))
		}
	}
	return collapseWhitespace(sb.String())
}

var isoDurationExpr = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

func parseISODuration(raw string) int {
	m := isoDurationExpr.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	return atoiSafe(m[1])*3600 + atoiSafe(m[2])*60 + atoiSafe(m[3])
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
