package types

import (
	"strings"
	"time"
)

// SourceType identifies which family of extractor produced a piece of content.
type SourceType string

const (
	SourceURL   SourceType = "url"
	SourcePDF   SourceType = "pdf"
	SourceArxiv SourceType = "arxiv"
	SourceVideo SourceType = "video"
)

// ProcessingStatus is the AI pipeline state machine for an article.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// ExtractedContent is the normalized output of a single extraction call.
// It is produced once per ingestion, never persisted as-is, and consumed
// to construct an Article.
type ExtractedContent struct {
	Title           string
	Text            string
	Authors         []string
	PublicationDate *time.Time // always timezone-naive
	SourceType      SourceType
	OriginalURL     string
	FilePath        string
	Metadata        map[string]interface{}
}

// WordCount returns the whitespace-token count of the extracted text.
func (c *ExtractedContent) WordCount() int {
	return CountWords(c.Text)
}

// CountWords counts whitespace-separated tokens in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// ReadingTimeMinutes converts a word count into minutes at 200 wpm, minimum 1.
func ReadingTimeMinutes(wordCount int) int {
	minutes := wordCount / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// NaiveTime strips the timezone from t, keeping the same clock reading.
// Source timestamps must be normalized this way before storage so that
// comparisons across extractors stay consistent.
func NaiveTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
