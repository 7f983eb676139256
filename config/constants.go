package config

import "time"

// Extraction Constants
const (
	// MinExtractedTextLength is the minimum body length before an
	// extraction result is treated as a failure.
	MinExtractedTextLength = 100

	// MaxPDFTextLength caps extracted PDF text to bound downstream token costs.
	MaxPDFTextLength = 100_000

	// PDFTruncationMarker is appended when a PDF body is cut at MaxPDFTextLength.
	PDFTruncationMarker = "\n\n[Document truncated due to length]"

	// ContentTypeProbeTimeout bounds the HEAD request used for content sniffing.
	ContentTypeProbeTimeout = 10 * time.Second

	// DirectFetchTimeout applies to the cheap fetch tiers (direct, referer, mobile).
	DirectFetchTimeout = 15 * time.Second

	// ArchiveFetchTimeout applies to Wayback availability and snapshot fetches.
	ArchiveFetchTimeout = 10 * time.Second

	// BypassFetchTimeout applies to the final paywall-bypass proxy tier.
	BypassFetchTimeout = 30 * time.Second

	// FetchCacheTTL is how long fetched page bodies stay in the Redis cache.
	FetchCacheTTL = 24 * time.Hour

	// ThumbnailDPI is the render resolution for first-page PDF thumbnails.
	ThumbnailDPI = 150
)

// AI Processing Constants
const (
	// TagConfidenceThreshold is the minimum confidence for applying a tag suggestion.
	TagConfidenceThreshold = 0.7

	// MaxTagsPerArticle caps how many AI-suggested tags are attached.
	MaxTagsPerArticle = 7

	// CategoryConfidenceThreshold is the minimum confidence for applying
	// a category suggestion; below it the article stays uncategorized.
	CategoryConfidenceThreshold = 0.5

	// SummaryMaxTokens bounds summarization calls.
	SummaryMaxTokens = 2000

	// SuggestionMaxTokens bounds tagging and categorization calls.
	SuggestionMaxTokens = 1000

	// AnswerMaxTokens bounds Q&A calls.
	AnswerMaxTokens = 1500

	// AbstractMaxLength is the truncation limit for the derived abstract.
	AbstractMaxLength = 500
)

// Embedding Constants
const (
	// EmbeddingDimensions is the width of the article embedding column.
	EmbeddingDimensions = 768

	// EmbeddingTextLimit is how much body text feeds the document embedding.
	EmbeddingTextLimit = 4000
)

// Retrieval Constants
const (
	// SearchCandidates is the per-method candidate cap for hybrid retrieval.
	SearchCandidates = 10

	// RetrievalResultLimit is the merged result cap handed to the LLM.
	RetrievalResultLimit = 10

	// RecentFallbackLimit is how many recent articles back a question
	// when both search methods come up empty.
	RecentFallbackLimit = 5

	// ContextExcerptLength is the per-article excerpt size in the Q&A prompt.
	ContextExcerptLength = 2000
)

// Processing Queue Constants
const (
	// ProcessTopic is the Kafka topic carrying article processing jobs.
	ProcessTopic = "article.process"

	// ProcessGroupID identifies the processing consumer group.
	ProcessGroupID = "alexandria-processors"

	// StaleProcessingAge is how long an article may sit in PROCESSING
	// before the sweep requeues it as crashed.
	StaleProcessingAge = 30 * time.Minute
)
