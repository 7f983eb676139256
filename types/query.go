package types

// QueryType classifies a free-text question over the library.
type QueryType string

const (
	// QueryContent answers via retrieval over article text.
	QueryContent QueryType = "content"
	// QueryMetadata answers via aggregate queries over library statistics.
	QueryMetadata QueryType = "metadata"
)

// MetadataOperation is the fixed enumeration of supported aggregate queries.
type MetadataOperation string

const (
	OpTotalCount       MetadataOperation = "total_count"
	OpCountByCategory  MetadataOperation = "count_by_category"
	OpCountByTag       MetadataOperation = "count_by_tag"
	OpCountByMediaType MetadataOperation = "count_by_media_type"
	OpListCategories   MetadataOperation = "list_categories"
	OpListTags         MetadataOperation = "list_tags"
	OpDateRangeCount   MetadataOperation = "date_range_count"
	OpRecentArticles   MetadataOperation = "recent_articles"
	OpTopDomains       MetadataOperation = "top_domains"
	OpLibrarySummary   MetadataOperation = "library_summary"
)
