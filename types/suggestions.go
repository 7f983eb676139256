package types

// Summary is the result of a summarization call. Markdown is the model's
// raw output and is authoritative; Abstract is a short derived line used
// only as compact context for later tagging/categorization calls.
type Summary struct {
	Markdown string
	Abstract string
}

// TagSuggestion is one proposed tag with the model's confidence.
type TagSuggestion struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// CategoryRef names one node of the two-level taxonomy and whether the
// model believes it already exists.
type CategoryRef struct {
	Name  string `json:"name"`
	IsNew bool   `json:"is_new"`
}

// CategorySuggestion is the canonical nested two-level category shape.
// Legacy flat responses are normalized into this form at the parsing
// boundary and never propagate further.
type CategorySuggestion struct {
	Category    CategoryRef `json:"category"`
	Subcategory CategoryRef `json:"subcategory"`
	Confidence  float64     `json:"confidence"`
}
