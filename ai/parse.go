package ai

import (
	"encoding/json"
	"strings"

	"github.com/sebkrier/alexandria-sub000/types"
)

// ExtractJSON recovers the first JSON value from free-form model output.
// Models wrap JSON in code fences, precede it with prose, and append
// commentary after the closing bracket, so this strips any ```json fence,
// scans to the first { or [, then walks a bracket-nesting stack to the
// matching close. Truncating at the last } instead would break whenever
// trailing prose contains one.
func ExtractJSON(raw string) (string, error) {
	raw = stripCodeFence(raw)

	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return "", &types.ParseError{Detail: "no JSON object or array in output"}
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", &types.ParseError{Detail: "unbalanced brackets in output"}
}

// stripCodeFence removes a markdown code fence around the JSON payload,
// tolerating prose on either side of the fenced block.
func stripCodeFence(raw string) string {
	for _, marker := range []string{"```json", "```"} {
		open := strings.Index(raw, marker)
		if open < 0 {
			continue
		}
		rest := raw[open+len(marker):]
		if close := strings.Index(rest, "```"); close >= 0 {
			return rest[:close]
		}
	}
	return raw
}

// ParseTagSuggestions decodes a tag suggestion array. A bare array of
// strings (another shape models fall back to) is accepted with full
// confidence.
func ParseTagSuggestions(raw string) ([]types.TagSuggestion, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var tags []types.TagSuggestion
	if err := json.Unmarshal([]byte(payload), &tags); err == nil {
		return tags, nil
	}

	var names []string
	if err := json.Unmarshal([]byte(payload), &names); err == nil {
		tags = make([]types.TagSuggestion, len(names))
		for i, name := range names {
			tags[i] = types.TagSuggestion{Name: name, Confidence: 1}
		}
		return tags, nil
	}
	return nil, &types.ParseError{Detail: "tag payload is neither an object array nor a string array"}
}

// rawCategorySuggestion accepts both historical response shapes: the flat
// {category_name, parent_category, is_new_category} form and the nested
// {category: {...}, subcategory: {...}} form.
type rawCategorySuggestion struct {
	Category    *rawCategoryRef `json:"category"`
	Subcategory *rawCategoryRef `json:"subcategory"`
	Confidence  float64         `json:"confidence"`

	// legacy flat shape
	CategoryName   string `json:"category_name"`
	ParentCategory string `json:"parent_category"`
	IsNewCategory  bool   `json:"is_new_category"`
}

type rawCategoryRef struct {
	Name  string `json:"name"`
	IsNew bool   `json:"is_new"`
}

// ParseCategorySuggestion decodes a category suggestion and normalizes
// either historical shape into the canonical nested form. The legacy shape
// never leaves this function.
func ParseCategorySuggestion(raw string) (*types.CategorySuggestion, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var parsed rawCategorySuggestion
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, &types.ParseError{Detail: "category payload: " + err.Error()}
	}

	suggestion := &types.CategorySuggestion{Confidence: parsed.Confidence}

	switch {
	case parsed.Category != nil && parsed.Category.Name != "":
		suggestion.Category = types.CategoryRef{Name: parsed.Category.Name, IsNew: parsed.Category.IsNew}
		if parsed.Subcategory != nil && parsed.Subcategory.Name != "" {
			suggestion.Subcategory = types.CategoryRef{Name: parsed.Subcategory.Name, IsNew: parsed.Subcategory.IsNew}
		}
	case parsed.CategoryName != "":
		// Flat shape: category_name is the leaf. With a parent present it
		// becomes the subcategory under that parent; alone it is the root.
		if parsed.ParentCategory != "" {
			suggestion.Category = types.CategoryRef{Name: parsed.ParentCategory}
			suggestion.Subcategory = types.CategoryRef{Name: parsed.CategoryName, IsNew: parsed.IsNewCategory}
		} else {
			suggestion.Category = types.CategoryRef{Name: parsed.CategoryName, IsNew: parsed.IsNewCategory}
		}
	default:
		return nil, &types.ParseError{Detail: "category payload names no category"}
	}
	return suggestion, nil
}
