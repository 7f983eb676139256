package ai

import (
	"errors"
	"testing"

	"github.com/sebkrier/alexandria-sub000/types"
)

func TestExtractJSONFencedBlock(t *testing.T) {
	raw := "Here you go:\n```json\n{\"name\": \"x\"}\n```\nHope that helps!"
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if got != `{"name": "x"}` {
		t.Errorf("payload = %q", got)
	}
}

// Trailing prose after the JSON may itself contain closing braces;
// bracket counting must stop at the structural close, not the last one.
func TestExtractJSONTrailingProseWithBraces(t *testing.T) {
	raw := `{"a": [1, 2], "b": {"c": 3}} and as an aside, {this} is not JSON`
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if got != `{"a": [1, 2], "b": {"c": 3}}` {
		t.Errorf("payload = %q", got)
	}
}

func TestExtractJSONBracketsInsideStrings(t *testing.T) {
	raw := `prose first {"note": "closing } inside a string", "quote": "a \" and a ]"} prose after`
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if got != `{"note": "closing } inside a string", "quote": "a \" and a ]"}` {
		t.Errorf("payload = %q", got)
	}
}

func TestExtractJSONErrors(t *testing.T) {
	var parseErr *types.ParseError

	_, err := ExtractJSON("no json anywhere in this response")
	if !errors.As(err, &parseErr) {
		t.Errorf("want ParseError for missing JSON, got %v", err)
	}

	_, err = ExtractJSON(`{"unterminated": [1, 2`)
	if !errors.As(err, &parseErr) {
		t.Errorf("want ParseError for unbalanced brackets, got %v", err)
	}
}

func TestParseTagSuggestions(t *testing.T) {
	raw := "```json\n[{\"name\": \"alignment\", \"confidence\": 0.9}, {\"name\": \"policy\", \"confidence\": 0.4}]\n```"
	tags, err := ParseTagSuggestions(raw)
	if err != nil {
		t.Fatalf("ParseTagSuggestions: %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "alignment" || tags[0].Confidence != 0.9 {
		t.Errorf("tags = %+v", tags)
	}
}

func TestParseTagSuggestionsBareStrings(t *testing.T) {
	tags, err := ParseTagSuggestions(`["economics", "history"]`)
	if err != nil {
		t.Fatalf("ParseTagSuggestions: %v", err)
	}
	if len(tags) != 2 || tags[1].Name != "history" || tags[0].Confidence != 1 {
		t.Errorf("tags = %+v", tags)
	}
}

func TestParseCategorySuggestionNested(t *testing.T) {
	raw := `{"category": {"name": "AI Safety", "is_new": false}, "subcategory": {"name": "Interpretability", "is_new": true}, "confidence": 0.85}`
	got, err := ParseCategorySuggestion(raw)
	if err != nil {
		t.Fatalf("ParseCategorySuggestion: %v", err)
	}
	if got.Category.Name != "AI Safety" || got.Category.IsNew {
		t.Errorf("category = %+v", got.Category)
	}
	if got.Subcategory.Name != "Interpretability" || !got.Subcategory.IsNew {
		t.Errorf("subcategory = %+v", got.Subcategory)
	}
	if got.Confidence != 0.85 {
		t.Errorf("confidence = %v", got.Confidence)
	}
}

// The legacy flat shape normalizes into the nested form and never
// propagates past the parser.
func TestParseCategorySuggestionLegacyFlat(t *testing.T) {
	raw := `{"category_name": "Interpretability", "parent_category": "AI Safety", "is_new_category": true, "confidence": 0.7}`
	got, err := ParseCategorySuggestion(raw)
	if err != nil {
		t.Fatalf("ParseCategorySuggestion: %v", err)
	}
	if got.Category.Name != "AI Safety" {
		t.Errorf("category = %+v", got.Category)
	}
	if got.Subcategory.Name != "Interpretability" || !got.Subcategory.IsNew {
		t.Errorf("subcategory = %+v", got.Subcategory)
	}
}

func TestParseCategorySuggestionLegacyFlatRootOnly(t *testing.T) {
	got, err := ParseCategorySuggestion(`{"category_name": "Economics", "confidence": 0.6}`)
	if err != nil {
		t.Fatalf("ParseCategorySuggestion: %v", err)
	}
	if got.Category.Name != "Economics" || got.Subcategory.Name != "" {
		t.Errorf("suggestion = %+v", got)
	}
}

func TestParseCategorySuggestionEmpty(t *testing.T) {
	var parseErr *types.ParseError
	if _, err := ParseCategorySuggestion(`{"confidence": 0.9}`); !errors.As(err, &parseErr) {
		t.Errorf("want ParseError, got %v", err)
	}
}
