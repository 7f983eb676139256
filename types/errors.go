package types

import (
	"errors"
	"fmt"
	"strings"
)

// ExtractionError means no strategy produced usable content for a source.
// Article creation is rejected outright; nothing is persisted.
type ExtractionError struct {
	Source    string
	Attempted []string
	Err       error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extraction failed for %s", e.Source)
	if len(e.Attempted) > 0 {
		msg += fmt.Sprintf(" (attempted: %s)", strings.Join(e.Attempted, ", "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ProviderConfigurationError means the user has no usable AI provider.
type ProviderConfigurationError struct {
	Reason string
}

func (e *ProviderConfigurationError) Error() string {
	if e.Reason != "" {
		return "no AI provider configured: " + e.Reason
	}
	return "no AI provider configured"
}

// ProviderCallError wraps a failure from the remote LLM API (rate limit,
// auth, malformed response). The original message is preserved verbatim
// so it can surface in processing_error.
type ProviderCallError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderCallError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderCallError) Unwrap() error { return e.Err }

// ParseError means structured output could not be recovered from model
// text. For orchestration purposes it is treated like a provider failure.
type ParseError struct {
	Detail string
}

func (e *ParseError) Error() string {
	return "failed to parse model output: " + e.Detail
}

// ErrNotFound is returned when a user-scoped lookup finds no row. Lookups
// always carry the user id, so a foreign user's rows surface as not found.
var ErrNotFound = errors.New("not found")

// NotFoundError annotates ErrNotFound with the entity kind and id.
func NotFoundError(kind string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", kind, id, ErrNotFound)
}
