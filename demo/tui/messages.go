package tui

import "time"

// HealthMsg reports whether the API is reachable.
type HealthMsg struct {
	Healthy bool
}

// IngestedMsg is sent when the ingest request returns.
type IngestedMsg struct {
	Response *IngestResponse
	Err      error
}

// StatusMsg carries one processing-status poll result.
type StatusMsg struct {
	Response *IngestResponse
	Err      error
}

// AnswerMsg is sent when a question round-trip completes.
type AnswerMsg struct {
	Response *AskResponse
	Err      error
}

// TickMsg drives the status polling loop.
type TickMsg struct {
	Time time.Time
}
