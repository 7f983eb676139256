package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func checkHealth(client *LibraryClient) tea.Cmd {
	return func() tea.Msg {
		return HealthMsg{Healthy: client.Healthy()}
	}
}

func ingestURL(client *LibraryClient, rawURL string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.IngestURL(rawURL)
		return IngestedMsg{Response: resp, Err: err}
	}
}

func pollStatus(client *LibraryClient, articleID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.Status(articleID)
		return StatusMsg{Response: resp, Err: err}
	}
}

func askQuestion(client *LibraryClient, question string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.Ask(question)
		return AnswerMsg{Response: resp, Err: err}
	}
}

// tickCmd ticks every second to drive polling while processing.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
