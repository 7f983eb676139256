package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// State represents the demo state machine
type State string

const (
	StateInputURL   State = "input_url"
	StateIngesting  State = "ingesting"
	StateProcessing State = "processing"
	StateReady      State = "ready"
	StateAnswering  State = "answering"
	StateError      State = "error"
)

// LogEntry is one timestamped activity line.
type LogEntry struct {
	Timestamp time.Time
	Message   string
}

// Model is the TUI client state, a thin client over the library API.
type Model struct {
	Client *LibraryClient

	State     State
	Input     string // current text entry (URL or question)
	ArticleID string
	Title     string
	Question  string
	Answer    string
	Sources   []string
	Logs      []LogEntry
	Err       error

	Connected bool
}

func NewModel(apiURL string) Model {
	return Model{
		Client: NewLibraryClient(apiURL),
		State:  StateInputURL,
		Logs:   make([]LogEntry, 0),
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return tea.Batch(checkHealth(m.Client), tickCmd())
}

// AddLog appends an activity line, keeping the last few.
func (m Model) AddLog(message string) Model {
	m.Logs = append(m.Logs, LogEntry{Timestamp: time.Now(), Message: message})
	if len(m.Logs) > 8 {
		m.Logs = m.Logs[len(m.Logs)-8:]
	}
	return m
}

func (m Model) stateText() string {
	if !m.Connected {
		return ErrorStyle.Render("❌ Not connected to the library API")
	}

	switch m.State {
	case StateInputURL:
		return HighlightStyle.Render("📚 Add to your library") + "\n\n" +
			InfoStyle.Render("Type a URL and press Enter")
	case StateIngesting:
		return StatusStyle.Render("⏳ Extracting content...")
	case StateProcessing:
		return StatusStyle.Render(fmt.Sprintf("🤖 AI processing %q...", m.Title))
	case StateReady:
		return HighlightStyle.Render("✅ "+m.Title) + "\n\n" +
			InfoStyle.Render("Ask a question about your library and press Enter")
	case StateAnswering:
		return StatusStyle.Render("💭 Thinking...")
	case StateError:
		errMsg := "Unknown error"
		if m.Err != nil {
			errMsg = m.Err.Error()
		}
		return ErrorStyle.Render("❌ " + errMsg)
	default:
		return ""
	}
}
