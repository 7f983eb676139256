package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case HealthMsg:
		m.Connected = msg.Healthy
		return m, nil
	case TickMsg:
		return m.handleTick()
	case IngestedMsg:
		return m.handleIngested(msg)
	case StatusMsg:
		return m.handleStatus(msg)
	case AnswerMsg:
		return m.handleAnswer(msg)
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.State == StateError || m.State == StateReady {
			m.State = StateInputURL
			m.Input = ""
			m.Err = nil
			return m, nil
		}
	}

	// Text entry applies only in the two typing states.
	if m.State != StateInputURL && m.State != StateReady {
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		return m.submitInput()
	case tea.KeyBackspace:
		if len(m.Input) > 0 {
			m.Input = m.Input[:len(m.Input)-1]
		}
	case tea.KeyRunes:
		m.Input += string(msg.Runes)
	case tea.KeySpace:
		m.Input += " "
	}
	return m, nil
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.Input)
	if text == "" {
		return m, nil
	}
	m.Input = ""

	if m.State == StateInputURL {
		m.State = StateIngesting
		m = m.AddLog("Ingesting " + text)
		return m, ingestURL(m.Client, text)
	}

	m.State = StateAnswering
	m.Question = text
	m.Answer = ""
	m.Sources = nil
	m = m.AddLog("Asked: " + text)
	return m, askQuestion(m.Client, text)
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd()}
	if !m.Connected {
		cmds = append(cmds, checkHealth(m.Client))
	}
	if m.State == StateProcessing && m.ArticleID != "" {
		cmds = append(cmds, pollStatus(m.Client, m.ArticleID))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleIngested(msg IngestedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.State = StateError
		m.Err = msg.Err
		return m, nil
	}
	m.ArticleID = msg.Response.ID
	m.Title = msg.Response.Title
	m.State = StateProcessing
	m = m.AddLog("Extracted: " + msg.Response.Title)
	return m, pollStatus(m.Client, m.ArticleID)
}

func (m Model) handleStatus(msg StatusMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		// transient poll failures are logged, not fatal
		return m.AddLog("Poll failed: " + msg.Err.Error()), nil
	}

	switch msg.Response.Status {
	case "completed":
		m.State = StateReady
		m = m.AddLog("Processing complete")
	case "failed":
		m.State = StateError
		m.Err = &processingFailure{cause: msg.Response.ProcessingError}
		m = m.AddLog("Processing failed")
	}
	return m, nil
}

func (m Model) handleAnswer(msg AnswerMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.State = StateError
		m.Err = msg.Err
		return m, nil
	}
	m.State = StateReady
	m.Answer = msg.Response.Answer
	m.Sources = m.Sources[:0]
	for _, s := range msg.Response.Sources {
		m.Sources = append(m.Sources, s.Title)
	}
	return m.AddLog("Answer received"), nil
}

type processingFailure struct {
	cause string
}

func (e *processingFailure) Error() string {
	if e.cause == "" {
		return "processing failed"
	}
	return "processing failed: " + e.cause
}
