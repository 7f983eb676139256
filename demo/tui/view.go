package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("📖 Alexandria Library Demo"))
	b.WriteString("\n\n")

	b.WriteString(m.stateText())
	b.WriteString("\n\n")

	if m.State == StateInputURL || m.State == StateReady {
		b.WriteString(PromptStyle.Render("> " + m.Input + "▌"))
		b.WriteString("\n\n")
	}

	if m.Answer != "" && m.State == StateReady {
		var box strings.Builder
		box.WriteString(HighlightStyle.Render("Answer"))
		box.WriteString("\n\n")
		box.WriteString(truncate(m.Answer, 1200))
		if len(m.Sources) > 0 {
			box.WriteString("\n\n")
			box.WriteString(InfoStyle.Render("Sources:"))
			for _, title := range m.Sources {
				box.WriteString("\n")
				box.WriteString(InfoStyle.Render("  • " + title))
			}
		}
		b.WriteString(BoxStyle.Render(box.String()))
		b.WriteString("\n\n")
	}

	if len(m.Logs) > 0 {
		b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
		b.WriteString("\n")
		for _, entry := range m.Logs {
			line := fmt.Sprintf("   %s %s", entry.Timestamp.Format("15:04:05"), entry.Message)
			b.WriteString(InfoStyle.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	switch m.State {
	case StateInputURL:
		b.WriteString(InfoStyle.Render("Enter to submit | Ctrl+C to quit"))
	case StateReady:
		b.WriteString(InfoStyle.Render("Enter to ask | Esc to add another URL | Ctrl+C to quit"))
	case StateError:
		b.WriteString(InfoStyle.Render("Esc to start over | Ctrl+C to quit"))
	default:
		b.WriteString(InfoStyle.Render("Press 'q' or Ctrl+C to quit"))
	}

	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
