package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voxrec/store"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	recStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	historyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

type tuiModel struct {
	cmds chan<- Command

	status string
	active bool

	live    string
	batch   string
	history []string
	saved   []store.SavedTranscription
	cursor  int

	errNotice string
	notice    string

	width, height int
}

func newTUIProgram(cmds chan<- Command) *tea.Program {
	return tea.NewProgram(tuiModel{cmds: cmds, status: "idle"}, tea.WithAltScreen())
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) issue(c Command) {
	select {
	case m.cmds <- c:
	default:
		// Command loop busy (batch upload in flight); drop rather than block
		// the render loop.
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "l":
			m.issue(Command{Type: CmdStartLive})
		case "r":
			m.issue(Command{Type: CmdStartBatch})
		case "s":
			m.issue(Command{Type: CmdStop})
		case "L":
			m.issue(Command{Type: CmdSaveLive})
		case "R":
			m.issue(Command{Type: CmdSaveRecorded})
		case "c":
			m.issue(Command{Type: CmdCopy})
		case "1":
			m.issue(Command{Type: CmdDownloadLive})
		case "2":
			m.issue(Command{Type: CmdDownloadRecorded})
		case "3":
			m.issue(Command{Type: CmdDownloadHistory})
		case "4":
			m.issue(Command{Type: CmdDownloadRecording})
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.saved)-1 {
				m.cursor++
			}
		case "x", "delete":
			if len(m.saved) > 0 {
				m.issue(Command{Type: CmdDeleteSaved, Index: m.cursor})
			}
		}

	case StatusMsg:
		m.status = msg.Status
		m.active = msg.Active
		if msg.Active {
			// A successful start clears the previous error notice.
			m.errNotice = ""
			m.notice = ""
		}

	case StoreMsg:
		m.live = msg.Live
		m.batch = msg.Batch
		m.history = msg.History
		m.saved = msg.Saved
		if m.cursor >= len(m.saved) && m.cursor > 0 {
			m.cursor = len(m.saved) - 1
		}

	case ErrorMsg:
		m.errNotice = msg.Text

	case NoticeMsg:
		m.notice = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("voxrec · voice recorder"))
	b.WriteString("\n")

	status := m.status
	if m.active {
		b.WriteString(recStyle.Render("● " + status))
	} else {
		b.WriteString(statusStyle.Render("○ " + status))
	}
	b.WriteString("\n\n")

	if m.errNotice != "" {
		b.WriteString(errorStyle.Render("error: " + m.errNotice))
		b.WriteString("\n\n")
	}
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n\n")
	}

	if m.live != "" {
		b.WriteString(headerStyle.Render("Live transcription"))
		b.WriteString("\n" + wrap(m.live, m.width) + "\n\n")
	}
	if m.batch != "" {
		b.WriteString(headerStyle.Render("Recorded transcription"))
		b.WriteString("\n" + wrap(m.batch, m.width) + "\n\n")
	}

	if len(m.history) > 0 {
		b.WriteString(headerStyle.Render(fmt.Sprintf("Past transcriptions (%d)", len(m.history))))
		b.WriteString("\n")
		for _, h := range tail(m.history, 5) {
			b.WriteString(historyStyle.Render("· "+truncate(h, m.width-4)) + "\n")
		}
		b.WriteString("\n")
	}

	if len(m.saved) > 0 {
		b.WriteString(headerStyle.Render(fmt.Sprintf("Saved (%d)", len(m.saved))))
		b.WriteString("\n")
		for i, sv := range m.saved {
			line := fmt.Sprintf("[%s] %s", sv.SourceType, truncate(sv.Text, m.width-12))
			if i == m.cursor {
				b.WriteString(cursorStyle.Render("▶ "+line) + "\n")
			} else {
				b.WriteString("  " + line + "\n")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(
		"l live · r record · s stop · L/R save · c copy · 1-4 download · ↑/↓+x delete · q quit"))
	return b.String()
}

func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func truncate(text string, max int) string {
	if max <= 3 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}

func tail(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
