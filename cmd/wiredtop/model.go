package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const pollInterval = 2 * time.Second

// model is the bubbletea model for wiredtop: a read-only operator
// dashboard over the control socket, styled after the teacher's
// internal/usereditor DOS-palette panels but with a single
// always-visible layout instead of a modal editor -- there is nothing
// here to edit, only to watch.
type model struct {
	client *ctlClient

	status    statusInfo
	users     []userRow
	transfers []transferRow
	err       error

	width, height int
}

func newModel(client *ctlClient) model {
	return model{client: client}
}

type tickMsg struct{}

type pollResultMsg struct {
	status    statusInfo
	users     []userRow
	transfers []transferRow
	err       error
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.poll(), tea.EnterAltScreen)
}

func (m model) poll() tea.Cmd {
	return func() tea.Msg {
		status, err := m.client.Status()
		if err != nil {
			return pollResultMsg{err: err}
		}
		users, err := m.client.Users()
		if err != nil {
			return pollResultMsg{err: err}
		}
		transfers, err := m.client.Transfers()
		if err != nil {
			return pollResultMsg{err: err}
		}
		return pollResultMsg{status: status, users: users, transfers: transfers}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil
	case tickMsg:
		return m, m.poll()
	case pollResultMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status, m.users, m.transfers = msg.status, msg.users, msg.transfers
		}
		return m, tick()
	}
	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (m model) View() string {
	var b strings.Builder

	title := "wiredtop"
	if m.status.Name != "" {
		title = fmt.Sprintf("wiredtop -- %s", m.status.Name)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("control socket error: %v", m.err)))
		b.WriteString("\n\n")
	}

	b.WriteString(fmt.Sprintf("users: %d   port: %d   tracker: %v\n\n", m.status.Users, m.status.Port, m.status.TrackerEnabled))

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-6s %-16s %-12s %-16s %s", "ID", "NICK", "LOGIN", "IP", "IDLE")))
	b.WriteString("\n")
	if len(m.users) == 0 {
		b.WriteString(dimStyle.Render("(no connected users)\n"))
	}
	for _, u := range m.users {
		b.WriteString(fmt.Sprintf("%-6d %-16s %-12s %-16s %s\n", u.ID, u.Nick, u.Login, u.IP, u.Idle))
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-8s %-8s %-20s %-14s %s", "LOGIN", "TYPE", "STATE", "PATH", "PROGRESS", "QUEUE")))
	b.WriteString("\n")
	if len(m.transfers) == 0 {
		b.WriteString(dimStyle.Render("(no active transfers)\n"))
	}
	for _, t := range m.transfers {
		progress := fmt.Sprintf("%d/%d", t.Done, t.Total)
		b.WriteString(fmt.Sprintf("%-12s %-8s %-8s %-20s %-14s %d\n", t.Login, t.Type, t.State, t.Path, progress, t.Queue))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q to quit"))

	return b.String()
}
