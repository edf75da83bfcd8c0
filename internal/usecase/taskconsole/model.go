package taskconsole

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskproxy/internal/usecase/tasks"
)

// Lister is the slice of the task service the console needs.
type Lister interface {
	ListUserTasks(ctx context.Context, userID string) (tasks.TaskList, error)
}

type Options struct {
	UserID          string
	RefreshInterval time.Duration
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusStyles = map[string]lipgloss.Style{
		"submitted": lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		"confirmed": lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
	}
)

type refreshDoneMsg struct {
	list tasks.TaskList
	err  error
}

type tickMsg time.Time

// Model is a live view over one user's stored submissions. Every refresh is
// a full reconciliation pass, so watching the console keeps statuses fresh.
type Model struct {
	ctx     context.Context
	svc     Lister
	options Options

	list        tasks.TaskList
	lastError   error
	refreshing  bool
	refreshedAt time.Time
}

func NewModel(ctx context.Context, svc Lister, options Options) Model {
	if options.RefreshInterval <= 0 {
		options.RefreshInterval = 5 * time.Second
	}
	return Model{
		ctx:     ctx,
		svc:     svc,
		options: options,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, m.refreshCmd()
		}
	case refreshDoneMsg:
		m.refreshing = false
		m.refreshedAt = time.Now()
		m.lastError = msg.err
		if msg.err == nil {
			m.list = msg.list
		}
		return m, nil
	case tickMsg:
		if m.refreshing {
			return m, m.tickCmd()
		}
		m.refreshing = true
		return m, tea.Batch(m.refreshCmd(), m.tickCmd())
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("taskproxy submissions · %s", m.options.UserID)))
	b.WriteString("\n\n")

	if m.lastError != nil {
		b.WriteString(errorStyle.Render("refresh failed: " + m.lastError.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-24s %-20s %s", "TASK", "STATUS", "NOTE")))
	b.WriteString("\n")

	if len(m.list.Tasks) == 0 {
		b.WriteString(dimStyle.Render("no visible submissions"))
		b.WriteString("\n")
	}
	for _, task := range m.list.Tasks {
		note := ""
		if task.Error != "" {
			note = errorStyle.Render(task.Error)
		}
		b.WriteString(fmt.Sprintf("%-24s %-20s %s\n", task.JobTaskID, renderStatus(task.Status), note))
	}

	b.WriteString("\n")
	footer := fmt.Sprintf("total %d · r refresh · q quit", m.list.Total)
	if !m.refreshedAt.IsZero() {
		footer += " · " + m.refreshedAt.Format("15:04:05")
	}
	if m.refreshing {
		footer += " · refreshing…"
	}
	b.WriteString(dimStyle.Render(footer))
	b.WriteString("\n")

	return b.String()
}

func renderStatus(status string) string {
	if style, ok := statusStyles[status]; ok {
		return style.Render(fmt.Sprintf("%-20s", status))
	}
	return fmt.Sprintf("%-20s", status)
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, svc, userID := m.ctx, m.svc, m.options.UserID
	return func() tea.Msg {
		list, err := svc.ListUserTasks(ctx, userID)
		return refreshDoneMsg{list: list, err: err}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.options.RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
