package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/pkg/models"
)

// dashPanel identifies one of the dashboard boxes, in display order.
type dashPanel int

const (
	panelTasks dashPanel = iota
	panelActivity
	panelAlerts
	panelCount
)

var panelTitles = [panelCount]string{"Tasks", "Activity (7d)", "Alerts"}

// step moves focus by delta, wrapping at both ends.
func (p dashPanel) step(delta int) dashPanel {
	return dashPanel((int(p) + delta + int(panelCount)) % int(panelCount))
}

const (
	// upNextLimit caps the open tasks shown in the tasks panel.
	upNextLimit = 5
	// wideLayoutMin is the width above which panels sit side by side.
	wideLayoutMin = 120
)

type dashboardModel struct {
	focus  dashPanel
	width  int
	height int

	statusCounts map[models.Status]int
	overdue      int
	upNext       []models.Task
	metricsData  *metricsSnapshot
	alerts       []alertSnapshot

	loading bool
	err     error
}

type metricsSnapshot struct {
	eventCount     int
	tasksCreated   int
	tasksCompleted int
	tasksRemoved   int
	tasksReset     int
}

type alertSnapshot struct {
	severity string
	message  string
}

// dataLoadedMsg carries a fresh snapshot, or the error that stopped loading.
type dataLoadedMsg struct {
	statusCounts map[models.Status]int
	overdue      int
	upNext       []models.Task
	metrics      *metricsSnapshot
	alerts       []alertSnapshot
	err          error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	focusedBoxStyle = boxStyle.BorderForeground(lipgloss.Color("62"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	statusStyles = map[models.Status]lipgloss.Style{
		models.StatusTodo:    lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		models.StatusDone:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		models.StatusHold:    lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		models.StatusBlocked: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}

	severityStyles = map[string]lipgloss.Style{
		"high":   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
	}

	// severityOrder ranks alerts for display; unknown severities go last.
	severityOrder = map[string]int{"high": 0, "medium": 1, "low": 2}
)

const dashboardHelp = "tab/→: next panel | shift+tab/←: previous | r: refresh | q: quit"

func newDashboardModel() dashboardModel {
	return dashboardModel{
		focus:        panelTasks,
		loading:      true,
		statusCounts: make(map[models.Status]int),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case dataLoadedMsg:
		m.apply(msg)
	}
	return m, nil
}

func (m dashboardModel) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "tab", "right", "l":
		m.focus = m.focus.step(1)
	case "shift+tab", "left", "h":
		m.focus = m.focus.step(-1)
	case "r":
		m.loading = true
		return m, loadData
	}
	return m, nil
}

// apply replaces the snapshot with msg. A failed load keeps the previous
// snapshot and shows the error instead.
func (m *dashboardModel) apply(msg dataLoadedMsg) {
	m.loading = false
	m.err = msg.err
	if msg.err != nil {
		return
	}
	m.statusCounts = msg.statusCounts
	m.overdue = msg.overdue
	m.upNext = msg.upNext
	m.metricsData = msg.metrics
	m.alerts = msg.alerts
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var body string
	switch {
	case m.loading:
		body = "  Loading data..."
	case m.err != nil:
		body = "  Error: " + m.err.Error()
	default:
		body = m.renderPanels()
	}
	return titleStyle.Render(" doer ") + "\n\n" + body + "\n\n" + helpStyle.Render(dashboardHelp)
}

// renderPanels boxes each panel and lays them out in a row on wide
// terminals, stacked otherwise.
func (m dashboardModel) renderPanels() string {
	contents := [panelCount]string{
		panelTasks:    m.renderTasksPanel(),
		panelActivity: m.renderMetricsPanel(),
		panelAlerts:   m.renderAlertsPanel(),
	}

	wide := m.width-2 > wideLayoutMin
	width := max(m.width-6, 20)
	if wide {
		width = (m.width-2)/int(panelCount) - 4
	}

	boxes := make([]string, 0, panelCount)
	for i, content := range contents {
		p := dashPanel(i)
		style := boxStyle
		if p == m.focus {
			style = focusedBoxStyle
		}
		boxes = append(boxes, style.Width(width).Render(headerStyle.Render(panelTitles[p])+"\n"+content))
	}

	if wide {
		return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}

func (m dashboardModel) renderTasksPanel() string {
	total := 0
	for _, c := range m.statusCounts {
		total += c
	}
	if total == 0 {
		return "  No tasks found."
	}

	var b strings.Builder
	for _, s := range models.Statuses() {
		b.WriteString(statusStyles[s].Render(fmt.Sprintf("  %-10s %d", s, m.statusCounts[s])))
		b.WriteString("\n")
	}
	if m.overdue > 0 {
		b.WriteString(overdueStyle.Render(fmt.Sprintf("  %-10s %d", "Overdue", m.overdue)))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n  Total: %d\n", total)

	if len(m.upNext) > 0 {
		b.WriteString("\n  Up next:\n")
		for _, t := range m.upNext {
			fmt.Fprintf(&b, "  %-10s %d %s\n", core.FormatDue(t.Due), t.ID, t.Description)
		}
	}
	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	md := m.metricsData
	if md == nil {
		return "  No metrics available."
	}

	var b strings.Builder
	for _, row := range []struct {
		label string
		value int
	}{
		{"Events", md.eventCount},
		{"Created", md.tasksCreated},
		{"Completed", md.tasksCompleted},
		{"Removed", md.tasksRemoved},
		{"Reset", md.tasksReset},
	} {
		fmt.Fprintf(&b, "  %-14s %d\n", row.label, row.value)
	}
	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	if len(m.alerts) == 0 {
		return "  No active alerts."
	}

	var b strings.Builder
	for _, a := range m.alerts {
		style, ok := severityStyles[a.severity]
		if !ok {
			style = lipgloss.NewStyle()
		}
		tag := style.Render("[" + strings.ToUpper(a.severity) + "]")
		fmt.Fprintf(&b, "  %s %s\n", tag, a.message)
	}
	fmt.Fprintf(&b, "\n  Total: %d alert(s)", len(m.alerts))
	return b.String()
}

func severityRank(s string) int {
	if r, ok := severityOrder[s]; ok {
		return r
	}
	return len(severityOrder)
}

func loadData() tea.Msg {
	result := dataLoadedMsg{
		statusCounts: make(map[models.Status]int),
	}

	if TaskMgr != nil {
		tasks, err := TaskMgr.GetAllTasks()
		if err != nil {
			result.err = fmt.Errorf("loading tasks: %w", err)
			return result
		}
		dates := core.NewDateResolver(nil)
		overdue := core.FilterCriteria{Due: core.DueOverdue}
		var open []models.Task
		for _, t := range tasks {
			result.statusCounts[t.Status]++
			if t.Status == models.StatusDone {
				continue
			}
			if core.Matches(t, overdue, dates) {
				result.overdue++
			}
			open = append(open, t)
		}
		core.SortTasks(open, core.ViewDue)
		if len(open) > upNextLimit {
			open = open[:upNextLimit]
		}
		result.upNext = open
	}

	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &metricsSnapshot{
			eventCount:     metrics.EventCount,
			tasksCreated:   metrics.TasksCreated,
			tasksCompleted: metrics.TasksCompleted,
			tasksRemoved:   metrics.TasksRemoved,
			tasksReset:     metrics.TasksReset,
		}
	}

	if AlertEngine != nil {
		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}

		sort.SliceStable(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})

		result.alerts = make([]alertSnapshot, 0, len(alerts))
		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
			})
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for tasks, activity, and alerts",
	Long: `Launch an interactive terminal dashboard showing task counts, the next
tasks due, recent activity, and alerts.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
