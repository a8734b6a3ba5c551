package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chukul/cloudview/internal/dashboard"
	"github.com/chukul/cloudview/internal/resource"
)

const (
	fieldAccessKey = iota
	fieldSecretKey
	fieldRegion
)

const maxColumnWidth = 40

var fieldLabels = []string{"Access Key ID", "Secret Access Key", "Region"}

type fetchDoneMsg struct {
	fetch dashboard.Fetch
	inv   *resource.Inventory
	err   error
}

// DashboardModel is the interactive view over a dashboard.Controller. It starts on the
// credential form and switches to the tabbed inventory once a fetch is accepted.
type DashboardModel struct {
	ctx  context.Context
	ctrl *dashboard.Controller

	inputs  []textinput.Model
	focus   int
	editing bool

	spinner spinner.Model
	table   table.Model
	tab     int
	help    help.Model

	width     int
	loggedOut bool
	logoutErr error
	quitting  bool
}

func NewDashboardModel(ctx context.Context, ctrl *dashboard.Controller, region string) DashboardModel {
	inputs := []textinput.Model{
		newTextInput("AKIA...", false),
		newTextInput("secret", true),
		newTextInput(resource.DefaultRegion, false),
	}
	inputs[fieldRegion].SetValue(region)
	inputs[fieldAccessKey].Focus()

	t := table.New(table.WithHeight(12), table.WithFocused(true))
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := DashboardModel{
		ctx:     ctx,
		ctrl:    ctrl,
		inputs:  inputs,
		editing: true,
		spinner: newSpinner(),
		table:   t,
		help:    help.New(),
	}
	m.syncTable()
	return m
}

// LoggedOut reports whether the user left through logout, and any error clearing the session.
func (m DashboardModel) LoggedOut() (bool, error) {
	return m.loggedOut, m.logoutErr
}

func (m DashboardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-12, 5))
		return m, nil

	case fetchDoneMsg:
		m.ctrl.Resolve(msg.fetch, msg.inv, msg.err)
		m.syncTable()
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.State() != dashboard.StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.editing {
			return m.updateForm(msg)
		}
		return m.updateBoard(msg)
	}

	return m, nil
}

func (m DashboardModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, formKeys.Back):
		if _, held := m.ctrl.Credentials(); held {
			m.editing = false
			m.blurInputs()
		}
		return m, nil

	case key.Matches(msg, formKeys.Next):
		m.focusInput((m.focus + 1) % len(m.inputs))
		return m, textinput.Blink

	case key.Matches(msg, formKeys.Prev):
		m.focusInput((m.focus + len(m.inputs) - 1) % len(m.inputs))
		return m, textinput.Blink

	case key.Matches(msg, formKeys.Submit):
		creds := resource.Credentials{
			AccessKey: m.inputs[fieldAccessKey].Value(),
			SecretKey: m.inputs[fieldSecretKey].Value(),
			Region:    m.inputs[fieldRegion].Value(),
		}
		return m.start(func() (dashboard.Fetch, error) { return m.ctrl.Submit(creds) })
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m DashboardModel) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, dashboardKeys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, dashboardKeys.Logout):
		_, err := m.ctrl.Logout()
		m.loggedOut = true
		m.logoutErr = err
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, dashboardKeys.Refresh):
		return m.start(m.ctrl.Refresh)

	case key.Matches(msg, dashboardKeys.Edit):
		if creds, held := m.ctrl.Credentials(); held {
			m.inputs[fieldAccessKey].SetValue(creds.AccessKey)
			m.inputs[fieldRegion].SetValue(creds.Region)
		}
		m.editing = true
		m.focusInput(fieldAccessKey)
		return m, textinput.Blink

	case key.Matches(msg, dashboardKeys.NextTab):
		m.tab = (m.tab + 1) % len(resource.Categories)
		m.syncTable()
		return m, nil

	case key.Matches(msg, dashboardKeys.PrevTab):
		m.tab = (m.tab + len(resource.Categories) - 1) % len(resource.Categories)
		m.syncTable()
		return m, nil

	case key.Matches(msg, dashboardKeys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// start asks the controller for a ticket and, when granted, runs the fetch in the background.
// A refused ticket leaves the explanation in the controller notice.
func (m DashboardModel) start(begin func() (dashboard.Fetch, error)) (tea.Model, tea.Cmd) {
	f, err := begin()
	if err != nil {
		return m, nil
	}

	// the controller holds the credentials from here on
	m.inputs[fieldAccessKey].Reset()
	m.inputs[fieldSecretKey].Reset()
	m.editing = false
	m.blurInputs()

	ctx, ctrl := m.ctx, m.ctrl
	fetch := func() tea.Msg {
		inv, err := ctrl.Execute(ctx, f)
		return fetchDoneMsg{fetch: f, inv: inv, err: err}
	}
	return m, tea.Batch(m.spinner.Tick, fetch)
}

func (m *DashboardModel) focusInput(i int) {
	m.blurInputs()
	m.focus = i
	m.inputs[i].Focus()
}

func (m *DashboardModel) blurInputs() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *DashboardModel) syncTable() {
	c := resource.Categories[m.tab]
	inv := m.ctrl.Inventory()
	rows := inv.Rows(c)
	if c == resource.CategoryCompute && inv != nil {
		for i, inst := range inv.Compute {
			rows[i][1] = instanceState(inst)
		}
	}

	titles := c.Columns()
	widths := make([]int, len(titles))
	for i, title := range titles {
		widths[i] = lipgloss.Width(title)
	}
	tableRows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		for i, cell := range r {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
		tableRows = append(tableRows, table.Row(r))
	}

	columns := make([]table.Column, len(titles))
	for i, title := range titles {
		columns[i] = table.Column{Title: title, Width: min(widths[i]+2, maxColumnWidth)}
	}

	// rows must be cleared first so they never outnumber the new columns
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(tableRows)
	m.table.SetCursor(0)
}

// instanceState marks running instances in the state column.
func instanceState(i resource.Instance) string {
	if i.Running() {
		return "● " + i.State
	}
	return "○ " + i.State
}

func (m DashboardModel) View() string {
	if m.quitting {
		return ""
	}

	snap := m.ctrl.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render("☁  cloudview"))
	if snap.Region != "" {
		b.WriteString(subtleStyle.Render(fmt.Sprintf("  region %s · %s", snap.Region, snap.State)))
	}
	b.WriteString("\n\n")

	if n := RenderNotice(snap.Notice); n != "" {
		b.WriteString(n + "\n\n")
	}

	if m.editing {
		b.WriteString(m.formView())
		b.WriteString("\n" + m.help.View(formKeys))
		return b.String()
	}

	if snap.State == dashboard.StateLoading {
		b.WriteString(m.spinner.View() + " " + textStyle.Render("Fetching AWS resources...") + "\n\n")
	}

	b.WriteString(m.tabsView(snap.Inventory) + "\n\n")

	if snap.Stale {
		b.WriteString(staleStyle.Render("Last refresh failed, showing previous results") + "\n")
	}

	c := resource.Categories[m.tab]
	switch {
	case snap.Inventory == nil:
		if snap.State != dashboard.StateLoading {
			b.WriteString(subtleStyle.Render("No resources loaded. Press e to enter credentials.") + "\n")
		}
	case snap.Inventory.Count(c) == 0:
		b.WriteString(subtleStyle.Render("No "+c.Title()+" found") + "\n")
	default:
		b.WriteString(m.table.View() + "\n")
	}

	b.WriteString("\n" + m.help.View(dashboardKeys))
	return b.String()
}

func (m DashboardModel) formView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("AWS credentials") + "\n\n")
	for i, in := range m.inputs {
		b.WriteString(labelStyle.Render(fieldLabels[i]) + in.View() + "\n")
	}
	return b.String()
}

func (m DashboardModel) tabsView(inv *resource.Inventory) string {
	tabs := make([]string, len(resource.Categories))
	for i, c := range resource.Categories {
		label := fmt.Sprintf("%s (%d)", c.Title(), inv.Count(c))
		if i == m.tab {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// StartDashboard runs the dashboard full screen and tears the controller down on exit.
// It reports whether the user logged out.
func StartDashboard(ctx context.Context, ctrl *dashboard.Controller, region string) (bool, error) {
	defer ctrl.Close()

	p := tea.NewProgram(NewDashboardModel(ctx, ctrl, region), tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m, ok := finalModel.(DashboardModel)
	if !ok {
		return false, fmt.Errorf("internal error: invalid model type")
	}
	return m.LoggedOut()
}
