package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/chukul/cloudview/internal/dashboard"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	quitTextStyle = lipgloss.NewStyle().Margin(1, 0, 2, 4)
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle    = lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color("252"))
	staleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)
	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	noticeStyles = map[dashboard.Level]lipgloss.Style{
		dashboard.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		dashboard.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		dashboard.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		dashboard.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// RenderNotice formats a notice as "Title: text" in its level color.
func RenderNotice(n dashboard.Notice) string {
	if n.Empty() {
		return ""
	}
	style, ok := noticeStyles[n.Level]
	if !ok {
		style = textStyle
	}
	return style.Render(lipgloss.NewStyle().Bold(true).Render(n.Title+":") + " " + n.Text)
}
