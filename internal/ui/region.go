package ui

import (
	"os"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chukul/cloudview/internal/resource"
)

type regionItem resource.Region

func (i regionItem) Title() string       { return i.Code }
func (i regionItem) Description() string { return i.Label }
func (i regionItem) FilterValue() string { return i.Code + " " + i.Label }

type regionModel struct {
	list     list.Model
	selected string
	quitting bool
}

func newRegionModel(current string) regionModel {
	items := make([]list.Item, len(resource.Regions))
	cursor := 0
	for i, r := range resource.Regions {
		items[i] = regionItem(r)
		if r.Code == current {
			cursor = i
		}
	}

	l := list.New(items, list.NewDefaultDelegate(), 40, 18)
	l.Title = "Select AWS region"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Select(cursor)

	return regionModel{list: l}
}

func (m regionModel) Init() tea.Cmd {
	return nil
}

func (m regionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if i, ok := m.list.SelectedItem().(regionItem); ok {
				m.selected = i.Code
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m regionModel) View() string {
	if m.selected != "" {
		return ""
	}
	if m.quitting {
		return quitTextStyle.Render("Cancelled.")
	}
	return "\n" + m.list.View()
}

// SelectRegion shows the region picker with current preselected.
func SelectRegion(current string) (string, error) {
	p := tea.NewProgram(newRegionModel(current), tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	m, ok := finalModel.(regionModel)
	if !ok || m.selected == "" {
		return "", ErrCancelled
	}
	return m.selected, nil
}
