package ui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("cancelled")

// GetInput prompts for one line on stderr. password masks the echo.
func GetInput(prompt string, placeholder string, password bool) (string, error) {
	p := tea.NewProgram(newInputModel(prompt, placeholder, password), tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	if m, ok := finalModel.(inputModel); ok && m.complete {
		return m.textInput.Value(), nil
	}
	return "", ErrCancelled
}

func newTextInput(placeholder string, password bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 156
	ti.Width = 40

	if password {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func newInputModel(prompt, placeholder string, password bool) inputModel {
	ti := newTextInput(placeholder, password)
	ti.Focus()
	return inputModel{textInput: ti, prompt: prompt}
}

type inputModel struct {
	textInput textinput.Model
	prompt    string
	complete  bool
	quitting  bool
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.complete = true
			return m, tea.Quit
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.complete {
		return ""
	}
	if m.quitting {
		return quitTextStyle.Render("Cancelled.")
	}
	return fmt.Sprintf(
		"\n%s\n\n%s\n\n",
		titleStyle.Render(m.prompt),
		m.textInput.View(),
	)
}
