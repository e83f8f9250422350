package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateInputPaths modelState = iota
	stateShowResult
)

type interactiveModel struct {
	err      error
	result   string
	inputs   []textinput.Model
	focusIdx int
	native   bool
	state    modelState
}

type runResultMsg struct {
	err     error
	summary string
}

func newInteractiveModel() *interactiveModel {
	labels := []struct {
		placeholder string
		value       string
	}{
		{placeholder: "target image path"},
		{placeholder: "occluder image path"},
		{placeholder: "output path", value: "out.png"},
	}

	inputs := make([]textinput.Model, len(labels))
	for i, l := range labels {
		in := textinput.New()
		in.Placeholder = l.placeholder
		in.SetValue(l.value)
		in.CharLimit = 256
		in.Width = 48
		inputs[i] = in
	}
	inputs[0].Focus()

	return &interactiveModel{inputs: inputs}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) runComposite() tea.Msg {
	summary, err := run(
		strings.TrimSpace(m.inputs[0].Value()),
		strings.TrimSpace(m.inputs[1].Value()),
		strings.TrimSpace(m.inputs[2].Value()),
		m.native, 0)
	return runResultMsg{summary: summary, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "shift+tab", "down", "up":
			if m.state != stateInputPaths {
				break
			}
			m.inputs[m.focusIdx].Blur()
			if msg.String() == "shift+tab" || msg.String() == "up" {
				m.focusIdx = (m.focusIdx + len(m.inputs) - 1) % len(m.inputs)
			} else {
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
			}
			m.inputs[m.focusIdx].Focus()
			return m, nil

		case "ctrl+e":
			m.native = !m.native
			return m, nil

		case "enter":
			switch m.state {
			case stateInputPaths:
				return m, m.runComposite
			case stateShowResult:
				m.state = stateInputPaths
				m.result = ""
				m.err = nil
			}
			return m, nil
		}

	case runResultMsg:
		m.state = stateShowResult
		m.result = msg.summary
		m.err = msg.err
		return m, nil
	}

	if m.state == stateInputPaths {
		var cmd tea.Cmd
		m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("occlude"))
	b.WriteString("\n\n")

	switch m.state {
	case stateInputPaths:
		engine := "wasm"
		if m.native {
			engine = "native"
		}
		for i, label := range []string{"target", "occluder", "output"} {
			b.WriteString(labelStyle.Render(fmt.Sprintf("%-9s", label)))
			b.WriteString(m.inputs[i].View())
			b.WriteByte('\n')
		}
		b.WriteString(labelStyle.Render("engine   "))
		b.WriteString(valueStyle.Render(engine))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter: composite • tab: next field • ctrl+e: toggle engine • esc: quit"))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		} else {
			b.WriteString(m.result)
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter: again • esc: quit"))
	}

	b.WriteByte('\n')
	return b.String()
}

func runInteractive() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}

	p := tea.NewProgram(newInteractiveModel())
	_, err := p.Run()
	return err
}
