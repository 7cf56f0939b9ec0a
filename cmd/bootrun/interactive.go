package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/rtboot/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7")).
			Padding(0, 1)

	exportStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type replState int

const (
	stateSelect replState = iota
	stateInput
	stateResult
)

type replModel struct {
	rt       *runtime.Runtime
	exports  []string
	inputs   []textinput.Model
	result   string
	callErr  error
	selected int
	focus    int
	state    replState
}

// runREPL drives an interactive loop over the image's exports: pick one,
// type arguments, see the decoded results. The runtime stays up for the
// whole session; Shutdown happens back in main.
func runREPL(rt *runtime.Runtime) error {
	m := &replModel{rt: rt, exports: rt.Exports()}
	if len(m.exports) == 0 {
		return fmt.Errorf("image has no exported functions")
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *replModel) Init() tea.Cmd {
	return nil
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.state {
	case stateSelect:
		return m.updateSelect(key)
	case stateInput:
		return m.updateInput(key)
	default:
		return m.updateResult(key)
	}
}

func (m *replModel) updateSelect(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.exports)-1 {
			m.selected++
		}
	case "enter":
		name := m.exports[m.selected]
		params := m.rt.ExportDefinition(name).ParamTypes()
		if len(params) == 0 {
			m.call(nil)
			m.state = stateResult
			return m, nil
		}
		m.inputs = make([]textinput.Model, len(params))
		for i, p := range params {
			in := textinput.New()
			in.Placeholder = api.ValueTypeName(p)
			in.CharLimit = 32
			m.inputs[i] = in
		}
		m.focus = 0
		m.inputs[0].Focus()
		m.state = stateInput
	}
	return m, nil
}

func (m *replModel) updateInput(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateSelect
		return m, nil
	case "tab", "shift+tab", "enter":
		if key.String() == "enter" && m.focus == len(m.inputs)-1 {
			name := m.exports[m.selected]
			types := m.rt.ExportDefinition(name).ParamTypes()
			params := make([]uint64, len(m.inputs))
			for i, in := range m.inputs {
				v, err := encodeValue(types[i], strings.TrimSpace(in.Value()))
				if err != nil {
					m.callErr = fmt.Errorf("argument %d: %w", i, err)
					m.state = stateResult
					return m, nil
				}
				params[i] = v
			}
			m.call(params)
			m.state = stateResult
			return m, nil
		}
		m.inputs[m.focus].Blur()
		if key.String() == "shift+tab" {
			m.focus = (m.focus - 1 + len(m.inputs)) % len(m.inputs)
		} else {
			m.focus = (m.focus + 1) % len(m.inputs)
		}
		m.inputs[m.focus].Focus()
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(key)
	return m, cmd
}

func (m *replModel) updateResult(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	default:
		m.result = ""
		m.callErr = nil
		m.state = stateSelect
	}
	return m, nil
}

func (m *replModel) call(params []uint64) {
	name := m.exports[m.selected]
	results, err := m.rt.Call(context.Background(), name, params...)
	if err != nil {
		m.callErr = err
		return
	}
	if len(results) == 0 {
		m.result = "(no result)"
		return
	}
	m.result = formatResults(m.rt, name, results)
}

func (m *replModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("bootrun"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelect:
		for i, name := range m.exports {
			line := signature(m.rt, name)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString(exportStyle.Render("  " + line))
			}
			b.WriteByte('\n')
		}
		b.WriteString(helpStyle.Render("\nup/down select · enter call · q quit"))

	case stateInput:
		b.WriteString(signature(m.rt, m.exports[m.selected]))
		b.WriteString("\n\n")
		for _, in := range m.inputs {
			b.WriteString(in.View())
			b.WriteByte('\n')
		}
		b.WriteString(helpStyle.Render("\ntab next · enter call · esc back"))

	default:
		b.WriteString(signature(m.rt, m.exports[m.selected]))
		b.WriteString("\n\n")
		if m.callErr != nil {
			b.WriteString(errorStyle.Render(m.callErr.Error()))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString(helpStyle.Render("\n\nany key back · q quit"))
	}

	b.WriteByte('\n')
	return b.String()
}
