// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrNoSelection is returned when the picker is dismissed.
var ErrNoSelection = errors.New("nothing selected")

// Item is one pickable row.
type Item struct {
	Label  string
	Detail string
}

var (
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Pick shows items in an interactive filterable list and returns the index
// of the chosen one.
func Pick(title string, items []Item, opts ...tea.ProgramOption) (int, error) {
	if len(items) == 0 {
		return -1, ErrNoSelection
	}

	final, err := tea.NewProgram(newPicker(title, items), opts...).Run()
	if err != nil {
		return -1, fmt.Errorf("picker failed: %w", err)
	}

	m := final.(picker)
	if m.chosen < 0 {
		return -1, ErrNoSelection
	}
	return m.chosen, nil
}

type picker struct {
	title   string
	items   []Item
	filter  textinput.Model
	visible []int
	cursor  int
	chosen  int
}

func newPicker(title string, items []Item) picker {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.Focus()

	m := picker{title: title, items: items, filter: ti, chosen: -1}
	m.refilter()
	return m
}

func (m picker) Init() tea.Cmd { return textinput.Blink }

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.chosen = -1
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			if len(m.visible) > 0 {
				m.chosen = m.visible[m.cursor]
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	before := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.refilter()
	}
	return m, cmd
}

func (m picker) View() string {
	var b strings.Builder
	b.WriteString(m.title + "\n\n")
	b.WriteString(m.filter.View() + "\n\n")

	for i, idx := range m.visible {
		item := m.items[idx]
		line := "  " + item.Label
		if i == m.cursor {
			line = cursorStyle.Render("> " + item.Label)
		}
		if item.Detail != "" {
			line += "  " + detailStyle.Render(item.Detail)
		}
		b.WriteString(line + "\n")
	}
	if len(m.visible) == 0 {
		b.WriteString("  (no matches)\n")
	}

	b.WriteString("\n" + helpStyle.Render("UP/DOWN: move, ENTER: compare, ESC: quit") + "\n")
	return b.String()
}

// refilter keeps items whose label contains the filter text, ignoring case.
func (m *picker) refilter() {
	needle := strings.ToLower(m.filter.Value())
	m.visible = make([]int, 0, len(m.items))
	for i, item := range m.items {
		if strings.Contains(strings.ToLower(item.Label), needle) {
			m.visible = append(m.visible, i)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}
