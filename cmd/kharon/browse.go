package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/kharon/cxx/tree"
	"github.com/wippyai/kharon/errors"
	"github.com/wippyai/kharon/marshal"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	queryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browseState int

const (
	stateSelectQuery browseState = iota
	stateInputValue
	stateShowResult
)

type browseModel struct {
	err      error
	session  *marshal.Session
	opts     marshal.Options
	filename string
	queries  []queryInfo
	result   []string
	input    textinput.Model
	selected int
	state    browseState
	loaded   bool
}

type queryInfo struct {
	query tree.Query
	dir   marshal.Direction
}

type loadedMsg struct {
	err     error
	session *marshal.Session
	queries []queryInfo
}

func newBrowseModel(filename string, opts marshal.Options) *browseModel {
	return &browseModel{
		filename: filename,
		opts:     opts,
		state:    stateSelectQuery,
	}
}

func (m *browseModel) Init() tea.Cmd {
	return m.loadFixture
}

func (m *browseModel) loadFixture() tea.Msg {
	fx, s, err := openFixture(m.opts, m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	queries := make([]queryInfo, 0, len(fx.Queries))
	for _, q := range fx.Queries {
		dir, err := marshal.ParseDirection(q.Direction)
		if err != nil {
			return loadedMsg{err: err}
		}
		queries = append(queries, queryInfo{query: q, dir: dir})
	}
	return loadedMsg{session: s, queries: queries}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputValue {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectQuery && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectQuery && m.selected < len(m.queries)-1 {
				m.selected++
			}

		case "d":
			if m.state == stateSelectQuery && len(m.queries) > 0 {
				qi := &m.queries[m.selected]
				qi.dir = flip(qi.dir)
			}

		case "enter":
			switch m.state {
			case stateSelectQuery:
				if len(m.queries) == 0 {
					break
				}
				m.prepareInput()
				m.state = stateInputValue
				return m, textinput.Blink

			case stateInputValue:
				m.result, m.err = m.resolve(m.input.Value())
				m.state = stateShowResult
				return m, nil

			case stateShowResult:
				m.state = stateSelectQuery
				m.result = nil
				m.err = nil
			}

		case "esc":
			switch m.state {
			case stateInputValue, stateShowResult:
				m.state = stateSelectQuery
				m.result = nil
				m.err = nil
			}
		}

	case loadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		m.queries = msg.queries
	}

	if m.state == stateInputValue {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func flip(d marshal.Direction) marshal.Direction {
	if d == marshal.ToNative {
		return marshal.FromNative
	}
	return marshal.ToNative
}

func (m *browseModel) prepareInput() {
	q := m.queries[m.selected].query
	ti := textinput.New()
	ti.Placeholder = q.Name
	ti.Prompt = "value: "
	ti.Width = 40
	ti.Focus()
	m.input = ti
}

// resolve runs the selected query and renders every snippet the strategy
// emits for val.
func (m *browseModel) resolve(val string) ([]string, error) {
	qi := m.queries[m.selected]
	if val == "" {
		val = qi.query.Name
	}
	s, ok := m.session.Resolve(qi.query.Type, qi.dir, qi.query.Param)
	if !ok {
		return nil, errors.NotFound(errors.PhaseResolve, "marshaler", qi.query.Type.Spelling())
	}

	lines := []string{fmt.Sprintf("%s %s (%s)", s.Variant(), s.Display(), s.ID())}
	for _, op := range []marshal.Op{marshal.OpToNative, marshal.OpFromNative, marshal.OpTest, marshal.OpSynthesize} {
		if !s.Supports(op) {
			continue
		}
		var (
			out string
			err error
		)
		switch op {
		case marshal.OpToNative:
			out, err = s.ToNative(val)
		case marshal.OpFromNative:
			out, err = s.FromNative(val)
		case marshal.OpTest:
			out, err = s.Test(val)
		case marshal.OpSynthesize:
			out, err = s.Synthesize()
		}
		if err != nil {
			return lines, err
		}
		lines = append(lines, fmt.Sprintf("%-10s %s", op, out))
	}
	return lines, nil
}

func (m *browseModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if !m.loaded {
		return "Loading fixture..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("kharon"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectQuery:
		if len(m.queries) == 0 {
			b.WriteString("No queries in fixture.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			break
		}
		b.WriteString("Select a query to resolve:\n\n")
		for i, qi := range m.queries {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + formatQuery(qi)))
			} else {
				b.WriteString("  " + formatQuery(qi))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • d flip direction • enter resolve • q quit"))

	case stateInputValue:
		qi := m.queries[m.selected]
		b.WriteString(fmt.Sprintf("Resolving %s\n\n", queryStyle.Render(qi.query.Name)))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter resolve • esc back"))

	case stateShowResult:
		qi := m.queries[m.selected]
		b.WriteString(fmt.Sprintf("Strategy for %s:\n\n", queryStyle.Render(qi.query.Name)))
		for _, line := range m.result {
			b.WriteString(resultStyle.Render(line))
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func formatQuery(qi queryInfo) string {
	return queryStyle.Render(qi.query.Name) + ": " +
		typeStyle.Render(qi.query.Type.Spelling()) + " [" + qi.dir.String() + "]"
}

func newBrowseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "browse FILE",
		Short: "Explore the queries of a fixture interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.Unsupported(errors.PhaseConfig, "browse requires a terminal")
			}
			p := tea.NewProgram(newBrowseModel(args[0], c.opts), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}
}
