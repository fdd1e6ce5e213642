// Package tui is an interactive terminal browser over a guide outline.
// The model runs on the bubbletea event loop; navigator calls run as
// commands off the loop and report back through messages.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/guidenav/internal/navigator"
	"github.com/dgallion1/guidenav/internal/outline"
	"github.com/dgallion1/guidenav/internal/resolver"
)

const sidebarWidth = 36

var (
	eyebrowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
	sidebarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			PaddingRight(1)
)

type keyMap struct {
	Select  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// item is a sidebar row: a group header or an entry.
type item struct {
	header bool
	ref    outline.Ref
	title  string
	desc   string
}

func (i item) Title() string {
	if i.header {
		return headerStyle.Render(strings.ToUpper(i.title))
	}
	return i.title
}

func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

type refreshedMsg struct{ err error }

type selectedMsg struct {
	sel resolver.Selection
	err error
}

// Options describe the workspace for empty-state messages.
type Options struct {
	Workspace bool
	TOCPath   string
	// Status is the initial status line, e.g. a failed first load.
	Status string
}

type Model struct {
	nav  *navigator.Navigator
	ctx  context.Context
	opts Options

	list     list.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	eyebrow string
	title   string
	status  string
}

// New builds the model from the navigator's current tree.
func New(ctx context.Context, nav *navigator.Navigator, opts Options) Model {
	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, sidebarWidth, 20)
	l.Title = "Guide"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)

	m := Model{nav: nav, ctx: ctx, opts: opts, list: l, status: opts.Status}
	m.setItems(nav.Tree())
	return m
}

func (m *Model) setItems(tree *outline.Tree) {
	var items []list.Item
	for gi, g := range tree.Groups() {
		items = append(items, item{header: true, title: g.Title, desc: g.Description})
		for ei, e := range g.Entries() {
			items = append(items, item{ref: outline.Ref{Group: gi, Entry: ei}, title: e.Title, desc: e.Description})
		}
	}
	m.list.SetItems(items)
	if len(items) > 1 {
		m.list.Select(1)
	}
}

// emptyState is the sidebar message when there is nothing to browse.
func (m Model) emptyState() string {
	if !m.opts.Workspace {
		return "No workspace opened."
	}
	if m.nav.Tree().IsEmpty() {
		return fmt.Sprintf("No %s found.", m.opts.TOCPath)
	}
	return ""
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.nav.Refresh(m.ctx)}
	}
}

func (m Model) selectRef(ref outline.Ref) tea.Cmd {
	return func() tea.Msg {
		sel, err := m.nav.Select(m.ctx, ref)
		return selectedMsg{sel: sel, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		bodyHeight := max(m.height-4, 1)
		contentWidth := max(m.width-sidebarWidth-3, 10)
		m.list.SetSize(sidebarWidth, bodyHeight+2)
		if !m.ready {
			m.viewport = viewport.New(contentWidth, bodyHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = bodyHeight
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			m.status = "refreshing..."
			return m, m.refresh()
		case key.Matches(msg, keys.Select):
			it, ok := m.list.SelectedItem().(item)
			if !ok || it.header {
				return m, nil
			}
			m.status = ""
			return m, m.selectRef(it.ref)
		case msg.String() == "pgdown" || msg.String() == "pgup" || msg.String() == " ":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case refreshedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.setItems(m.nav.Tree())
		m.status = ""
		return m, nil

	case selectedMsg:
		// Dispatch failures arrive separately as ErrorMsg.
		if msg.err != nil && m.status == "" {
			m.status = msg.err.Error()
		}
		return m, nil

	case ContentMsg:
		m.eyebrow, m.title = msg.Eyebrow, msg.Title
		m.viewport.SetContent(msg.Body)
		m.viewport.GotoTop()
		return m, nil

	case CheckOutputMsg:
		m.eyebrow, m.title = "TERMINAL", msg.Terminal
		m.viewport.SetContent(msg.Output)
		m.viewport.GotoBottom()
		return m, nil

	case ErrorMsg:
		m.status = msg.Text
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	sidebar := m.list.View()
	if empty := m.emptyState(); empty != "" {
		sidebar = lipgloss.NewStyle().Width(sidebarWidth).Render(empty)
	}

	var main strings.Builder
	if m.title == "" {
		main.WriteString(helpStyle.Render("Select a step from the outline."))
	} else {
		main.WriteString(eyebrowStyle.Render(m.eyebrow) + "\n")
		main.WriteString(titleStyle.Render(m.title) + "\n")
		main.WriteString(m.viewport.View())
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebarStyle.Render(sidebar), " ", main.String())

	footer := helpStyle.Render("enter open • r refresh • pgup/pgdn scroll • q quit")
	if m.status != "" {
		footer = errorStyle.Render(m.status)
	}
	return body + "\n" + footer
}

// Status is the current status line text.
func (m Model) Status() string {
	return m.status
}

// Run starts the browser on the alternate screen and blocks until the user
// quits or ctx is cancelled. host receives the program's Send.
func Run(ctx context.Context, nav *navigator.Navigator, host *Host, opts Options) error {
	p := tea.NewProgram(New(ctx, nav, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	host.Attach(p.Send)
	defer host.Attach(nil)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
