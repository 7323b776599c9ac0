// Package tui renders the interactive home view.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/tui/styles"
)

// maxTilesPerSection caps the rows rendered under each section
const maxTilesPerSection = 8

// SectionBuilder produces homepage sections through a sink
type SectionBuilder interface {
	BuildSections(ctx context.Context, sink domain.SectionSink) error
}

// SectionMsg carries one section delivery from the builder
type SectionMsg struct {
	Section domain.Section
}

// BuildDoneMsg signals that every section has settled
type BuildDoneMsg struct {
	Err error
}

// HomeModel shows the homepage sections, filling each one in as its fetch
// completes
type HomeModel struct {
	builder SectionBuilder
	keys    KeyMap
	spinner spinner.Model

	sections []domain.Section
	index    map[string]int  // section id -> position in sections
	loaded   map[string]bool // sections delivered populated at least once
	updates  chan tea.Msg
	ctx      context.Context
	cancel   context.CancelFunc // stops the running build
	building bool
	err      error

	cursor int
	width  int
}

// NewHomeModel creates the home view
func NewHomeModel(builder SectionBuilder) HomeModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle
	ctx, cancel := context.WithCancel(context.Background())

	return HomeModel{
		builder:  builder,
		keys:     DefaultKeyMap(),
		spinner:  s,
		index:    make(map[string]int),
		loaded:   make(map[string]bool),
		updates:  make(chan tea.Msg),
		ctx:      ctx,
		cancel:   cancel,
		building: true,
		width:    80,
	}
}

// Init starts the spinner and the first build
func (m HomeModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, runBuild(m.ctx, m.builder, m.updates), waitForUpdate(m.updates))
}

// runBuild feeds every delivery of one build into updates, then closes it.
// Once ctx is done, deliveries are dropped instead of blocking.
func runBuild(ctx context.Context, builder SectionBuilder, updates chan<- tea.Msg) tea.Cmd {
	return func() tea.Msg {
		defer close(updates)
		send := func(msg tea.Msg) {
			select {
			case updates <- msg:
			case <-ctx.Done():
			}
		}

		err := builder.BuildSections(ctx, func(s domain.Section) {
			send(SectionMsg{Section: s})
		})
		send(BuildDoneMsg{Err: err})
		return nil
	}
}

// waitForUpdate turns the next builder delivery into a message
func waitForUpdate(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return nil
		}
		return msg
	}
}

// Update handles messages
func (m HomeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.sections)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Refresh):
			if !m.building {
				m.sections = nil
				m.index = make(map[string]int)
				m.loaded = make(map[string]bool)
				m.cursor = 0
				m.updates = make(chan tea.Msg)
				m.cancel()
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.building = true
				m.err = nil
				return m, tea.Batch(runBuild(m.ctx, m.builder, m.updates), waitForUpdate(m.updates))
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case SectionMsg:
		m.applySection(msg.Section)
		return m, waitForUpdate(m.updates)

	case BuildDoneMsg:
		m.building = false
		m.err = msg.Err
		return m, waitForUpdate(m.updates)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// applySection records a delivery. The first delivery of a section fixes its
// position; later ones replace its content.
func (m *HomeModel) applySection(section domain.Section) {
	pos, ok := m.index[section.ID]
	if !ok {
		m.index[section.ID] = len(m.sections)
		m.sections = append(m.sections, section)
		return
	}
	m.sections[pos] = section
	m.loaded[section.ID] = true
}

// Sections returns the sections in display order
func (m HomeModel) Sections() []domain.Section {
	return m.sections
}

// Building reports whether a build is still running
func (m HomeModel) Building() bool {
	return m.building
}

// View renders the home view
func (m HomeModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("komsync"))
	b.WriteString("\n\n")

	if len(m.sections) == 0 && m.building {
		b.WriteString(m.spinner.View() + " Loading...\n")
	}

	boxWidth := max(m.width-4, 20)
	for i, section := range m.sections {
		style := styles.SectionStyle
		if i == m.cursor {
			style = styles.SelectedSectionStyle
		}
		b.WriteString(style.Width(boxWidth).Render(m.renderSection(section, boxWidth-2)))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(styles.ErrorStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	b.WriteString(m.renderHelp())
	return b.String()
}

func (m HomeModel) renderSection(section domain.Section, width int) string {
	header := styles.AccentStyle.Render(section.Title)
	pending := section.ID != "" && !m.loaded[section.ID] && m.building && len(section.Items) == 0
	switch {
	case pending:
		header += " " + m.spinner.View()
	default:
		header += styles.DimStyle.Render(fmt.Sprintf(" (%d)", len(section.Items)))
	}

	lines := []string{header}
	for i, tile := range section.Items {
		if i == maxTilesPerSection {
			lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("… %d more", len(section.Items)-i)))
			break
		}
		line := styles.Truncate(tile.Title, width)
		if tile.Subtitle != "" {
			line += " " + styles.SubtitleStyle.Render(tile.Subtitle)
		}
		lines = append(lines, line)
	}
	if !pending && len(section.Items) == 0 {
		lines = append(lines, styles.DimStyle.Render("Nothing here"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m HomeModel) renderHelp() string {
	var parts []string
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
