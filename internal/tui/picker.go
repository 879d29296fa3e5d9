package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CaptShanks/tfreview/internal/history"
	"github.com/CaptShanks/tfreview/internal/parser"
	"github.com/CaptShanks/tfreview/internal/render"
)

// PickerModel is a TUI for selecting a saved plan from history
type PickerModel struct {
	allEntries []history.Entry // Original unfiltered list
	filtered   []history.Entry // Filtered list based on search
	cursor     int
	selected   string // Path of selected entry
	quitting   bool
	height     int
	width      int

	// Search state
	searching   bool
	searchQuery string
}

// NewPickerModel creates a new history picker
func NewPickerModel(entries []history.Entry) PickerModel {
	return PickerModel{
		allEntries: entries,
		filtered:   entries,
		cursor:     0,
	}
}

// SelectedPath returns the path of the selected entry (empty if cancelled)
func (m PickerModel) SelectedPath() string {
	return m.selected
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

// filterEntries filters entries based on search query
// Supports fzf-style multi-term matching: "staging 08-29" matches all terms (AND)
func (m *PickerModel) filterEntries() {
	if m.searchQuery == "" {
		m.filtered = m.allEntries
		return
	}

	terms := strings.Fields(strings.ToLower(m.searchQuery))
	if len(terms) == 0 {
		m.filtered = m.allEntries
		return
	}

	var results []history.Entry

	for _, entry := range m.allEntries {
		searchable := strings.ToLower(
			entry.Project + " " +
				entry.Summary() + " " +
				entry.Timestamp.Format("2006-01-02 15:04") + " " +
				entry.Filename,
		)

		// All terms must match (AND logic, like fzf)
		allMatch := true
		for _, term := range terms {
			if !strings.Contains(searchable, term) {
				allMatch = false
				break
			}
		}

		if allMatch {
			results = append(results, entry)
		}
	}

	m.filtered = results
	if m.cursor >= len(m.filtered) {
		if len(m.filtered) > 0 {
			m.cursor = len(m.filtered) - 1
		} else {
			m.cursor = 0
		}
	}
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			switch msg.Type {
			case tea.KeyEsc:
				m.searching = false
				m.searchQuery = ""
				m.filterEntries()
				return m, nil
			case tea.KeyEnter:
				m.searching = false
				return m, nil
			case tea.KeyBackspace:
				if len(m.searchQuery) > 0 {
					m.searchQuery = m.searchQuery[:len(m.searchQuery)-1]
					m.filterEntries()
				}
				return m, nil
			case tea.KeyRunes:
				m.searchQuery += string(msg.Runes)
				m.filterEntries()
				return m, nil
			case tea.KeySpace:
				m.searchQuery += " "
				m.filterEntries()
				return m, nil
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("/"))):
			m.searching = true
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			if m.searchQuery != "" {
				m.searchQuery = ""
				m.filterEntries()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter", " "))):
			if len(m.filtered) > 0 {
				m.selected = m.filtered[m.cursor].Path
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, key.NewBinding(key.WithKeys("j", "down"))):
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("k", "up"))):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("g"))):
			m.cursor = 0
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("G"))):
			if len(m.filtered) > 0 {
				m.cursor = len(m.filtered) - 1
			}
			return m, nil
		}
	}
	return m, nil
}

// coloredSummary renders an entry's change counts with per-action colors.
func coloredSummary(e history.Entry) string {
	return render.ChangeStyle(parser.ChangeCreate).Render(fmt.Sprintf("+%d", e.Counts.Add)) + " " +
		render.ChangeStyle(parser.ChangeUpdate).Render(fmt.Sprintf("~%d", e.Counts.Change)) + " " +
		render.ChangeStyle(parser.ChangeDelete).Render(fmt.Sprintf("-%d", e.Counts.Destroy))
}

func (m PickerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(searchStyle.Render("Select a saved plan to review"))
	b.WriteString("\n\n")

	columnStyle := mutedStyle.Bold(true)
	b.WriteString(columnStyle.Render("     TIMESTAMP            PROJECT              CHANGES"))
	b.WriteString("\n")
	b.WriteString(columnStyle.Render(strings.Repeat("─", 70)))
	b.WriteString("\n")

	if len(m.filtered) == 0 {
		noResultStyle := mutedStyle.Italic(true)
		if m.searchQuery != "" {
			b.WriteString(noResultStyle.Render(fmt.Sprintf("  No results for '%s'", m.searchQuery)))
		} else {
			b.WriteString(noResultStyle.Render("  No saved plans"))
		}
		b.WriteString("\n")
	} else {
		for i, entry := range m.filtered {
			cursor := "  "

			project := entry.Project
			if project == "" {
				project = "-"
			}
			if len(project) > 18 {
				project = project[:15] + "..."
			}

			if i == m.cursor {
				cursor = "> "
				line := fmt.Sprintf("%s%2d  %s  %-18s  %s",
					cursor,
					i+1,
					entry.Timestamp.Format("2006-01-02 15:04:05"),
					project,
					entry.Summary(),
				)
				// Pad the line for full-width highlight
				if len(line) < 70 {
					line = line + strings.Repeat(" ", 70-len(line))
				}
				rowStyle := lipgloss.NewStyle().
					Background(render.SelectedBg).
					Foreground(render.TextColor).
					Bold(true)
				b.WriteString(rowStyle.Render(line))
			} else {
				baseLine := fmt.Sprintf("%s%2d  %s  %-18s  ",
					cursor,
					i+1,
					entry.Timestamp.Format("2006-01-02 15:04:05"),
					project,
				)
				b.WriteString(baseLine)
				b.WriteString(coloredSummary(entry))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")

	if m.searching {
		b.WriteString(searchStyle.Render("/ "))
		b.WriteString(m.searchQuery)
		b.WriteString("█") // Cursor
	} else if m.searchQuery != "" {
		b.WriteString(searchStyle.Render(fmt.Sprintf("Filter: %s", m.searchQuery)))
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  (%d/%d)", len(m.filtered), len(m.allEntries))))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("j/k: navigate  enter: select  esc: clear filter  q: cancel"))
	} else {
		b.WriteString(mutedStyle.Render("j/k: navigate  /: search  enter: select  q: cancel"))
	}

	return b.String()
}

// RunPicker runs the interactive history picker and returns the selected path
func RunPicker(entries []history.Entry) (string, error) {
	m := NewPickerModel(entries)
	p := tea.NewProgram(m)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	pickerModel := finalModel.(PickerModel)
	return pickerModel.SelectedPath(), nil
}
