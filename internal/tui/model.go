package tui

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/CaptShanks/tfreview/internal/parser"
	"github.com/CaptShanks/tfreview/internal/render"
	"github.com/CaptShanks/tfreview/internal/updater"
)

// Model is the interactive plan review state.
type Model struct {
	plan          *parser.Plan
	cursor        int
	expanded      map[int]bool
	viewport      viewport.Model
	ready         bool
	width         int
	height        int
	searching     bool
	searchInput   textinput.Model
	searchQuery   string
	searchMatches []int
	currentMatch  int
	pendingG           bool  // 'g' pressed, waiting for the second 'g'
	resourceLineStarts []int // rendered line offset per resource (populated during render)
	contentLineCount   int   // total rendered content lines (excluding padding)

	// Change-type filter fields
	changeFilters map[parser.ChangeType]bool // true = show resources with this change
	filtering     bool
	filterCursor  int

	// Sort fields
	sortOrder  SortOrder
	sorting    bool
	sortCursor int

	// Update nudge
	currentVersion  string
	updateAvailable string // non-empty when a newer version is available
}

// UpdateAvailableMsg is sent when an update check finds a newer version.
type UpdateAvailableMsg struct {
	Version string
}

// SortOrder defines how resources are ordered
type SortOrder string

const (
	SortDefault   SortOrder = "default"
	SortByChange  SortOrder = "change"
	SortByAddress SortOrder = "address"
	SortByType    SortOrder = "type"
)

// sortOptions is the ordered list of sort choices for the picker
var sortOptions = []SortOrder{SortDefault, SortByChange, SortByAddress, SortByType}

// changeOrder defines sort order for change types (destructive last)
var changeOrder = map[parser.ChangeType]int{
	parser.ChangeCreate:  0,
	parser.ChangeRead:    1,
	parser.ChangeUpdate:  2,
	parser.ChangeReplace: 3,
	parser.ChangeDelete:  4,
	parser.ChangeNoOp:    5,
}

// filterableChanges is the ordered list of change types available for filtering
var filterableChanges = []parser.ChangeType{
	parser.ChangeCreate,
	parser.ChangeDelete,
	parser.ChangeUpdate,
	parser.ChangeReplace,
	parser.ChangeRead,
	parser.ChangeNoOp,
}

// filteredResources returns indices into plan.Resources that pass the change
// filter. When changeFilters is empty or nil, returns all indices.
func (m *Model) filteredResources() []int {
	if len(m.changeFilters) == 0 {
		indices := make([]int, len(m.plan.Resources))
		for i := range m.plan.Resources {
			indices[i] = i
		}
		return indices
	}
	var indices []int
	for i, r := range m.plan.Resources {
		if m.changeFilters[r.Change] {
			indices = append(indices, i)
		}
	}
	return indices
}

// sortedResources returns filtered indices sorted by the current sort order.
func (m *Model) sortedResources() []int {
	filtered := m.filteredResources()
	if m.sortOrder == SortDefault || m.sortOrder == "" {
		return filtered
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		ri := m.plan.Resources[filtered[i]]
		rj := m.plan.Resources[filtered[j]]
		switch m.sortOrder {
		case SortByChange:
			oi, oki := changeOrder[ri.Change]
			oj, okj := changeOrder[rj.Change]
			if !oki {
				oi = 99
			}
			if !okj {
				oj = 99
			}
			if oi != oj {
				return oi < oj
			}
			return ri.Address.String() < rj.Address.String()
		case SortByAddress:
			return ri.Address.String() < rj.Address.String()
		case SortByType:
			if ri.Address.Type != rj.Address.Type {
				return ri.Address.Type < rj.Address.Type
			}
			return ri.Address.String() < rj.Address.String()
		}
		return false
	})
	return filtered
}

// displayedResourceIndices returns the resource indices to display.
// With no active search this is the filtered, sorted list; with a search
// query only the matching resources remain.
func (m *Model) displayedResourceIndices() []int {
	sorted := m.sortedResources()
	if m.searchQuery == "" {
		return sorted
	}
	if len(m.searchMatches) == 0 {
		return []int{}
	}
	// searchMatches holds display indices into sorted; map to resource indices
	result := make([]int, 0, len(m.searchMatches))
	for _, displayIdx := range m.searchMatches {
		if displayIdx >= 0 && displayIdx < len(sorted) {
			result = append(result, sorted[displayIdx])
		}
	}
	return result
}

// NewModel creates the review model for a parsed plan.
func NewModel(plan *parser.Plan, version string) Model {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 100
	ti.Width = 40

	return Model{
		plan:           plan,
		expanded:       make(map[int]bool),
		searchInput:    ti,
		searchMatches:  []int{},
		changeFilters:  nil, // nil = show all
		sortOrder:      SortDefault,
		currentVersion: version,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	if m.currentVersion == "" || updater.IsSkipUpdateCheck() {
		return nil
	}
	return checkUpdateCmd(m.currentVersion)
}

// checkUpdateCmd runs an async update check and sends UpdateAvailableMsg if an update is available.
func checkUpdateCmd(version string) tea.Cmd {
	return func() tea.Msg {
		latest, hasUpdate, err := updater.CheckLatestWithCache(version, updater.UpdateCheckIntervalDays())
		if err != nil || !hasUpdate {
			return nil
		}
		return UpdateAvailableMsg{Version: latest}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case UpdateAvailableMsg:
		m.updateAvailable = msg.Version
		// Resize viewport to account for the extra footer line
		if m.ready && m.height > 0 {
			headerHeight := 4
			footerHeight := 4 // help + nudge
			m.viewport.Height = m.height - headerHeight - footerHeight
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4 // Title + summary + blank line
		footerHeight := 3 // Help text
		if m.updateAvailable != "" {
			footerHeight = 4 // +1 for update nudge line
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-headerHeight-footerHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.updateViewportContent()

	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		if m.sorting {
			return m.handleSortKey(msg)
		}
		if m.searching {
			switch msg.String() {
			case "enter":
				m.searching = false
				m.searchQuery = m.searchInput.Value()
				m.performSearch()
				m.clampCursorAndRefreshSearch()
				m.updateViewportContent()
			case "esc":
				m.searching = false
				m.searchInput.SetValue("")
				m.searchQuery = ""
				m.searchMatches = []int{}
				m.clampCursorAndRefreshSearch()
				m.updateViewportContent()
			case "up":
				return m.handleSearchArrowUp(), nil
			case "down":
				return m.handleSearchArrowDown(), nil
			default:
				m.searchInput, cmd = m.searchInput.Update(msg)
				m.searchQuery = m.searchInput.Value()
				m.performSearch()
				m.clampCursorAndRefreshSearch()
				m.updateViewportContent()
				cmds = append(cmds, cmd)
			}
		} else {
			return m.handleNormalKey(msg)
		}

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// normalKeyHandler handles a single key in normal mode.
type normalKeyHandler func(m Model) (Model, tea.Cmd)

var normalKeyHandlers = map[string]normalKeyHandler{
	"q":      func(m Model) (Model, tea.Cmd) { return m, tea.Quit },
	"ctrl+c": func(m Model) (Model, tea.Cmd) { return m, tea.Quit },
	"up":     handleKeyUp,
	"k":      handleKeyUp,
	"down":   handleKeyDown,
	"j":      handleKeyDown,
	"enter":  handleKeyEnter,
	" ":      handleKeyEnter,
	"e":      handleKeyExpandAll,
	"c":      handleKeyCollapseAll,
	"f":      handleKeyFilter,
	"s":      handleKeySort,
	"/":      handleKeySearch,
	"n":      handleKeyNextMatch,
	"N":      handleKeyPrevMatch,
	"esc":    handleKeyEsc,
	"backspace": handleKeyCollapseCurrent,
	"h":      handleKeyCollapseCurrent,
	"left":   handleKeyCollapseCurrent,
	"d":      handleKeyHalfPageDown,
	"ctrl+d": handleKeyHalfPageDown,
	"u":      handleKeyHalfPageUp,
	"ctrl+u": handleKeyHalfPageUp,
	"g":      handleKeyG,
	"G":      handleKeyGG,
	"pgup":   handleKeyPgUp,
	"pgdown": handleKeyPgDown,
	"l":      handleKeyExpandCurrent,
	"right":  handleKeyExpandCurrent,
}

func handleKeyUp(m Model) (Model, tea.Cmd) {
	if m.cursor > 0 {
		m.cursor--
		m.updateViewportContent()
		m.ensureCursorVisible()
	} else {
		m.viewport.SetYOffset(m.viewport.YOffset - 1)
	}
	return m, nil
}

// handleSearchArrowUp handles up arrow in search mode (scroll filtered list)
func (m Model) handleSearchArrowUp() Model {
	if m.cursor > 0 {
		m.cursor--
		m.updateViewportContent()
		m.ensureCursorVisible()
	} else {
		m.viewport.SetYOffset(m.viewport.YOffset - 1)
	}
	return m
}

// handleSearchArrowDown handles down arrow in search mode (scroll filtered list)
func (m Model) handleSearchArrowDown() Model {
	displayed := m.displayedResourceIndices()
	if m.cursor < len(displayed)-1 {
		m.cursor++
		m.updateViewportContent()
		m.ensureCursorVisible()
	} else {
		m.viewport.SetYOffset(m.viewport.YOffset + 1)
	}
	return m
}

func handleKeyDown(m Model) (Model, tea.Cmd) {
	filtered := m.displayedResourceIndices()
	if m.cursor < len(filtered)-1 {
		m.cursor++
		m.updateViewportContent()
		m.ensureCursorVisible()
	} else {
		m.viewport.SetYOffset(m.viewport.YOffset + 1)
	}
	return m, nil
}

func handleKeyEnter(m Model) (Model, tea.Cmd) {
	filtered := m.displayedResourceIndices()
	if len(filtered) > 0 && m.cursor >= 0 && m.cursor < len(filtered) {
		resourceIdx := filtered[m.cursor]
		m.expanded[resourceIdx] = !m.expanded[resourceIdx]
	}
	m.updateViewportContent()
	m.scrollForExpanded()
	return m, nil
}

func handleKeyExpandAll(m Model) (Model, tea.Cmd) {
	m.expandAll()
	return m, nil
}

func handleKeyCollapseAll(m Model) (Model, tea.Cmd) {
	m.collapseAll()
	return m, nil
}

func handleKeyFilter(m Model) (Model, tea.Cmd) {
	m.filtering = true
	m.filterCursor = 0
	if m.changeFilters == nil {
		m.changeFilters = make(map[parser.ChangeType]bool)
	}
	return m, nil
}

func handleKeySort(m Model) (Model, tea.Cmd) {
	m.sorting = true
	m.sortCursor = 0
	for i, opt := range sortOptions {
		if opt == m.sortOrder {
			m.sortCursor = i
			break
		}
	}
	return m, nil
}

func handleKeySearch(m Model) (Model, tea.Cmd) {
	m.searching = true
	m.searchInput.Focus()
	return m, textinput.Blink
}

func handleKeyNextMatch(m Model) (Model, tea.Cmd) {
	m.nextMatch()
	return m, nil
}

func handleKeyPrevMatch(m Model) (Model, tea.Cmd) {
	m.prevMatch()
	return m, nil
}

func handleKeyEsc(m Model) (Model, tea.Cmd) {
	if len(m.changeFilters) > 0 {
		m.changeFilters = nil
		m.clampCursorAndRefreshSearch()
		m.updateViewportContent()
	} else {
		m.clearSearch()
	}
	return m, nil
}

func handleKeyCollapseCurrent(m Model) (Model, tea.Cmd) {
	filtered := m.displayedResourceIndices()
	if len(filtered) > 0 && m.cursor >= 0 && m.cursor < len(filtered) {
		m.expanded[filtered[m.cursor]] = false
	}
	m.updateViewportContent()
	m.ensureCursorVisible()
	return m, nil
}

func handleKeyHalfPageDown(m Model) (Model, tea.Cmd) {
	m.scrollHalfPageDown()
	return m, nil
}

func handleKeyHalfPageUp(m Model) (Model, tea.Cmd) {
	m.scrollHalfPageUp()
	return m, nil
}

func handleKeyG(m Model) (Model, tea.Cmd) {
	m.handleGKey()
	return m, nil
}

func handleKeyGG(m Model) (Model, tea.Cmd) {
	m.gotoBottom()
	return m, nil
}

func handleKeyPgUp(m Model) (Model, tea.Cmd) {
	m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height)
	return m, nil
}

func handleKeyPgDown(m Model) (Model, tea.Cmd) {
	m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height)
	return m, nil
}

func handleKeyExpandCurrent(m Model) (Model, tea.Cmd) {
	filtered := m.displayedResourceIndices()
	if len(filtered) > 0 && m.cursor >= 0 && m.cursor < len(filtered) {
		m.expanded[filtered[m.cursor]] = true
	}
	m.updateViewportContent()
	m.scrollForExpanded()
	return m, nil
}

// handleNormalKey handles key presses in normal (non-search) mode
func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "g" && key != "G" {
		m.pendingG = false
	}

	if handler, ok := normalKeyHandlers[key]; ok {
		return handler(m)
	}
	return m, nil
}

// handleFilterKey handles key presses in filter picker mode
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.changeFilters = nil
		m.filtering = false
		m.clampCursorAndRefreshSearch()
		m.updateViewportContent()
		return m, nil

	case "enter":
		m.filtering = false
		m.clampCursorAndRefreshSearch()
		m.updateViewportContent()
		return m, nil

	case "up", "k":
		if m.filterCursor > 0 {
			m.filterCursor--
		}
		return m, nil

	case "down", "j":
		if m.filterCursor < len(filterableChanges)-1 {
			m.filterCursor++
		}
		return m, nil

	case " ":
		change := filterableChanges[m.filterCursor]
		m.changeFilters[change] = !m.changeFilters[change]
		return m, nil

	case "a":
		for _, change := range filterableChanges {
			m.changeFilters[change] = true
		}
		return m, nil

	case "c":
		m.changeFilters = make(map[parser.ChangeType]bool)
		return m, nil
	}

	return m, nil
}

// handleSortKey handles key presses in sort picker mode
func (m Model) handleSortKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.sorting = false
		m.updateViewportContent()
		return m, nil

	case "enter", " ":
		m.sortOrder = sortOptions[m.sortCursor]
		m.sorting = false
		m.clampCursorAndRefreshSearch()
		m.updateViewportContent()
		return m, nil

	case "up", "k":
		if m.sortCursor > 0 {
			m.sortCursor--
		}
		return m, nil

	case "down", "j":
		if m.sortCursor < len(sortOptions)-1 {
			m.sortCursor++
		}
		return m, nil
	}

	return m, nil
}

// clampCursorAndRefreshSearch clamps cursor to valid range after filter/sort change and re-runs search
func (m *Model) clampCursorAndRefreshSearch() {
	displayed := m.displayedResourceIndices()
	if m.cursor >= len(displayed) {
		if len(displayed) > 0 {
			m.cursor = len(displayed) - 1
		} else {
			m.cursor = 0
		}
	}
	if m.searchQuery != "" {
		m.performSearch()
	}
}

// expandAll expands all visible (filtered/sorted) resources
func (m *Model) expandAll() {
	for _, idx := range m.displayedResourceIndices() {
		m.expanded[idx] = true
	}
	m.updateViewportContent()
	m.ensureCursorVisible()
}

// collapseAll collapses all visible (filtered/sorted) resources
func (m *Model) collapseAll() {
	for _, idx := range m.displayedResourceIndices() {
		m.expanded[idx] = false
	}
	m.updateViewportContent()
	m.ensureCursorVisible()
}

// nextMatch moves to the next search match
func (m *Model) nextMatch() {
	if m.searchQuery == "" || len(m.searchMatches) == 0 {
		return
	}
	displayed := m.displayedResourceIndices()
	if len(displayed) > 0 {
		m.currentMatch = (m.currentMatch + 1) % len(displayed)
		m.cursor = m.currentMatch
		m.updateViewportContent()
		m.ensureCursorVisible()
	}
}

// prevMatch moves to the previous search match
func (m *Model) prevMatch() {
	if m.searchQuery == "" || len(m.searchMatches) == 0 {
		return
	}
	displayed := m.displayedResourceIndices()
	if len(displayed) > 0 {
		m.currentMatch--
		if m.currentMatch < 0 {
			m.currentMatch = len(displayed) - 1
		}
		m.cursor = m.currentMatch
		m.updateViewportContent()
		m.ensureCursorVisible()
	}
}

// clearSearch clears the current search
func (m *Model) clearSearch() {
	m.searchQuery = ""
	m.searchMatches = []int{}
	m.searchInput.SetValue("")
	m.updateViewportContent()
}

// scrollHalfPageDown scrolls viewport half page down
func (m *Model) scrollHalfPageDown() {
	halfPage := m.viewport.Height / 2
	m.viewport.SetYOffset(m.viewport.YOffset + halfPage)
}

// scrollHalfPageUp scrolls viewport half page up
func (m *Model) scrollHalfPageUp() {
	halfPage := m.viewport.Height / 2
	newOffset := m.viewport.YOffset - halfPage
	if newOffset < 0 {
		newOffset = 0
	}
	m.viewport.SetYOffset(newOffset)
}

// handleGKey handles the g key for gg navigation
func (m *Model) handleGKey() {
	if m.pendingG {
		m.cursor = 0
		m.updateViewportContent()
		m.viewport.GotoTop()
		m.pendingG = false
	} else {
		m.pendingG = true
	}
}

// gotoBottom moves cursor to the last visible resource and scrolls so it's visible
func (m *Model) gotoBottom() {
	displayed := m.displayedResourceIndices()
	if len(displayed) > 0 {
		m.cursor = len(displayed) - 1
	}
	m.updateViewportContent()
	m.ensureCursorVisible()
	m.pendingG = false
}

// fuzzyMatch returns true if all characters in query appear in text in order
// (not necessarily consecutive). E.g. "lmbda" matches "lambda", "inst" matches "instance".
func fuzzyMatch(text, query string) bool {
	text = strings.ToLower(text)
	query = strings.ToLower(query)
	if query == "" {
		return true
	}
	qi := 0
	for i := 0; i < len(text) && qi < len(query); i++ {
		if text[i] == query[qi] {
			qi++
		}
	}
	return qi == len(query)
}

func (m *Model) performSearch() {
	m.searchMatches = []int{}
	m.currentMatch = 0

	if m.searchQuery == "" {
		return // displayedResourceIndices will show full list
	}

	terms := strings.Fields(strings.ToLower(m.searchQuery))
	if len(terms) == 0 {
		return
	}

	filtered := m.sortedResources()
	for displayIdx, resourceIdx := range filtered {
		r := m.plan.Resources[resourceIdx]
		searchable := strings.ToLower(r.Address.String() + " " + r.Address.Type + " " + r.Address.Name)

		allMatch := true
		for _, term := range terms {
			if !fuzzyMatch(searchable, term) {
				allMatch = false
				break
			}
		}
		if allMatch {
			m.searchMatches = append(m.searchMatches, displayIdx)
		}
	}

	if len(m.searchMatches) > 0 {
		m.cursor = 0 // first item in filtered display
		m.currentMatch = 0
	}
}

func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderResources())
}

// ensureCursorVisible scrolls the viewport to make the current cursor visible
func (m *Model) ensureCursorVisible() {
	if !m.ready {
		return
	}

	if m.cursor < 0 || m.cursor >= len(m.resourceLineStarts) {
		return
	}

	lineNum := m.resourceLineStarts[m.cursor]

	topLine := m.viewport.YOffset
	bottomLine := topLine + m.viewport.Height - 1

	if lineNum < topLine {
		m.viewport.SetYOffset(lineNum)
	} else if lineNum > bottomLine {
		newOffset := lineNum - m.viewport.Height + 1
		if newOffset < 0 {
			newOffset = 0
		}
		m.viewport.SetYOffset(newOffset)
	}
}

// scrollForExpanded ensures the cursor is visible and, when expanded,
// positions the cursor near the top so the expanded content is visible below.
func (m *Model) scrollForExpanded() {
	if !m.ready || m.cursor < 0 || m.cursor >= len(m.resourceLineStarts) {
		return
	}

	lineNum := m.resourceLineStarts[m.cursor]
	displayed := m.displayedResourceIndices()
	resourceIdx := -1
	if m.cursor < len(displayed) {
		resourceIdx = displayed[m.cursor]
	}

	if resourceIdx >= 0 && m.expanded[resourceIdx] {
		var endLine int
		if m.cursor+1 < len(m.resourceLineStarts) {
			endLine = m.resourceLineStarts[m.cursor+1]
		} else {
			endLine = m.contentLineCount
		}

		bottomLine := m.viewport.YOffset + m.viewport.Height - 1
		if endLine > bottomLine {
			m.viewport.SetYOffset(lineNum)
			return
		}
	}

	m.ensureCursorVisible()
}

func (m *Model) renderResources() string {
	var b strings.Builder
	lineCount := 0

	displayed := m.displayedResourceIndices()
	m.resourceLineStarts = make([]int, len(displayed))

	if len(displayed) == 0 {
		if m.searchQuery != "" {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("No resources match search '%s'. Press Esc to clear.", m.searchQuery)))
		} else if len(m.changeFilters) > 0 {
			b.WriteString(mutedStyle.Render("No resources match the current filters. Press 'f' to change filters."))
		} else {
			b.WriteString(mutedStyle.Render("No resource changes in this plan."))
		}
		b.WriteString("\n")
		return b.String()
	}

	for displayIdx, resourceIdx := range displayed {
		m.resourceLineStarts[displayIdx] = lineCount
		r := m.plan.Resources[resourceIdx]

		isSelected := displayIdx == m.cursor
		isExpanded := m.expanded[resourceIdx]
		isMatch := m.searchQuery != "" // when filtering, all displayed items match

		if isSelected {
			b.WriteString(m.renderSelectedResourceLine(r, isExpanded))
		} else {
			b.WriteString(m.renderResourceLine(r, isExpanded, isMatch))
		}
		b.WriteString("\n")
		lineCount++

		if isExpanded {
			before := b.Len()
			m.renderExpandedContent(&b, r)
			b.WriteString("\n")
			lineCount += strings.Count(b.String()[before:], "\n")
		}
	}

	m.contentLineCount = lineCount

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("── End of Plan ──"))
	b.WriteString("\n")

	// Padding after the marker so the viewport has room to scroll
	// the last resource's expanded content fully into view
	for i := 0; i < m.viewport.Height; i++ {
		b.WriteString("\n")
	}

	return b.String()
}

// renderExpandedContent renders the attribute diff for a resource, wrapping
// long lines to the viewport width and inlining decoded user_data content.
func (m Model) renderExpandedContent(b *strings.Builder, r parser.ResourceChange) {
	maxWidth := m.viewport.Width

	for _, line := range render.ResourceLines(r) {
		colored := m.wrapAndColorize(line, r.Change, maxWidth)
		b.WriteString(colored)
		b.WriteString("\n")

		if decoded, ok := m.renderDecodedValue(line, maxWidth); ok {
			b.WriteString(decoded)
		}
	}
}

// wrapAndColorize colorizes one formatted diff line, wrapping content that
// exceeds the viewport width with prefix-aligned continuation lines.
func (m Model) wrapAndColorize(line render.Line, change parser.ChangeType, maxWidth int) string {
	availableWidth := maxWidth - line.Indent - 2
	if availableWidth < 20 || utf8.RuneCountInString(line.Text) <= availableWidth {
		return render.ColorizeLine(line, change)
	}

	wrapped := wordwrap.String(line.Text, availableWidth)
	subLines := strings.Split(wrapped, "\n")
	if len(subLines) <= 1 {
		return render.ColorizeLine(line, change)
	}

	continuationIndent := strings.Repeat(" ", line.Indent+2)

	var b strings.Builder
	for i, sub := range subLines {
		if i > 0 {
			b.WriteString("\n")
		}
		if i == 0 {
			first := render.Line{Indent: line.Indent, Marker: line.Marker, Text: sub}
			b.WriteString(render.ColorizeLine(first, change))
		} else {
			b.WriteString(continuationIndent)
			b.WriteString(mutedStyle.Render(strings.TrimSpace(sub)))
		}
	}

	return b.String()
}

// decodableKeys are attribute names whose values are commonly base64 or
// gzip encoded scripts worth showing decoded.
var decodableKeys = map[string]bool{
	"user_data":        true,
	"user_data_base64": true,
}

// renderDecodedValue inlines decoded content below user_data attribute lines
// when the value is recognizably encoded. Value changes render as a diff of
// the decoded old and new content.
func (m Model) renderDecodedValue(line render.Line, maxWidth int) (string, bool) {
	eqIdx := strings.Index(line.Text, " = ")
	if eqIdx < 0 {
		return "", false
	}
	key := strings.TrimSpace(line.Text[:eqIdx])
	if !decodableKeys[key] {
		return "", false
	}
	value := strings.TrimSpace(line.Text[eqIdx+3:])
	indent := strings.Repeat(" ", line.Indent+2)

	if parts := strings.SplitN(value, " -> ", 2); len(parts) == 2 {
		oldDecoded, oldOk := render.TryDecodeValue(unquote(strings.TrimSpace(parts[0])))
		newDecoded, newOk := render.TryDecodeValue(unquote(strings.TrimSpace(parts[1])))
		if !oldOk && !newOk {
			return "", false
		}
		return m.renderDecodedDiff(key, oldDecoded, oldOk, newDecoded, newOk, indent, maxWidth), true
	}

	decoded, ok := render.TryDecodeValue(unquote(value))
	if !ok {
		return "", false
	}

	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(mutedStyle.Render("┄┄┄ decoded " + key + " ┄┄┄"))
	b.WriteString("\n")
	for _, dl := range strings.Split(decoded, "\n") {
		for _, wl := range strings.Split(wrapText(dl, maxWidth-len(indent)-2), "\n") {
			b.WriteString(indent)
			b.WriteString(mutedStyle.Render("  " + wl))
			b.WriteString("\n")
		}
	}
	b.WriteString(indent)
	b.WriteString(mutedStyle.Render("┄┄┄ end " + key + " ┄┄┄"))
	b.WriteString("\n")
	return b.String(), true
}

func (m Model) renderDecodedDiff(key string, oldDecoded string, oldOk bool, newDecoded string, newOk bool, indent string, maxWidth int) string {
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(mutedStyle.Render("┄┄┄ decoded " + key + " ┄┄┄"))
	b.WriteString("\n")
	if oldOk && newOk {
		diff := render.ContextDiff(render.ComputeDiff(
			strings.Split(oldDecoded, "\n"),
			strings.Split(newDecoded, "\n"),
		), 3)
		if diff == nil {
			b.WriteString(indent)
			b.WriteString(mutedStyle.Render("  (no changes in decoded content)"))
			b.WriteString("\n")
		} else {
			renderDiffLines(&b, diff, indent, maxWidth)
		}
	} else {
		if oldOk {
			for _, ol := range strings.Split(oldDecoded, "\n") {
				b.WriteString(indent)
				b.WriteString(render.ChangeStyle(parser.ChangeDelete).Render("- " + ol))
				b.WriteString("\n")
			}
		}
		if newOk {
			for _, nl := range strings.Split(newDecoded, "\n") {
				b.WriteString(indent)
				b.WriteString(render.ChangeStyle(parser.ChangeCreate).Render("+ " + nl))
				b.WriteString("\n")
			}
		}
	}
	b.WriteString(indent)
	b.WriteString(mutedStyle.Render("┄┄┄ end " + key + " ┄┄┄"))
	b.WriteString("\n")
	return b.String()
}

// renderDiffLines writes context-diff lines into a builder, handling all
// DiffOp types including the separator for collapsed equal runs.
func renderDiffLines(b *strings.Builder, diff []render.DiffLine, indent string, maxWidth int) {
	for _, d := range diff {
		switch d.Op {
		case render.DiffSeparator:
			b.WriteString(indent)
			b.WriteString(mutedStyle.Render("@@ ··· @@"))
			b.WriteString("\n")
		case render.DiffDelete:
			for _, wl := range strings.Split(wrapText(d.Text, maxWidth-len(indent)-4), "\n") {
				b.WriteString(indent)
				b.WriteString(render.ChangeStyle(parser.ChangeDelete).Render("- " + wl))
				b.WriteString("\n")
			}
		case render.DiffInsert:
			for _, wl := range strings.Split(wrapText(d.Text, maxWidth-len(indent)-4), "\n") {
				b.WriteString(indent)
				b.WriteString(render.ChangeStyle(parser.ChangeCreate).Render("+ " + wl))
				b.WriteString("\n")
			}
		case render.DiffEqual:
			for _, wl := range strings.Split(wrapText(d.Text, maxWidth-len(indent)-4), "\n") {
				b.WriteString(indent)
				b.WriteString(mutedStyle.Render("  " + wl))
				b.WriteString("\n")
			}
		}
	}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func wrapText(s string, width int) string {
	if width <= 10 {
		return s
	}
	return wordwrap.String(s, width)
}

// attrCount counts the leaf and container nodes in a resource's diff tree.
func attrCount(attrs []parser.AttributeChange) int {
	n := 0
	for _, a := range attrs {
		n++
		n += attrCount(a.Children)
	}
	return n
}

// renderSelectedResourceLine renders a resource line with full-width background highlight
func (m Model) renderSelectedResourceLine(r parser.ResourceChange, expanded bool) string {
	var content strings.Builder

	if expanded {
		content.WriteString("▼")
	} else {
		content.WriteString("▶")
	}
	content.WriteString(" ")
	content.WriteString(render.ChangeSymbol(r.Change))
	content.WriteString(" ")
	content.WriteString(r.Address.String())
	content.WriteString(" ")
	content.WriteString(render.ChangeDescription(r.Change))
	if r.Reason != "" {
		content.WriteString(" (")
		content.WriteString(r.Reason)
		content.WriteString(")")
	}
	if n := attrCount(r.Attributes); n > 0 {
		content.WriteString(fmt.Sprintf(" (%d attrs)", n))
	}

	// Pad to full width so the background highlight spans the line
	line := content.String()
	targetWidth := m.width - 4
	if targetWidth > 0 && utf8.RuneCountInString(line) < targetWidth {
		line = line + strings.Repeat(" ", targetWidth-utf8.RuneCountInString(line))
	}

	return selectedStyle.
		Foreground(render.ChangeColor(r.Change)).
		Bold(true).
		Render(line)
}

func (m Model) renderResourceLine(r parser.ResourceChange, expanded bool, isMatch bool) string {
	var b strings.Builder

	if expanded {
		b.WriteString(expandedIndicator)
	} else {
		b.WriteString(collapsedIndicator)
	}
	b.WriteString(" ")
	b.WriteString(render.ChangeStyle(r.Change).Render(render.ChangeSymbol(r.Change)))
	b.WriteString(" ")

	address := r.Address.String()
	if isMatch && m.searchQuery != "" {
		address = highlightMatch(address, m.searchQuery)
	}
	b.WriteString(render.ChangeStyle(r.Change).Render(address))

	b.WriteString(" ")
	b.WriteString(mutedStyle.Render(render.ChangeDescription(r.Change)))
	if r.Reason != "" {
		b.WriteString(mutedStyle.Render(" (" + r.Reason + ")"))
	}
	if n := attrCount(r.Attributes); n > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" (%d attrs)", n)))
	}

	return b.String()
}

func highlightMatch(text, query string) string {
	lower := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)

	idx := strings.Index(lower, lowerQuery)
	if idx == -1 {
		return text
	}

	before := text[:idx]
	match := text[idx : idx+len(query)]
	after := text[idx+len(query):]

	return before + matchStyle.Render(match) + after
}

// sortOrderLabel returns a display label for a sort option
func sortOrderLabel(opt SortOrder) string {
	switch opt {
	case SortDefault:
		return "default (plan order)"
	case SortByChange:
		return "by change type"
	case SortByAddress:
		return "by address"
	case SortByType:
		return "by resource type"
	default:
		return string(opt)
	}
}

// sortOrderHint returns a one-line hint explaining what a sort option does
func sortOrderHint(opt SortOrder) string {
	switch opt {
	case SortDefault:
		return "as Terraform outputs them"
	case SortByChange:
		return "group create, update, delete, replace"
	case SortByAddress:
		return "alphabetical by resource address"
	case SortByType:
		return "group by resource type (aws_instance, etc.)"
	default:
		return ""
	}
}

// viewFilterPicker renders the filter picker overlay (returns full view, caller returns early).
func (m Model) viewFilterPicker() string {
	var b strings.Builder
	b.WriteString(searchStyle.Render("Filter by change type"))
	b.WriteString("\n\n")
	for i, change := range filterableChanges {
		checked := "[ ]"
		if m.changeFilters != nil && m.changeFilters[change] {
			checked = "[x]"
		}
		rowStyle := lipgloss.NewStyle().Foreground(render.TextColor)
		if i == m.filterCursor {
			rowStyle = rowStyle.Background(render.SelectedBg)
		}
		b.WriteString(rowStyle.Render("  "+checked+" ") + render.ChangeStyle(change).Render(string(change)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("j/k: navigate • Space: toggle • a: select all • c: clear all • Enter: apply • Esc: clear all and close"))
	return appStyle.Render(b.String())
}

// viewSortPicker renders the sort picker overlay (returns full view, caller returns early).
func (m Model) viewSortPicker() string {
	var b strings.Builder
	b.WriteString(searchStyle.Render("Sort by"))
	b.WriteString("\n\n")
	for i, opt := range sortOptions {
		marker := "  "
		if opt == m.sortOrder {
			marker = "● "
		}
		rowStyle := lipgloss.NewStyle().Foreground(render.TextColor)
		if i == m.sortCursor {
			rowStyle = rowStyle.Background(render.SelectedBg)
		}
		line := marker + sortOrderLabel(opt) + " " + mutedStyle.Render(sortOrderHint(opt))
		b.WriteString(rowStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("j/k: navigate • Enter/Space: select • Esc: close"))
	return appStyle.Render(b.String())
}

// viewHeader renders the header and summary.
func (m Model) viewHeader() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("tfreview - Terraform Plan Review"))
	b.WriteString("\n")

	counts := m.plan.DerivedCounts()
	if m.plan.Counts != nil {
		counts = *m.plan.Counts
	}
	summary := fmt.Sprintf("  %s to add, %s to change, %s to destroy",
		render.ChangeStyle(parser.ChangeCreate).Render(fmt.Sprintf("%d", counts.Add)),
		render.ChangeStyle(parser.ChangeUpdate).Render(fmt.Sprintf("%d", counts.Change)),
		render.ChangeStyle(parser.ChangeDelete).Render(fmt.Sprintf("%d", counts.Destroy)),
	)
	if len(m.plan.Warnings) > 0 {
		summary += mutedStyle.Render(fmt.Sprintf("  (%d parse warnings)", len(m.plan.Warnings)))
	}
	b.WriteString(summaryStyle.Render(summary))
	b.WriteString("\n")

	for _, d := range m.plan.Errors {
		style := render.ChangeStyle(parser.ChangeDelete)
		label := "Error"
		if d.Severity == "warning" {
			style = render.ChangeStyle(parser.ChangeUpdate)
			label = "Warning"
		}
		line := "  " + style.Render(label+": "+d.Summary)
		if d.File != "" {
			line += mutedStyle.Render(fmt.Sprintf("  (on %s line %d)", d.File, d.Line))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	return b.String()
}

// viewFilterStatus renders the filter status line when filters are active.
func (m Model) viewFilterStatus() string {
	if len(m.changeFilters) == 0 {
		return ""
	}
	var labels []string
	for _, change := range filterableChanges {
		if m.changeFilters[change] {
			labels = append(labels, string(change))
		}
	}
	return searchStyle.Render(fmt.Sprintf("Filter: %s (%d active) • f: change • Esc: clear all", strings.Join(labels, ", "), len(labels))) + "\n\n"
}

// viewSortStatus renders the sort status line when not default.
func (m Model) viewSortStatus() string {
	if m.sortOrder == SortDefault || m.sortOrder == "" {
		return ""
	}
	return searchStyle.Render(fmt.Sprintf("Sort: %s • s: change", sortOrderLabel(m.sortOrder))) + "\n\n"
}

// viewSearchBar renders the search bar or match info.
func (m Model) viewSearchBar() string {
	if m.searching {
		return searchStyle.Render("Search: ") + m.searchInput.View() + "\n\n"
	}
	if m.searchQuery != "" {
		return searchStyle.Render(fmt.Sprintf("Search: %q (%d/%d matches)", m.searchQuery, m.currentMatch+1, len(m.searchMatches))) + "\n\n"
	}
	return ""
}

// viewHelpFooter returns the help footer text.
func (m Model) viewHelpFooter() string {
	help := "j/k/↑↓: navigate • l/→: expand • h/←/⌫: collapse • d/u: scroll • e/c: all • gg/G: top/bottom • /: search • f: filter • s: sort • q: quit"
	if len(m.changeFilters) > 0 {
		help += " • Esc: clear filter"
	}
	return help
}

// viewUpdateNudge renders the update available nudge.
func (m Model) viewUpdateNudge() string {
	if m.updateAvailable == "" {
		return ""
	}
	nudgeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Italic(true)
	return "\n" + nudgeStyle.Render(fmt.Sprintf("Update available: v%s. Run 'tfreview upgrade' to update.", m.updateAvailable))
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.filtering {
		return m.viewFilterPicker()
	}
	if m.sorting {
		return m.viewSortPicker()
	}

	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString(m.viewFilterStatus())
	b.WriteString(m.viewSortStatus())
	b.WriteString(m.viewSearchBar())
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.viewHelpFooter()))
	b.WriteString(m.viewUpdateNudge())
	return appStyle.Render(b.String())
}
