package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/CaptShanks/tfreview/internal/render"
)

// UI chrome styles; value coloring lives in the render package so the
// interactive and non-interactive views stay consistent.
var (
	appStyle      lipgloss.Style
	headerStyle   lipgloss.Style
	summaryStyle  lipgloss.Style
	selectedStyle lipgloss.Style
	mutedStyle    lipgloss.Style
	helpStyle     lipgloss.Style
	searchStyle   lipgloss.Style
	matchStyle    lipgloss.Style

	expandedIndicator  string
	collapsedIndicator string
)

func init() {
	buildStyles()
}

func buildStyles() {
	appStyle = lipgloss.NewStyle().
		Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(render.HeaderColor).
		MarginBottom(1)

	summaryStyle = lipgloss.NewStyle().
		Foreground(render.TextColor).
		MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
		Background(render.SelectedBg)

	mutedStyle = lipgloss.NewStyle().
		Foreground(render.MutedColorVal)

	helpStyle = lipgloss.NewStyle().
		Foreground(render.MutedColorVal).
		MarginTop(1)

	searchStyle = lipgloss.NewStyle().
		Foreground(render.HeaderColor).
		Bold(true)

	matchStyle = lipgloss.NewStyle().
		Background(render.BorderColor).
		Foreground(render.CreateColor).
		Bold(true)

	expandedIndicator = mutedStyle.Render("▼")
	collapsedIndicator = mutedStyle.Render("▶")
}

// SetLightPalette switches both the render and TUI styles to the light theme.
// Must be called before the program starts.
func SetLightPalette() {
	render.SetLightPalette()
	buildStyles()
}
