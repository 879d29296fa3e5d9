package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/CaptShanks/tfreview/internal/parser"
)

// Theme colors - Soft, low-contrast palette inspired by Tokyo Night / Catppuccin
var (
	// Primary colors for change kinds (muted, pastel tones)
	CreateColor  = lipgloss.Color("#9ece6a") // Soft sage green
	DeleteColor  = lipgloss.Color("#f7768e") // Soft coral red
	UpdateColor  = lipgloss.Color("#e0af68") // Warm amber
	ReplaceColor = lipgloss.Color("#bb9af7") // Soft lavender
	ReadColor    = lipgloss.Color("#7dcfff") // Soft sky blue

	// UI colors
	SelectedBg    = lipgloss.Color("#292e42") // Deep navy selection
	HeaderColor   = lipgloss.Color("#7aa2f7") // Soft periwinkle
	BorderColor   = lipgloss.Color("#3b4261") // Muted slate
	MutedColorVal = lipgloss.Color("#565f89") // Soft gray-blue
	TextColor     = lipgloss.Color("#a9b1d6") // Soft lavender gray
	ComputedColor = lipgloss.Color("#73daca") // Soft teal
)

var (
	headerStyle        lipgloss.Style
	changeCreateStyle  lipgloss.Style
	changeDeleteStyle  lipgloss.Style
	changeUpdateStyle  lipgloss.Style
	changeReplaceStyle lipgloss.Style
	changeReadStyle    lipgloss.Style
	attrNameStyle      lipgloss.Style
	attrOldValueStyle  lipgloss.Style
	attrNewValueStyle  lipgloss.Style
	attrComputedStyle  lipgloss.Style
	sensitiveStyle     lipgloss.Style
	// MutedStyle is shared with the interactive viewer for secondary text.
	MutedStyle   lipgloss.Style
	warningStyle lipgloss.Style

	createSymbol  string
	deleteSymbol  string
	updateSymbol  string
	replaceSymbol string
	readSymbol    string
)

func init() {
	buildStyles()
}

func buildStyles() {
	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(HeaderColor).
		MarginBottom(1)

	changeCreateStyle = lipgloss.NewStyle().Bold(true).Foreground(CreateColor)
	changeDeleteStyle = lipgloss.NewStyle().Bold(true).Foreground(DeleteColor)
	changeUpdateStyle = lipgloss.NewStyle().Bold(true).Foreground(UpdateColor)
	changeReplaceStyle = lipgloss.NewStyle().Bold(true).Foreground(ReplaceColor)
	changeReadStyle = lipgloss.NewStyle().Bold(true).Foreground(ReadColor)

	attrNameStyle = lipgloss.NewStyle().Foreground(TextColor)

	attrOldValueStyle = lipgloss.NewStyle().
		Foreground(DeleteColor).
		Strikethrough(true)

	attrNewValueStyle = lipgloss.NewStyle().Foreground(CreateColor)

	attrComputedStyle = lipgloss.NewStyle().
		Foreground(ComputedColor).
		Italic(true)

	sensitiveStyle = lipgloss.NewStyle().
		Foreground(ReplaceColor).
		Italic(true)

	MutedStyle = lipgloss.NewStyle().Foreground(MutedColorVal)

	warningStyle = lipgloss.NewStyle().Foreground(UpdateColor)

	createSymbol = lipgloss.NewStyle().Foreground(CreateColor).Render("+")
	deleteSymbol = lipgloss.NewStyle().Foreground(DeleteColor).Render("-")
	updateSymbol = lipgloss.NewStyle().Foreground(UpdateColor).Render("~")
	replaceSymbol = lipgloss.NewStyle().Foreground(ReplaceColor).Render("±")
	readSymbol = lipgloss.NewStyle().Foreground(ReadColor).Render("≤")
}

// SetLightPalette switches to colors legible on light terminal backgrounds.
// Must be called before any rendering.
func SetLightPalette() {
	CreateColor = lipgloss.Color("#4d7c0f")
	DeleteColor = lipgloss.Color("#be123c")
	UpdateColor = lipgloss.Color("#b45309")
	ReplaceColor = lipgloss.Color("#7c3aed")
	ReadColor = lipgloss.Color("#0369a1")

	SelectedBg = lipgloss.Color("#dce0e8")
	HeaderColor = lipgloss.Color("#1e40af")
	BorderColor = lipgloss.Color("#9ca0b0")
	MutedColorVal = lipgloss.Color("#6c6f85")
	TextColor = lipgloss.Color("#4c4f69")
	ComputedColor = lipgloss.Color("#0f766e")

	buildStyles()
}

// ChangeSymbol returns the marker symbol for a change kind, colored.
func ChangeSymbol(c parser.ChangeType) string {
	switch c {
	case parser.ChangeCreate:
		return createSymbol
	case parser.ChangeDelete:
		return deleteSymbol
	case parser.ChangeReplace:
		return replaceSymbol
	case parser.ChangeRead:
		return readSymbol
	default:
		return updateSymbol
	}
}

// ChangeStyle returns the address style for a change kind.
func ChangeStyle(c parser.ChangeType) lipgloss.Style {
	switch c {
	case parser.ChangeCreate:
		return changeCreateStyle
	case parser.ChangeDelete:
		return changeDeleteStyle
	case parser.ChangeReplace:
		return changeReplaceStyle
	case parser.ChangeRead:
		return changeReadStyle
	default:
		return changeUpdateStyle
	}
}

// ChangeColor returns the base color for a change kind.
func ChangeColor(c parser.ChangeType) lipgloss.Color {
	switch c {
	case parser.ChangeCreate:
		return CreateColor
	case parser.ChangeDelete:
		return DeleteColor
	case parser.ChangeReplace:
		return ReplaceColor
	case parser.ChangeRead:
		return ReadColor
	default:
		return UpdateColor
	}
}

// ChangeDescription returns the plan-style phrase for a change kind.
func ChangeDescription(c parser.ChangeType) string {
	switch c {
	case parser.ChangeCreate:
		return "will be created"
	case parser.ChangeDelete:
		return "will be destroyed"
	case parser.ChangeUpdate:
		return "will be updated in-place"
	case parser.ChangeReplace:
		return "must be replaced"
	case parser.ChangeRead:
		return "will be read during apply"
	default:
		return ""
	}
}
