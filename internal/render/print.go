package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/CaptShanks/tfreview/internal/parser"
)

func init() {
	// Force color output even when not a TTY (for piping)
	lipgloss.SetColorProfile(termenv.TrueColor)
}

// PrintPlan writes the colorized plan review to w (non-interactive mode).
func PrintPlan(w io.Writer, plan *parser.Plan) {
	fmt.Fprintln(w, headerStyle.Render("tfreview - Terraform Plan Review"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, summaryLine(plan))
	fmt.Fprintln(w)

	if len(plan.Errors) > 0 {
		for _, d := range plan.Errors {
			printDiagnostic(w, d)
		}
		fmt.Fprintln(w)
	}

	for _, r := range plan.Resources {
		printResource(w, r)
		fmt.Fprintln(w)
	}

	if len(plan.Outputs) > 0 {
		fmt.Fprintln(w, headerStyle.Render("Outputs"))
		for _, o := range plan.Outputs {
			printOutput(w, o)
		}
		fmt.Fprintln(w)
	}

	for _, warn := range plan.Warnings {
		subject := ""
		if warn.Subject != "" {
			subject = " " + warn.Subject + ":"
		}
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("warning [%s]%s %s", warn.Kind, subject, warn.Detail)))
	}
}

func summaryLine(plan *parser.Plan) string {
	counts := plan.Counts
	if counts == nil {
		c := plan.DerivedCounts()
		counts = &c
	}
	return fmt.Sprintf("Plan: %s to add, %s to change, %s to destroy",
		lipgloss.NewStyle().Foreground(CreateColor).Bold(true).Render(fmt.Sprintf("%d", counts.Add)),
		lipgloss.NewStyle().Foreground(UpdateColor).Bold(true).Render(fmt.Sprintf("%d", counts.Change)),
		lipgloss.NewStyle().Foreground(DeleteColor).Bold(true).Render(fmt.Sprintf("%d", counts.Destroy)),
	)
}

func printDiagnostic(w io.Writer, d parser.Diagnostic) {
	headline := lipgloss.NewStyle().Foreground(DeleteColor).Bold(true)
	label := "Error"
	if d.Severity == "warning" {
		headline = lipgloss.NewStyle().Foreground(UpdateColor).Bold(true)
		label = "Warning"
	}
	fmt.Fprintln(w, headline.Render(label+": "+d.Summary))
	if d.File != "" {
		fmt.Fprintln(w, MutedStyle.Render(fmt.Sprintf("  on %s line %d", d.File, d.Line)))
	}
	for _, line := range strings.Split(d.Detail, "\n") {
		if line == "" {
			continue
		}
		fmt.Fprintln(w, "  "+line)
	}
}

func printResource(w io.Writer, r parser.ResourceChange) {
	desc := ChangeDescription(r.Change)
	if r.Reason != "" {
		desc += " (" + r.Reason + ")"
	}
	fmt.Fprintf(w, "%s %s %s\n",
		ChangeSymbol(r.Change),
		ChangeStyle(r.Change).Render(r.Address.String()),
		MutedStyle.Render(desc),
	)

	for _, line := range ResourceLines(r) {
		fmt.Fprintln(w, ColorizeLine(line, r.Change))
	}
}

func printOutput(w io.Writer, o parser.OutputChange) {
	value, _ := formatValue(parser.AttributeChange{
		Old: o.Old, New: o.New, Computed: o.Computed, Sensitive: o.Sensitive,
	})
	fmt.Fprintf(w, "  %s %s = %s\n",
		ChangeSymbol(o.Change),
		attrNameStyle.Render(o.Name),
		colorizeValue(value),
	)
}

// ColorizeLine applies syntax highlighting to one formatted body line. The
// line's own marker drives the coloring, so + lines are green and - lines
// red even inside an update resource.
func ColorizeLine(l Line, change parser.ChangeType) string {
	indent := strings.Repeat(" ", l.Indent)

	var prefix string
	switch l.Marker {
	case "+":
		prefix = createSymbol
	case "-":
		prefix = deleteSymbol
	case "~":
		prefix = updateSymbol
	default:
		prefix = " "
	}

	return indent + prefix + " " + colorizeContent(l.Text, change)
}

// colorizeContent highlights one line of body content.
func colorizeContent(content string, change parser.ChangeType) string {
	if content == "" || content == "{" || content == "}" || content == "]" || content == "[" {
		return MutedStyle.Render(content)
	}

	if strings.HasPrefix(content, "#") {
		return MutedStyle.Render(content)
	}

	if idx := strings.Index(content, " = "); idx > 0 {
		key := content[:idx]
		value := content[idx+3:]
		return attrNameStyle.Render(key) + " = " + colorizeValue(value)
	}

	if strings.HasSuffix(content, "{") {
		name := strings.TrimSpace(strings.TrimSuffix(content, "{"))
		return lipgloss.NewStyle().Foreground(HeaderColor).Render(name) + " {"
	}

	switch change {
	case parser.ChangeCreate:
		return attrNewValueStyle.Render(content)
	case parser.ChangeDelete:
		return attrOldValueStyle.Render(content)
	default:
		return attrNameStyle.Render(content)
	}
}

// colorizeValue highlights a value expression by its shape.
func colorizeValue(value string) string {
	value = strings.TrimSpace(value)

	if strings.Contains(value, "(known after apply)") {
		return attrComputedStyle.Render(value)
	}
	if strings.Contains(value, "(sensitive") {
		return sensitiveStyle.Render(value)
	}

	if note, found := strings.CutSuffix(value, "# forces replacement"); found {
		return colorizeValue(strings.TrimSpace(note)) + " " + sensitiveStyle.Render("# forces replacement")
	}

	if strings.Contains(value, " -> ") {
		parts := strings.SplitN(value, " -> ", 2)
		return attrOldValueStyle.Render(strings.TrimSpace(parts[0])) +
			MutedStyle.Render(" → ") +
			attrNewValueStyle.Render(strings.TrimSpace(parts[1]))
	}

	if value == "null" {
		return lipgloss.NewStyle().Foreground(DeleteColor).Render(value)
	}
	if value == "true" || value == "false" {
		return lipgloss.NewStyle().Foreground(ReadColor).Render(value)
	}
	if isNumeric(value) {
		return lipgloss.NewStyle().Foreground(UpdateColor).Render(value)
	}
	if strings.HasPrefix(value, `"`) {
		return attrNewValueStyle.Render(value)
	}
	if value == "{" || value == "[" || strings.HasSuffix(value, "{") || strings.HasSuffix(value, "[") {
		return MutedStyle.Render(value)
	}

	return attrNameStyle.Render(value)
}
