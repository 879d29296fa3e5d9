package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/CaptShanks/tfreview/internal/parser"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// reportData is the template context for the HTML report.
type reportData struct {
	Title       string
	GeneratedAt string
	Counts      parser.Counts
	Errors      []parser.Diagnostic
	Resources   []resourceView
	Outputs     []parser.OutputChange
	Warnings    []parser.Warning
}

type resourceView struct {
	Address     string
	Change      parser.ChangeType
	Description string
	Reason      string
	Body        []string
}

// HTMLReport renders the plan as a standalone HTML document.
func HTMLReport(plan *parser.Plan, title string) ([]byte, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}

	counts := parser.Counts{}
	if plan.Counts != nil {
		counts = *plan.Counts
	} else {
		counts = plan.DerivedCounts()
	}

	data := reportData{
		Title:       title,
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05 MST"),
		Counts:      counts,
		Errors:      plan.Errors,
		Outputs:     plan.Outputs,
		Warnings:    plan.Warnings,
	}
	for _, r := range plan.Resources {
		view := resourceView{
			Address:     r.Address.String(),
			Change:      r.Change,
			Description: ChangeDescription(r.Change),
			Reason:      r.Reason,
		}
		for _, l := range ResourceLines(r) {
			view.Body = append(view.Body, l.String())
		}
		data.Resources = append(data.Resources, view)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	return buf.Bytes(), nil
}
