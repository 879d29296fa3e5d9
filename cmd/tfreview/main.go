package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CaptShanks/tfreview/internal/export"
	"github.com/CaptShanks/tfreview/internal/history"
	"github.com/CaptShanks/tfreview/internal/parser"
	"github.com/CaptShanks/tfreview/internal/render"
	"github.com/CaptShanks/tfreview/internal/settings"
	"github.com/CaptShanks/tfreview/internal/share"
	"github.com/CaptShanks/tfreview/internal/tui"
	"github.com/CaptShanks/tfreview/internal/updater"
)

const version = "0.1.0"

// ansiEscapeRe matches ANSI color/cursor escape sequences. Plans piped
// without -no-color still parse after stripping these.
var ansiEscapeRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

type viewOptions struct {
	mode      string // tui, print, json, html
	inputFile string
	outFile   string
	noBrowser bool
}

func main() {
	args := os.Args[1:]

	cfg, err := settings.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring settings: %v\n", err)
		cfg = settings.Default()
	}

	theme := strings.ToLower(strings.TrimSpace(os.Getenv("TFREVIEW_THEME")))
	if theme == "" {
		theme = cfg.Theme
	}
	if theme == "light" {
		tui.SetLightPalette()
	}

	if len(args) > 0 {
		switch args[0] {
		case "-h", "--help":
			printUsage()
			return
		case "-v", "--version", "version":
			runVersionMode()
			return
		case "upgrade":
			runUpgradeMode()
			return
		case "history":
			runHistoryMode(args[1:], cfg)
			return
		case "share":
			runShareMode(args[1:], cfg)
			return
		}
	}

	runViewMode(args, cfg)
}

// runViewMode is the default pipe/file review mode
func runViewMode(args []string, cfg settings.Settings) {
	opts := parseViewArgs(args, cfg)

	planText, fromStdin, err := readInput(opts.inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
	if planText == "" {
		printUsage()
		os.Exit(0)
	}

	plan, err := parser.Parse(planText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing plan: %v\n", err)
		os.Exit(1)
	}

	// Saving only piped input keeps re-views of saved files from
	// duplicating history.
	if fromStdin && cfg.HistoryEnabled() && len(plan.Resources) > 0 {
		counts := plan.DerivedCounts()
		if plan.Counts != nil {
			counts = *plan.Counts
		}
		model, _ := export.Marshal(plan)
		if _, err := history.Save(planText, model, counts); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save history: %v\n", err)
		}
	}

	renderPlan(plan, opts)
}

func parseViewArgs(args []string, cfg settings.Settings) viewOptions {
	opts := viewOptions{mode: cfg.Output}
	if opts.mode == "" {
		opts.mode = "tui"
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-p", "--print":
			opts.mode = "print"
		case "--json":
			opts.mode = "json"
		case "--html":
			opts.mode = "html"
		case "--tui":
			opts.mode = "tui"
		case "--no-browser":
			opts.noBrowser = true
		case "-o", "--output":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "%s requires a file argument\n", args[i])
				os.Exit(1)
			}
			i++
			opts.outFile = args[i]
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		default:
			if strings.HasPrefix(args[i], "-") && args[i] != "-" {
				fmt.Fprintf(os.Stderr, "Unknown option: %s\n", args[i])
				fmt.Fprintln(os.Stderr, "Use 'tfreview --help' for usage")
				os.Exit(1)
			}
			opts.inputFile = args[i]
		}
	}
	return opts
}

// readInput reads the plan text from a file or stdin and strips ANSI escapes.
// Returns "" when stdin is a terminal and no file was given.
func readInput(inputFile string) (text string, fromStdin bool, err error) {
	var input io.Reader

	if inputFile != "" && inputFile != "-" {
		file, err := os.Open(inputFile)
		if err != nil {
			return "", false, err
		}
		defer file.Close()
		input = file
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return "", false, nil
		}
		input = os.Stdin
		fromStdin = true
	}

	var lines []string
	scanner := bufio.NewScanner(input)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		lines = append(lines, ansiEscapeRe.ReplaceAllString(scanner.Text(), ""))
	}
	if err := scanner.Err(); err != nil {
		return "", fromStdin, err
	}

	return strings.Join(lines, "\n"), fromStdin, nil
}

func renderPlan(plan *parser.Plan, opts viewOptions) {
	switch opts.mode {
	case "json":
		data, err := export.Marshal(plan)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding plan: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)

	case "print":
		render.PrintPlan(os.Stdout, plan)

	case "html":
		report, err := render.HTMLReport(plan, "Terraform Plan Review")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building report: %v\n", err)
			os.Exit(1)
		}
		outFile := opts.outFile
		if outFile == "" {
			outFile = "tfreview-report.html"
		}
		if err := os.WriteFile(outFile, report, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Report written to %s\n", outFile)
		if !opts.noBrowser {
			if err := render.OpenInBrowser(outFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not open browser: %v\n", err)
			}
		}

	default:
		if len(plan.Resources) == 0 && len(plan.Outputs) == 0 {
			fmt.Println("No changes. Infrastructure is up-to-date.")
			os.Exit(0)
		}
		p := tea.NewProgram(
			tui.NewModel(plan, version),
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
		)
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
			os.Exit(1)
		}
	}
}

// runHistoryMode handles history subcommands: list, view, --clear
func runHistoryMode(args []string, cfg settings.Settings) {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			printHistoryUsage()
			os.Exit(0)
		}
	}

	if len(args) == 0 {
		runHistoryView(nil, cfg)
		return
	}

	switch args[0] {
	case "list":
		runHistoryList()
	case "view":
		runHistoryView(args[1:], cfg)
	case "--clear":
		clearHistory()
	default:
		if isNumeric(args[0]) {
			runHistoryView(args, cfg)
		} else {
			fmt.Fprintf(os.Stderr, "Unknown history subcommand: %s\n", args[0])
			printHistoryUsage()
			os.Exit(1)
		}
	}
}

// isNumeric checks if a string is a positive integer
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// runHistoryList lists saved plans
func runHistoryList() {
	entries, err := history.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
		os.Exit(1)
	}

	stateDir, _ := history.StateDir()
	if len(entries) == 0 {
		fmt.Printf("No saved plans found in %s\n", filepath.Join(stateDir, "history"))
		return
	}

	fmt.Printf("Saved plans in %s:\n\n", filepath.Join(stateDir, "history"))
	fmt.Printf("%3s  %-19s  %-20s  %s\n", "#", "TIMESTAMP", "PROJECT", "CHANGES")
	fmt.Println(strings.Repeat("-", 60))

	for i, entry := range entries {
		fmt.Printf("%3d  %s\n", i+1, history.FormatEntry(entry))
	}

	fmt.Printf("\nTotal: %d saved plans\n", len(entries))
	fmt.Println("\nUse 'tfreview history view <#>' to review a specific plan")
}

// runHistoryView opens a saved plan in the TUI
func runHistoryView(args []string, cfg settings.Settings) {
	filePath, ok := resolveHistoryTarget(args)
	if !ok {
		os.Exit(0)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	plan, err := parser.Parse(string(content))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing plan: %v\n", err)
		os.Exit(1)
	}

	mode := cfg.Output
	if mode == "" || mode == "html" || mode == "json" {
		mode = "tui"
	}
	renderPlan(plan, viewOptions{mode: mode})
}

// resolveHistoryTarget maps picker selection, index, or filename to a path.
func resolveHistoryTarget(args []string) (string, bool) {
	if len(args) == 0 {
		entries, err := history.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
			os.Exit(1)
		}
		if len(entries) == 0 {
			stateDir, _ := history.StateDir()
			fmt.Printf("No saved plans found in %s\n", filepath.Join(stateDir, "history"))
			return "", false
		}

		selectedPath, err := tui.RunPicker(entries)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running picker: %v\n", err)
			os.Exit(1)
		}
		if selectedPath == "" {
			// User cancelled
			return "", false
		}
		return selectedPath, true
	}

	target := args[0]
	if isNumeric(target) {
		var index int
		_, _ = fmt.Sscanf(target, "%d", &index)
		if index < 1 {
			fmt.Fprintln(os.Stderr, "Index must be 1 or greater")
			os.Exit(1)
		}

		entries, err := history.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
			os.Exit(1)
		}
		if index > len(entries) {
			fmt.Fprintf(os.Stderr, "Index %d out of range (only %d entries)\n", index, len(entries))
			os.Exit(1)
		}
		return entries[index-1].Path, true
	}

	stateDir, err := history.StateDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locating history directory: %v\n", err)
		os.Exit(1)
	}
	return filepath.Join(stateDir, "history", target), true
}

// clearHistory removes all saved plans
func clearHistory() {
	entries, err := history.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("No saved plans to clear.")
		return
	}

	stateDir, _ := history.StateDir()
	fmt.Printf("This will delete %d saved plans from %s\n", len(entries), filepath.Join(stateDir, "history"))
	fmt.Print("Are you sure? (y/N): ")

	var response string
	_, _ = fmt.Scanln(&response)

	if strings.ToLower(response) != "y" {
		fmt.Println("Cancelled.")
		return
	}

	deleted := 0
	for _, entry := range entries {
		if err := history.Remove(entry); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to delete %s: %v\n", entry.Filename, err)
		} else {
			deleted++
		}
	}

	fmt.Printf("Deleted %d saved plans.\n", deleted)
}

// runShareMode renders a plan as an HTML report and uploads it to the
// configured S3 bucket.
func runShareMode(args []string, cfg settings.Settings) {
	var inputFile string
	for _, arg := range args {
		switch arg {
		case "-h", "--help":
			printShareUsage()
			os.Exit(0)
		default:
			inputFile = arg
		}
	}

	var planText string
	var name string

	if inputFile != "" {
		content, err := os.ReadFile(inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}
		planText = string(content)
		name = strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
	} else {
		// No file given: share the most recent saved plan
		entries, err := history.List()
		if err != nil || len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No plan to share: give a file argument or pipe a plan through 'tfreview' first")
			os.Exit(1)
		}
		content, err := os.ReadFile(entries[0].Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading saved plan: %v\n", err)
			os.Exit(1)
		}
		planText = string(content)
		name = entries[0].Project
	}

	plan, err := parser.Parse(planText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing plan: %v\n", err)
		os.Exit(1)
	}

	report, err := render.HTMLReport(plan, "Terraform Plan Review")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building report: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	uploader, err := share.New(ctx, cfg.Share)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Configure share.bucket in ~/.tfreview/settings.yaml")
		os.Exit(1)
	}

	url, err := uploader.Upload(ctx, name, report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Upload failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Report uploaded: %s\n", url)
}

// runVersionMode displays the tfreview version and checks for updates
func runVersionMode() {
	fmt.Printf("tfreview v%s\n", version)

	if !updater.IsSkipUpdateCheck() {
		if latest, hasUpdate, err := updater.CheckLatest(version); err == nil && hasUpdate {
			fmt.Printf("\nUpdate available: v%s. Run 'tfreview upgrade' to update (or re-run the install script).\n", latest)
		}
	}
}

// runUpgradeMode upgrades tfreview to the latest release
func runUpgradeMode() {
	_, hasUpdate, err := updater.CheckLatest(version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error checking for updates: %v\n", err)
		fmt.Println(updater.CurlFallbackMessage(err))
		os.Exit(1)
	}
	if !hasUpdate {
		fmt.Println("Already up to date.")
		return
	}

	newVer, err := updater.Upgrade(version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", updater.CurlFallbackMessage(err))
		os.Exit(1)
	}
	fmt.Printf("Upgraded to v%s. Restart tfreview to use the new version.\n", newVer)
}

func printUsage() {
	fmt.Printf(`tfreview %s - Terraform/OpenTofu plan review

USAGE:
    terraform plan -no-color | tfreview          # Pipe plan output
    tfreview <plan-file>                         # Read from file
    tfreview history [list|view]                 # Review saved plans
    tfreview share [plan-file]                   # Upload an HTML report

DESCRIPTION:
    tfreview parses Terraform and OpenTofu plan output into a structured
    change model and presents it for review: interactively, as colored
    terminal output, as JSON, or as a standalone HTML report.

COMMANDS:
    (none)      Review mode - pipe or file input
    history     List and re-open saved plans
    share       Upload an HTML report to the configured S3 bucket
    version     Show version (includes update check)
    upgrade     Upgrade tfreview to the latest release

VIEW OPTIONS:
    -p, --print     Print colored output instead of the interactive view
    --json          Emit the parsed plan as JSON
    --html          Write a standalone HTML report and open it
    -o FILE         Report output path (with --html)
    --no-browser    Do not open the report in a browser

GLOBAL OPTIONS:
    -h, --help      Show this help
    -v, --version   Show version

ENVIRONMENT:
    TFREVIEW_THEME                 "light" or "dark" (default: dark)
    TFREVIEW_SKIP_UPDATE_CHECK     Set to 1, true, or yes to skip update checks
    TFREVIEW_UPDATE_CHECK_INTERVAL Days between update checks (default: 7)

SETTINGS:
    ~/.tfreview/settings.yaml      theme, default output mode, history
                                   on/off, share bucket/prefix/region

CONTROLS:
    j/k         Move cursor up/down
    Enter/Space Toggle expand/collapse
    l/h         Expand/collapse current resource
    d/u         Half page down/up
    gg/G        Go to first/last resource
    e/c         Expand/collapse all
    /           Search resources
    n/N         Next/previous match
    f           Filter by change type
    s           Sort
    q/Esc       Quit

EXAMPLES:
    terraform plan -no-color | tfreview
    tofu plan -no-color | tfreview --print
    tfreview --json plan.txt > plan.json
    tfreview --html --no-browser -o report.html plan.txt
    tfreview history view 1
    tfreview share

`, version)
}

func printHistoryUsage() {
	fmt.Printf(`tfreview history - Review saved plans

USAGE:
    tfreview history <subcommand> [options]

DESCRIPTION:
    Piped plans are saved under ~/.tfreview/history/ (disable with
    save_history: false in settings). Saved plans can be listed and
    re-opened for review.

SUBCOMMANDS:
    (none)          Interactive picker to select and review
    list            List all saved plans
    view            Interactive picker to select and review
    view <#|file>   Review a saved plan
                    # = index (1 = most recent)
                    file = exact filename
    --clear         Delete all saved plans

EXAMPLES:
    tfreview history                 # Interactive picker
    tfreview history list            # List saved plans
    tfreview history view 1          # Review most recent plan
    tfreview history 3               # Shorthand for 'view 3'
    tfreview history --clear         # Clear all saved plans

`)
}

func printShareUsage() {
	fmt.Printf(`tfreview share - Upload an HTML plan report

USAGE:
    tfreview share [plan-file]

DESCRIPTION:
    Renders a plan as a standalone HTML report and uploads it to the S3
    bucket configured in ~/.tfreview/settings.yaml:

        share:
          bucket: my-plan-reports
          prefix: reviews
          region: us-east-1

    Without a file argument the most recent saved plan is shared.

EXAMPLES:
    tfreview share
    tfreview share plan.txt

`)
}
