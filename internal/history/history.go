// Package history stores reviewed plans under the user's home directory so
// past reviews can be reopened without re-running terraform.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/CaptShanks/tfreview/internal/parser"
)

// Dir is the directory under $HOME holding tfreview state.
const Dir = ".tfreview"

const historySubdir = "history"

// Entry is one stored review.
type Entry struct {
	Path      string
	Timestamp time.Time
	Project   string // directory name the review ran in
	Counts    parser.Counts
	Filename  string
}

// Summary renders the entry's change counts in plan style.
func (e Entry) Summary() string {
	return fmt.Sprintf("+%d ~%d -%d", e.Counts.Add, e.Counts.Change, e.Counts.Destroy)
}

// StateDir returns the tfreview state directory path.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, Dir), nil
}

func historyDir() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, historySubdir), nil
}

// Save writes the raw plan text of a review into the history. When model is
// non-nil it is written unchanged as a .json sidecar next to the text file,
// so tooling can read the parsed form without re-parsing.
// Filename format: YYYY-MM-DD_HH-MM-SS_<project>_<add>a-<change>c-<destroy>d.txt
func Save(planText string, model []byte, counts parser.Counts) (string, error) {
	dir, err := historyDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating history directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%da-%dc-%dd.txt",
		time.Now().Format("2006-01-02_15-04-05"),
		sanitizeProjectName(workingDirName()),
		counts.Add, counts.Change, counts.Destroy,
	)
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(planText), 0644); err != nil {
		return "", fmt.Errorf("writing history file: %w", err)
	}
	if model != nil {
		if err := os.WriteFile(sidecarPath(path), model, 0644); err != nil {
			return path, fmt.Errorf("writing model sidecar: %w", err)
		}
	}
	return path, nil
}

// Remove deletes a stored review and its model sidecar if present.
func Remove(e Entry) error {
	_ = os.Remove(sidecarPath(e.Path))
	return os.Remove(e.Path)
}

func sidecarPath(textPath string) string {
	return strings.TrimSuffix(textPath, ".txt") + ".json"
}

// sanitizeProjectName makes a project name safe for filenames.
// Underscores MUST be replaced since they are filename delimiters.
func sanitizeProjectName(name string) string {
	replacer := strings.NewReplacer(
		"_", "-",
		" ", "-",
		"/", "-",
		"\\", "-",
		":", "-",
		".", "-",
	)
	name = replacer.Replace(name)
	if len(name) > 30 {
		name = name[:30]
	}
	if name == "" {
		name = "unknown"
	}
	return name
}

// List returns all stored reviews, newest first.
func List() ([]Entry, error) {
	dir, err := historyDir()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []Entry{}, nil
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading history directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".txt") {
			continue
		}
		entry, err := parseFilename(f.Name())
		if err != nil {
			continue // not one of ours
		}
		entry.Path = filepath.Join(dir, f.Name())
		entry.Filename = f.Name()
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

// parseFilename parses YYYY-MM-DD_HH-MM-SS_<project>_<add>a-<change>c-<destroy>d.txt.
func parseFilename(filename string) (Entry, error) {
	base := strings.TrimSuffix(filename, ".txt")
	parts := strings.Split(base, "_")
	if len(parts) != 4 {
		return Entry{}, fmt.Errorf("unexpected filename layout")
	}

	timestamp, err := time.Parse("2006-01-02_15-04-05", parts[0]+"_"+parts[1])
	if err != nil {
		return Entry{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	counts, err := parseCountsTag(parts[3])
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Timestamp: timestamp,
		Project:   parts[2],
		Counts:    counts,
	}, nil
}

func parseCountsTag(tag string) (parser.Counts, error) {
	var c parser.Counts
	n, err := fmt.Sscanf(tag, "%da-%dc-%dd", &c.Add, &c.Change, &c.Destroy)
	if err != nil || n != 3 {
		return parser.Counts{}, fmt.Errorf("invalid counts tag %q", tag)
	}
	return c, nil
}

// FormatEntry formats an entry for plain listing.
func FormatEntry(e Entry) string {
	project := e.Project
	if project == "" {
		project = "-"
	}
	if len(project) > 20 {
		project = project[:17] + "..."
	}
	return fmt.Sprintf("%s  %-20s  %s",
		e.Timestamp.Format("2006-01-02 15:04:05"),
		project,
		e.Summary(),
	)
}

func workingDirName() string {
	wd, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return filepath.Base(wd)
}
