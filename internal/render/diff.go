package render

// DiffOp classifies one line of a multi-line value diff.
type DiffOp int

const (
	DiffEqual     DiffOp = iota
	DiffInsert                   // line exists only in the new value
	DiffDelete                   // line exists only in the old value
	DiffSeparator                // context separator ("@@" line)
)

// DiffLine pairs an operation with its text content.
type DiffLine struct {
	Op   DiffOp
	Text string
}

const maxLCSLines = 800

// ComputeDiff diffs the old and new sides of a multi-line attribute value
// (a heredoc body, or a decoded user_data payload) line by line using LCS.
// Past maxLCSLines total the common prefix and suffix are trimmed first so
// a giant cloud-init script cannot trigger the quadratic table.
func ComputeDiff(oldLines, newLines []string) []DiffLine {
	m, n := len(oldLines), len(newLines)

	if m+n > maxLCSLines {
		return computeDiffLargeInput(oldLines, newLines)
	}

	return lcs(oldLines, newLines)
}

func lcs(oldLines, newLines []string) []DiffLine {
	m, n := len(oldLines), len(newLines)

	table := make([][]int, m+1)
	for i := range table {
		table[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if oldLines[i-1] == newLines[j-1] {
				table[i][j] = table[i-1][j-1] + 1
			} else if table[i-1][j] >= table[i][j-1] {
				table[i][j] = table[i-1][j]
			} else {
				table[i][j] = table[i][j-1]
			}
		}
	}

	var result []DiffLine
	i, j := m, n
	for i > 0 || j > 0 {
		if i > 0 && j > 0 && oldLines[i-1] == newLines[j-1] {
			result = append(result, DiffLine{Op: DiffEqual, Text: oldLines[i-1]})
			i--
			j--
		} else if j > 0 && (i == 0 || table[i][j-1] >= table[i-1][j]) {
			result = append(result, DiffLine{Op: DiffInsert, Text: newLines[j-1]})
			j--
		} else {
			result = append(result, DiffLine{Op: DiffDelete, Text: oldLines[i-1]})
			i--
		}
	}

	for left, right := 0, len(result)-1; left < right; left, right = left+1, right-1 {
		result[left], result[right] = result[right], result[left]
	}

	return result
}

// computeDiffLargeInput diffs only the changed core of an oversized value.
// Unchanged leading and trailing lines are emitted as-is, and when even the
// core is too large the whole thing degrades to delete-all then insert-all.
func computeDiffLargeInput(oldLines, newLines []string) []DiffLine {
	m, n := len(oldLines), len(newLines)

	prefixLen := 0
	limit := m
	if n < limit {
		limit = n
	}
	for prefixLen < limit && oldLines[prefixLen] == newLines[prefixLen] {
		prefixLen++
	}

	suffixLen := 0
	for suffixLen < limit-prefixLen &&
		oldLines[m-1-suffixLen] == newLines[n-1-suffixLen] {
		suffixLen++
	}

	var result []DiffLine
	for i := 0; i < prefixLen; i++ {
		result = append(result, DiffLine{Op: DiffEqual, Text: oldLines[i]})
	}

	oldCore := oldLines[prefixLen : m-suffixLen]
	newCore := newLines[prefixLen : n-suffixLen]

	if len(oldCore)+len(newCore) <= maxLCSLines {
		result = append(result, lcs(oldCore, newCore)...)
	} else {
		for _, l := range oldCore {
			result = append(result, DiffLine{Op: DiffDelete, Text: l})
		}
		for _, l := range newCore {
			result = append(result, DiffLine{Op: DiffInsert, Text: l})
		}
	}

	for i := 0; i < suffixLen; i++ {
		result = append(result, DiffLine{Op: DiffEqual, Text: oldLines[m-suffixLen+i]})
	}

	return result
}

// ContextDiff collapses runs of equal lines, keeping contextSize lines of
// context around each change and a single DiffSeparator per collapsed run.
// A diff with no changes at all collapses to nil, which the expanded view
// takes to mean the value is worth showing whole rather than as a diff.
func ContextDiff(diff []DiffLine, contextSize int) []DiffLine {
	if contextSize < 0 {
		contextSize = 3
	}

	hasChanges := false
	for _, d := range diff {
		if d.Op != DiffEqual {
			hasChanges = true
			break
		}
	}
	if !hasChanges {
		return nil
	}

	keep := make([]bool, len(diff))
	for i, d := range diff {
		if d.Op != DiffEqual {
			lo := i - contextSize
			if lo < 0 {
				lo = 0
			}
			hi := i + contextSize
			if hi >= len(diff) {
				hi = len(diff) - 1
			}
			for k := lo; k <= hi; k++ {
				keep[k] = true
			}
		}
	}

	var result []DiffLine
	inGap := false
	for i, d := range diff {
		if keep[i] {
			if inGap {
				result = append(result, DiffLine{Op: DiffSeparator, Text: "@@"})
				inGap = false
			}
			result = append(result, d)
		} else {
			inGap = true
		}
	}

	return result
}
