// Package diffutil produces line-based diffs of script configuration,
// used to preview what an import would change before it is applied.
package diffutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffLine is a single line of the comparison.
type DiffLine struct {
	Type        diffmatchpatch.Operation
	OrigLineNum int // 0 if the line was inserted
	ModLineNum  int // 0 if the line was deleted
	Text        string
}

// Summary counts the line-level changes of a comparison.
type Summary struct {
	Inserted  int
	Deleted   int
	Unchanged int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d inserted, %d deleted, %d unchanged", s.Inserted, s.Deleted, s.Unchanged)
}

// Changed reports whether the comparison found any difference.
func (s Summary) Changed() bool {
	return s.Inserted > 0 || s.Deleted > 0
}

// Compare diffs two snippets line by line.
func Compare(original, modified string) ([]DiffLine, Summary) {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 5 * time.Second

	// Line mode: map lines to runes so the diff operates on whole lines.
	origRunes, modRunes, lineText := dmp.DiffLinesToChars(original, modified)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(origRunes, modRunes, false), lineText)

	var lines []DiffLine
	var sum Summary
	origNum, modNum := 1, 1

	for _, diff := range diffs {
		for _, text := range splitLines(diff.Text) {
			line := DiffLine{Type: diff.Type, Text: text}
			switch diff.Type {
			case diffmatchpatch.DiffInsert:
				line.ModLineNum = modNum
				modNum++
				sum.Inserted++
			case diffmatchpatch.DiffDelete:
				line.OrigLineNum = origNum
				origNum++
				sum.Deleted++
			default:
				line.OrigLineNum = origNum
				line.ModLineNum = modNum
				origNum++
				modNum++
				sum.Unchanged++
			}
			lines = append(lines, line)
		}
	}

	return lines, sum
}

// Render formats a comparison as unified-style text with +/- markers.
func Render(lines []DiffLine) string {
	var b strings.Builder
	for _, line := range lines {
		switch line.Type {
		case diffmatchpatch.DiffInsert:
			b.WriteString("+ ")
		case diffmatchpatch.DiffDelete:
			b.WriteString("- ")
		default:
			b.WriteString("  ")
		}
		b.WriteString(line.Text)
		if !strings.HasSuffix(line.Text, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	trailing := strings.HasSuffix(s, "\n")
	if trailing {
		s = s[:len(s)-1]
	}
	parts := strings.Split(s, "\n")
	for i := range parts {
		if i < len(parts)-1 || trailing {
			parts[i] += "\n"
		}
	}
	return parts
}
