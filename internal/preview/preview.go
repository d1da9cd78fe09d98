// Package preview renders the changes docsync would make to a file as a unified diff, optionally colored for a terminal.
package preview

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

type line struct {
	op   byte // ' ', '-', or '+'
	text string
	eol  bool // text was followed by '\n'
}

// diffLines diffs oldText to newText line by line.
func diffLines(oldText, newText string) []line {
	dmp := diffmatchpatch.New()
	rOld, rNew, lineArray := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffCleanupMerge(dmp.DiffMainRunes(rOld, rNew, false))

	var out []line
	for _, d := range diffs {
		op := byte(' ')
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = '-'
		case diffmatchpatch.DiffInsert:
			op = '+'
		}
		for _, r := range d.Text {
			idx := int(r)
			if idx < 0 || idx >= len(lineArray) {
				continue
			}
			text, eol := strings.CutSuffix(lineArray[idx], "\n")
			out = append(out, line{op: op, text: text, eol: eol})
		}
	}
	return out
}

type palette struct {
	header, hunk, del, ins *color.Color
}

func newPalette(colored bool) palette {
	p := palette{
		header: color.New(color.Bold),
		hunk:   color.New(color.FgCyan),
		del:    color.New(color.FgRed),
		ins:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.header, p.hunk, p.del, p.ins} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Unified returns a unified diff from oldText to newText, with path in the "---"/"+++" headers and contextLines of context around each change. It returns "" if
// the texts are equal. If colored is true, the output contains ANSI color sequences.
func Unified(path, oldText, newText string, contextLines int, colored bool) string {
	if oldText == newText {
		return ""
	}
	lines := diffLines(oldText, newText)

	// oldBefore[i] and newBefore[i] count the old and new lines preceding lines[i].
	oldBefore := make([]int, len(lines)+1)
	newBefore := make([]int, len(lines)+1)
	for i, l := range lines {
		oldBefore[i+1], newBefore[i+1] = oldBefore[i], newBefore[i]
		if l.op != '+' {
			oldBefore[i+1]++
		}
		if l.op != '-' {
			newBefore[i+1]++
		}
	}

	// Each hunk is a half-open range of lines. Changes whose context windows touch share a hunk.
	var hunks [][2]int
	for i, l := range lines {
		if l.op == ' ' {
			continue
		}
		lo, hi := max(0, i-contextLines), min(len(lines), i+contextLines+1)
		if n := len(hunks); n > 0 && lo <= hunks[n-1][1] {
			hunks[n-1][1] = hi
		} else {
			hunks = append(hunks, [2]int{lo, hi})
		}
	}

	name := strings.TrimPrefix(filepath.ToSlash(path), "/")
	p := newPalette(colored)
	var b strings.Builder
	b.WriteString(p.header.Sprintf("--- a/%s", name) + "\n")
	b.WriteString(p.header.Sprintf("+++ b/%s", name) + "\n")
	for _, h := range hunks {
		lo, hi := h[0], h[1]
		header := fmt.Sprintf("@@ -%s +%s @@",
			hunkRange(oldBefore[lo], oldBefore[hi]-oldBefore[lo]),
			hunkRange(newBefore[lo], newBefore[hi]-newBefore[lo]))
		b.WriteString(p.hunk.Sprint(header) + "\n")

		for _, l := range lines[lo:hi] {
			text := string(l.op) + l.text
			switch l.op {
			case '-':
				text = p.del.Sprint(text)
			case '+':
				text = p.ins.Sprint(text)
			}
			b.WriteString(text + "\n")
			if !l.eol {
				b.WriteString("\\ No newline at end of file\n")
			}
		}
	}
	return b.String()
}

// hunkRange formats a hunk header range given the number of lines before it and its length, following diff -u: the start is 1-based unless the range is empty,
// and a length of 1 is omitted.
func hunkRange(before, count int) string {
	switch count {
	case 0:
		return fmt.Sprintf("%d,0", before)
	case 1:
		return fmt.Sprintf("%d", before+1)
	}
	return fmt.Sprintf("%d,%d", before+1, count)
}
