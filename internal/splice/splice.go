// Package splice applies rendered documentation to a source buffer. Edits are collected for a whole file, validated, and applied back-to-front so that no edit
// invalidates the offsets of another.
package splice

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/codalotl/docsync/internal/aliasscan"
	"github.com/codalotl/docsync/internal/srcpos"
)

var (
	// ErrOverlap means two edits touch the same bytes, or insert at the same offset.
	ErrOverlap = errors.New("overlapping edits")

	// ErrOutOfBounds means an edit's range is inverted or extends past the buffer.
	ErrOutOfBounds = errors.New("edit out of bounds")
)

// Edit replaces the bytes in Range with Text. An empty Range is an insertion.
type Edit struct {
	Range srcpos.ByteRange
	Text  string
}

// EditError describes an edit that could not be applied. Err is ErrOverlap or ErrOutOfBounds.
type EditError struct {
	Edit  Edit
	Other *Edit // the conflicting edit, for ErrOverlap
	Err   error
}

func (e *EditError) Error() string {
	if e.Other != nil {
		return fmt.Sprintf("%v: %v and %v", e.Err, e.Other.Range, e.Edit.Range)
	}
	return fmt.Sprintf("%v: %v", e.Err, e.Edit.Range)
}

func (e *EditError) Unwrap() error {
	return e.Err
}

// Reindent prepares body for splicing at a site whose text starts at column. The first line is left as is (it lands at the site's column); each later line is prefixed
// with column spaces. A newline and column spaces are appended so the text that followed the site stays at its column.
func Reindent(body string, column int) string {
	pad := strings.Repeat(" ", column)
	lines := strings.Split(body, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n") + "\n" + pad
}

// Apply applies edits to buf and returns the result. edits is not modified. Edits must lie within buf and must not overlap; a violation returns an *EditError and
// no result.
func Apply(buf string, edits []Edit) (string, error) {
	sorted := slices.Clone(edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Range, sorted[j].Range
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})

	for i := range sorted {
		r := sorted[i].Range
		if r.Start < 0 || r.End < r.Start || r.End > len(buf) {
			return "", &EditError{Edit: sorted[i], Err: ErrOutOfBounds}
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1].Range
		if r.Start < prev.End || (r.IsEmpty() && prev.IsEmpty() && r.Start == prev.Start) {
			return "", &EditError{Edit: sorted[i], Other: &sorted[i-1], Err: ErrOverlap}
		}
	}

	out := []byte(buf)
	for i := len(sorted) - 1; i >= 0; i-- {
		r := sorted[i].Range
		out = append(append(append(make([]byte, 0, len(out)-(r.End-r.Start)+len(sorted[i].Text)), out[:r.Start]...), sorted[i].Text...), out[r.End:]...)
	}
	return string(out), nil
}

// Plan returns the edits that put bodies at sites: one per site of every alias with a non-empty body, reindented to the site's column. Aliases without a body,
// or with an empty one, contribute nothing.
func Plan(sites map[string][]aliasscan.Site, bodies map[string]string) []Edit {
	aliases := make([]string, 0, len(sites))
	for alias := range sites {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	var edits []Edit
	for _, alias := range aliases {
		body := bodies[alias]
		if body == "" {
			continue
		}
		for _, s := range sites[alias] {
			edits = append(edits, Edit{Range: s.Range, Text: Reindent(body, s.Column)})
		}
	}
	return edits
}

// Rewrite applies Plan(sites, bodies) to buf. changed reports whether any edit was made; if not, out == buf.
func Rewrite(buf string, sites map[string][]aliasscan.Site, bodies map[string]string) (out string, changed bool, err error) {
	edits := Plan(sites, bodies)
	if len(edits) == 0 {
		return buf, false, nil
	}
	out, err = Apply(buf, edits)
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}
