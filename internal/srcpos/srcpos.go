// Package srcpos translates parser positions into byte offsets of an immutable source buffer.
//
// Positions use a 1-based line and a 0-based column counted in characters (runes), which is what declaration parsers report for multi-byte text. Byte offsets are
// what text splicing needs. A Source precomputes its line slices once so that many lookups against the same buffer are cheap.
package srcpos

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Position is a location reported by a parser.
type Position struct {
	Line   int // 1-based line number
	Column int // 0-based column, counted in characters (not bytes)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a start/end pair of positions, as produced by a declaration parser. End is exclusive.
type Span struct {
	Start Position
	End   Position
}

// ByteRange is a half-open [Start, End) byte range into a specific buffer.
type ByteRange struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by r.
func (r ByteRange) Len() int {
	return r.End - r.Start
}

// IsEmpty reports whether r is a pure insertion point.
func (r ByteRange) IsEmpty() bool {
	return r.Start == r.End
}

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Source is an immutable text buffer plus its newline-stripped lines.
type Source struct {
	text   string
	lines  []string // each line is a substring of text, without "\n" or a trailing "\r"
	starts []int    // byte offset of the start of each line
}

// NewSource indexes text. Lines are split on "\n"; a trailing "\r" is stripped from each line. A final newline does not start a new line.
func NewSource(text string) *Source {
	s := &Source{text: text}
	offset := 0
	for offset < len(text) {
		end := strings.IndexByte(text[offset:], '\n')
		var line string
		next := len(text)
		if end < 0 {
			line = text[offset:]
		} else {
			line = text[offset : offset+end]
			next = offset + end + 1
		}
		line = strings.TrimSuffix(line, "\r")
		s.lines = append(s.lines, line)
		s.starts = append(s.starts, offset)
		offset = next
	}
	return s
}

// Text returns the full buffer.
func (s *Source) Text() string {
	return s.text
}

// Len returns the buffer length in bytes.
func (s *Source) Len() int {
	return len(s.text)
}

// NumLines returns the number of lines in the buffer.
func (s *Source) NumLines() int {
	return len(s.lines)
}

// Line returns the 1-based line n without its line terminator. ok is false if n is out of bounds.
func (s *Source) Line(n int) (line string, ok bool) {
	if n < 1 || n > len(s.lines) {
		return "", false
	}
	return s.lines[n-1], true
}

// Offset resolves line and col to a byte offset. ok is false if line is out of bounds. A col beyond the line's character count is clamped to the end of the line.
func (s *Source) Offset(line, col int) (offset int, ok bool) {
	l, ok := s.Line(line)
	if !ok || col < 0 {
		return 0, false
	}
	index := len(l)
	chars := 0
	for i := range l {
		if chars == col {
			index = i
			break
		}
		chars++
	}
	return s.starts[line-1] + index, true
}

// Position is Offset for a Position.
func (s *Source) Position(p Position) (int, bool) {
	return s.Offset(p.Line, p.Column)
}

// RangeFor resolves both ends of span. ok is false if either end is unresolved.
func (s *Source) RangeFor(span Span) (ByteRange, bool) {
	start, ok := s.Position(span.Start)
	if !ok {
		return ByteRange{}, false
	}
	end, ok := s.Position(span.End)
	if !ok {
		return ByteRange{}, false
	}
	return ByteRange{Start: start, End: end}, true
}

// PositionOf is the inverse of Position: it converts a byte offset into a Position with a character column. ok is false if offset is outside the buffer or does
// not fall on a line (ex: it points into a line terminator).
func (s *Source) PositionOf(offset int) (Position, bool) {
	if offset < 0 || offset > len(s.text) || len(s.lines) == 0 {
		return Position{}, false
	}
	idx := sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > offset }) - 1
	if idx < 0 {
		return Position{}, false
	}
	byteCol := offset - s.starts[idx]
	line := s.lines[idx]
	if byteCol > len(line) {
		return Position{}, false
	}
	return Position{Line: idx + 1, Column: utf8.RuneCountInString(line[:byteCol])}, true
}
