package srcpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSource_Lines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: nil},
		{name: "no trailing newline", text: "a\nbc", want: []string{"a", "bc"}},
		{name: "trailing newline", text: "a\nbc\n", want: []string{"a", "bc"}},
		{name: "crlf", text: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "blank lines", text: "\n\nx\n", want: []string{"", "", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSource(tt.text)
			var got []string
			for i := 1; i <= s.NumLines(); i++ {
				l, ok := s.Line(i)
				require.True(t, ok)
				got = append(got, l)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOffset(t *testing.T) {
	s := NewSource("package p\n\tfunc ünï() {}\nend")

	tests := []struct {
		name   string
		line   int
		col    int
		want   int
		wantOK bool
	}{
		{name: "start of buffer", line: 1, col: 0, want: 0, wantOK: true},
		{name: "mid first line", line: 1, col: 8, want: 8, wantOK: true},
		{name: "start of second line", line: 2, col: 0, want: 10, wantOK: true},
		{name: "after tab", line: 2, col: 1, want: 11, wantOK: true},
		// "ünï" is 3 characters but 5 bytes.
		{name: "after multibyte", line: 2, col: 9, want: 10 + 1 + len("func ") + len("ünï"), wantOK: true},
		{name: "clamped to end of line", line: 2, col: 100, want: 10 + len("\tfunc ünï() {}"), wantOK: true},
		{name: "last line", line: 3, col: 3, want: len("package p\n\tfunc ünï() {}\n") + 3, wantOK: true},
		{name: "line zero", line: 0, col: 0, wantOK: false},
		{name: "line past end", line: 4, col: 0, wantOK: false},
		{name: "negative column", line: 1, col: -1, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Offset(tt.line, tt.col)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRangeFor(t *testing.T) {
	s := NewSource("// doc\nfunc f() {}\n")

	r, ok := s.RangeFor(Span{Start: Position{Line: 1, Column: 0}, End: Position{Line: 2, Column: 0}})
	require.True(t, ok)
	assert.Equal(t, ByteRange{Start: 0, End: 7}, r)
	assert.Equal(t, "// doc\n", s.Text()[r.Start:r.End])

	_, ok = s.RangeFor(Span{Start: Position{Line: 1, Column: 0}, End: Position{Line: 9, Column: 0}})
	assert.False(t, ok)

	_, ok = s.RangeFor(Span{Start: Position{Line: 9, Column: 0}, End: Position{Line: 1, Column: 0}})
	assert.False(t, ok)
}

func TestPositionOf_RoundTrips(t *testing.T) {
	text := "a\n\tβγ x\nlast"
	s := NewSource(text)

	for line := 1; line <= s.NumLines(); line++ {
		l, _ := s.Line(line)
		col := 0
		for range l {
			off, ok := s.Offset(line, col)
			require.True(t, ok)
			p, ok := s.PositionOf(off)
			require.True(t, ok)
			assert.Equal(t, Position{Line: line, Column: col}, p)
			col++
		}
	}

	_, ok := s.PositionOf(-1)
	assert.False(t, ok)
	_, ok = s.PositionOf(len(text) + 1)
	assert.False(t, ok)
}

func TestByteRange(t *testing.T) {
	assert.True(t, ByteRange{Start: 3, End: 3}.IsEmpty())
	assert.Equal(t, 4, ByteRange{Start: 1, End: 5}.Len())
	assert.Equal(t, "[1,5)", ByteRange{Start: 1, End: 5}.String())
}
