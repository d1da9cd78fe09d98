// Package docrender flattens clang-style comment XML into Go doc comment text.
//
// The output uses the canonical forms gofmt produces for doc comments (headings as "# Heading", list items as "  - item" with 4-space continuation lines), so formatting
// a file after inserting rendered text does not change the text.
package docrender

import (
	"errors"
	"strings"
)

// ErrMalformed is returned (wrapped) when the comment XML cannot be parsed.
var ErrMalformed = errors.New("malformed comment XML")

// Render renders the comment XML in doc. Every returned line starts with "//". The result has no trailing newline, and is "" if doc has nothing to render.
//
// Sections are rendered in a fixed order: Abstract paragraphs, each Discussion, a "Parameters" heading with one list item per named parameter, and a "Returns"
// heading with the ResultDiscussion.
func Render(doc string) (string, error) {
	root, err := parse(doc)
	if err != nil {
		return "", err
	}

	var blocks []string
	if abs := root.child("Abstract"); abs != nil {
		blocks = append(blocks, paragraphs(abs)...)
	}
	for _, disc := range root.childrenNamed("Discussion") {
		blocks = append(blocks, paragraphs(disc)...)
	}
	if params := root.child("Parameters"); params != nil {
		var items []string
		for _, param := range params.childrenNamed("Parameter") {
			if item, ok := parameterItem(param); ok {
				items = append(items, item)
			}
		}
		if len(items) > 0 {
			blocks = append(blocks, "# Parameters", strings.Join(items, "\n"))
		}
	}
	if ret := root.child("ResultDiscussion"); ret != nil {
		blocks = append(blocks, "# Returns")
		blocks = append(blocks, paragraphs(ret)...)
	}

	if len(blocks) == 0 {
		return "", nil
	}
	return commentOut(strings.Join(blocks, "\n\n")), nil
}

func parameterItem(param *node) (string, bool) {
	nameNode := param.child("Name")
	if nameNode == nil {
		return "", false
	}
	name := strings.TrimSpace(nameNode.allText())
	if name == "" {
		return "", false
	}

	lines := []string{"  - `" + name + "`"}
	for _, disc := range param.childrenNamed("Discussion") {
		for _, p := range paragraphs(disc) {
			for _, l := range strings.Split(p, "\n") {
				lines = append(lines, "    "+l)
			}
		}
	}
	return strings.Join(lines, "\n"), true
}

// paragraphs returns the rendered Para children of n, skipping empty ones.
func paragraphs(n *node) []string {
	var out []string
	for _, para := range n.childrenNamed("Para") {
		if p := normalize(inline(para)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// inline renders the mixed content of a paragraph. An emphasized element becomes inline code. Other elements render their direct text, or the text of their descendants
// when they have no direct text.
func inline(para *node) string {
	var b strings.Builder
	for _, c := range para.children {
		if c.isText() {
			b.WriteString(c.text)
			continue
		}
		direct := c.directText()
		switch {
		case direct == "":
			b.WriteString(c.allText())
		case c.name == "emphasized":
			b.WriteString("`" + direct + "`")
		default:
			b.WriteString(direct)
		}
	}
	return b.String()
}

// normalize trims each line of s and drops blank lines.
func normalize(s string) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

func commentOut(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = "//"
		} else {
			lines[i] = "// " + l
		}
	}
	return strings.Join(lines, "\n")
}

