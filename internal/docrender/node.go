package docrender

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// node is an element or, when name is "", a text node.
type node struct {
	name     string
	text     string
	children []*node
}

func (n *node) isText() bool {
	return n.name == ""
}

// child returns the first child element named name, or nil.
func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *node) childrenNamed(name string) []*node {
	var out []*node
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// directText concatenates the text children of n.
func (n *node) directText() string {
	var b strings.Builder
	for _, c := range n.children {
		if c.isText() {
			b.WriteString(c.text)
		}
	}
	return b.String()
}

// allText concatenates every text node under n, in document order.
func (n *node) allText() string {
	if n.isText() {
		return n.text
	}
	var b strings.Builder
	for _, c := range n.children {
		b.WriteString(c.allText())
	}
	return b.String()
}

// parse parses doc into a tree and returns its root element. Comments, processing instructions and directives are dropped. Errors wrap ErrMalformed.
func parse(doc string) (*node, error) {
	d := xml.NewDecoder(strings.NewReader(doc))
	var root *node
	var stack []*node
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root != nil {
				return nil, fmt.Errorf("%w: multiple root elements", ErrMalformed)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, fmt.Errorf("%w: text outside the root element", ErrMalformed)
				}
				continue
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, &node{text: string(t)})
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed element <%s>", ErrMalformed, stack[len(stack)-1].name)
	}
	return root, nil
}
