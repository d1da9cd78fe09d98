package cheader

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

type docParam struct {
	name      string
	direction string
	explicit  bool
	paras     []string
}

// docComment is a Doxygen comment split into the sections clang's comment XML distinguishes. Paragraph text is raw (inline commands are still present).
type docComment struct {
	brief      []string
	discussion []string
	params     []*docParam
	returns    []string
}

func (c docComment) empty() bool {
	return len(c.brief) == 0 && len(c.discussion) == 0 && len(c.params) == 0 && len(c.returns) == 0
}

// blockLabels are block commands kept as discussion paragraphs, introduced by a label.
var blockLabels = map[string]string{
	"note":       "Note:",
	"warning":    "Warning:",
	"attention":  "Attention:",
	"deprecated": "Deprecated:",
	"see":        "See:",
	"sa":         "See:",
	"since":      "Since:",
	"pre":        "Precondition:",
	"post":       "Postcondition:",
	"remark":     "Remark:",
	"remarks":    "Remark:",
	"todo":       "TODO:",
	"bug":        "Bug:",
}

var blockCommands = map[string]bool{
	"brief": true, "short": true, "details": true,
	"param": true, "return": true, "returns": true, "result": true, "retval": true,
}

var commandRE = regexp.MustCompile(`^[\\@]([A-Za-z]+)`)

// parseDoxygen splits the text of one run of doc comments into sections. Without \brief, the first plain paragraph is the abstract, as clang does. A blank line
// ends a \param or \return section.
func parseDoxygen(comments []string) docComment {
	var c docComment
	target := &c.discussion
	var para []string
	flush := func() {
		if len(para) > 0 {
			*target = append(*target, strings.Join(para, "\n"))
			para = nil
		}
	}

	for _, line := range commentLines(comments) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			target = &c.discussion
			continue
		}

		m := commandRE.FindStringSubmatch(trimmed)
		if m == nil || (!blockCommands[m[1]] && blockLabels[m[1]] == "") {
			para = append(para, trimmed)
			continue
		}

		flush()
		cmd := m[1]
		rest := strings.TrimSpace(trimmed[len(m[0]):])
		switch cmd {
		case "brief", "short":
			target = &c.brief
		case "details":
			target = &c.discussion
		case "param":
			prm := &docParam{direction: "in"}
			if strings.HasPrefix(rest, "[") {
				if end := strings.IndexByte(rest, ']'); end > 0 {
					prm.direction = strings.ReplaceAll(rest[1:end], " ", "")
					prm.explicit = true
					rest = strings.TrimSpace(rest[end+1:])
				}
			}
			prm.name, rest, _ = strings.Cut(rest, " ")
			rest = strings.TrimSpace(rest)
			c.params = append(c.params, prm)
			target = &prm.paras
		case "return", "returns", "result", "retval":
			target = &c.returns
		default:
			target = &c.discussion
			rest = strings.TrimSpace(blockLabels[cmd] + " " + rest)
		}
		if rest != "" {
			para = append(para, rest)
		}
	}
	flush()

	if len(c.brief) == 0 && len(c.discussion) > 0 {
		c.brief = c.discussion[:1]
		c.discussion = c.discussion[1:]
	}
	return c
}

// commentLines strips comment markers ("/**", "*/", leading "*", "///", "//!", and the trailing-comment "<") and returns the text lines.
func commentLines(comments []string) []string {
	var lines []string
	for _, c := range comments {
		if strings.HasPrefix(c, "/*") {
			body := strings.TrimSuffix(c[3:], "*/")
			body = strings.TrimPrefix(body, "<")
			for _, l := range strings.Split(body, "\n") {
				l = strings.TrimLeft(l, " \t")
				l = strings.TrimPrefix(l, "*")
				lines = append(lines, strings.TrimRight(l, " \t\r"))
			}
			continue
		}
		body := strings.TrimPrefix(c[3:], "<")
		lines = append(lines, strings.TrimRight(body, " \t\r"))
	}
	return lines
}

var inlineTags = map[string]string{
	"a":  "emphasized",
	"e":  "emphasized",
	"em": "emphasized",
	"b":  "bold",
	"c":  "monospaced",
	"p":  "monospaced",
}

var inlineRE = regexp.MustCompile(`[\\@](em|a|e|b|c|p)\s+(\S+)`)

// writeInline writes para as XML mixed content, turning inline commands (\a word, \c word, ...) into elements. Trailing punctuation is not part of the word.
func writeInline(b *strings.Builder, para string) {
	last := 0
	for _, m := range inlineRE.FindAllStringSubmatchIndex(para, -1) {
		escape(b, para[last:m[0]])
		tag := inlineTags[para[m[2]:m[3]]]
		word := para[m[4]:m[5]]
		trimmed := strings.TrimRight(word, ".,;:!?")
		if trimmed == "" {
			trimmed = word
		}
		fmt.Fprintf(b, "<%s>", tag)
		escape(b, trimmed)
		fmt.Fprintf(b, "</%s>", tag)
		escape(b, word[len(trimmed):])
		last = m[1]
	}
	escape(b, para[last:])
}

func escape(b *strings.Builder, s string) {
	_ = xml.EscapeText(b, []byte(s))
}

func writeParas(b *strings.Builder, paras []string) {
	for _, p := range paras {
		b.WriteString("<Para>")
		writeInline(b, p)
		b.WriteString("</Para>")
	}
}

var rootElements = map[Kind]string{
	KindFunction:     "Function",
	KindStruct:       "Class",
	KindUnion:        "Class",
	KindTypedef:      "Typedef",
	KindEnum:         "Enum",
	KindEnumConstant: "Variable",
	KindVariable:     "Variable",
	KindMacro:        "Other",
}

// xml renders c as clang-style comment XML.
func (c docComment) xml(kind Kind, name, file string, line int) string {
	root, ok := rootElements[kind]
	if !ok {
		root = "Other"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<%s file="`, root)
	escape(&b, file)
	fmt.Fprintf(&b, `" line="%d"><Name>`, line)
	escape(&b, name)
	b.WriteString("</Name>")

	if len(c.brief) > 0 {
		b.WriteString("<Abstract>")
		writeParas(&b, c.brief)
		b.WriteString("</Abstract>")
	}
	if len(c.params) > 0 {
		b.WriteString("<Parameters>")
		for i, prm := range c.params {
			b.WriteString("<Parameter><Name>")
			escape(&b, prm.name)
			explicit := 0
			if prm.explicit {
				explicit = 1
			}
			fmt.Fprintf(&b, `</Name><Index>%d</Index><Direction isExplicit="%d">`, i, explicit)
			escape(&b, prm.direction)
			b.WriteString("</Direction>")
			if len(prm.paras) > 0 {
				b.WriteString("<Discussion>")
				writeParas(&b, prm.paras)
				b.WriteString("</Discussion>")
			}
			b.WriteString("</Parameter>")
		}
		b.WriteString("</Parameters>")
	}
	if len(c.returns) > 0 {
		b.WriteString("<ResultDiscussion>")
		writeParas(&b, c.returns)
		b.WriteString("</ResultDiscussion>")
	}
	if len(c.discussion) > 0 {
		b.WriteString("<Discussion>")
		writeParas(&b, c.discussion)
		b.WriteString("</Discussion>")
	}
	fmt.Fprintf(&b, "</%s>", root)
	return b.String()
}
