package cheader

import (
	"fmt"
	"strings"
)

// Kind is the kind of a C declaration.
type Kind int

const (
	KindFunction Kind = iota + 1
	KindStruct
	KindUnion
	KindTypedef
	KindEnum
	KindEnumConstant
	KindVariable
	KindMacro
)

var kindNames = map[Kind]string{
	KindFunction:     "function",
	KindStruct:       "struct",
	KindUnion:        "union",
	KindTypedef:      "typedef",
	KindEnum:         "enum",
	KindEnumConstant: "enum constant",
	KindVariable:     "variable",
	KindMacro:        "macro",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Decl is a declaration found in a header.
type Decl struct {
	Kind Kind
	Name string
	File string
	Line int

	// Comment is the declaration's documentation as clang-style comment XML, or "" if the declaration is undocumented.
	Comment string
}

// Parse scans a C header and returns its declarations in source order, with their documentation converted to comment XML.
//
// Parse is a recognizer, not a compiler: it finds functions, structs, unions, enums and their constants, typedefs, variables, and documented macros at file scope
// (including inside `extern "C" {}`), and is tolerant of code it does not understand. It only fails if the text cannot be tokenized.
func Parse(filename, text string) ([]Decl, error) {
	toks, err := tokenize(filename, text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	p := &parser{file: filename, toks: toks, lastCodeLine: -1}
	p.parse()
	return p.decls, nil
}

// attributeKeywords look like function calls but never name a declaration.
var attributeKeywords = map[string]bool{
	"__attribute__": true,
	"__attribute":   true,
	"__declspec":    true,
	"__asm__":       true,
	"__asm":         true,
	"asm":           true,
	"_Alignas":      true,
	"alignas":       true,
	"sizeof":        true,
}

type parser struct {
	file  string
	toks  []token
	i     int
	decls []Decl

	pending      []token // doc comments awaiting a declaration
	lastDecls    []int   // indexes of the decls emitted by the previous statement (targets for trailing ///< comments)
	lastCodeLine int     // line of the last code token of the previous statement
}

func (p *parser) parse() {
	for p.i < len(p.toks) {
		t := p.toks[p.i]
		switch {
		case t.kind == tkDoc:
			p.doc(t)
			p.i++
		case t.kind == tkComment:
			p.pending = nil
			p.i++
		case t.kind == tkPreproc:
			p.preproc(t)
			p.i++
		case t.is(tkIdent, "extern") && p.peek(1).kind == tkString && p.peek(2).is(tkPunct, "{"):
			// extern "C" { is transparent; its closing brace is skipped as a stray '}'.
			p.pending = nil
			p.i += 3
		case t.is(tkPunct, "}") || t.is(tkPunct, ";"):
			p.i++
		default:
			p.statement()
		}
	}
}

func (p *parser) peek(n int) token {
	if p.i+n < len(p.toks) {
		return p.toks[p.i+n]
	}
	return token{}
}

// doc handles a top-level doc comment: trailing ones (///<) document the previous statement, others are held for the next one.
func (p *parser) doc(t token) {
	if isTrailingDoc(t.text) {
		if t.line == p.lastCodeLine {
			for _, idx := range p.lastDecls {
				p.attach(idx, []token{t})
			}
		}
		return
	}
	p.pending = appendDoc(p.pending, t)
}

// appendDoc adds t to a run of doc comments. Only adjacent comments form one run.
func appendDoc(run []token, t token) []token {
	if len(run) > 0 && t.line > run[len(run)-1].endLine+1 {
		run = nil
	}
	return append(run, t)
}

func isTrailingDoc(text string) bool {
	for _, prefix := range []string{"///<", "//!<", "/**<", "/*!<"} {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

func (p *parser) preproc(t token) {
	doc := p.pending
	p.pending = nil
	fields := strings.Fields(strings.TrimPrefix(t.text, "#"))
	if len(doc) == 0 || len(fields) < 2 || fields[0] != "define" {
		return
	}
	name := fields[1]
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	p.emit(KindMacro, name, t.line, doc)
}

// statement consumes one file-scope statement starting at p.i and emits the declarations it contains.
func (p *parser) statement() {
	doc := p.pending
	p.pending = nil
	p.lastDecls = nil

	start := p.i
	depth := 0
	var prevCode token
	for p.i < len(p.toks) {
		t := p.toks[p.i]
		p.i++
		if t.kind != tkPunct {
			if t.kind != tkDoc && t.kind != tkComment && t.kind != tkPreproc {
				prevCode = t
			}
			continue
		}
		switch t.text {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		case "{":
			if depth == 0 && prevCode.is(tkPunct, ")") {
				// Function definition: the statement ends with its body.
				p.skipBlock()
				p.finish(start, doc)
				return
			}
			depth++
		case "}":
			depth--
			if depth < 0 {
				// Unbalanced: let the top-level loop skip it.
				p.i--
				p.finish(start, doc)
				return
			}
		case ";":
			if depth == 0 {
				p.finish(start, doc)
				return
			}
		}
		prevCode = t
	}
	p.finish(start, doc)
}

// skipBlock skips to just past the '}' matching a '{' at p.i-1.
func (p *parser) skipBlock() {
	depth := 1
	for p.i < len(p.toks) && depth > 0 {
		t := p.toks[p.i]
		p.i++
		if t.is(tkPunct, "{") {
			depth++
		} else if t.is(tkPunct, "}") {
			depth--
		}
	}
}

func (p *parser) finish(start int, doc []token) {
	stmt := p.toks[start:p.i]
	code := codeTokens(stmt)
	if len(code) == 0 {
		return
	}
	p.lastCodeLine = code[len(code)-1].line

	before := len(p.decls)
	p.classify(stmt, code, doc)
	for idx := before; idx < len(p.decls); idx++ {
		if p.decls[idx].Kind != KindEnumConstant {
			p.lastDecls = append(p.lastDecls, idx)
		}
	}
}

func codeTokens(toks []token) []token {
	var code []token
	for _, t := range toks {
		switch t.kind {
		case tkDoc, tkComment, tkPreproc:
		default:
			code = append(code, t)
		}
	}
	return code
}

var storageQualifiers = map[string]bool{
	"extern": true, "static": true, "inline": true, "__inline": true, "__inline__": true,
	"const": true, "volatile": true, "__extension__": true, "register": true,
}

func (p *parser) classify(stmt, code []token, doc []token) {
	for len(code) > 0 && code[0].kind == tkIdent && storageQualifiers[code[0].text] {
		code = code[1:]
	}
	if len(code) == 0 {
		return
	}

	first := code[0]
	switch {
	case first.is(tkIdent, "typedef"):
		p.typedef(stmt, code[1:], doc)
	case isTagKeyword(first) && (peekTok(code, 1).is(tkPunct, "{") || (peekTok(code, 1).kind == tkIdent && (peekTok(code, 2).is(tkPunct, "{") || peekTok(code, 2).is(tkPunct, ";")))):
		p.tagged(stmt, code, doc)
	default:
		p.declaration(code, doc)
	}
}

func isTagKeyword(t token) bool {
	return t.kind == tkIdent && (t.text == "struct" || t.text == "union" || t.text == "enum")
}

func peekTok(toks []token, i int) token {
	if i < len(toks) {
		return toks[i]
	}
	return token{}
}

func tagKind(keyword string) Kind {
	switch keyword {
	case "union":
		return KindUnion
	case "enum":
		return KindEnum
	}
	return KindStruct
}

// tagged handles `struct Tag { ... } ...;`, `enum { ... };` and `struct Tag;`. It returns the index in code just past the body, or past the tag if there is no
// body.
func (p *parser) tagged(stmt, code []token, doc []token) int {
	keyword := code[0].text
	i := 1
	tag := ""
	if peekTok(code, i).kind == tkIdent {
		tag = code[i].text
		i++
	}
	hasBody := peekTok(code, i).is(tkPunct, "{")
	if tag != "" && (hasBody || peekTok(code, i).is(tkPunct, ";")) {
		p.emit(tagKind(keyword), tag, code[0].line, doc)
	}
	if !hasBody {
		return i
	}
	end := matchBrace(code, i)
	if keyword == "enum" {
		p.enumConstants(stmt, code[i].line, code[end-1].line)
	}
	return end
}

// matchBrace returns the index just past the '}' matching the '{' at code[open].
func matchBrace(code []token, open int) int {
	depth := 0
	for i := open; i < len(code); i++ {
		switch {
		case code[i].is(tkPunct, "{"):
			depth++
		case code[i].is(tkPunct, "}"):
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(code)
}

// typedef handles everything after the typedef keyword.
func (p *parser) typedef(stmt, code []token, doc []token) {
	if len(code) == 0 {
		return
	}
	rest := code
	if isTagKeyword(code[0]) {
		end := p.tagged(stmt, code, doc)
		rest = code[end:]
	}
	if name := typedefName(rest); name != "" {
		p.emit(KindTypedef, name, code[0].line, doc)
	}
}

// typedefName finds the declarator name in the tokens following a typedef's type: `(*name)(...)` for function pointers, otherwise the last identifier at depth 0.
func typedefName(code []token) string {
	if name := funcPointerName(code); name != "" {
		return name
	}
	name := ""
	depth := 0
	for _, t := range code {
		switch {
		case t.is(tkPunct, "(") || t.is(tkPunct, "[") || t.is(tkPunct, "{"):
			depth++
		case t.is(tkPunct, ")") || t.is(tkPunct, "]") || t.is(tkPunct, "}"):
			depth--
		case t.kind == tkIdent && depth == 0 && !attributeKeywords[t.text]:
			name = t.text
		}
	}
	return name
}

// funcPointerName returns name in `(*name)` or `(^name)`, or "".
func funcPointerName(code []token) string {
	for i := 0; i+2 < len(code); i++ {
		if code[i].is(tkPunct, "(") && (code[i+1].is(tkPunct, "*") || code[i+1].is(tkPunct, "^")) && code[i+2].kind == tkIdent {
			return code[i+2].text
		}
	}
	return ""
}

// declaration handles function prototypes, function definitions, and variables.
func (p *parser) declaration(code []token, doc []token) {
	depth := 0
	var candidates []int
	lastIdent := -1
	for i, t := range code {
		if depth == 0 && (t.is(tkPunct, "=") || t.is(tkPunct, "{")) {
			break
		}
		switch {
		case t.is(tkPunct, "(") || t.is(tkPunct, "["):
			if depth == 0 && t.text == "(" && i > 0 && code[i-1].kind == tkIdent && !attributeKeywords[code[i-1].text] {
				next := peekTok(code, i+1)
				if !next.is(tkPunct, "*") && !next.is(tkPunct, "^") {
					candidates = append(candidates, i-1)
				}
			}
			depth++
		case t.is(tkPunct, ")") || t.is(tkPunct, "]"):
			depth--
		case t.kind == tkIdent && depth == 0 && !attributeKeywords[t.text]:
			lastIdent = i
		}
	}

	if len(candidates) > 0 {
		// A leading macro like DEPRECATED("x") is not the function name.
		name := candidates[0]
		for _, c := range candidates {
			if c > 0 {
				name = c
				break
			}
		}
		p.emit(KindFunction, code[name].text, code[name].line, doc)
		return
	}
	if pointer := funcPointerName(code); pointer != "" {
		// Function pointer variables: `void (*handler)(int);`
		p.emit(KindVariable, pointer, code[0].line, doc)
		return
	}
	if lastIdent > 0 {
		p.emit(KindVariable, code[lastIdent].text, code[lastIdent].line, doc)
	}
}

// enumConstants emits the constants of the enum body found in stmt between lines [fromLine, toLine]. Each constant takes the doc comments immediately preceding
// it, or a trailing ///< comment on the same line.
func (p *parser) enumConstants(stmt []token, fromLine, toLine int) {
	open := -1
	for i, t := range stmt {
		if t.is(tkPunct, "{") && t.line >= fromLine {
			open = i
			break
		}
	}
	if open < 0 {
		return
	}

	var pending []token
	last := -1
	lastLine := -1
	expectName := true
	depth := 0
	for _, t := range stmt[open+1:] {
		if t.line > toLine {
			break
		}
		switch {
		case t.kind == tkDoc && isTrailingDoc(t.text):
			if last >= 0 && t.line == lastLine {
				p.attach(last, []token{t})
			}
		case t.kind == tkDoc:
			pending = appendDoc(pending, t)
		case t.kind == tkComment || t.kind == tkPreproc:
			pending = nil
		case t.is(tkPunct, "}") && depth == 0:
			return
		case t.is(tkPunct, ",") && depth == 0:
			expectName = true
			lastLine = t.line
		case t.kind == tkIdent && expectName && depth == 0:
			p.emit(KindEnumConstant, t.text, t.line, pending)
			last = len(p.decls) - 1
			pending = nil
			expectName = false
			lastLine = t.line
		default:
			switch {
			case t.is(tkPunct, "(") || t.is(tkPunct, "[") || t.is(tkPunct, "{"):
				depth++
			case t.is(tkPunct, ")") || t.is(tkPunct, "]") || t.is(tkPunct, "}"):
				depth--
			}
			lastLine = t.line
		}
	}
}

func (p *parser) emit(kind Kind, name string, line int, doc []token) {
	d := Decl{Kind: kind, Name: name, File: p.file, Line: line}
	p.decls = append(p.decls, d)
	p.attach(len(p.decls)-1, doc)
}

// attach sets the comment of decls[idx] from doc, unless it already has one.
func (p *parser) attach(idx int, doc []token) {
	if len(doc) == 0 || p.decls[idx].Comment != "" {
		return
	}
	texts := make([]string, len(doc))
	for i, t := range doc {
		texts[i] = t.text
	}
	c := parseDoxygen(texts)
	if c.empty() {
		return
	}
	d := &p.decls[idx]
	d.Comment = c.xml(d.Kind, d.Name, d.File, d.Line)
}
