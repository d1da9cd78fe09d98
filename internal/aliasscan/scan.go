package aliasscan

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/codalotl/docsync/internal/srcpos"
)

// SiteKind says whether a site replaces an existing comment or inserts a new one.
type SiteKind int

const (
	SiteInsert  SiteKind = iota + 1 // zero-length range at the declaration start
	SiteReplace                     // range covers an existing documentation comment
)

func (k SiteKind) String() string {
	switch k {
	case SiteInsert:
		return "insert"
	case SiteReplace:
		return "replace"
	}
	return "unknown"
}

// Site is one location in a primary file where rendered documentation is spliced.
type Site struct {
	Kind   SiteKind
	Column int              // character column the documentation starts at
	Range  srcpos.ByteRange // bytes replaced by the documentation (empty for SiteInsert)
	Decl   string           // name of the declaration, for diagnostics
}

// Result is the output of Scan for one file.
type Result struct {
	// Sites maps alias -> sites, in discovery order. An alias present in Sites has at least one site.
	Sites map[string][]Site

	// Dropped counts declarations that had an alias but whose position could not be resolved.
	Dropped int
}

// Aliases returns the aliases in r, sorted.
func (r *Result) Aliases() []string {
	aliases := make([]string, 0, len(r.Sites))
	for a := range r.Sites {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return aliases
}

// Scan walks every declaration in file (parents before children) and returns the insertion sites of all aliased declarations. Byte ranges are computed against
// src, which must be the buffer file was parsed from.
//
// Declarations without a well-formed alias annotation are skipped. A malformed documentation annotation is treated as absent. A declaration whose positions cannot
// be resolved is dropped and counted in Result.Dropped; it never fails the scan.
func Scan(src *srcpos.Source, file *File) *Result {
	res := &Result{Sites: make(map[string][]Site)}
	var walk func(decls []*Decl)
	walk = func(decls []*Decl) {
		for _, d := range decls {
			res.visit(src, d)
			walk(d.Children)
		}
	}
	if file != nil {
		walk(file.Decls)
	}
	return res
}

func (r *Result) visit(src *srcpos.Source, d *Decl) {
	if d.Kind == KindUnknown {
		return
	}
	alias, ok := findAlias(d.Annotations)
	if !ok {
		return
	}

	if doc, ok := findDoc(d.Annotations); ok {
		if rng, ok := src.RangeFor(doc.Span); ok && rng.Start <= rng.End {
			r.add(alias, Site{Kind: SiteReplace, Column: doc.Span.Start.Column, Range: rng, Decl: d.Name})
			return
		}
	}

	pos, ok := src.Position(d.Span.Start)
	if !ok {
		r.Dropped++
		return
	}
	r.add(alias, Site{Kind: SiteInsert, Column: d.Span.Start.Column, Range: srcpos.ByteRange{Start: pos, End: pos}, Decl: d.Name})
}

func (r *Result) add(alias string, s Site) {
	r.Sites[alias] = append(r.Sites[alias], s)
}

// findAlias returns the first well-formed alias among annotations.
func findAlias(annotations []Annotation) (string, bool) {
	for _, a := range annotations {
		switch a := a.(type) {
		case *AliasAnnotation:
			if alias, ok := ParseAliasPayload(a.Payload); ok {
				return alias, true
			}
		case *DocAnnotation, *OtherAnnotation:
		}
	}
	return "", false
}

// findDoc returns the first well-formed documentation annotation. A span that ends before it starts is malformed.
func findDoc(annotations []Annotation) (*DocAnnotation, bool) {
	for _, a := range annotations {
		switch a := a.(type) {
		case *DocAnnotation:
			if a.Span.Start.Line <= 0 || spanInverted(a.Span) {
				continue
			}
			return a, true
		case *AliasAnnotation, *OtherAnnotation:
		}
	}
	return nil, false
}

func spanInverted(s srcpos.Span) bool {
	if s.End.Line != s.Start.Line {
		return s.End.Line < s.Start.Line
	}
	return s.End.Column < s.Start.Column
}

// ParseAliasPayload validates the text following an alias annotation. It accepts a bare token (`c_foo`) or a Go-quoted string (`"c_foo"`). Anything else
// (empty, several tokens, a bad quote) is malformed and reported as !ok.
func ParseAliasPayload(payload string) (string, bool) {
	p := strings.TrimSpace(payload)
	if p == "" {
		return "", false
	}
	if p[0] == '"' || p[0] == '`' {
		s, err := strconv.Unquote(p)
		if err != nil || strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	}
	if strings.IndexFunc(p, unicode.IsSpace) >= 0 || strings.ContainsAny(p, "\"`") {
		return "", false
	}
	return p, true
}
