package aliasscan

import "github.com/codalotl/docsync/internal/srcpos"

// Kind is the kind of a declaration in a primary file.
type Kind int

const (
	KindUnknown    Kind = iota
	KindFunc            // free function
	KindMethod          // method, including interface methods
	KindType            // type declaration (struct, alias, interface, ...)
	KindEnum            // a group of related constants
	KindVariant         // one constant inside an enum
	KindConst           // free constant
	KindAssocConst      // constant declared inside a method
)

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindFunc:       "func",
	KindMethod:     "method",
	KindType:       "type",
	KindEnum:       "enum",
	KindVariant:    "variant",
	KindConst:      "const",
	KindAssocConst: "assoc-const",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Annotation is an annotation attached to a declaration. The set of annotations is closed: it is one of *AliasAnnotation, *DocAnnotation, or *OtherAnnotation.
type Annotation interface {
	isAnnotation()
}

// AliasAnnotation names the secondary declaration that supplies documentation. Payload is the raw, unvalidated text after the annotation's name; it may be malformed.
type AliasAnnotation struct {
	Payload string
	Span    srcpos.Span
}

// DocAnnotation is an existing documentation comment. Span covers the whole comment block, up to (but not including) whatever follows it.
type DocAnnotation struct {
	Span srcpos.Span
}

// OtherAnnotation is any annotation docsync does not act on (ex: //go:generate).
type OtherAnnotation struct {
	Text string
}

func (*AliasAnnotation) isAnnotation() {}
func (*DocAnnotation) isAnnotation()   {}
func (*OtherAnnotation) isAnnotation() {}

// Decl is a node in a parsed declaration tree.
type Decl struct {
	Kind        Kind
	Name        string
	Span        srcpos.Span // Span.Start is the start of the declaration itself, excluding its documentation
	Annotations []Annotation
	Children    []*Decl // nested declarations (ex: enum variants, interface methods, constants inside a function body)
}

// File is the declaration tree of one primary file.
type File struct {
	Name  string
	Decls []*Decl
}
