package aliasscan

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strings"

	"golang.org/x/tools/go/ast/inspector"

	"github.com/codalotl/docsync/internal/srcpos"
)

// AliasDirective is the comment directive that attaches an alias to a Go declaration:
//
//	// Foo does things.
//	//docsync:alias c_foo
//	func Foo() {}
//
// The directive may also be the trailing line comment of a const spec, type spec, or interface method.
const AliasDirective = "docsync:alias"

// directiveRE matches comment text (without the leading "//") that Go treats as a directive rather than documentation.
var directiveRE = regexp.MustCompile(`^[a-z0-9]+:[a-z0-9]`)

// ParseGo parses a Go file held in src and adapts it into a declaration tree.
//
// Recognized declarations: functions and methods, interface methods, type specs, parenthesized const blocks (as enums, with their specs as variants), and single
// const declarations. A const declared in a method body is KindAssocConst.
//
// An error is returned only if the file does not parse.
func ParseGo(filename string, src *srcpos.Source) (*File, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src.Text(), parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filename, err)
	}

	b := &goBuilder{
		fset:  fset,
		src:   src,
		file:  &File{Name: filename},
		decls: make(map[ast.Node]*Decl),
	}

	insp := inspector.New([]*ast.File{f})
	filter := []ast.Node{
		(*ast.FuncDecl)(nil),
		(*ast.GenDecl)(nil),
		(*ast.TypeSpec)(nil),
		(*ast.ValueSpec)(nil),
		(*ast.Field)(nil),
	}
	insp.WithStack(filter, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return true
		}
		d := b.declFor(n, stack)
		if d == nil {
			return true
		}
		b.decls[n] = d
		if parent := b.nearestDecl(stack[:len(stack)-1]); parent != nil {
			parent.Children = append(parent.Children, d)
		} else {
			b.file.Decls = append(b.file.Decls, d)
		}
		return true
	})

	return b.file, nil
}

type goBuilder struct {
	fset  *token.FileSet
	src   *srcpos.Source
	file  *File
	decls map[ast.Node]*Decl
}

func (b *goBuilder) nearestDecl(stack []ast.Node) *Decl {
	for i := len(stack) - 1; i >= 0; i-- {
		if d, ok := b.decls[stack[i]]; ok {
			return d
		}
	}
	return nil
}

// declFor returns the Decl for n, or nil if n is not a declaration docsync cares about. stack ends with n.
func (b *goBuilder) declFor(n ast.Node, stack []ast.Node) *Decl {
	var parent ast.Node
	if len(stack) >= 2 {
		parent = stack[len(stack)-2]
	}

	switch n := n.(type) {
	case *ast.FuncDecl:
		kind := KindFunc
		if n.Recv != nil {
			kind = KindMethod
		}
		return b.newDecl(kind, n.Name.Name, n.Pos(), n.End(), n.Doc, nil)

	case *ast.GenDecl:
		if n.Tok == token.CONST && n.Lparen.IsValid() {
			return b.newDecl(KindEnum, enumName(n), n.Pos(), n.End(), n.Doc, nil)
		}
		return nil

	case *ast.TypeSpec:
		g, ok := parent.(*ast.GenDecl)
		if !ok {
			return nil
		}
		if g.Lparen.IsValid() {
			return b.newDecl(KindType, n.Name.Name, n.Pos(), n.End(), n.Doc, n.Comment)
		}
		return b.newDecl(KindType, n.Name.Name, g.Pos(), g.End(), g.Doc, n.Comment)

	case *ast.ValueSpec:
		g, ok := parent.(*ast.GenDecl)
		if !ok || g.Tok != token.CONST || len(n.Names) == 0 {
			return nil
		}
		if g.Lparen.IsValid() {
			return b.newDecl(KindVariant, n.Names[0].Name, n.Pos(), n.End(), n.Doc, n.Comment)
		}
		kind := KindConst
		if inMethod(stack) {
			kind = KindAssocConst
		}
		return b.newDecl(kind, n.Names[0].Name, g.Pos(), g.End(), g.Doc, n.Comment)

	case *ast.Field:
		if len(n.Names) == 0 || len(stack) < 3 {
			return nil
		}
		if _, ok := n.Type.(*ast.FuncType); !ok {
			return nil
		}
		if _, ok := stack[len(stack)-3].(*ast.InterfaceType); !ok {
			return nil
		}
		return b.newDecl(KindMethod, n.Names[0].Name, n.Pos(), n.End(), n.Doc, n.Comment)
	}
	return nil
}

func inMethod(stack []ast.Node) bool {
	for i := len(stack) - 1; i >= 0; i-- {
		if fd, ok := stack[i].(*ast.FuncDecl); ok {
			return fd.Recv != nil
		}
	}
	return false
}

// enumName names a const block after the type of its first spec, falling back to its first constant.
func enumName(g *ast.GenDecl) string {
	for _, s := range g.Specs {
		vs, ok := s.(*ast.ValueSpec)
		if !ok {
			continue
		}
		if id, ok := vs.Type.(*ast.Ident); ok {
			return id.Name
		}
		if len(vs.Names) > 0 {
			return vs.Names[0].Name
		}
	}
	return ""
}

func (b *goBuilder) newDecl(kind Kind, name string, start, end token.Pos, doc, trailing *ast.CommentGroup) *Decl {
	d := &Decl{
		Kind: kind,
		Name: name,
		Span: srcpos.Span{Start: b.position(start), End: b.position(end)},
	}
	d.Annotations = append(d.Annotations, b.docGroupAnnotations(doc, start)...)
	d.Annotations = append(d.Annotations, b.directiveAnnotations(trailing)...)
	return d
}

// position converts pos to a srcpos.Position. An unresolvable pos yields the zero Position, which never resolves to an offset.
func (b *goBuilder) position(pos token.Pos) srcpos.Position {
	if !pos.IsValid() {
		return srcpos.Position{}
	}
	p, ok := b.src.PositionOf(b.fset.Position(pos).Offset)
	if !ok {
		return srcpos.Position{}
	}
	return p
}

// docGroupAnnotations returns the directives in doc plus a DocAnnotation for the first contiguous run of non-directive comments. That annotation's span ends at
// whatever follows the run (the next directive, or declStart) so that replacing it also consumes the line break and indentation in between.
func (b *goBuilder) docGroupAnnotations(doc *ast.CommentGroup, declStart token.Pos) []Annotation {
	if doc == nil {
		return nil
	}
	var annotations []Annotation
	runStart, runEnd := -1, -1
	for i, c := range doc.List {
		if a := directiveAnnotation(c); a != nil {
			if aa, ok := a.(*AliasAnnotation); ok {
				aa.Span = srcpos.Span{Start: b.position(c.Pos()), End: b.position(c.End())}
			}
			annotations = append(annotations, a)
			continue
		}
		if runStart < 0 {
			runStart, runEnd = i, i
		} else if runEnd == i-1 {
			runEnd = i
		}
	}
	if runStart >= 0 {
		end := declStart
		if runEnd+1 < len(doc.List) {
			end = doc.List[runEnd+1].Pos()
		}
		annotations = append(annotations, &DocAnnotation{
			Span: srcpos.Span{Start: b.position(doc.List[runStart].Pos()), End: b.position(end)},
		})
	}
	return annotations
}

func (b *goBuilder) directiveAnnotations(g *ast.CommentGroup) []Annotation {
	if g == nil {
		return nil
	}
	var annotations []Annotation
	for _, c := range g.List {
		if a := directiveAnnotation(c); a != nil {
			if aa, ok := a.(*AliasAnnotation); ok {
				aa.Span = srcpos.Span{Start: b.position(c.Pos()), End: b.position(c.End())}
			}
			annotations = append(annotations, a)
		}
	}
	return annotations
}

// directiveAnnotation classifies c. It returns nil if c is documentation rather than a directive.
func directiveAnnotation(c *ast.Comment) Annotation {
	if !strings.HasPrefix(c.Text, "//") {
		return nil
	}
	body := c.Text[2:]
	if !directiveRE.MatchString(body) {
		return nil
	}
	if rest, ok := strings.CutPrefix(body, AliasDirective); ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
		return &AliasAnnotation{Payload: rest}
	}
	return &OtherAnnotation{Text: c.Text}
}
