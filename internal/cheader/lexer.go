package cheader

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// cLexer tokenizes C headers. Rules are tried in order, so doc comments must precede plain comments and comments must precede the "/" punctuator.
var cLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Doc comments: /** */, /*! */, ///, //!
	{Name: "DocComment", Pattern: `/\*[*!][\s\S]*?\*/|//[/!][^\n]*`},
	{Name: "Comment", Pattern: `/\*[\s\S]*?\*/|//[^\n]*`},

	// Preprocessor lines, including backslash continuations.
	{Name: "Preproc", Pattern: `#(?:\\\r?\n|[^\n])*`},

	// Literals
	{Name: "String", Pattern: `"(?:\\.|[^"\\\n])*"`},
	{Name: "Char", Pattern: `'(?:\\.|[^'\\\n])*'`},
	{Name: "Number", Pattern: `\.?[0-9](?:[eEpP][-+]|[0-9A-Za-z_.])*`},

	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},

	{Name: "Punct", Pattern: `->|\+\+|--|<<=?|>>=?|\.\.\.|&&|\|\||[-+*/%&|^!=<>]=|##|[-+*/%&|^~!=<>?:;,.(){}\[\]\\@$#]`},

	{Name: "Whitespace", Pattern: `[ \t\r\n\f\v]+`},
})

type tokKind int

const (
	tkDoc tokKind = iota + 1
	tkComment
	tkPreproc
	tkString
	tkChar
	tkNumber
	tkIdent
	tkPunct
)

type token struct {
	kind    tokKind
	text    string
	line    int // 1-based line the token starts on
	endLine int // 1-based line the token ends on
}

func (t token) is(kind tokKind, text string) bool {
	return t.kind == kind && t.text == text
}

// tokenize lexes text, dropping whitespace. A lexing failure (ex: an unterminated string literal) is an error.
func tokenize(filename, text string) ([]token, error) {
	lex, err := cLexer.LexString(filename, text)
	if err != nil {
		return nil, err
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize %s: %w", filename, err)
	}

	symbols := cLexer.Symbols()
	kinds := map[lexer.TokenType]tokKind{
		symbols["DocComment"]: tkDoc,
		symbols["Comment"]:    tkComment,
		symbols["Preproc"]:    tkPreproc,
		symbols["String"]:     tkString,
		symbols["Char"]:       tkChar,
		symbols["Number"]:     tkNumber,
		symbols["Ident"]:      tkIdent,
		symbols["Punct"]:      tkPunct,
	}

	toks := make([]token, 0, len(raw))
	for _, r := range raw {
		if r.EOF() {
			break
		}
		kind, ok := kinds[r.Type]
		if !ok {
			continue // whitespace
		}
		toks = append(toks, token{
			kind:    kind,
			text:    r.Value,
			line:    r.Pos.Line,
			endLine: r.Pos.Line + strings.Count(r.Value, "\n"),
		})
	}
	return toks, nil
}
