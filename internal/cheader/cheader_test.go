package cheader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codalotl/docsync/internal/docsynctest"
)

var dedent = docsynctest.Dedent

type kindName struct {
	Kind Kind
	Name string
}

func declKindNames(decls []Decl) []kindName {
	var out []kindName
	for _, d := range decls {
		out = append(out, kindName{d.Kind, d.Name})
	}
	return out
}

func find(t *testing.T, decls []Decl, name string) Decl {
	t.Helper()
	for _, d := range decls {
		if d.Name == name {
			return d
		}
	}
	require.Failf(t, "decl not found", "no decl named %q", name)
	return Decl{}
}

func TestParse_FunctionComment(t *testing.T) {
	code := dedent(`
		/**
		 * \brief Adds two numbers.
		 *
		 * Longer text.
		 *
		 * \param[in] a The first.
		 * \param b The \em second.
		 * \return The sum.
		 */
		int add(int a, int b);
	`)
	decls, err := Parse("x.h", code)
	require.NoError(t, err)
	require.Len(t, decls, 1)

	d := decls[0]
	assert.Equal(t, KindFunction, d.Kind)
	assert.Equal(t, "add", d.Name)
	assert.Equal(t, 10, d.Line)
	want := `<Function file="x.h" line="10"><Name>add</Name>` +
		`<Abstract><Para>Adds two numbers.</Para></Abstract>` +
		`<Parameters>` +
		`<Parameter><Name>a</Name><Index>0</Index><Direction isExplicit="1">in</Direction><Discussion><Para>The first.</Para></Discussion></Parameter>` +
		`<Parameter><Name>b</Name><Index>1</Index><Direction isExplicit="0">in</Direction><Discussion><Para>The <emphasized>second</emphasized>.</Para></Discussion></Parameter>` +
		`</Parameters>` +
		`<ResultDiscussion><Para>The sum.</Para></ResultDiscussion>` +
		`<Discussion><Para>Longer text.</Para></Discussion>` +
		`</Function>`
	assert.Equal(t, want, d.Comment)
}

func TestParse_Declarations(t *testing.T) {
	code := dedent(`
		#include <stddef.h>

		/// A point.
		typedef struct point {
		    int x; ///< X coordinate.
		    int y;
		} point_t;

		/** Colors. */
		enum color {
		    RED,   ///< Red.
		    /** Green. */
		    GREEN = 2,
		    BLUE
		};

		union value { int i; float f; };

		typedef int (*callback_t)(void *ctx);

		#ifdef __cplusplus
		extern "C" {
		#endif

		/// Global counter.
		extern int counter;

		#ifdef __cplusplus
		}
		#endif

		/// Max.
		#define MAX(a, b) ((a) > (b) ? (a) : (b))

		#define UNDOCUMENTED 1
	`)
	decls, err := Parse("x.h", code)
	require.NoError(t, err)

	assert.Equal(t, []kindName{
		{KindStruct, "point"},
		{KindTypedef, "point_t"},
		{KindEnum, "color"},
		{KindEnumConstant, "RED"},
		{KindEnumConstant, "GREEN"},
		{KindEnumConstant, "BLUE"},
		{KindUnion, "value"},
		{KindTypedef, "callback_t"},
		{KindVariable, "counter"},
		{KindMacro, "MAX"},
	}, declKindNames(decls))

	assert.Contains(t, find(t, decls, "point").Comment, `<Class file="x.h" line="4"><Name>point</Name><Abstract><Para>A point.</Para></Abstract>`)
	assert.Contains(t, find(t, decls, "point_t").Comment, `<Typedef file="x.h" line="4"><Name>point_t</Name><Abstract><Para>A point.</Para></Abstract>`)
	assert.Contains(t, find(t, decls, "color").Comment, "<Para>Colors.</Para>")
	assert.Contains(t, find(t, decls, "RED").Comment, "<Variable")
	assert.Contains(t, find(t, decls, "RED").Comment, "<Para>Red.</Para>")
	assert.Contains(t, find(t, decls, "GREEN").Comment, "<Para>Green.</Para>")
	assert.Equal(t, "", find(t, decls, "BLUE").Comment)
	assert.Equal(t, "", find(t, decls, "callback_t").Comment)
	assert.Contains(t, find(t, decls, "counter").Comment, "<Para>Global counter.</Para>")
	assert.Contains(t, find(t, decls, "MAX").Comment, `<Other file="x.h"`)
}

func TestParse_FunctionsAndMacros(t *testing.T) {
	code := dedent(`
		/// Frees.
		DEPRECATED("use free2") void free1(void *p);

		/// Inline helper.
		static inline int twice(int x) { if (x) { return x * 2; } return 0; }

		/// Next.
		int next(void);

		/// Handler.
		void (*handler)(int sig);

		int total; ///< Running total.
	`)
	decls, err := Parse("x.h", code)
	require.NoError(t, err)

	assert.Equal(t, []kindName{
		{KindFunction, "free1"},
		{KindFunction, "twice"},
		{KindFunction, "next"},
		{KindVariable, "handler"},
		{KindVariable, "total"},
	}, declKindNames(decls))

	assert.Contains(t, find(t, decls, "twice").Comment, "<Para>Inline helper.</Para>")
	assert.Contains(t, find(t, decls, "next").Comment, "<Para>Next.</Para>")
	assert.Contains(t, find(t, decls, "total").Comment, "<Para>Running total.</Para>")
}

func TestParse_PlainCommentBreaksAttachment(t *testing.T) {
	code := dedent(`
		/// Orphan.
		/* license */
		int f(void);

		/// First run.

		/// Second run.
		int g(void);
	`)
	decls, err := Parse("x.h", code)
	require.NoError(t, err)
	require.Len(t, decls, 2)

	assert.Equal(t, "", decls[0].Comment)
	assert.Contains(t, decls[1].Comment, "<Para>Second run.</Para>")
	assert.NotContains(t, decls[1].Comment, "First run")
}

func TestParse_StructWithoutBody(t *testing.T) {
	code := dedent(`
		/// Opaque.
		struct handle;

		/// Alias.
		typedef struct handle handle_t;

		struct handle *open_handle(const char *path);
	`)
	decls, err := Parse("x.h", code)
	require.NoError(t, err)

	assert.Equal(t, []kindName{
		{KindStruct, "handle"},
		{KindTypedef, "handle_t"},
		{KindFunction, "open_handle"},
	}, declKindNames(decls))
}

func TestParse_TokenizeError(t *testing.T) {
	_, err := Parse("bad.h", "const char *s = \"unterminated\n;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.h")
}

func TestParseDoxygen(t *testing.T) {
	t.Run("first paragraph is the abstract", func(t *testing.T) {
		c := parseDoxygen([]string{"/// Does a thing.", "/// Carefully.", "///", "/// More detail."})
		assert.Equal(t, []string{"Does a thing.\nCarefully."}, c.brief)
		assert.Equal(t, []string{"More detail."}, c.discussion)
	})

	t.Run("at commands and labels", func(t *testing.T) {
		c := parseDoxygen([]string{
			"//! @brief Short.",
			"//! @param[in,out] buf The buffer.",
			"//!   Must be non-NULL.",
			"//! @returns Bytes written.",
			"//! @note Not thread-safe.",
		})
		assert.Equal(t, []string{"Short."}, c.brief)
		require.Len(t, c.params, 1)
		assert.Equal(t, "buf", c.params[0].name)
		assert.Equal(t, "in,out", c.params[0].direction)
		assert.True(t, c.params[0].explicit)
		assert.Equal(t, []string{"The buffer.\nMust be non-NULL."}, c.params[0].paras)
		assert.Equal(t, []string{"Bytes written."}, c.returns)
		assert.Equal(t, []string{"Note: Not thread-safe."}, c.discussion)
	})

	t.Run("blank line ends a param", func(t *testing.T) {
		c := parseDoxygen([]string{"/**\n * Abstract.\n * \\param x The x.\n *\n * Trailing discussion.\n */"})
		assert.Equal(t, []string{"Abstract."}, c.brief)
		require.Len(t, c.params, 1)
		assert.Equal(t, []string{"The x."}, c.params[0].paras)
		assert.Equal(t, []string{"Trailing discussion."}, c.discussion)
	})

	t.Run("unknown commands are text", func(t *testing.T) {
		c := parseDoxygen([]string{`/// \foo bar`})
		assert.Equal(t, []string{`\foo bar`}, c.brief)
	})

	t.Run("empty", func(t *testing.T) {
		assert.True(t, parseDoxygen([]string{"///", "/** */"}).empty())
	})
}

func TestDocCommentXML_InlineAndEscaping(t *testing.T) {
	c := parseDoxygen([]string{`/// Returns a < b && \c flag, or \b nothing.`})
	got := c.xml(KindFunction, "cmp", "x.h", 3)
	assert.Equal(t, `<Function file="x.h" line="3"><Name>cmp</Name><Abstract><Para>Returns a &lt; b &amp;&amp; <monospaced>flag</monospaced>, or <bold>nothing</bold>.</Para></Abstract></Function>`, got)
}
