package docsync

import (
	"bytes"
	"context"
	"go/format"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codalotl/docsync/internal/docsynctest"
	"github.com/codalotl/docsync/internal/simplelogger"
)

var dedent = docsynctest.Dedent

var header = dedent(`
	/// Does foo.
	int c_foo(void);

	/**
	 * Adds.
	 * \param n The count.
	 * \return The sum.
	 */
	int c_add(int n);

	enum color {
	    C_RED, ///< Red.
	};
`)

var fooGo = dedent(`
	package foo

	//docsync:alias c_foo
	func Foo() {}
`)

func run(t *testing.T, fs afero.Fs, opts Options) (string, *Report, error) {
	t.Helper()
	var out bytes.Buffer
	opts.Out = &out
	report, err := Run(context.Background(), fs, opts)
	return out.String(), report, err
}

func TestRun_PrintsEveryFile(t *testing.T) {
	fs := docsynctest.NewFS(t, map[string]string{
		"/c/foo.h":     header,
		"/src/foo.go":  fooGo,
		"/src/none.go": "package foo\n",
	})

	out, report, err := run(t, fs, Options{GoPatterns: []string{"/src/*.go"}, CPatterns: []string{"/c/*.h"}})
	require.NoError(t, err)

	wantFoo := dedent(`
		package foo

		//docsync:alias c_foo
		// Does foo.
		func Foo() {}
	`)
	assert.Equal(t, "/src/foo.go:\n"+wantFoo+"\n"+"/src/none.go:\npackage foo\n\n", out)
	assert.Equal(t, []string{"/src/foo.go", "/src/none.go"}, report.Files)
	assert.Equal(t, []string{"/src/foo.go"}, report.Changed)
	assert.Empty(t, report.Unresolved)

	// Nothing is written without InPlace.
	assert.Equal(t, fooGo, docsynctest.ReadFile(t, fs, "/src/foo.go"))
}

func TestRun_InPlace(t *testing.T) {
	want := dedent(`
		package foo

		//docsync:alias c_foo
		// Does foo.
		func Foo() {}
	`)

	t.Run("without backup", func(t *testing.T) {
		fs := docsynctest.NewFS(t, map[string]string{"/c/foo.h": header, "/src/foo.go": fooGo})
		out, _, err := run(t, fs, Options{GoPatterns: []string{"/src/foo.go"}, CPatterns: []string{"/c/foo.h"}, InPlace: true})
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Equal(t, want, docsynctest.ReadFile(t, fs, "/src/foo.go"))
		assert.False(t, docsynctest.Exists(t, fs, "/src/foo.bk"))
	})

	t.Run("with backup", func(t *testing.T) {
		fs := docsynctest.NewFS(t, map[string]string{"/c/foo.h": header, "/src/foo.go": fooGo})
		_, _, err := run(t, fs, Options{GoPatterns: []string{"/src/foo.go"}, CPatterns: []string{"/c/foo.h"}, InPlace: true, Backup: true})
		require.NoError(t, err)
		assert.Equal(t, want, docsynctest.ReadFile(t, fs, "/src/foo.go"))
		assert.Equal(t, fooGo, docsynctest.ReadFile(t, fs, "/src/foo.bk"))
	})

	t.Run("backup extension", func(t *testing.T) {
		fs := docsynctest.NewFS(t, map[string]string{"/c/foo.h": header, "/src/foo.go": fooGo})
		_, _, err := run(t, fs, Options{GoPatterns: []string{"/src/foo.go"}, CPatterns: []string{"/c/foo.h"}, InPlace: true, Backup: true, BackupExt: "orig"})
		require.NoError(t, err)
		assert.Equal(t, fooGo, docsynctest.ReadFile(t, fs, "/src/foo.orig"))
		assert.False(t, docsynctest.Exists(t, fs, "/src/foo.bk"))
	})

	t.Run("backup needs in-place", func(t *testing.T) {
		fs := docsynctest.NewFS(t, map[string]string{"/c/foo.h": header, "/src/foo.go": fooGo})
		_, _, err := run(t, fs, Options{GoPatterns: []string{"/src/foo.go"}, CPatterns: []string{"/c/foo.h"}, Backup: true})
		require.NoError(t, err)
		assert.Equal(t, fooGo, docsynctest.ReadFile(t, fs, "/src/foo.go"))
		assert.False(t, docsynctest.Exists(t, fs, "/src/foo.bk"))
	})
}

func TestRun_EmptyMatch(t *testing.T) {
	fs := docsynctest.NewFS(t, map[string]string{"/c/foo.h": header})
	out, report, err := run(t, fs, Options{GoPatterns: []string{"/src/*.go", "/missing.go"}, CPatterns: []string{"/c/*.h"}})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, report.Files)
}

func TestRun_UnresolvedIsNoOp(t *testing.T) {
	code := dedent(`
		package foo

		// Keep me.
		//docsync:alias c_missing
		func Foo() {}

		//docsync:alias c_union
		type U struct{}
	`)
	files := map[string]string{
		"/c/foo.h":    header + "\n/// A union.\nunion c_union { int i; };\n",
		"/src/foo.go": code,
	}

	out, report, err := run(t, docsynctest.NewFS(t, files), Options{GoPatterns: []string{"/src/foo.go"}, CPatterns: []string{"/c/foo.h"}, Gofmt: true})
	require.NoError(t, err)
	assert.Equal(t, "/src/foo.go:\n"+code+"\n", out)
	assert.Equal(t, []string{"c_missing", "c_union"}, report.Unresolved)
	assert.Empty(t, report.Changed)

	// In place, nothing is written: a read-only filesystem would fail the write.
	ro := afero.NewReadOnlyFs(docsynctest.NewFS(t, files))
	_, _, err = run(t, ro, Options{GoPatterns: []string{"/src/foo.go"}, CPatterns: []string{"/c/foo.h"}, InPlace: true, Backup: true})
	require.NoError(t, err)
}

func TestRun_IdempotentWithGofmt(t *testing.T) {
	code := dedent(`
		package foo

		// Old docs.
		//docsync:alias c_add
		func Add(n int) int { return n }

		type Adder interface {
			//docsync:alias c_add
			Add(n int) int
		}

		const (
			//docsync:alias C_RED
			Red = iota
		)
	`)
	fs := docsynctest.NewFS(t, map[string]string{"/c/foo.h": header, "/src/foo.go": code})
	opts := Options{GoPatterns: []string{"/src/*.go"}, CPatterns: []string{"/c/*.h"}, InPlace: true, Gofmt: true}

	_, _, err := run(t, fs, opts)
	require.NoError(t, err)
	once := docsynctest.ReadFile(t, fs, "/src/foo.go")

	assert.NotContains(t, once, "Old docs.")
	assert.Equal(t, 2, strings.Count(once, "// Adds.\n"))
	assert.Equal(t, 2, strings.Count(once, "//   - `n`\n"))
	assert.Contains(t, once, "\t// Red.\n\tRed = iota\n")

	formatted, err := format.Source([]byte(once))
	require.NoError(t, err)
	assert.Equal(t, once, string(formatted))

	_, _, err = run(t, fs, opts)
	require.NoError(t, err)
	assert.Equal(t, once, docsynctest.ReadFile(t, fs, "/src/foo.go"))
}

func TestRun_FirstMatchWins(t *testing.T) {
	fs := docsynctest.NewFS(t, map[string]string{
		"/c/a.h":      "/// From a.\nint c_foo(void);\n",
		"/c/b.h":      "/// From b.\nint c_foo(void);\n",
		"/src/foo.go": fooGo,
	})
	out, _, err := run(t, fs, Options{GoPatterns: []string{"/src/foo.go"}, CPatterns: []string{"/c/b.h", "/c/*.h"}})
	require.NoError(t, err)
	assert.Contains(t, out, "// From b.\n")
	assert.NotContains(t, out, "From a.")
}

func TestRun_Check(t *testing.T) {
	fs := docsynctest.NewFS(t, map[string]string{"/c/foo.h": header, "/src/foo.go": fooGo})
	opts := Options{GoPatterns: []string{"/src/foo.go"}, CPatterns: []string{"/c/foo.h"}, Check: true, InPlace: true}

	out, report, err := run(t, fs, opts)
	require.ErrorIs(t, err, ErrWouldChange)
	assert.Equal(t, "/src/foo.go\n", out)
	assert.Equal(t, []string{"/src/foo.go"}, report.Changed)
	assert.Equal(t, fooGo, docsynctest.ReadFile(t, fs, "/src/foo.go"))

	_, _, err = run(t, fs, Options{GoPatterns: opts.GoPatterns, CPatterns: opts.CPatterns, InPlace: true})
	require.NoError(t, err)

	out, _, err = run(t, fs, opts)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRun_Diff(t *testing.T) {
	fs := docsynctest.NewFS(t, map[string]string{
		"/c/foo.h":     header,
		"/src/foo.go":  fooGo,
		"/src/none.go": "package foo\n",
	})
	out, _, err := run(t, fs, Options{GoPatterns: []string{"/src/*.go"}, CPatterns: []string{"/c/foo.h"}, Diff: true})
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"--- a/src/foo.go",
		"+++ b/src/foo.go",
		"@@ -1,4 +1,5 @@",
		" package foo",
		" ",
		" //docsync:alias c_foo",
		"+// Does foo.",
		" func Foo() {}",
		"",
	}, "\n"), out)
}

func TestRun_FatalErrors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		patterns []string
		want     string
	}{
		{
			name:  "go parse error",
			files: map[string]string{"/src/bad.go": "package foo\nfunc {", "/c/foo.h": header},
			want:  "/src/bad.go",
		},
		{
			name:  "header parse error",
			files: map[string]string{"/src/foo.go": fooGo, "/c/foo.h": "const char *s = \"unterminated\n;"},
			want:  "/c/foo.h",
		},
		{
			name:     "bad pattern",
			files:    map[string]string{"/src/foo.go": fooGo},
			patterns: []string{"/src/[.go"},
			want:     "invalid pattern",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patterns := tt.patterns
			if patterns == nil {
				patterns = []string{"/src/*.go"}
			}
			out, _, err := run(t, docsynctest.NewFS(t, tt.files), Options{GoPatterns: patterns, CPatterns: []string{"/c/*.h"}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, out)
		})
	}
}

func TestRun_Canceled(t *testing.T) {
	fs := docsynctest.NewFS(t, map[string]string{"/c/foo.h": header, "/src/foo.go": fooGo})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, fs, Options{GoPatterns: []string{"/src/foo.go"}, CPatterns: []string{"/c/foo.h"}, Out: &bytes.Buffer{}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_Logs(t *testing.T) {
	fs := docsynctest.NewFS(t, map[string]string{"/c/foo.h": header, "/src/foo.go": fooGo})
	_, _, err := run(t, fs, Options{
		GoPatterns: []string{"/src/foo.go"},
		CPatterns:  []string{"/c/foo.h"},
		InPlace:    true,
		Logger:     simplelogger.New(fs, "/docsync.log"),
	})
	require.NoError(t, err)

	log := docsynctest.ReadFile(t, fs, "/docsync.log")
	assert.Contains(t, log, "scanned 1 Go files, 1 aliases needed")
	assert.Contains(t, log, "resolved 1 of 1 aliases")
	assert.Contains(t, log, "wrote /src/foo.go")
}

func TestBackupPath(t *testing.T) {
	assert.Equal(t, "a/b.bk", BackupPath("a/b.go", "bk"))
	assert.Equal(t, "a/b.bk", BackupPath("a/b", "bk"))
	assert.Equal(t, "a/b.c.orig", BackupPath("a/b.c.go", "orig"))
}
