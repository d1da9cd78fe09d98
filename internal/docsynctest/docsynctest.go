// Package docsynctest provides helpers for tests that need primary and secondary corpora. Dedent strips common indentation so inline fixtures can be indented with
// surrounding code. NewFS writes fixtures into an in-memory afero filesystem and ReadFile reads one back, failing the test on error.
package docsynctest

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// Dedent removes the common leading indentation from each non-blank line in s. Spaces and tabs both count as indentation; the smallest indent among non-blank lines
// is removed from all non-blank lines. Blank-only lines do not affect the indent; interior blank lines are preserved, and leading/trailing blank lines are trimmed.
// The result always ends with a single '\n'.
func Dedent(s string) string {
	s = strings.Trim(s, "\n") // drop leading/trailing blank lines
	lines := strings.Split(s, "\n")

	min := -1 // smallest indent seen so far
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			lines[i] = ""
			continue
		}
		indent := len(line) - len(trimmed)
		if min == -1 || indent < min {
			min = indent
		}
	}

	if min > 0 {
		for i, line := range lines {
			if len(line) >= min {
				lines[i] = line[min:]
			}
		}
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \t\n") + "\n"
}

// NewFS returns an in-memory filesystem containing files (path -> contents).
func NewFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, contents := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(contents), 0o644))
	}
	return fs
}

// ReadFile returns the contents of path in fs.
func ReadFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(b)
}

// Exists reports whether path exists in fs.
func Exists(t *testing.T, fs afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fs, path)
	require.NoError(t, err)
	return ok
}
