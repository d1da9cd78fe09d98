package simplelogger

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestLogf_WritesAndAppends(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := New(fs, "/tmp/docsync.log")

	l.Logf("hello %s", "world")
	l.Logf(" %d", 123)

	b, err := afero.ReadFile(fs, "/tmp/docsync.log")
	require.NoError(t, err)
	require.Equal(t, "hello world\n 123\n", string(b))
}

func TestNew_EmptyPathIsNoOp(t *testing.T) {
	l := New(afero.NewMemMapFs(), "")
	require.Nil(t, l)
	l.Logf("should not %s", "panic")
}

func TestLogf_NoOpWhenFileCannotBeOpened(t *testing.T) {
	base := afero.NewMemMapFs()

	New(afero.NewReadOnlyFs(base), "/docsync.log").Logf("ignored %d", 1)

	ok, err := afero.Exists(base, "/docsync.log")
	require.NoError(t, err)
	require.False(t, ok)
}
