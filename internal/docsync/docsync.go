// Package docsync copies documentation from C header declarations into Go declarations that name them with a //docsync:alias directive.
//
// A run has three phases: every Go file is parsed and scanned for aliases; every header is parsed and each needed alias is resolved and rendered; then every Go
// file is spliced and printed, diffed, checked, or written back. The alias -> body map is complete before any Go file is rewritten, so the order of files does
// not affect the result.
package docsync

import (
	"context"
	"errors"
	"fmt"
	"go/format"
	"io"
	"os"
	"sort"

	"github.com/spf13/afero"

	"github.com/codalotl/docsync/internal/aliasscan"
	"github.com/codalotl/docsync/internal/cheader"
	"github.com/codalotl/docsync/internal/docrender"
	"github.com/codalotl/docsync/internal/preview"
	"github.com/codalotl/docsync/internal/resolve"
	"github.com/codalotl/docsync/internal/simplelogger"
	"github.com/codalotl/docsync/internal/splice"
	"github.com/codalotl/docsync/internal/srcpos"
)

// DefaultBackupExt is the extension of backup files.
const DefaultBackupExt = "bk"

// ErrWouldChange is returned by Run in check mode when at least one file would change.
var ErrWouldChange = errors.New("files are not in sync")

// Options configure a Run.
type Options struct {
	GoPatterns []string // primary corpus globs
	CPatterns  []string // secondary corpus globs

	InPlace   bool   // rewrite changed Go files instead of printing them
	Backup    bool   // with InPlace, save the original of each rewritten file first
	BackupExt string // extension of backups; DefaultBackupExt if ""

	Gofmt bool // gofmt changed files before output
	Diff  bool // print a unified diff of each changed file instead of its contents
	Check bool // write nothing; list files that would change and return ErrWouldChange
	Color bool // color diffs

	Out    io.Writer // defaults to os.Stdout
	Logger *simplelogger.Logger
}

// Report summarizes a completed run.
type Report struct {
	Files      []string // Go files processed, in order
	Changed    []string // Go files changed (or, in check mode, that would change)
	Unresolved []string // needed aliases with no documented match, sorted
	Dropped    int      // aliased declarations whose position could not be resolved
}

type primaryFile struct {
	path  string
	src   *srcpos.Source
	sites map[string][]aliasscan.Site
}

// Run runs docsync over fs. The first fatal error (I/O, a bad pattern, a Go or header file that can't be parsed, or a comment that can't be rendered) aborts the
// run. ctx is checked between files.
func Run(ctx context.Context, fs afero.Fs, opts Options) (*Report, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.BackupExt == "" {
		opts.BackupExt = DefaultBackupExt
	}
	log := opts.Logger
	report := &Report{}

	files, needed, err := scanPrimary(ctx, fs, opts.GoPatterns, report)
	if err != nil {
		return nil, err
	}
	log.Logf("docsync: scanned %d Go files, %d aliases needed, %d sites dropped", len(files), len(needed), report.Dropped)

	bodies, err := resolveBodies(ctx, fs, opts.CPatterns, needed, report, log)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changed, err := rewrite(fs, f, bodies, opts)
		if err != nil {
			return nil, err
		}
		if changed {
			report.Changed = append(report.Changed, f.path)
		}
	}
	log.Logf("docsync: %d of %d files changed", len(report.Changed), len(report.Files))

	if opts.Check && len(report.Changed) > 0 {
		return report, fmt.Errorf("%w: %d file(s) would change", ErrWouldChange, len(report.Changed))
	}
	return report, nil
}

// scanPrimary reads, parses and scans every Go file matched by patterns. It returns the files and the sorted union of their aliases.
func scanPrimary(ctx context.Context, fs afero.Fs, patterns []string, report *Report) ([]*primaryFile, []string, error) {
	paths, err := expand(fs, patterns)
	if err != nil {
		return nil, nil, err
	}

	var files []*primaryFile
	seen := make(map[string]bool)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		b, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		src := srcpos.NewSource(string(b))
		parsed, err := aliasscan.ParseGo(path, src)
		if err != nil {
			return nil, nil, err
		}
		res := aliasscan.Scan(src, parsed)
		report.Files = append(report.Files, path)
		report.Dropped += res.Dropped
		for alias := range res.Sites {
			seen[alias] = true
		}
		files = append(files, &primaryFile{path: path, src: src, sites: res.Sites})
	}

	needed := make([]string, 0, len(seen))
	for alias := range seen {
		needed = append(needed, alias)
	}
	sort.Strings(needed)
	return files, needed, nil
}

// resolveBodies parses every header matched by patterns, resolves needed against their declarations, and renders each resolution. Unresolved aliases map to
// "".
func resolveBodies(ctx context.Context, fs afero.Fs, patterns, needed []string, report *Report, log *simplelogger.Logger) (map[string]string, error) {
	paths, err := expand(fs, patterns)
	if err != nil {
		return nil, err
	}

	r := resolve.New(needed)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		decls, err := cheader.Parse(path, string(b))
		if err != nil {
			return nil, err
		}
		log.Logf("docsync: %s: %d declarations", path, len(decls))
		r.Add(decls)
	}

	bodies := make(map[string]string, len(needed))
	for _, alias := range needed {
		d, ok := r.Lookup(alias)
		if !ok {
			bodies[alias] = ""
			continue
		}
		body, err := docrender.Render(d.Comment)
		if err != nil {
			return nil, fmt.Errorf("failed to render documentation of %s (%s:%d): %w", d.Name, d.File, d.Line, err)
		}
		bodies[alias] = body
	}
	report.Unresolved = r.Unresolved()
	log.Logf("docsync: resolved %d of %d aliases", len(needed)-len(report.Unresolved), len(needed))
	return bodies, nil
}

// rewrite splices bodies into f and emits the result according to opts. It reports whether the file's content changed.
func rewrite(fs afero.Fs, f *primaryFile, bodies map[string]string, opts Options) (bool, error) {
	orig := f.src.Text()
	out, spliced, err := splice.Rewrite(orig, f.sites, bodies)
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", f.path, err)
	}
	if spliced && opts.Gofmt {
		formatted, err := format.Source([]byte(out))
		if err != nil {
			return false, fmt.Errorf("failed to format %s: %w", f.path, err)
		}
		out = string(formatted)
	}
	changed := out != orig

	switch {
	case opts.Check:
		if changed {
			fmt.Fprintln(opts.Out, f.path)
		}
	case opts.Diff:
		if changed {
			fmt.Fprint(opts.Out, preview.Unified(f.path, orig, out, preview.DefaultContext, opts.Color))
		}
	case !opts.InPlace:
		fmt.Fprintf(opts.Out, "%s:\n%s\n", f.path, out)
	}

	if opts.InPlace && !opts.Check && spliced {
		if err := writeBack(fs, f.path, orig, out, opts); err != nil {
			return false, err
		}
	}
	return changed, nil
}
