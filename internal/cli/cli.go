// Package cli implements the docsync command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/codalotl/docsync/internal/docsync"
	"github.com/codalotl/docsync/internal/simplelogger"
)

// Version is the docsync version. It is a var so build tooling can override it with -ldflags "-X .../internal/cli.Version=1.2.3".
var Version = "0.1.0"

// In/Out/Err override standard I/O. If nil, defaults are used. Overriding is useful for testing.
//
// Fs is the filesystem Go files, headers, config files and the log file are read from and written to (default: the OS filesystem). Home and Dir are the home
// directory and the directory the nearest project config is searched from (defaults: the user's home directory and the working directory).
type RunOptions struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	Fs   afero.Fs
	Home string
	Dir  string
}

// Run runs the CLI with args (typically os.Args).
//
// It returns a recommended exit code (0, 1, or 2) and an error, if any:
//   - 0 -> err == nil
//   - 1 -> err != nil: a fatal error during the run, or --check found files out of sync.
//   - 2 -> err != nil: bad flags or flag values.
//
// Run has already printed err to opts.Err || Stderr. Callers may use os.Exit with the exit code.
func Run(args []string, opts *RunOptions) (int, error) {
	argv := args
	if len(argv) > 0 {
		argv = argv[1:]
	}
	env := resolveRunOptions(opts)

	root := newRootCommand(env)
	root.SetArgs(argv)
	root.SetIn(env.in)
	root.SetOut(env.out)
	root.SetErr(env.err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0, nil
	}

	code := 1
	var ec ExitCoder
	if errors.As(err, &ec) {
		code = ec.ExitCode()
	}
	fmt.Fprintf(env.err, "docsync: %v\n", err)
	if code == 2 {
		fmt.Fprintln(env.err, "Run 'docsync --help' for usage.")
	}
	return code, err
}

type runEnv struct {
	in       io.Reader
	out, err io.Writer
	fs       afero.Fs
	home     string
	dir      string
}

func resolveRunOptions(opts *RunOptions) *runEnv {
	env := &runEnv{in: os.Stdin, out: os.Stdout, err: os.Stderr}
	if opts != nil {
		if opts.In != nil {
			env.in = opts.In
		}
		if opts.Out != nil {
			env.out = opts.Out
		}
		if opts.Err != nil {
			env.err = opts.Err
		}
		env.fs = opts.Fs
		env.home = opts.Home
		env.dir = opts.Dir
	}
	if env.fs == nil {
		env.fs = afero.NewOsFs()
	}
	if env.home == "" {
		if h, err := homedir.Dir(); err == nil {
			env.home = h
		}
	}
	if env.dir == "" {
		if wd, err := os.Getwd(); err == nil {
			env.dir = wd
		}
	}
	return env
}

func newRootCommand(env *runEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docsync [flags] <go-pattern>...",
		Short: "Copy documentation from C headers into Go declarations",
		Long: `docsync copies the documentation of C declarations into the Go declarations that name them.

A Go declaration opts in with a directive comment:

	//docsync:alias SDL_CreateWindow
	func CreateWindow(title string, w, h int32, flags WindowFlags) (*Window, error)

Each <go-pattern> is a glob of Go files to update; each -c pattern is a glob of C headers to read documentation from. Without -i, every Go file is
printed to stdout as "<path>:" followed by its updated contents.`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, args, env)
		},
	}

	f := cmd.Flags()
	f.SortFlags = false
	f.BoolP("in-place", "i", false, "rewrite Go files in place instead of printing them")
	f.BoolP("backup", "b", false, "with -i, save each rewritten file's original with the backup extension")
	f.StringArrayP("c-src", "c", nil, "glob of C headers to read documentation from (repeatable)")
	f.String("backup-ext", docsync.DefaultBackupExt, "extension of backup files")
	f.Bool("gofmt", true, "gofmt updated files")
	f.Bool("diff", false, "print a unified diff of each changed file instead of its contents")
	f.Bool("check", false, "write nothing; list files that are out of sync and exit 1 if there are any")
	f.String("color", "auto", "color diffs: auto, on or off")
	f.String("logfile", "", "append debug logs to this file (also DOCSYNC_LOG_FILE)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return UsageError{Message: err.Error()}
	})
	return cmd
}

func runSync(cmd *cobra.Command, args []string, env *runEnv) error {
	cfg, err := loadConfig(newViper(env.fs), cmd, env.fs, env.home, env.dir)
	if err != nil {
		return err
	}

	opts := docsync.Options{
		GoPatterns: args,
		CPatterns:  cfg.CSrc,
		InPlace:    cfg.InPlace,
		Backup:     cfg.Backup,
		BackupExt:  cfg.BackupExt,
		Gofmt:      cfg.Gofmt,
		Diff:       cfg.Diff,
		Check:      cfg.Check,
		Color:      cfg.Color == "on" || (cfg.Color == "auto" && isTerminal(env.out)),
		Out:        cmd.OutOrStdout(),
		Logger:     simplelogger.New(env.fs, cfg.LogFile),
	}

	report, err := docsync.Run(cmd.Context(), env.fs, opts)
	if errors.Is(err, docsync.ErrWouldChange) {
		return ExitError{Code: 1, Err: err}
	}
	if err != nil {
		return err
	}
	for _, alias := range report.Unresolved {
		opts.Logger.Logf("docsync: no documented C declaration for %s", alias)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
