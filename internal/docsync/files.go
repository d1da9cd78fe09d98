package docsync

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// expand returns the regular files matched by patterns, in pattern order. A path matched by more than one pattern is returned once.
func expand(fs afero.Fs, patterns []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := afero.Glob(fs, pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			info, err := fs.Stat(m)
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", m, err)
			}
			if !info.Mode().IsRegular() {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	return paths, nil
}

// BackupPath returns path with its extension replaced by ext ("a/b.go" -> "a/b.bk").
func BackupPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}

// writeBack writes out to path, keeping its permissions. With opts.Backup, orig is first written to the backup path.
func writeBack(fs afero.Fs, path, orig, out string, opts Options) error {
	info, err := fs.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	perm := info.Mode().Perm()

	if opts.Backup {
		backup := BackupPath(path, opts.BackupExt)
		if err := afero.WriteFile(fs, backup, []byte(orig), perm); err != nil {
			return fmt.Errorf("failed to write backup %s: %w", backup, err)
		}
		opts.Logger.Logf("docsync: backed up %s to %s", path, backup)
	}
	if err := afero.WriteFile(fs, path, []byte(out), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	opts.Logger.Logf("docsync: wrote %s", path)
	return nil
}
