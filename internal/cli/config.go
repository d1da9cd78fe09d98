package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codalotl/docsync/internal/docsync"
)

// configDir and configFile name the config file looked up in the home directory and in the nearest enclosing project directory, in that order of precedence
// (project wins). Keys are the long flag names: {"c-src": ["include/*.h"], "backup-ext": "orig", "gofmt": false}.
const (
	configDir  = ".docsync"
	configFile = "config.json"
	envPrefix  = "DOCSYNC"
)

// Config is docsync's configuration after merging defaults, config files, environment and flags.
type Config struct {
	CSrc      []string
	InPlace   bool
	Backup    bool
	BackupExt string
	Gofmt     bool
	Diff      bool
	Check     bool
	Color     string
	LogFile   string
}

// newViper returns a viper instance reading config files from afs, with defaults and environment bindings set up. Env vars are DOCSYNC_<FLAG> with dashes
// replaced by underscores, plus DOCSYNC_LOG_FILE for --logfile.
func newViper(afs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(afs)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("logfile", envPrefix+"_LOG_FILE", envPrefix+"_LOGFILE")

	v.SetDefault("backup-ext", docsync.DefaultBackupExt)
	v.SetDefault("gofmt", true)
	v.SetDefault("color", "auto")
	return v
}

// configPaths returns the config files that exist, lowest precedence first: home/.docsync/config.json, then the first .docsync/config.json found walking up
// from dir.
func configPaths(afs afero.Fs, home, dir string) ([]string, error) {
	var paths []string
	var homeCfg string
	if home != "" {
		homeCfg = filepath.Join(home, configDir, configFile)
		ok, err := isFile(afs, homeCfg)
		if err != nil {
			return nil, err
		}
		if ok {
			paths = append(paths, homeCfg)
		}
	}

	if dir == "" {
		return paths, nil
	}
	for d := filepath.Clean(dir); ; {
		candidate := filepath.Join(d, configDir, configFile)
		ok, err := isFile(afs, candidate)
		if err != nil {
			return nil, err
		}
		if ok {
			if candidate != homeCfg {
				paths = append(paths, candidate)
			}
			break
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return paths, nil
}

func isFile(afs afero.Fs, path string) (bool, error) {
	info, err := afs.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

// loadConfig merges config files into v, binds cmd's flags, and returns the resulting Config.
func loadConfig(v *viper.Viper, cmd *cobra.Command, afs afero.Fs, home, dir string) (Config, error) {
	paths, err := configPaths(afs, home, dir)
	if err != nil {
		return Config{}, err
	}
	for _, path := range paths {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to load configuration %s: %w", path, err)
		}
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, err
	}

	cfg := Config{
		CSrc:      v.GetStringSlice("c-src"),
		InPlace:   v.GetBool("in-place"),
		Backup:    v.GetBool("backup"),
		BackupExt: v.GetString("backup-ext"),
		Gofmt:     v.GetBool("gofmt"),
		Diff:      v.GetBool("diff"),
		Check:     v.GetBool("check"),
		Color:     v.GetString("color"),
		LogFile:   v.GetString("logfile"),
	}
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	switch cfg.Color {
	case "auto", "on", "off":
	default:
		return usageErrorf("invalid color %q (want auto, on or off)", cfg.Color)
	}
	if cfg.BackupExt == "" || strings.ContainsAny(cfg.BackupExt, `./\`) {
		return usageErrorf("invalid backup extension %q", cfg.BackupExt)
	}
	return nil
}
