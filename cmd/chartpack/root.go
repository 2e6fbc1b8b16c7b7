package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/handiism/chartpack/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"

	verbose bool
	cfgFile string

	overlay = newOverlay()

	rootCmd = &cobra.Command{
		Use:   "chartpack",
		Short: "Download and convert chart packs",
		Long: `chartpack downloads .sm chart packs, converts every chart into an
osu!mania beatmap next to its source and mirrors the song folders into
the configured song path.

Settings are read from config/settings.json (or --config) and may be
overridden with flags or CHARTPACK_* environment variables, for example
CHARTPACK_SONG_PATH or CHARTPACK_MAX_CONCURRENT_PACKS.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default is ./config/settings.json)")
	rootCmd.PersistentFlags().String("song-path", "", "mirror root: a directory or a bucket URL")
	rootCmd.PersistentFlags().String("work-dir", "", "directory holding downloads/")
	rootCmd.PersistentFlags().Int("timeout", 0, "request timeout in seconds, 0 for none")
	rootCmd.PersistentFlags().Int("jobs", 0, "packs to run at once")

	overlay.bindFlag("song_path", rootCmd.PersistentFlags().Lookup("song-path"))
	overlay.bindFlag("work_dir", rootCmd.PersistentFlags().Lookup("work-dir"))
	overlay.bindFlag("request_timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	overlay.bindFlag("max_concurrent_packs", rootCmd.PersistentFlags().Lookup("jobs"))

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(settingsCmd)
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// settingsPath returns the --config value or the default location.
func settingsPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

// loadSettings reads the settings file and applies flag and environment
// overrides on top of it.
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(settingsPath())
	if err != nil {
		return nil, err
	}
	if err := overlay.apply(settings); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// newLogger returns the stderr logger used by every command.
func newLogger() *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}

// settingsOverlay layers CHARTPACK_* environment variables and command line
// flags over the settings file.
type settingsOverlay struct {
	v *viper.Viper
}

func newOverlay() *settingsOverlay {
	v := viper.New()
	v.SetEnvPrefix("CHARTPACK")
	v.AutomaticEnv()
	return &settingsOverlay{v: v}
}
