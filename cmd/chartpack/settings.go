package main

import (
	"fmt"
	"strings"

	"github.com/handiism/chartpack/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	settingsCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective settings, overrides included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(settings)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", settingsPath(), data)
			return nil
		},
	})

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the settings file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), settingsPath())
		},
	})

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a value in the settings file",
		Long:  "Set a value in the settings file.\n\nKeys: " + strings.Join(settingKeys, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return saveSetting(settingsPath(), args[0], args[1])
		},
	})
}

// saveSetting updates one key in the file at path. Overrides from flags and
// the environment are not written.
func saveSetting(path, key, value string) error {
	settings, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := setSetting(settings, key, value); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	return settings.Save(path)
}
