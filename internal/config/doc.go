// Package config provides configuration management for chartpack.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//   - Validation before a pipeline run
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// HP drain 8, overall difficulty 9
//	// Archives saved under ./downloads
//	// No song_path, so nothing is mirrored
//
// # Loading from File
//
//	settings, err := config.Load("config/settings.json")
//	// A missing file is created with defaults.
//
// The file format follows the extension: ".yaml" and ".yml" use YAML,
// anything else JSON.
//
// # Saving Settings
//
//	settings.SongPath = "/games/osu/Songs"
//	err := settings.Save("config/settings.json")
//
// Settings are read once per run and passed by value into the pipeline; nothing
// in this package is global.
package config
