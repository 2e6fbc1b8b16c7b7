package main

import (
	"fmt"
	"strconv"

	"github.com/handiism/chartpack/internal/config"
	"github.com/spf13/pflag"
)

// settingKeys lists the keys accepted by the overlay and by "settings set".
var settingKeys = []string{
	"hp_drain_rate",
	"overall_difficulty",
	"chart_extension",
	"artifact_extension",
	"song_path",
	"work_dir",
	"background_max_size",
	"origin",
	"catalog_url",
	"request_timeout",
	"max_concurrent_packs",
}

func (o *settingsOverlay) bindFlag(key string, flag *pflag.Flag) {
	if flag == nil {
		panic("chartpack: missing flag for " + key)
	}
	if err := o.v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// apply copies every key set by a flag or an environment variable into s.
func (o *settingsOverlay) apply(s *config.Settings) error {
	for _, key := range settingKeys {
		if !o.v.IsSet(key) {
			continue
		}
		if err := setSetting(s, key, o.v.GetString(key)); err != nil {
			return err
		}
	}
	return nil
}

// setSetting parses value into the field named by key.
func setSetting(s *config.Settings, key, value string) error {
	var err error
	switch key {
	case "hp_drain_rate":
		s.HPDrainRate, err = strconv.ParseFloat(value, 64)
	case "overall_difficulty":
		s.OverallDifficulty, err = strconv.ParseFloat(value, 64)
	case "chart_extension":
		s.ChartExtension = value
	case "artifact_extension":
		s.ArtifactExtension = value
	case "song_path":
		s.SongPath = value
	case "work_dir":
		s.WorkDir = value
	case "background_max_size":
		s.BackgroundMaxSize, err = strconv.Atoi(value)
	case "origin":
		s.Origin = value
	case "catalog_url":
		s.CatalogURL = value
	case "request_timeout":
		s.RequestTimeout, err = strconv.Atoi(value)
	case "max_concurrent_packs":
		s.MaxConcurrentPacks, err = strconv.Atoi(value)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}
