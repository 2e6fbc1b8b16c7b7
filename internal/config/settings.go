package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds all configuration options.
type Settings struct {
	// Conversion settings
	HPDrainRate       float64 `json:"hp_drain_rate" yaml:"hp_drain_rate"`
	OverallDifficulty float64 `json:"overall_difficulty" yaml:"overall_difficulty"`
	ChartExtension    string  `json:"chart_extension" yaml:"chart_extension"`
	ArtifactExtension string  `json:"artifact_extension" yaml:"artifact_extension"`

	// Destination settings
	SongPath          string `json:"song_path" yaml:"song_path"`
	WorkDir           string `json:"work_dir" yaml:"work_dir"`
	BackgroundMaxSize int    `json:"background_max_size" yaml:"background_max_size"`

	// Network settings
	Origin             string `json:"origin" yaml:"origin"`
	CatalogURL         string `json:"catalog_url" yaml:"catalog_url"`
	RequestTimeout     int    `json:"request_timeout" yaml:"request_timeout"` // seconds, 0 = none
	MaxConcurrentPacks int    `json:"max_concurrent_packs" yaml:"max_concurrent_packs"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	workDir, _ := os.Getwd()
	return &Settings{
		HPDrainRate:       8.0,
		OverallDifficulty: 9.0,
		ChartExtension:    ".sm",
		ArtifactExtension: "osu",

		SongPath:          "",
		WorkDir:           workDir,
		BackgroundMaxSize: 0,

		Origin:             "https://etternaonline.com",
		CatalogURL:         "https://api.etternaonline.com/api/packs",
		RequestTimeout:     0,
		MaxConcurrentPacks: 2,
	}
}

// DefaultPath returns config/settings.json under the current directory.
func DefaultPath() string {
	dir, _ := os.Getwd()
	return filepath.Join(dir, "config", "settings.json")
}

// Load reads settings from a JSON or YAML file.
//
// A missing file yields defaults, which are written to path so the user has a
// file to edit. Keys absent from the file keep their default values.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			settings := DefaultSettings()
			if err := settings.Save(path); err != nil {
				return nil, err
			}
			return settings, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON or YAML file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks values that would make a run fail in a confusing way.
func (s *Settings) Validate() error {
	if !strings.HasPrefix(s.ChartExtension, ".") || len(s.ChartExtension) < 2 {
		return fmt.Errorf("config: chart_extension must look like \".sm\", got %q", s.ChartExtension)
	}
	if strings.TrimPrefix(s.ArtifactExtension, ".") == "" {
		return errors.New("config: artifact_extension is required")
	}
	if s.RequestTimeout < 0 {
		return errors.New("config: request_timeout must not be negative")
	}
	if s.MaxConcurrentPacks <= 0 {
		return errors.New("config: max_concurrent_packs must be positive")
	}
	if s.BackgroundMaxSize < 0 {
		return errors.New("config: background_max_size must not be negative")
	}
	return nil
}

// DownloadsDir returns the directory archives are saved to.
func (s *Settings) DownloadsDir() string {
	return filepath.Join(s.WorkDir, "downloads")
}

// Timeout returns RequestTimeout as a duration.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
