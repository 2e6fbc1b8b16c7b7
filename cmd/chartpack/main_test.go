package main

import (
	"path/filepath"
	"testing"

	"github.com/handiism/chartpack/internal/config"
	"github.com/handiism/chartpack/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildJobs(t *testing.T) {
	jobs, err := buildJobs([]string{"https://a/One.zip", "https://b/Two.zip"}, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, model.PackID(1), jobs[0].PackID)
	assert.Equal(t, model.PackID(2), jobs[1].PackID)
	assert.Equal(t, "https://b/Two.zip", jobs[1].URL)

	jobs, err = buildJobs([]string{"https://a/One.zip", "https://b/Two.zip"}, []uint{412, 97})
	require.NoError(t, err)
	assert.Equal(t, model.PackID(412), jobs[0].PackID)
	assert.Equal(t, model.PackID(97), jobs[1].PackID)

	_, err = buildJobs([]string{"https://a/One.zip"}, []uint{1, 2})
	assert.Error(t, err)

	_, err = buildJobs([]string{"https://a/One.zip", "https://b/Two.zip"}, []uint{5, 5})
	assert.Error(t, err)
}

func TestSetSetting(t *testing.T) {
	s := config.DefaultSettings()

	require.NoError(t, setSetting(s, "hp_drain_rate", "7.5"))
	require.NoError(t, setSetting(s, "max_concurrent_packs", "4"))
	require.NoError(t, setSetting(s, "song_path", "/games/Songs"))

	assert.Equal(t, 7.5, s.HPDrainRate)
	assert.Equal(t, 4, s.MaxConcurrentPacks)
	assert.Equal(t, "/games/Songs", s.SongPath)

	assert.Error(t, setSetting(s, "request_timeout", "soon"))
	assert.Error(t, setSetting(s, "nope", "1"))
}

func TestOverlay_EnvOverridesFile(t *testing.T) {
	t.Setenv("CHARTPACK_SONG_PATH", "/env/Songs")
	t.Setenv("CHARTPACK_MAX_CONCURRENT_PACKS", "6")

	v := viper.New()
	v.SetEnvPrefix("CHARTPACK")
	v.AutomaticEnv()
	o := &settingsOverlay{v: v}

	s := config.DefaultSettings()
	require.NoError(t, o.apply(s))

	assert.Equal(t, "/env/Songs", s.SongPath)
	assert.Equal(t, 6, s.MaxConcurrentPacks)
	assert.Equal(t, ".sm", s.ChartExtension)
}

func TestOverlay_BadEnvValue(t *testing.T) {
	t.Setenv("CHARTPACK_REQUEST_TIMEOUT", "later")

	v := viper.New()
	v.SetEnvPrefix("CHARTPACK")
	v.AutomaticEnv()

	err := (&settingsOverlay{v: v}).apply(config.DefaultSettings())
	assert.ErrorContains(t, err, "request_timeout")
}

func TestSaveSetting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	require.NoError(t, saveSetting(path, "song_path", "/games/Songs"))
	require.NoError(t, saveSetting(path, "overall_difficulty", "8"))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/games/Songs", s.SongPath)
	assert.Equal(t, 8.0, s.OverallDifficulty)

	assert.Error(t, saveSetting(path, "max_concurrent_packs", "0"))
	s, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.MaxConcurrentPacks)
}
