package download

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/handiism/chartpack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

const simfile = `#TITLE:Song;
#ARTIST:Someone;
#MUSIC:song.ogg;
#BPMS:0=120;
#NOTES:dance-single::Hard:8::
1000
0100
0010
0001
;
`

// taggedMP3 returns the bytes of a file carrying only an ID3 title and artist.
func taggedMP3(t *testing.T, title, artist string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0644))

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	tag.SetTitle(title)
	tag.SetArtist(artist)
	require.NoError(t, tag.Save())
	require.NoError(t, tag.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// packServer serves each archive under /packs/{name}. Other paths are 404.
func packServer(t *testing.T, archives map[string][]byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		data, ok := archives[filepath.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

type recorder struct {
	mu     sync.Mutex
	events []model.ProgressEvent
}

func (r *recorder) record(e model.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) stageEvents(stage model.Stage) []model.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProgressEvent
	for _, e := range r.events {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

func testConfig(t *testing.T) Config {
	return Config{
		DownloadsDir:      filepath.Join(t.TempDir(), "downloads"),
		ChartExtension:    ".sm",
		ArtifactExtension: "osu",
		HPDrainRate:       8,
		OverallDifficulty: 9,
		SongPath:          filepath.Join(t.TempDir(), "songs"),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	pack := zipBytes(t, map[string]string{
		"Pack/Song A/chart.sm": simfile,
		"Pack/Song A/song.ogg": "ogg",
		"Pack/Song B/chart.sm": simfile,
		"Pack/readme.txt":      "hello",
	})
	srv, _ := packServer(t, map[string][]byte{"Pack.zip": pack})

	cfg := testConfig(t)
	rec := &recorder{}
	p := NewPipeline(cfg, Options{OnProgress: rec.record})

	res, err := p.Run(context.Background(), srv.URL+"/packs/Pack.zip?token=abc", 7)
	require.NoError(t, err)

	assert.Equal(t, model.PackID(7), res.PackID)
	assert.Equal(t, filepath.Join(cfg.DownloadsDir, "Pack.zip"), res.ArchivePath)
	assert.Equal(t, filepath.Join(cfg.DownloadsDir, "Pack"), res.WorkDir)

	require.Len(t, res.Files, 2)
	for _, f := range res.Files {
		assert.True(t, f.OK(), "%v", f)
		assert.Len(t, f.Written, 1)
	}
	assert.FileExists(t, filepath.Join(res.WorkDir, "Pack", "Song A", "chart - Hard.osu"))
	assert.FileExists(t, filepath.Join(res.WorkDir, "Pack", "Song B", "chart - Hard.osu"))

	require.Len(t, res.Songs, 2)
	assert.Equal(t, "song.ogg", res.Songs[0].Audio)

	assert.Equal(t, []string{
		filepath.Join(cfg.SongPath, "Song A"),
		filepath.Join(cfg.SongPath, "Song B"),
	}, res.Mirrored)
	assert.FileExists(t, filepath.Join(cfg.SongPath, "Song A", "chart - Hard.osu"))
	assert.FileExists(t, filepath.Join(cfg.SongPath, "Song A", "song.ogg"))
	assert.NoFileExists(t, filepath.Join(cfg.SongPath, "readme.txt"))

	downloading := rec.stageEvents(model.StageDownloading)
	require.NotEmpty(t, downloading)
	assert.Equal(t, model.ProgressEvent{PackID: 7, Stage: model.StageDownloading}, downloading[0])
	for i := 1; i < len(downloading); i++ {
		assert.GreaterOrEqual(t, downloading[i].Downloaded, downloading[i-1].Downloaded)
	}
	last := downloading[len(downloading)-1]
	assert.Equal(t, uint64(len(pack)), last.Downloaded)
	assert.Equal(t, last.Downloaded, last.Total)

	for _, stage := range []model.Stage{model.StageExtracting, model.StageConverting} {
		events := rec.stageEvents(stage)
		require.Len(t, events, 1, stage)
		assert.Equal(t, uint64(100), events[0].Downloaded)
		assert.Equal(t, uint64(100), events[0].Total)
	}
	assert.Empty(t, rec.stageEvents(model.StageDone))
}

func TestRun_WithoutSongPath(t *testing.T) {
	srv, _ := packServer(t, map[string][]byte{
		"Pack.zip": zipBytes(t, map[string]string{"Pack/Song/chart.sm": simfile}),
	})

	cfg := testConfig(t)
	cfg.SongPath = ""
	res, err := NewPipeline(cfg, Options{}).Run(context.Background(), srv.URL+"/packs/Pack.zip", 1)
	require.NoError(t, err)
	assert.Empty(t, res.Mirrored)
	assert.Len(t, res.Files, 1)
}

func TestRun_AudioTagsFillMissingChartMetadata(t *testing.T) {
	untitled := `#MUSIC:song.mp3;
#BPMS:0=120;
#NOTES:dance-single::Hard:8::1000;
`
	srv, _ := packServer(t, map[string][]byte{
		"Pack.zip": zipBytes(t, map[string]string{
			"Pack/Song/chart.sm": untitled,
			"Pack/Song/song.mp3": taggedMP3(t, "Tag Title", "Tag Artist"),
		}),
	})

	cfg := testConfig(t)
	cfg.SongPath = ""
	res, err := NewPipeline(cfg, Options{}).Run(context.Background(), srv.URL+"/packs/Pack.zip", 1)
	require.NoError(t, err)

	require.Len(t, res.Songs, 1)
	assert.Equal(t, "Tag Title", res.Songs[0].Title)

	require.Len(t, res.Files, 1)
	require.Len(t, res.Files[0].Written, 1)
	data, err := os.ReadFile(res.Files[0].Written[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Title:Tag Title\n")
	assert.Contains(t, string(data), "Artist:Tag Artist\n")
}

func TestRun_NoCharts(t *testing.T) {
	srv, _ := packServer(t, map[string][]byte{
		"Empty.zip": zipBytes(t, map[string]string{"Empty/readme.txt": "nothing here"}),
	})

	cfg := testConfig(t)
	res, err := NewPipeline(cfg, Options{}).Run(context.Background(), srv.URL+"/packs/Empty.zip", 1)
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	assert.Empty(t, res.Mirrored)
}

func TestRun_BadChartDoesNotFailRun(t *testing.T) {
	srv, _ := packServer(t, map[string][]byte{
		"Pack.zip": zipBytes(t, map[string]string{
			"Pack/Good/chart.sm":   simfile,
			"Pack/Broken/chart.sm": "#TITLE:no notes;",
		}),
	})

	res, err := NewPipeline(testConfig(t), Options{}).Run(context.Background(), srv.URL+"/packs/Pack.zip", 1)
	require.NoError(t, err)
	require.Len(t, res.Files, 2)

	// Walk order is lexical: Broken before Good.
	assert.True(t, model.IsKind(res.Files[0].Err, model.KindCodec), "err = %v", res.Files[0].Err)
	assert.True(t, res.Files[1].OK())
	assert.Len(t, res.Mirrored, 2)
}

func TestRun_StageErrors(t *testing.T) {
	srv, _ := packServer(t, map[string][]byte{
		"Corrupt.zip": []byte("this is not a zip archive"),
		"Pack.zip":    zipBytes(t, map[string]string{"Pack/Song/chart.sm": simfile}),
	})

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	tests := []struct {
		name      string
		url       string
		songPath  string
		wantStage model.Stage
		wantKind  model.Kind
	}{
		{"malformed url", "not a url", "", model.StageDownloading, model.KindURL},
		{"missing archive", srv.URL + "/packs/Missing.zip", "", model.StageDownloading, model.KindHTTPStatus},
		{"corrupt archive", srv.URL + "/packs/Corrupt.zip", "", model.StageExtracting, model.KindArchive},
		{"unusable song path", srv.URL + "/packs/Pack.zip", filepath.Join(blocker, "songs"), model.StageConverting, model.KindConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.SongPath = tt.songPath
			rec := &recorder{}

			res, err := NewPipeline(cfg, Options{OnProgress: rec.record}).Run(context.Background(), tt.url, 3)
			assert.Nil(t, res)

			var serr *StageError
			require.True(t, errors.As(err, &serr), "err = %v", err)
			assert.Equal(t, tt.wantStage, serr.Stage)
			assert.True(t, model.IsKind(err, tt.wantKind), "err = %v", err)
			assert.Contains(t, err.Error(), string(tt.wantStage))

			if tt.wantStage == model.StageDownloading {
				assert.Empty(t, rec.stageEvents(model.StageExtracting))
			}
		})
	}
}

func TestRun_MirrorBucket(t *testing.T) {
	srv, _ := packServer(t, map[string][]byte{
		"Pack.zip": zipBytes(t, map[string]string{"Pack/Song/chart.sm": simfile}),
	})
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	cfg := testConfig(t)
	cfg.SongPath = ""
	res, err := NewPipeline(cfg, Options{MirrorBucket: bucket}).Run(context.Background(), srv.URL+"/packs/Pack.zip", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Song/"}, res.Mirrored)

	ok, err := bucket.Exists(context.Background(), "Song/chart - Hard.osu")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunAll(t *testing.T) {
	srv, hits := packServer(t, map[string][]byte{
		"One.zip": zipBytes(t, map[string]string{"One/Song 1/chart.sm": simfile}),
		"Two.zip": zipBytes(t, map[string]string{"Two/Song 2/chart.sm": simfile}),
	})

	cfg := testConfig(t)
	cfg.MaxConcurrentPacks = 2
	rec := &recorder{}
	p := NewPipeline(cfg, Options{OnProgress: rec.record})

	results, err := p.RunAll(context.Background(), []Job{
		{URL: srv.URL + "/packs/One.zip", PackID: 1},
		{URL: srv.URL + "/packs/Missing.zip", PackID: 2},
		{URL: srv.URL + "/packs/Two.zip", PackID: 3},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, int32(3), hits.Load())

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Result)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 1, Failed(results))

	assert.Equal(t, model.PackID(3), results[2].Result.PackID)
	assert.DirExists(t, filepath.Join(cfg.SongPath, "Song 1"))
	assert.DirExists(t, filepath.Join(cfg.SongPath, "Song 2"))

	byPack := map[model.PackID]int{}
	for _, e := range rec.events {
		byPack[e.PackID]++
	}
	assert.Len(t, byPack, 3)
}

func TestRunAll_RejectsDuplicateArchiveNames(t *testing.T) {
	srv, hits := packServer(t, nil)

	_, err := NewPipeline(testConfig(t), Options{}).RunAll(context.Background(), []Job{
		{URL: srv.URL + "/a/Pack.zip", PackID: 1},
		{URL: srv.URL + "/b/Pack.zip?mirror=2", PackID: 2},
	})
	assert.ErrorIs(t, err, ErrDuplicateArchive)
	assert.Equal(t, int32(0), hits.Load())
}

func TestRunAll_RejectsJobsSharingAWorkingDirectory(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"percent-encoded and plain name", "/a/Pack%20One.zip", "/b/Pack One.zip"},
		{"extension case", "/a/Pack.zip", "/b/Pack.ZIP"},
		{"other archive type", "/a/Pack.zip", "/b/Pack.7z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := packServer(t, nil)

			_, err := NewPipeline(testConfig(t), Options{}).RunAll(context.Background(), []Job{
				{URL: srv.URL + tt.a, PackID: 1},
				{URL: srv.URL + tt.b, PackID: 2},
			})
			assert.ErrorIs(t, err, ErrDuplicateArchive)
			assert.Equal(t, int32(0), hits.Load())
		})
	}
}

func TestRun_ArchiveWithoutExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipBytes(t, map[string]string{"Song/chart.sm": simfile}))
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(t)
	res, err := NewPipeline(cfg, Options{}).Run(context.Background(), srv.URL+"/packs/download?id=5", 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.DownloadsDir, "download"), res.ArchivePath)
	assert.Equal(t, filepath.Join(cfg.DownloadsDir, "download.d"), res.WorkDir)
	assert.Len(t, res.Files, 1)
}

func TestIsAllowedTransition(t *testing.T) {
	stages := []model.Stage{"", model.StageDownloading, model.StageExtracting, model.StageConverting, model.StageDone}
	for i, from := range stages {
		for j, to := range stages {
			want := j == i+1
			assert.Equal(t, want, isAllowedTransition(from, to), "%q -> %q", from, to)
		}
	}
}

func TestRunState_FailedRunCannotAdvance(t *testing.T) {
	var s runState
	require.NoError(t, s.advance(model.StageDownloading))

	serr := s.fail(errors.New("boom"))
	assert.Equal(t, model.StageDownloading, serr.Stage)
	assert.EqualError(t, serr, "downloading failed: boom")
	assert.Error(t, s.advance(model.StageExtracting))
}
