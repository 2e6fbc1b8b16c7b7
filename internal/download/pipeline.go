package download

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/handiism/chartpack/internal/archive"
	"github.com/handiism/chartpack/internal/chart"
	"github.com/handiism/chartpack/internal/config"
	"github.com/handiism/chartpack/internal/convert"
	chttp "github.com/handiism/chartpack/internal/http"
	"github.com/handiism/chartpack/internal/mirror"
	"github.com/handiism/chartpack/internal/model"
	"github.com/handiism/chartpack/internal/song"
	"gocloud.dev/blob"
)

// Config holds everything a pipeline run reads from settings.
type Config struct {
	// DownloadsDir receives archives and their working directories.
	DownloadsDir string

	ChartExtension    string
	ArtifactExtension string

	HPDrainRate       float64
	OverallDifficulty float64

	// SongPath is the mirror root. Empty skips mirroring.
	SongPath string

	// BackgroundMaxSize bounds JPEG images in song directories. Zero disables it.
	BackgroundMaxSize int

	Origin             string
	Timeout            time.Duration
	MaxConcurrentPacks int
}

// ConfigFromSettings builds a Config from loaded settings.
func ConfigFromSettings(s *config.Settings) Config {
	return Config{
		DownloadsDir:       s.DownloadsDir(),
		ChartExtension:     s.ChartExtension,
		ArtifactExtension:  s.ArtifactExtension,
		HPDrainRate:        s.HPDrainRate,
		OverallDifficulty:  s.OverallDifficulty,
		SongPath:           s.SongPath,
		BackgroundMaxSize:  s.BackgroundMaxSize,
		Origin:             s.Origin,
		Timeout:            s.Timeout(),
		MaxConcurrentPacks: s.MaxConcurrentPacks,
	}
}

// Options holds the optional collaborators of a Pipeline.
type Options struct {
	// Logger receives run diagnostics. Default: discard
	Logger *log.Logger

	// OnProgress receives progress events. It is called from the goroutine
	// running the pack, so it must be safe for concurrent use with RunAll.
	OnProgress model.ProgressFunc

	// Codec converts chart sources. Default: chart.Codec with the configured
	// HP drain rate and overall difficulty.
	Codec convert.Codec

	// HTTPClient downloads archives. Default: a client built from Config.
	HTTPClient *chttp.Client

	// MirrorBucket, when set, receives mirrored songs instead of SongPath.
	MirrorBucket *blob.Bucket
}

// Result is what a successful run produced.
type Result struct {
	PackID model.PackID

	// ArchivePath is the downloaded archive. Callers use it as the completion token.
	ArchivePath string
	WorkDir     string

	// Files has one entry per chart source, including the ones that failed.
	Files []convert.FileResult
	Songs []song.Info

	// Mirrored lists the mirror targets, empty when mirroring is off.
	Mirrored []string
}

// Pipeline downloads a chart pack, extracts it, converts its charts and
// mirrors the song directories.
//
// A Pipeline holds no per-run state and may run several packs at once.
type Pipeline struct {
	cfg        Config
	http       *chttp.Client
	converter  *convert.Converter
	preparer   *song.Preparer
	mirror     *mirror.Mirror
	logger     *log.Logger
	onProgress model.ProgressFunc
}

// NewPipeline creates a Pipeline.
func NewPipeline(cfg Config, opts Options) *Pipeline {
	if cfg.DownloadsDir == "" {
		cfg.DownloadsDir = "downloads"
	}
	if cfg.ChartExtension == "" {
		cfg.ChartExtension = ".sm"
	}
	if cfg.ArtifactExtension == "" {
		cfg.ArtifactExtension = "osu"
	}
	if cfg.MaxConcurrentPacks <= 0 {
		cfg.MaxConcurrentPacks = 1
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	codec := opts.Codec
	if codec == nil {
		codec = chart.NewCodec(cfg.HPDrainRate, cfg.OverallDifficulty)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = chttp.NewClient(chttp.Options{
			Origin:  cfg.Origin,
			Timeout: cfg.Timeout,
			Logger:  logger,
		})
	}

	return &Pipeline{
		cfg:        cfg,
		http:       httpClient,
		converter:  convert.NewConverter(codec, cfg.ArtifactExtension, logger),
		preparer:   song.NewPreparer(cfg.BackgroundMaxSize, logger),
		mirror:     mirror.New(mirror.Config{Root: cfg.SongPath, Bucket: opts.MirrorBucket, Logger: logger}),
		logger:     logger,
		onProgress: opts.OnProgress,
	}
}

// Run takes one pack from URL to converted, mirrored songs.
//
// Stages run strictly in order: downloading, extracting, converting. A stage
// failure ends the run with a *StageError naming the stage. Inside the
// converting stage a chart that fails to convert is recorded in Result.Files
// and does not fail the run; failing to locate charts or to mirror does.
//
// Progress starts with (0, 0) in the downloading stage, follows the byte
// count of the download and ends that stage with downloaded == total.
// Entering extracting and converting emits (100, 100) each.
func (p *Pipeline) Run(ctx context.Context, rawURL string, packID model.PackID) (*Result, error) {
	r := &run{
		Pipeline: p,
		packID:   packID,
		logger:   p.logger.With("pack", packID, "run", uuid.NewString()[:8]),
	}
	return r.execute(ctx, rawURL)
}

// run is the state of one Pipeline.Run call.
type run struct {
	*Pipeline
	packID model.PackID
	logger *log.Logger
	state  runState
}

func (r *run) execute(ctx context.Context, rawURL string) (*Result, error) {
	result := &Result{PackID: r.packID}
	start := time.Now()

	if err := r.enter(model.StageDownloading); err != nil {
		return nil, err
	}
	r.emit(0, 0)
	r.logger.Info("downloading pack", "url", rawURL)

	archivePath, size, err := r.http.Download(ctx, rawURL, r.cfg.DownloadsDir, func(written, total int64) {
		if total < 0 {
			total = 0
		}
		r.emit(uint64(written), uint64(total))
	})
	if err != nil {
		return nil, r.fail(err)
	}
	result.ArchivePath = archivePath

	if err := r.enter(model.StageExtracting); err != nil {
		return nil, err
	}
	r.emit(100, 100)
	r.logger.Info("extracting pack", "archive", archivePath, "bytes", size)

	workDir, err := archive.Extract(archivePath)
	if err != nil {
		return nil, r.fail(err)
	}
	result.WorkDir = workDir

	if err := r.enter(model.StageConverting); err != nil {
		return nil, err
	}
	r.emit(100, 100)

	files, dirs, err := convert.Locate(workDir, r.cfg.ChartExtension)
	if err != nil {
		return nil, r.fail(err)
	}
	r.logger.Info("converting charts", "files", len(files), "songs", len(dirs))

	result.Songs = r.preparer.PrepareAll(dirs)

	result.Files = r.converter.ConvertAllTagged(files, song.TagsByDir(result.Songs))
	converted, failed, artifacts := convert.Summary(result.Files)
	if failed > 0 {
		r.logger.Warn("some charts failed", "converted", converted, "failed", failed)
	}

	if r.mirror.Enabled() {
		r.logger.Info("mirroring songs", "root", r.cfg.SongPath, "dirs", len(dirs))
		mirrored, err := r.mirror.Mirror(ctx, dirs)
		result.Mirrored = mirrored
		if err != nil {
			return nil, r.fail(err)
		}
	}

	if err := r.enter(model.StageDone); err != nil {
		return nil, err
	}
	r.logger.Info("pack complete",
		"artifacts", artifacts,
		"mirrored", len(result.Mirrored),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return result, nil
}

func (r *run) enter(stage model.Stage) error {
	if err := r.state.advance(stage); err != nil {
		return fmt.Errorf("pack %d: %w", r.packID, err)
	}
	return nil
}

func (r *run) fail(err error) error {
	serr := r.state.fail(err)
	r.logger.Error("pack failed", "stage", serr.Stage, "err", err)
	return serr
}

func (r *run) emit(downloaded, total uint64) {
	r.onProgress.Emit(model.ProgressEvent{
		PackID:     r.packID,
		Downloaded: downloaded,
		Total:      total,
		Stage:      r.state.stage,
	})
}
