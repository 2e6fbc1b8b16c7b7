package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/handiism/chartpack/internal/convert"
	"github.com/handiism/chartpack/internal/download"
	"github.com/handiism/chartpack/internal/model"
	"github.com/spf13/cobra"
)

var fetchPackIDs []uint

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>...",
	Short: "Download, extract and convert chart packs",
	Long: `Download one or more chart packs, extract them, convert every chart
and mirror the song folders into the configured song path.

Packs run concurrently, at most max_concurrent_packs at a time. A failing
pack does not stop the others; the command exits with status 1 when any
pack failed.`,
	Example: `  chartpack fetch https://example.com/packs/Pack.zip
  chartpack fetch --pack-id 412 --pack-id 97 https://a/One.zip https://b/Two.zip`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().UintSliceVar(&fetchPackIDs, "pack-id", nil, "pack id for each URL, in order (default 1..n)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	jobs, err := buildJobs(args, fetchPackIDs)
	if err != nil {
		return err
	}

	logger := newLogger()
	progress := newStageLogger(logger)
	pipeline := download.NewPipeline(download.ConfigFromSettings(settings), download.Options{
		Logger:     logger,
		OnProgress: progress.onProgress,
	})

	logger.Info("starting", "packs", len(jobs), "downloads", settings.DownloadsDir())

	results, err := pipeline.RunAll(cmd.Context(), jobs)
	if err != nil {
		return err
	}

	report(logger, results)

	if n := download.Failed(results); n > 0 {
		return fmt.Errorf("%d of %d packs failed", n, len(results))
	}
	return nil
}

// buildJobs pairs URLs with pack ids. Without ids, packs are numbered from 1.
func buildJobs(urls []string, ids []uint) ([]download.Job, error) {
	if len(ids) > 0 && len(ids) != len(urls) {
		return nil, fmt.Errorf("got %d --pack-id values for %d URLs", len(ids), len(urls))
	}

	seen := make(map[model.PackID]bool, len(urls))
	jobs := make([]download.Job, 0, len(urls))
	for i, u := range urls {
		id := model.PackID(i + 1)
		if len(ids) > 0 {
			id = model.PackID(ids[i])
		}
		if seen[id] {
			return nil, fmt.Errorf("pack id %d used twice", id)
		}
		seen[id] = true
		jobs = append(jobs, download.Job{URL: u, PackID: id})
	}
	return jobs, nil
}

// stageLogger turns progress events into one log line per stage change.
// Byte progress is logged at debug level.
type stageLogger struct {
	logger *log.Logger

	mu     sync.Mutex
	stages map[model.PackID]model.Stage
}

func newStageLogger(logger *log.Logger) *stageLogger {
	return &stageLogger{logger: logger, stages: make(map[model.PackID]model.Stage)}
}

func (s *stageLogger) onProgress(e model.ProgressEvent) {
	s.mu.Lock()
	prev, seen := s.stages[e.PackID]
	s.stages[e.PackID] = e.Stage
	s.mu.Unlock()

	if !seen || prev != e.Stage {
		s.logger.Info(string(e.Stage), "pack", e.PackID)
		return
	}
	if e.Stage == model.StageDownloading {
		s.logger.Debug("downloading", "pack", e.PackID,
			"mb", fmt.Sprintf("%.2f", float64(e.Downloaded)/1024/1024),
			"percent", fmt.Sprintf("%.0f", e.Percent()*100))
	}
}

func report(logger *log.Logger, results []download.JobResult) {
	for _, r := range results {
		if r.Err != nil {
			var stageErr *download.StageError
			if errors.As(r.Err, &stageErr) {
				logger.Error("pack failed", "pack", r.Job.PackID, "stage", stageErr.Stage, "err", stageErr.Err)
			} else {
				logger.Error("pack failed", "pack", r.Job.PackID, "err", r.Err)
			}
			continue
		}

		converted, failed, artifacts := convert.Summary(r.Result.Files)
		for _, f := range r.Result.Files {
			if !f.OK() {
				logger.Warn(f.String(), "pack", r.Job.PackID)
			}
		}
		logger.Info("pack done", "pack", r.Job.PackID,
			"charts", converted, "failed", failed, "artifacts", artifacts,
			"songs", len(r.Result.Songs), "mirrored", len(r.Result.Mirrored))
	}
}
