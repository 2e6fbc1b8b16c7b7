package download

import (
	"context"
	"errors"
	"fmt"

	chttp "github.com/handiism/chartpack/internal/http"
	"github.com/handiism/chartpack/internal/model"
	"golang.org/x/sync/errgroup"
)

// ErrDuplicateArchive is returned by RunAll when two jobs would download to
// the same archive file or extract into the same working directory.
var ErrDuplicateArchive = errors.New("duplicate archive name")

// Job is one pack to run.
type Job struct {
	URL    string
	PackID model.PackID
}

// JobResult is the outcome of one Job. Exactly one of Result and Err is set.
type JobResult struct {
	Job    Job
	Result *Result
	Err    error
}

// RunAll runs jobs concurrently, at most Config.MaxConcurrentPacks at a time.
//
// A failing job does not stop the others. The returned slice is in job
// order. The only error RunAll itself returns is ErrDuplicateArchive, checked
// before anything is downloaded, because jobs sharing an archive or working
// directory would overwrite each other's files.
func (p *Pipeline) RunAll(ctx context.Context, jobs []Job) ([]JobResult, error) {
	seen := make(map[string]model.PackID, len(jobs))
	for _, job := range jobs {
		archivePath, err := chttp.ArchivePath(p.cfg.DownloadsDir, job.URL)
		if err != nil {
			continue // Run reports the bad URL for this job
		}
		for _, path := range []string{archivePath, model.WorkDirFor(archivePath)} {
			if other, ok := seen[path]; ok {
				return nil, fmt.Errorf("%w: packs %d and %d both write %q", ErrDuplicateArchive, other, job.PackID, path)
			}
		}
		seen[archivePath] = job.PackID
		seen[model.WorkDirFor(archivePath)] = job.PackID
	}

	results := make([]JobResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(p.cfg.MaxConcurrentPacks)

	for i, job := range jobs {
		g.Go(func() error {
			res, err := p.Run(ctx, job.URL, job.PackID)
			results[i] = JobResult{Job: job, Result: res, Err: err}
			return nil // Continue with other packs
		})
	}

	_ = g.Wait()
	return results, nil
}

// Failed counts the results that carry an error.
func Failed(results []JobResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
