// Package download runs the pack acquisition pipeline.
//
// # Pipeline
//
// A run takes one archive URL through three stages:
//
//  1. downloading: stream the archive to {downloads}/{name}
//  2. extracting: unpack it into {downloads}/{name without extension}
//  3. converting: locate chart sources, convert each one, inspect the song
//     directories and mirror them to the song library
//
// # Basic Usage
//
//	p := download.NewPipeline(download.ConfigFromSettings(settings), download.Options{
//	    Logger: logger,
//	    OnProgress: func(e model.ProgressEvent) {
//	        fmt.Printf("%s %d/%d\n", e.Stage, e.Downloaded, e.Total)
//	    },
//	})
//
//	res, err := p.Run(ctx, "https://example.com/packs/Pack.zip", 412)
//	var serr *download.StageError
//	if errors.As(err, &serr) {
//	    fmt.Println("failed while", serr.Stage)
//	}
//
// # Concurrency
//
// RunAll runs independent packs in parallel, limited by
// Config.MaxConcurrentPacks. Each run owns its archive and working directory;
// RunAll rejects a batch in which two URLs map to the same archive name.
//
// # Failure Handling
//
// Nothing is retried. Download, extraction, chart discovery and mirroring
// failures end the run. A chart that fails to convert only marks its own
// convert.FileResult. Partial files from a failed run are left on disk.
package download
