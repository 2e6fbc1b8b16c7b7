// Package http provides the HTTP client used to fetch chart packs and query the catalog.
//
// The Client in this package handles:
//   - Accept and Origin headers required by the pack host
//   - Streaming downloads straight to disk
//   - Throttled progress callbacks
//   - Classified errors (model.KindURL, KindConnection, KindHTTPStatus, KindIO)
//
// # Basic Usage
//
//	client := http.NewClient(http.Options{Origin: "https://etternaonline.com"})
//
//	path, size, err := client.Download(ctx, packURL, "downloads", func(written, total int64) {
//	    fmt.Printf("%d / %d\n", written, total)
//	})
//
// # Progress Tracking
//
// Updates fire after a chunk whose running total is a multiple of 100 KiB, or
// once 500 ms have passed since the previous update. A final update with
// written == total is always sent once the body ends. total is 0 in
// intermediate updates when the server sends no Content-Length.
//
// There is no retry: a failed request fails the download.
package http
