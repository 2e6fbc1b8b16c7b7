package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/handiism/chartpack/internal/model"
)

// DefaultOrigin is the Origin header the pack host expects.
const DefaultOrigin = "https://etternaonline.com"

const (
	// ProgressStep emits a progress update whenever the byte count is an exact multiple of it.
	ProgressStep = 100 * 1024

	// ProgressInterval emits a progress update when this much time passed since the last one.
	ProgressInterval = 500 * time.Millisecond

	chunkSize = 32 * 1024
)

// Options configures the HTTP client.
type Options struct {
	// Origin is sent as the Origin header. Default: DefaultOrigin
	Origin string

	// UserAgent is sent as the User-Agent header. Default: "chartpack"
	UserAgent string

	// Timeout for a whole request including the body. Zero means none.
	Timeout time.Duration

	// Logger receives download diagnostics. Default: discard
	Logger *log.Logger
}

// Client wraps HTTP operations with the headers the pack host requires.
//
// Client provides:
//   - Accept and Origin headers on every request
//   - Streaming file download with throttled progress
//   - JSON GET for the catalog API
//
// Example usage:
//
//	client := NewClient(Options{})
//
//	path, size, err := client.Download(ctx, packURL, "downloads", func(written, total int64) {
//	    fmt.Printf("%d / %d\n", written, total)
//	})
type Client struct {
	httpClient *http.Client
	origin     string
	userAgent  string
	logger     *log.Logger
	now        func() time.Time
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts Options) *Client {
	if opts.Origin == "" {
		opts.Origin = DefaultOrigin
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "chartpack"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		origin:    opts.Origin,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
		now:       time.Now,
	}
}

// ProgressWriter wraps a writer to track download progress.
//
// OnUpdate fires after a Write when Written is an exact multiple of Step, or
// when Interval has elapsed since the previous update, whichever comes first.
// Flush forces a final update.
//
// Example:
//
//	pw := NewProgressWriter(file, contentLength, func(written, total int64) {
//	    fmt.Printf("%d / %d bytes\n", written, total)
//	})
//	io.Copy(pw, response.Body)
//	pw.Flush()
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header), 0 if unknown.
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// Step and Interval control how often OnUpdate fires.
	Step     int64
	Interval time.Duration

	// OnUpdate is called with (bytesWritten, totalExpected).
	OnUpdate func(written, total int64)

	now      func() time.Time
	lastEmit time.Time
}

// NewProgressWriter returns a ProgressWriter using ProgressStep and ProgressInterval.
func NewProgressWriter(w io.Writer, total int64, onUpdate func(written, total int64)) *ProgressWriter {
	return newProgressWriter(w, total, onUpdate, time.Now)
}

func newProgressWriter(w io.Writer, total int64, onUpdate func(written, total int64), now func() time.Time) *ProgressWriter {
	if total < 0 {
		total = 0
	}
	return &ProgressWriter{
		Writer:   w,
		Total:    total,
		Step:     ProgressStep,
		Interval: ProgressInterval,
		OnUpdate: onUpdate,
		now:      now,
		lastEmit: now(),
	}
}

// Write implements io.Writer, tracking progress and calling OnUpdate when due.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if n > 0 && pw.OnUpdate != nil {
		now := pw.now()
		if (pw.Step > 0 && pw.Written%pw.Step == 0) || now.Sub(pw.lastEmit) >= pw.Interval {
			pw.OnUpdate(pw.Written, pw.Total)
			pw.lastEmit = now
		}
	}
	return n, err
}

// Flush reports the final count, using it as the total as well.
func (pw *ProgressWriter) Flush() {
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Written)
	}
}

// ParseURL checks that raw is an absolute http or https URL.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, model.NewError(model.KindURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, model.NewError(model.KindURL, fmt.Errorf("%q is not an absolute http(s) URL", raw))
	}
	return u, nil
}

// ArchivePath returns the file Download would write rawURL to inside destDir.
// The name is taken from the decoded path, so "Pack%20One.zip" and
// "Pack One.zip" map to the same file.
func ArchivePath(destDir, rawURL string) (string, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return "", err
	}
	return archivePath(destDir, u), nil
}

func archivePath(destDir string, u *url.URL) string {
	return filepath.Join(destDir, model.ArchiveNameFromURL(u.Path))
}

// Get performs a GET request and returns the response body as bytes.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewError(model.KindConnection, err)
	}
	return body, nil
}

// GetJSON performs a GET request and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// Download streams rawURL into destDir and returns the file path and byte count.
//
// The file name is the decoded URL's final path segment (see ArchivePath).
// destDir is created if missing. The body is appended to the file chunk by
// chunk; a failure leaves whatever was written on disk.
//
// onProgress may be nil. It receives throttled updates (see ProgressWriter)
// and always one final update with written == total.
//
// Errors are *model.Error with KindURL, KindConnection, KindHTTPStatus or KindIO.
func (c *Client) Download(ctx context.Context, rawURL, destDir string, onProgress func(written, total int64)) (path string, total int64, err error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return "", 0, err
	}

	c.logger.Debug("sending request", "url", rawURL)
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", 0, model.PathError(model.KindIO, destDir, err)
	}
	path = archivePath(destDir, u)
	c.logger.Info("saving archive", "path", path, "size", resp.ContentLength)

	file, err := os.Create(path)
	if err != nil {
		return "", 0, model.PathError(model.KindIO, path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = model.PathError(model.KindIO, path, closeErr)
		}
	}()

	pw := newProgressWriter(file, resp.ContentLength, onProgress, c.now)
	buf := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := pw.Write(buf[:n]); err != nil {
				return "", pw.Written, model.PathError(model.KindIO, path, err)
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return "", pw.Written, model.NewError(model.KindConnection, fmt.Errorf("read body: %w", readErr))
		}
	}
	pw.Flush()

	if err := file.Sync(); err != nil {
		return "", pw.Written, model.PathError(model.KindIO, path, err)
	}

	c.logger.Info("archive saved", "path", path, "mb", fmt.Sprintf("%.2f", float64(pw.Written)/1024/1024))
	return path, pw.Written, nil
}

// do sends a GET with the client's headers and rejects non-2xx responses.
func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, model.NewError(model.KindURL, err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Origin", c.origin)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewError(model.KindConnection, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		c.logger.Warn("unexpected status", "url", rawURL, "status", resp.Status)
		return nil, model.StatusError(resp.StatusCode)
	}
	return resp, nil
}
