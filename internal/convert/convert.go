package convert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	ioutils "github.com/handiism/chartpack/internal/io"
	"github.com/handiism/chartpack/internal/model"
)

// Codec converts one chart source file into zero or more artifacts.
type Codec interface {
	Convert(raw []byte) ([]model.Artifact, error)
}

// CodecFunc adapts a function to the Codec interface.
type CodecFunc func(raw []byte) ([]model.Artifact, error)

// Convert calls f(raw).
func (f CodecFunc) Convert(raw []byte) ([]model.Artifact, error) {
	return f(raw)
}

// FileResult records what happened to one chart source file.
type FileResult struct {
	// Source is the chart source path.
	Source string

	// Written lists the artifact paths that were saved.
	Written []string

	// Err is set when the source could not be read or converted. No artifacts
	// were attempted in that case.
	Err error

	// WriteErrs holds one error per artifact that could not be saved.
	WriteErrs []error
}

// OK reports whether the file converted and every artifact was written.
func (r FileResult) OK() bool {
	return r.Err == nil && len(r.WriteErrs) == 0
}

// Failure joins Err and WriteErrs, or returns nil when r is OK.
func (r FileResult) Failure() error {
	if r.OK() {
		return nil
	}
	return errors.Join(append([]error{r.Err}, r.WriteErrs...)...)
}

// TaggedCodec is a Codec that can fill missing chart metadata from the tags
// of the song directory the chart lives in.
type TaggedCodec interface {
	Codec
	ConvertTagged(raw []byte, tags model.SongTags) ([]model.Artifact, error)
}

// Converter runs a Codec over chart source files and saves the artifacts
// beside each source as "{base} - {variant}.{ext}".
type Converter struct {
	codec  Codec
	ext    string
	logger *log.Logger
}

// NewConverter creates a Converter writing artifacts with extension ext.
// A nil logger discards output.
func NewConverter(codec Codec, ext string, logger *log.Logger) *Converter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Converter{codec: codec, ext: ext, logger: logger}
}

// ConvertAll converts files one at a time, in order.
//
// A failure on one file is recorded in its FileResult and never stops the
// batch. The returned slice has one entry per input, in input order.
func (c *Converter) ConvertAll(files []string) []FileResult {
	return c.ConvertAllTagged(files, nil)
}

// ConvertAllTagged is ConvertAll with song tags keyed by directory. A file
// whose directory has tags hands them to a TaggedCodec; other codecs ignore
// them.
func (c *Converter) ConvertAllTagged(files []string, tags map[string]model.SongTags) []FileResult {
	results := make([]FileResult, 0, len(files))
	for _, file := range files {
		t, ok := tags[filepath.Dir(file)]
		results = append(results, c.convert(file, t, ok))
	}
	return results
}

// ConvertFile converts a single chart source file.
func (c *Converter) ConvertFile(path string) FileResult {
	return c.convert(path, model.SongTags{}, false)
}

func (c *Converter) convert(path string, tags model.SongTags, tagged bool) FileResult {
	result := FileResult{Source: path}
	c.logger.Debug("processing chart", "path", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		result.Err = model.PathError(model.KindIO, path, err)
		c.logger.Error("read chart", "path", path, "err", err)
		return result
	}

	var artifacts []model.Artifact
	if tc, ok := c.codec.(TaggedCodec); ok && tagged {
		artifacts, err = tc.ConvertTagged(raw, tags)
	} else {
		artifacts, err = c.codec.Convert(raw)
	}
	if err != nil {
		result.Err = &model.Error{Kind: model.KindCodec, Path: path, Err: err}
		c.logger.Error("convert chart", "path", path, "err", err)
		return result
	}
	c.logger.Info("converted chart", "path", path, "variants", len(artifacts))

	dir := filepath.Dir(path)
	for _, artifact := range artifacts {
		variant := ioutils.SanitizeFileName(artifact.Variant)
		if variant == "" {
			variant = "Unknown"
		}
		out := filepath.Join(dir, model.ArtifactName(path, variant, c.ext))

		if err := ioutils.WriteFile(out, artifact.Data); err != nil {
			result.WriteErrs = append(result.WriteErrs, model.PathError(model.KindIO, out, err))
			c.logger.Error("save artifact", "path", out, "err", err)
			continue
		}
		result.Written = append(result.Written, out)
		c.logger.Debug("saved artifact", "path", out)
	}

	return result
}

// Summary counts results for logging.
func Summary(results []FileResult) (converted, failed, artifacts int) {
	for _, r := range results {
		if r.OK() {
			converted++
		} else {
			failed++
		}
		artifacts += len(r.Written)
	}
	return converted, failed, artifacts
}

// String formats the result for a one-line report.
func (r FileResult) String() string {
	if r.OK() {
		return fmt.Sprintf("%s: %d artifact(s)", r.Source, len(r.Written))
	}
	return fmt.Sprintf("%s: %v", r.Source, r.Failure())
}
