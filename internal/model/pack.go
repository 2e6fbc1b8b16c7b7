package model

import (
	"path/filepath"
	"strings"
)

// PackID identifies a pack within a pipeline run and keys its progress events.
//
// Uniqueness is the caller's responsibility.
type PackID uint64

// Stage is a step of the pack acquisition pipeline.
type Stage string

const (
	// StageDownloading streams the archive to disk.
	StageDownloading Stage = "downloading"

	// StageExtracting unpacks the archive into its working directory.
	StageExtracting Stage = "extracting"

	// StageConverting locates charts, converts them and mirrors song directories.
	StageConverting Stage = "converting"

	// StageDone marks a finished run. It is never emitted in a ProgressEvent.
	StageDone Stage = "done"
)

// ProgressEvent is a progress update for a single pack.
//
// Downloaded never decreases within the downloading stage. For the extracting
// and converting stages Downloaded and Total are both 100, marking stage entry.
type ProgressEvent struct {
	PackID     PackID `json:"packId"`
	Downloaded uint64 `json:"downloaded"`
	Total      uint64 `json:"total"`
	Stage      Stage  `json:"stage"`
}

// Percent returns the completed fraction in [0, 1], or 0 when Total is unknown.
func (e ProgressEvent) Percent() float64 {
	if e.Total == 0 {
		return 0
	}
	p := float64(e.Downloaded) / float64(e.Total)
	if p > 1 {
		return 1
	}
	return p
}

// ProgressFunc receives progress events. A nil ProgressFunc is valid and drops events.
type ProgressFunc func(ProgressEvent)

// Emit calls f when it is not nil.
func (f ProgressFunc) Emit(e ProgressEvent) {
	if f != nil {
		f(e)
	}
}

// Artifact is one converted output of a chart source file.
type Artifact struct {
	// Variant names the output, usually a difficulty such as "Hard".
	Variant string

	// Data holds the encoded chart.
	Data []byte
}

// SongTags is song metadata found beside a chart, such as an audio file's
// ID3 title and artist.
type SongTags struct {
	Title  string
	Artist string
}

// DefaultArchiveName is used when a URL has no usable final path segment.
const DefaultArchiveName = "pack.zip"

// ArchiveNameFromURL derives the local archive file name from a download URL.
//
// The final path segment is used with any query string or fragment removed.
//
// Example:
//
//	ArchiveNameFromURL("https://host/packs/Pack%201.zip?sig=x") // "Pack%201.zip"
//	ArchiveNameFromURL("https://host/")                        // "pack.zip"
func ArchiveNameFromURL(rawURL string) string {
	name := rawURL
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == "." || name == ".." {
		return DefaultArchiveName
	}
	return name
}

// WorkDirFor returns the extraction directory for an archive: the archive's
// base name without its extension, in the archive's parent directory.
// An archive without an extension would collide with its own directory, so
// it gets a ".d" suffix instead.
//
// Example:
//
//	WorkDirFor("downloads/Pack.zip") // "downloads/Pack"
//	WorkDirFor("downloads/download") // "downloads/download.d"
func WorkDirFor(archivePath string) string {
	base := filepath.Base(archivePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == base {
		stem = base + ".d"
	}
	return filepath.Join(filepath.Dir(archivePath), stem)
}

// ArtifactName returns the file name for an artifact of a chart source file:
// "{base} - {variant}.{ext}".
func ArtifactName(sourcePath, variant, ext string) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + " - " + variant + "." + strings.TrimPrefix(ext, ".")
}
