package song

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/charmbracelet/log"
	ioutils "github.com/handiism/chartpack/internal/io"
	"github.com/handiism/chartpack/internal/model"
)

// Info describes a song directory after conversion.
type Info struct {
	Dir string

	// Title and Artist come from the ID3 tag of the first MP3, if any.
	Title  string
	Artist string

	// Audio and Background are file names inside Dir, empty when missing.
	Audio      string
	Background string

	// Resized lists the images that were downscaled in place.
	Resized []string
}

// Tags returns the title and artist read from the audio file.
func (i Info) Tags() model.SongTags {
	return model.SongTags{Title: i.Title, Artist: i.Artist}
}

// TagsByDir maps each song directory with a title or artist to its tags.
func TagsByDir(songs []Info) map[string]model.SongTags {
	tags := make(map[string]model.SongTags, len(songs))
	for _, s := range songs {
		if s.Title == "" && s.Artist == "" {
			continue
		}
		tags[s.Dir] = s.Tags()
	}
	return tags
}

var (
	audioExts = map[string]bool{".mp3": true, ".ogg": true, ".oga": true, ".wav": true, ".flac": true}
	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
)

// Preparer inspects song directories and shrinks oversized JPEG images.
//
// Example:
//
//	p := song.NewPreparer(1920, logger)
//	songs := p.PrepareAll(dirs)
type Preparer struct {
	maxImageSide int
	images       *ioutils.ImageService
	logger       *log.Logger
}

// NewPreparer creates a Preparer. A maxImageSide of zero disables resizing.
// A nil logger discards output.
func NewPreparer(maxImageSide int, logger *log.Logger) *Preparer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Preparer{
		maxImageSide: maxImageSide,
		images:       ioutils.NewImageService(),
		logger:       logger,
	}
}

// PrepareAll runs Prepare on every directory. Failures are logged and the
// directory is still reported with whatever was found.
func (p *Preparer) PrepareAll(dirs []string) []Info {
	songs := make([]Info, 0, len(dirs))
	for _, dir := range dirs {
		info, err := p.Prepare(dir)
		if err != nil {
			p.logger.Warn("prepare song", "dir", dir, "err", err)
		}
		songs = append(songs, info)
	}
	return songs
}

// Prepare inspects dir and then downscales its JPEG images. An unreadable
// tag is returned as the error but does not stop the resizing.
//
// A JPEG that cannot be decoded is left alone and does not fail the call.
func (p *Preparer) Prepare(dir string) (Info, error) {
	info, inspectErr := Inspect(dir)
	if p.maxImageSide <= 0 {
		return info, inspectErr
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return info, model.PathError(model.KindIO, dir, err)
	}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.Type().IsRegular() || (ext != ".jpg" && ext != ".jpeg") {
			continue
		}

		path := filepath.Join(dir, e.Name())
		resized, err := p.images.ShrinkJPEGFile(path, p.maxImageSide)
		if err != nil {
			p.logger.Debug("skip image", "path", path, "err", err)
			continue
		}
		if resized {
			p.logger.Debug("resized image", "path", path, "max", p.maxImageSide)
			info.Resized = append(info.Resized, e.Name())
		}
	}

	return info, inspectErr
}

// Inspect finds the audio and background files of a song directory and reads
// the title and artist from the first MP3.
//
// The background is the first image whose name contains "bg" or
// "background", or the first image when none does. Files are considered in
// name order. A missing tag is not an error.
func Inspect(dir string) (Info, error) {
	info := Info{Dir: dir}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return info, model.PathError(model.KindIO, dir, err)
	}

	var firstImage, firstMP3 string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))

		switch {
		case audioExts[ext]:
			if info.Audio == "" {
				info.Audio = name
			}
			if ext == ".mp3" && firstMP3 == "" {
				firstMP3 = name
			}
		case imageExts[ext]:
			if firstImage == "" {
				firstImage = name
			}
			lower := strings.ToLower(name)
			if info.Background == "" && (strings.Contains(lower, "bg") || strings.Contains(lower, "background")) {
				info.Background = name
			}
		}
	}
	if info.Background == "" {
		info.Background = firstImage
	}

	if firstMP3 != "" {
		title, artist, err := ReadTags(filepath.Join(dir, firstMP3))
		if err != nil {
			return info, err
		}
		info.Title, info.Artist = title, artist
	}

	return info, nil
}

// ReadTags returns the title and artist frames of an MP3 file.
func ReadTags(path string) (title, artist string, err error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Title", "Artist"}})
	if err != nil {
		return "", "", model.PathError(model.KindIO, path, err)
	}
	defer tag.Close()

	return tag.Title(), tag.Artist(), nil
}
