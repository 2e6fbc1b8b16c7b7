package song

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/handiism/chartpack/internal/model"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func writeMP3(t *testing.T, path, title, artist string) {
	t.Helper()
	writeFile(t, path, []byte("not really audio"))

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	defer tag.Close()
	tag.SetTitle(title)
	tag.SetArtist(artist)
	if err := tag.Save(); err != nil {
		t.Fatal(err)
	}
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
	writeFile(t, path, buf.Bytes())
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	writeMP3(t, filepath.Join(dir, "song.mp3"), "Tetris", "Traditional")
	writeFile(t, filepath.Join(dir, "chart.sm"), []byte("#TITLE:x;"))
	writeFile(t, filepath.Join(dir, "banner.png"), []byte("png"))
	writeFile(t, filepath.Join(dir, "song-bg.jpg"), []byte("jpg"))

	info, err := Inspect(dir)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	want := Info{
		Dir:        dir,
		Title:      "Tetris",
		Artist:     "Traditional",
		Audio:      "song.mp3",
		Background: "song-bg.jpg",
	}
	if !reflect.DeepEqual(info, want) {
		t.Errorf("Inspect() = %+v, want %+v", info, want)
	}
}

func TestInspect_NoTagsOrImages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "music.ogg"), []byte("ogg"))
	writeFile(t, filepath.Join(dir, "cover.JPG"), []byte("jpg"))

	info, err := Inspect(dir)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if info.Audio != "music.ogg" {
		t.Errorf("Audio = %q, want music.ogg", info.Audio)
	}
	if info.Background != "cover.JPG" {
		t.Errorf("Background = %q, want cover.JPG", info.Background)
	}
	if info.Title != "" || info.Artist != "" {
		t.Errorf("expected no tags, got %q / %q", info.Title, info.Artist)
	}
}

func TestInspect_MissingDir(t *testing.T) {
	if _, err := Inspect(filepath.Join(t.TempDir(), "gone")); err == nil {
		t.Error("Inspect() expected error for missing directory")
	}
}

func TestPrepare_ShrinksLargeJPEGs(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "bg.jpg"), 400, 200)
	writeJPEG(t, filepath.Join(dir, "small.jpeg"), 50, 50)
	writeFile(t, filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"))

	info, err := NewPreparer(100, nil).Prepare(dir)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !reflect.DeepEqual(info.Resized, []string{"bg.jpg"}) {
		t.Errorf("Resized = %v, want [bg.jpg]", info.Resized)
	}

	f, err := os.Open(filepath.Join(dir, "bg.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("resized to %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
}

func TestPrepare_ResizeDisabled(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "bg.jpg"), 400, 200)

	info, err := NewPreparer(0, nil).Prepare(dir)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if len(info.Resized) != 0 {
		t.Errorf("Resized = %v, want none", info.Resized)
	}
}

func TestPrepareAll_KeepsGoing(t *testing.T) {
	good := t.TempDir()
	writeFile(t, filepath.Join(good, "a.ogg"), []byte("ogg"))
	missing := filepath.Join(t.TempDir(), "missing")

	songs := NewPreparer(0, nil).PrepareAll([]string{missing, good})
	if len(songs) != 2 {
		t.Fatalf("PrepareAll() returned %d songs, want 2", len(songs))
	}
	if songs[0].Dir != missing || songs[1].Audio != "a.ogg" {
		t.Errorf("PrepareAll() = %+v", songs)
	}
}

func TestTagsByDir(t *testing.T) {
	songs := []Info{
		{Dir: "A", Title: "Tetris", Artist: "Traditional"},
		{Dir: "B"},
		{Dir: "C", Artist: "Only Artist"},
	}

	got := TagsByDir(songs)
	want := map[string]model.SongTags{
		"A": {Title: "Tetris", Artist: "Traditional"},
		"C": {Artist: "Only Artist"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TagsByDir() = %#v, want %#v", got, want)
	}
}
