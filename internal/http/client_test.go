package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/handiism/chartpack/internal/model"
)

type update struct {
	written, total int64
}

func testData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 256)
	}
	return data
}

func TestDownload_WritesBodyAndFinalProgress(t *testing.T) {
	data := testData(300 * 1024)

	var gotAccept, gotOrigin string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotOrigin = r.Header.Get("Origin")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "downloads")
	client := NewClient(Options{Origin: "https://packs.example"})

	var updates []update
	path, total, err := client.Download(context.Background(), server.URL+"/files/Pack.zip?sig=1", dest, func(written, total int64) {
		updates = append(updates, update{written, total})
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	if gotAccept != "*/*" {
		t.Errorf("Accept = %q, want */*", gotAccept)
	}
	if gotOrigin != "https://packs.example" {
		t.Errorf("Origin = %q", gotOrigin)
	}
	if path != filepath.Join(dest, "Pack.zip") {
		t.Errorf("path = %q", path)
	}
	if total != int64(len(data)) {
		t.Errorf("total = %d, want %d", total, len(data))
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if !bytes.Equal(written, data) {
		t.Error("downloaded content mismatch")
	}

	if len(updates) == 0 {
		t.Fatal("no progress updates")
	}
	last := updates[len(updates)-1]
	if last.written != last.total || last.written != int64(len(data)) {
		t.Errorf("final update = %+v, want written == total == %d", last, len(data))
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].written < updates[i-1].written {
			t.Errorf("progress went backwards: %+v then %+v", updates[i-1], updates[i])
		}
	}
}

func TestDownload_UnknownLengthUsesByteCount(t *testing.T) {
	data := testData(64 * 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flushing before the body is complete forces chunked encoding.
		w.Write(data[:1024])
		w.(http.Flusher).Flush()
		w.Write(data[1024:])
	}))
	defer server.Close()

	client := NewClient(Options{})
	var last update
	_, total, err := client.Download(context.Background(), server.URL+"/p.zip", t.TempDir(), func(written, total int64) {
		last = update{written, total}
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if total != int64(len(data)) {
		t.Errorf("total = %d", total)
	}
	if last.total != int64(len(data)) || last.written != int64(len(data)) {
		t.Errorf("final update = %+v", last)
	}
}

func TestDownload_DefaultFileName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("zip"))
	}))
	defer server.Close()

	dest := t.TempDir()
	path, _, err := NewClient(Options{}).Download(context.Background(), server.URL+"/", dest, nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(path) != model.DefaultArchiveName {
		t.Errorf("file name = %q, want %q", filepath.Base(path), model.DefaultArchiveName)
	}
}

func TestDownload_HTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "downloads")
	_, _, err := NewClient(Options{}).Download(context.Background(), server.URL+"/missing.zip", dest, nil)
	if !model.IsKind(err, model.KindHTTPStatus) {
		t.Fatalf("err = %v, want KindHTTPStatus", err)
	}
	if _, statErr := os.Stat(filepath.Join(dest, "missing.zip")); !os.IsNotExist(statErr) {
		t.Errorf("no file should be created for a rejected response, stat err = %v", statErr)
	}
}

func TestDownload_InvalidURL(t *testing.T) {
	for _, raw := range []string{"not a url", "ftp://example.com/p.zip", "/relative/p.zip", "http://"} {
		_, _, err := NewClient(Options{}).Download(context.Background(), raw, t.TempDir(), nil)
		if !model.IsKind(err, model.KindURL) {
			t.Errorf("Download(%q) err = %v, want KindURL", raw, err)
		}
	}
}

func TestDownload_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL + "/p.zip"
	server.Close()

	_, _, err := NewClient(Options{}).Download(context.Background(), url, t.TempDir(), nil)
	if !model.IsKind(err, model.KindConnection) {
		t.Fatalf("err = %v, want KindConnection", err)
	}
}

func TestDownload_TruncatedBodyIsConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		w.Write([]byte("partial"))
	}))
	defer server.Close()

	dest := t.TempDir()
	_, _, err := NewClient(Options{}).Download(context.Background(), server.URL+"/p.zip", dest, nil)
	if !model.IsKind(err, model.KindConnection) {
		t.Fatalf("err = %v, want KindConnection", err)
	}
	// The partial file is left in place.
	if _, statErr := os.Stat(filepath.Join(dest, "p.zip")); statErr != nil {
		t.Errorf("partial file missing: %v", statErr)
	}
}

func TestProgressWriter_StepBoundary(t *testing.T) {
	clock := time.Unix(0, 0)
	var updates []update
	pw := newProgressWriter(&bytes.Buffer{}, 300*1024, func(w, total int64) {
		updates = append(updates, update{w, total})
	}, func() time.Time { return clock })

	pw.Write(make([]byte, 50*1024))
	if len(updates) != 0 {
		t.Fatalf("unexpected update before boundary: %+v", updates)
	}
	pw.Write(make([]byte, 50*1024))
	if len(updates) != 1 || updates[0].written != ProgressStep {
		t.Fatalf("updates = %+v, want one at %d", updates, ProgressStep)
	}
	if updates[0].total != 300*1024 {
		t.Errorf("total = %d, want content length", updates[0].total)
	}
	pw.Write(make([]byte, 1))
	if len(updates) != 1 {
		t.Errorf("unexpected update off boundary: %+v", updates)
	}
}

func TestProgressWriter_Interval(t *testing.T) {
	clock := time.Unix(0, 0)
	var updates []update
	pw := newProgressWriter(&bytes.Buffer{}, 0, func(w, total int64) {
		updates = append(updates, update{w, total})
	}, func() time.Time { return clock })

	pw.Write([]byte("abc"))
	clock = clock.Add(499 * time.Millisecond)
	pw.Write([]byte("d"))
	if len(updates) != 0 {
		t.Fatalf("update before interval: %+v", updates)
	}

	clock = clock.Add(time.Millisecond)
	pw.Write([]byte("e"))
	if len(updates) != 1 || updates[0].written != 5 || updates[0].total != 0 {
		t.Fatalf("updates = %+v, want one at 5 with unknown total", updates)
	}

	pw.Flush()
	last := updates[len(updates)-1]
	if last.written != 5 || last.total != 5 {
		t.Errorf("Flush update = %+v", last)
	}
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"pack"}`))
	}))
	defer server.Close()

	var v struct {
		Name string `json:"name"`
	}
	if err := NewClient(Options{}).GetJSON(context.Background(), server.URL, &v); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if v.Name != "pack" {
		t.Errorf("Name = %q", v.Name)
	}
}
