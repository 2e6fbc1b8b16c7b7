package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/handiism/chartpack/internal/model"
)

// Extract unpacks the zip at archivePath into its working directory and
// returns that directory.
//
// The working directory is model.WorkDirFor(archivePath). It is created if
// missing and never cleaned, so leftovers from an earlier run stay in place
// unless the archive overwrites them.
//
// Extraction stops at the first entry that cannot be read or written. Files
// extracted before that point remain on disk.
func Extract(archivePath string) (workDir string, err error) {
	workDir = model.WorkDirFor(archivePath)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", model.PathError(model.KindIO, workDir, err)
	}

	zipReader, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", model.PathError(model.KindArchive, archivePath, err)
	}
	defer zipReader.Close()

	for _, file := range zipReader.File {
		if err := extractEntry(file, workDir); err != nil {
			return "", err
		}
	}

	return workDir, nil
}

// extractEntry writes a single zip entry below workDir.
func extractEntry(file *zip.File, workDir string) error {
	destPath, err := entryPath(workDir, file.Name)
	if err != nil {
		return model.PathError(model.KindArchive, file.Name, err)
	}

	if file.FileInfo().IsDir() {
		if err := os.MkdirAll(destPath, 0755); err != nil {
			return model.PathError(model.KindIO, destPath, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return model.PathError(model.KindIO, filepath.Dir(destPath), err)
	}

	rc, err := file.Open()
	if err != nil {
		return model.PathError(model.KindArchive, file.Name, err)
	}
	defer rc.Close()

	// Symlink entries are written as regular files holding the link target.
	perm := file.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}
	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return model.PathError(model.KindIO, destPath, err)
	}
	defer destFile.Close()

	if err := copyEntry(destFile, rc); err != nil {
		var rerr *entryReadError
		if errors.As(err, &rerr) {
			return model.PathError(model.KindArchive, file.Name, rerr.err)
		}
		return model.PathError(model.KindIO, destPath, err)
	}
	if err := destFile.Close(); err != nil {
		return model.PathError(model.KindIO, destPath, err)
	}
	return nil
}

// copyEntry copies a decompressed entry. Decompression and checksum failures
// come back as *entryReadError; anything else failed writing dst.
func copyEntry(dst io.Writer, src io.Reader) error {
	//nolint:gosec // G110: packs come from a host the user chose to download from
	_, err := io.Copy(dst, entryReader{src})
	return err
}

// entryReader marks read failures so they can be told apart from write
// failures after io.Copy.
type entryReader struct {
	r io.Reader
}

func (e entryReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil && err != io.EOF {
		err = &entryReadError{err: err}
	}
	return n, err
}

type entryReadError struct {
	err error
}

func (e *entryReadError) Error() string { return e.err.Error() }
func (e *entryReadError) Unwrap() error { return e.err }

// entryPath resolves an entry name inside workDir, rejecting names that escape it.
func entryPath(workDir, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("invalid entry name %q", name)
	}

	destPath := filepath.Join(workDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(workDir, destPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes the working directory", name)
	}
	return destPath, nil
}
