package convert

import (
	"io/fs"
	"path/filepath"

	"github.com/handiism/chartpack/internal/model"
)

// Locate walks root and returns every regular file whose extension is exactly
// ext, plus the distinct parent directories of those files.
//
// Both slices are in walk order (lexical), so repeated calls over an
// unchanged tree return identical results. Directory symlinks are not
// followed. Any unreadable directory fails the walk.
//
// Example:
//
//	files, dirs, err := Locate("downloads/Pack", ".sm")
//	// files: [downloads/Pack/A/easy.sm downloads/Pack/A/hard.sm downloads/Pack/B/chart.sm]
//	// dirs:  [downloads/Pack/A downloads/Pack/B]
func Locate(root, ext string) (files, dirs []string, err error) {
	seen := make(map[string]struct{})

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return model.PathError(model.KindIO, path, walkErr)
		}
		if !d.Type().IsRegular() || filepath.Ext(path) != ext {
			return nil
		}

		files = append(files, path)
		dir := filepath.Dir(path)
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return files, dirs, nil
}
