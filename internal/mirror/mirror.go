package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	ioutils "github.com/handiism/chartpack/internal/io"
	"github.com/handiism/chartpack/internal/model"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// Config holds the mirror destination.
type Config struct {
	// Root is a local directory or a bucket URL (mem://, file://, s3://, gs://).
	// Empty disables mirroring.
	Root string

	// Bucket, when set, is used instead of opening Root. The caller keeps
	// ownership and must close it.
	Bucket *blob.Bucket

	// Logger receives per-directory progress. Nil discards output.
	Logger *log.Logger
}

// Mirror copies song directories into a destination root, replacing any
// previous copy with the same leaf name.
type Mirror struct {
	root   string
	bucket *blob.Bucket
	logger *log.Logger
}

// New creates a Mirror from cfg.
func New(cfg Config) *Mirror {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Mirror{root: cfg.Root, bucket: cfg.Bucket, logger: logger}
}

// Enabled reports whether a destination root is configured.
func (m *Mirror) Enabled() bool {
	return m.root != "" || m.bucket != nil
}

// IsBucketURL reports whether root names a blob bucket rather than a local path.
func IsBucketURL(root string) bool {
	return strings.Contains(root, "://")
}

// sink is one mirror destination.
type sink interface {
	// replace removes any previous copy of leaf and copies src in its place.
	// It returns a description of where the copy went.
	replace(ctx context.Context, src, leaf string) (string, error)
	close() error
}

// Mirror copies each directory in dirs to root/leaf(dir) and returns the
// targets in the same order.
//
// An empty root is a no-op. The first directory that cannot be replaced stops
// the mirror; directories before it stay mirrored. When two directories share
// a leaf name the later one wins.
func (m *Mirror) Mirror(ctx context.Context, dirs []string) (targets []string, err error) {
	if !m.Enabled() {
		return nil, nil
	}

	s, err := m.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = model.PathError(model.KindIO, m.root, cerr)
		}
	}()

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return targets, model.PathError(model.KindIO, dir, err)
		}

		leaf := filepath.Base(filepath.Clean(dir))
		if leaf == "." || leaf == string(filepath.Separator) {
			return targets, model.PathError(model.KindIO, dir, errors.New("directory has no leaf name"))
		}

		target, err := s.replace(ctx, dir, leaf)
		if err != nil {
			m.logger.Error("mirror song", "dir", dir, "err", err)
			return targets, err
		}
		m.logger.Debug("mirrored song", "dir", dir, "target", target)
		targets = append(targets, target)
	}

	m.logger.Info("mirror complete", "root", m.root, "dirs", len(targets))
	return targets, nil
}

func (m *Mirror) open(ctx context.Context) (sink, error) {
	if m.bucket != nil {
		return &bucketSink{bucket: m.bucket, logger: m.logger, borrowed: true}, nil
	}
	if IsBucketURL(m.root) {
		bucket, err := blob.OpenBucket(ctx, m.root)
		if err != nil {
			return nil, model.PathError(model.KindConfig, m.root, err)
		}
		return &bucketSink{bucket: bucket, logger: m.logger}, nil
	}

	if err := ioutils.EnsureDir(m.root); err != nil {
		return nil, model.PathError(model.KindConfig, m.root, err)
	}
	return localSink(m.root), nil
}

type localSink string

func (root localSink) replace(_ context.Context, src, leaf string) (string, error) {
	target := filepath.Join(string(root), leaf)
	if err := ioutils.ReplaceDir(src, target); err != nil {
		return "", model.PathError(model.KindIO, target, err)
	}
	return target, nil
}

func (localSink) close() error { return nil }

// bucketSink stores a song directory as objects under "leaf/".
// Symlinks have no object equivalent and are skipped.
type bucketSink struct {
	bucket   *blob.Bucket
	logger   *log.Logger
	borrowed bool
}

func (b *bucketSink) replace(ctx context.Context, src, leaf string) (string, error) {
	prefix := leaf + "/"

	if err := b.deletePrefix(ctx, prefix); err != nil {
		return "", model.PathError(model.KindIO, prefix, err)
	}

	err := filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			if d.Type()&os.ModeSymlink != 0 {
				b.logger.Debug("skip symlink", "path", path)
			}
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return b.upload(ctx, path, prefix+filepath.ToSlash(rel))
	})
	if err != nil {
		return "", model.PathError(model.KindIO, src, err)
	}

	return prefix, nil
}

func (b *bucketSink) deletePrefix(ctx context.Context, prefix string) error {
	var keys []string
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("list %s: %w", prefix, err)
		}
		keys = append(keys, obj.Key)
	}

	for _, key := range keys {
		if err := b.bucket.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

func (b *bucketSink) upload(ctx context.Context, path, key string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := b.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("open writer %s: %w", key, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	return nil
}

func (b *bucketSink) close() error {
	if b.borrowed {
		return nil
	}
	return b.bucket.Close()
}
