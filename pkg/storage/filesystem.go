package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JaimeStill/docket/pkg/lifecycle"
)

type filesystem struct {
	root   string
	logger *slog.Logger
}

func newFilesystem(root string, logger *slog.Logger) *filesystem {
	return &filesystem{root: root, logger: logger}
}

func (f *filesystem) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() error {
		if err := os.MkdirAll(f.root, 0o755); err != nil {
			return fmt.Errorf("create storage root %s: %w", f.root, err)
		}
		f.logger.Debug("storage root ready")
		return nil
	})
	return nil
}

func (f *filesystem) Upload(ctx context.Context, key string, reader io.Reader, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeAtomic(f.path(key), reader); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (f *filesystem) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	file, err := os.Open(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return file, nil
}

func (f *filesystem) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := os.Remove(f.path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (f *filesystem) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	info, err := os.Stat(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return info.Mode().IsRegular(), nil
}

func (f *filesystem) path(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}

// writeAtomic streams reader into a temp file beside path, syncs it, and
// renames it over path.
func writeAtomic(path string, reader io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, reader); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true

	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
