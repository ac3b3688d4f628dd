// Package storage provides whole-object blob storage with filesystem and
// Azure Blob Storage implementations.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/docket/pkg/lifecycle"
)

// System manages blob storage operations and lifecycle coordination.
//
// Upload replaces the object at key as a whole: readers observe either the
// previous object or the new one, never a partial write.
type System interface {
	// Start registers a startup hook that prepares the backing location.
	Start(lc *lifecycle.Coordinator) error
	// Upload writes data to the object at the given key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the object at the given key. The caller must close the reader.
	// Returns ErrNotFound if the object does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object at the given key. Returns ErrNotFound if the object does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether an object exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// New creates a storage system rooted at root. For the filesystem backend
// root is a directory; for Azure it is a key prefix inside the configured
// container. No I/O happens until Start is called.
func New(cfg *Config, root string, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage", "backend", string(cfg.Backend), "root", root)

	switch cfg.Backend {
	case Filesystem, "":
		return newFilesystem(root, logger), nil
	case Azure:
		return newAzure(cfg, root, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// ReadAll downloads the object at key and returns its contents.
func ReadAll(ctx context.Context, sys System, key string) ([]byte, error) {
	rc, err := sys.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
