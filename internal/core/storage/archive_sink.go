package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/markdave123-py/Paperlens/internal/core"
)

var (
	_ core.ArchiveSink = (*LocalArchiveSink)(nil)
	_ core.ArchiveSink = (*ObjectArchiveSink)(nil)
)

// LocalArchiveSink writes rendered reports into a directory on disk.
type LocalArchiveSink struct {
	dir string
}

func NewLocalArchiveSink(dir string) *LocalArchiveSink {
	return &LocalArchiveSink{dir: dir}
}

func (s *LocalArchiveSink) Save(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	full := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}
	return filepath.ToSlash(full), nil
}

// ObjectArchiveSink uploads rendered reports under a key prefix.
type ObjectArchiveSink struct {
	client core.ObjectClient
	prefix string
}

func NewObjectArchiveSink(client core.ObjectClient, prefix string) *ObjectArchiveSink {
	return &ObjectArchiveSink{client: client, prefix: prefix}
}

func (s *ObjectArchiveSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(s.prefix, path.Base(name))
	url, err := s.client.UploadFile(ctx, key, data, "application/pdf")
	if err != nil {
		return "", fmt.Errorf("upload archive: %w", err)
	}
	return url, nil
}
