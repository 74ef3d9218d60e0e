package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/markdave123-py/Paperlens/internal/core"
	objectclient "github.com/markdave123-py/Paperlens/internal/core/object-client"
)

var (
	_ core.FileStore = (*LocalFileStore)(nil)
	_ core.FileStore = (*ObjectFileStore)(nil)
)

// LocalFileStore reads source files recorded relative to an upload root.
type LocalFileStore struct {
	root string
}

func NewLocalFileStore(root string) *LocalFileStore {
	if root == "" {
		root = "."
	}
	return &LocalFileStore{root: filepath.Clean(root)}
}

// resolve joins p under the root. Paths that escape the root report ok=false.
func (s *LocalFileStore) resolve(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	full := filepath.Join(s.root, filepath.FromSlash(p))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

func (s *LocalFileStore) Exists(_ context.Context, p string) (bool, error) {
	full, ok := s.resolve(p)
	if !ok {
		return false, nil
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", p, err)
	}
	return !info.IsDir(), nil
}

func (s *LocalFileStore) Read(_ context.Context, p string) ([]byte, error) {
	full, ok := s.resolve(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrFileMissing, p)
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrFileMissing, p)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// ObjectFileStore reads source files from object storage. Recorded paths may be
// plain keys or full object URLs.
type ObjectFileStore struct {
	client core.ObjectClient
}

func NewObjectFileStore(client core.ObjectClient) *ObjectFileStore {
	return &ObjectFileStore{client: client}
}

func (s *ObjectFileStore) Exists(ctx context.Context, p string) (bool, error) {
	_, key := objectclient.SplitURL(p)
	if key == "" {
		return false, nil
	}
	return s.client.Exists(ctx, key)
}

func (s *ObjectFileStore) Read(ctx context.Context, p string) ([]byte, error) {
	_, key := objectclient.SplitURL(p)
	if key == "" {
		return nil, fmt.Errorf("%w: %s", core.ErrFileMissing, p)
	}
	return s.client.GetFile(ctx, key)
}
